package transport

import (
	"errors"
	"net/http"

	"mylover-shop/internal/listing"
	"mylover-shop/internal/middleware"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryHandler serves the back-office category endpoints.
type CategoryHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCategoryHandler(catalog service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"omitempty,max=80"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Slug *string `json:"slug" validate:"omitempty,max=80"`
}

// RegisterRoutes mounts the category CRUD endpoints.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /admin/api/categories. Items carry their product counts
// so "count" is a valid sort key.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := listing.AdminCategories.Normalize(
		query.Get("page"), query.Get("perPage"), query.Get("sort"), query.Get("dir"),
	)

	page, err := h.catalog.ListCategories(r.Context(), query.Get("q"), params)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get handles GET /admin/api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to get category", zap.Error(err), zap.String("id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Create handles POST /admin/api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if ves := middleware.FormatValidationErrors(err); len(ves) > 0 {
			middleware.RespondWithValidationErrors(w, ves)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.catalog.CreateCategory(r.Context(), actorFromRequest(r), service.CreateCategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to create category", zap.Error(err))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// Update handles PUT /admin/api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if ves := middleware.FormatValidationErrors(err); len(ves) > 0 {
			middleware.RespondWithValidationErrors(w, ves)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), actorFromRequest(r), id, service.UpdateCategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to update category", zap.Error(err), zap.String("id", id.String()))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// Delete handles DELETE /admin/api/categories/{id}. Categories with linked
// products are refused with a 409.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	err := h.catalog.DeleteCategory(r.Context(), actorFromRequest(r), id)
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to delete category", zap.Error(err), zap.String("id", id.String()))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
