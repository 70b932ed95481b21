package transport

import (
	"errors"
	"net/http"

	"mylover-shop/internal/listing"
	"mylover-shop/internal/middleware"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler serves the back-office product endpoints.
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// CreateProductRequest is the create payload. Name is the only required
// field; slug, status and SEO fields are derived when absent.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Slug        string           `json:"slug" validate:"omitempty,max=80"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	CompareAt   *decimal.Decimal `json:"compareAt"`
	Status      string           `json:"status" validate:"omitempty,oneof=draft published archived"`
	Stock       int              `json:"stock" validate:"gte=0"`
	Images      []string         `json:"images" validate:"dive,max=2048"`
	Tags        []string         `json:"tags" validate:"dive,max=100"`
	Categories  []uuid.UUID      `json:"categories"`
	SEOTitle    string           `json:"seoTitle" validate:"max=60"`
	SEODesc     string           `json:"seoDesc" validate:"max=160"`
}

// UpdateProductRequest is the partial-update payload. Absent fields keep
// their stored values; compareAt distinguishes null from absent.
type UpdateProductRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1"`
	Slug        *string                 `json:"slug" validate:"omitempty,max=80"`
	Description *string                 `json:"description"`
	Price       *decimal.Decimal        `json:"price"`
	CompareAt   service.OptionalDecimal `json:"compareAt"`
	Status      *string                 `json:"status" validate:"omitempty,oneof=draft published archived"`
	Stock       *int                    `json:"stock" validate:"omitempty,gte=0"`
	Images      *[]string               `json:"images" validate:"omitempty,dive,max=2048"`
	Tags        *[]string               `json:"tags" validate:"omitempty,dive,max=100"`
	Categories  *[]uuid.UUID            `json:"categories"`
	SEOTitle    *string                 `json:"seoTitle" validate:"omitempty,max=60"`
	SEODesc     *string                 `json:"seoDesc" validate:"omitempty,max=160"`
}

// RegisterRoutes mounts the product CRUD endpoints. The caller is expected
// to have installed auth and role middleware on the router.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /admin/api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := listing.AdminProducts.Normalize(
		query.Get("page"), query.Get("perPage"), query.Get("sort"), query.Get("dir"),
	)

	page, err := h.catalog.ListProducts(r.Context(), query.Get("q"), query.Get("status"), params)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get handles GET /admin/api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("id", id.String()))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles POST /admin/api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if ves := middleware.FormatValidationErrors(err); len(ves) > 0 {
			middleware.RespondWithValidationErrors(w, ves)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CreateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       *req.Price,
		CompareAt:   req.CompareAt,
		Status:      req.Status,
		Stock:       req.Stock,
		Images:      req.Images,
		Tags:        req.Tags,
		Categories:  req.Categories,
		SEOTitle:    req.SEOTitle,
		SEODesc:     req.SEODesc,
	}

	id, err := h.catalog.CreateProduct(r.Context(), actorFromRequest(r), in)
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to create product", zap.Error(err))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// Update handles PUT /admin/api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if ves := middleware.FormatValidationErrors(err); len(ves) > 0 {
			middleware.RespondWithValidationErrors(w, ves)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.UpdateProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		CompareAt:   req.CompareAt,
		Status:      req.Status,
		Stock:       req.Stock,
		Images:      req.Images,
		Tags:        req.Tags,
		Categories:  req.Categories,
		SEOTitle:    req.SEOTitle,
		SEODesc:     req.SEODesc,
	}

	product, err := h.catalog.UpdateProduct(r.Context(), actorFromRequest(r), id, in)
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to update product", zap.Error(err), zap.String("id", id.String()))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /admin/api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	err := h.catalog.DeleteProduct(r.Context(), actorFromRequest(r), id)
	if respondCatalogError(w, err) {
		if !isClientError(err) {
			h.logger.Error("Failed to delete product", zap.Error(err), zap.String("id", id.String()))
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
