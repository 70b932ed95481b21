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

// ShopHandler serves the public storefront endpoints. Only published
// products are visible here.
type ShopHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewShopHandler(catalog service.CatalogService, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes mounts the storefront endpoints. No auth.
func (h *ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{slug}", h.GetProductBySlug)
	r.Get("/categories", h.ListCategories)
}

// ListProducts handles GET /api/shop/products. The category query parameter
// accepts a slug, with "all" meaning no restriction.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := listing.ShopProducts.Normalize(
		query.Get("page"), query.Get("perPage"), query.Get("sort"), "",
	)

	page, err := h.catalog.ShopProducts(
		r.Context(), query.Get("q"), query.Get("category"), params.Sort, params,
	)
	if err != nil {
		h.logger.Error("Failed to list storefront products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetProductBySlug handles GET /api/shop/products/{slug}. Unpublished
// products 404 here even when they exist.
func (h *ShopHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.catalog.ShopProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get storefront product", zap.Error(err), zap.String("slug", slug))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories handles GET /api/shop/categories.
func (h *ShopHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ShopCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list storefront categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"items": categories})
}
