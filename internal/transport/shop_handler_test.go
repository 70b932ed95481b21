package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mylover-shop/internal/domain"
	"mylover-shop/internal/listing"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newShopRouter(stub *stubCatalogService) chi.Router {
	handler := NewShopHandler(stub, zap.NewNop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestShopListClampsToStorefrontBounds(t *testing.T) {
	var captured listing.Params
	var capturedSort string
	stub := &stubCatalogService{
		shopProducts: func(ctx context.Context, q, categorySlug, sort string, params listing.Params) (*service.ProductPage, error) {
			captured = params
			capturedSort = sort
			return &service.ProductPage{Items: []*domain.ProductListItem{}, Pages: 1}, nil
		},
	}
	router := newShopRouter(stub)

	req := httptest.NewRequest("GET", "/products?perPage=1000&sort=price-asc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if captured.PerPage != 48 {
		t.Errorf("expected perPage clamped to 48, got %d", captured.PerPage)
	}
	if capturedSort != "price-asc" {
		t.Errorf("expected sort key passthrough, got %q", capturedSort)
	}
}

func TestShopListDefaultsToFeatured(t *testing.T) {
	var capturedSort string
	stub := &stubCatalogService{
		shopProducts: func(ctx context.Context, q, categorySlug, sort string, params listing.Params) (*service.ProductPage, error) {
			capturedSort = sort
			return &service.ProductPage{Pages: 1}, nil
		},
	}
	router := newShopRouter(stub)

	req := httptest.NewRequest("GET", "/products?sort=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if capturedSort != "featured" {
		t.Errorf("expected unknown sort to fall back to featured, got %q", capturedSort)
	}
}

func TestShopListForwardsCategorySlug(t *testing.T) {
	var capturedCategory string
	stub := &stubCatalogService{
		shopProducts: func(ctx context.Context, q, categorySlug, sort string, params listing.Params) (*service.ProductPage, error) {
			capturedCategory = categorySlug
			return &service.ProductPage{Pages: 1}, nil
		},
	}
	router := newShopRouter(stub)

	req := httptest.NewRequest("GET", "/products?category=dresses", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if capturedCategory != "dresses" {
		t.Errorf("expected category slug dresses, got %q", capturedCategory)
	}
}

func TestShopProductBySlugHidesDrafts(t *testing.T) {
	stub := &stubCatalogService{
		shopBySlug: func(ctx context.Context, productSlug string) (*domain.Product, error) {
			return nil, repository.ErrProductNotFound
		},
	}
	router := newShopRouter(stub)

	req := httptest.NewRequest("GET", "/products/draft-item", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestShopCategoriesReturnsItems(t *testing.T) {
	stub := &stubCatalogService{
		shopCategories: func(ctx context.Context) ([]*domain.CategoryWithCount, error) {
			return []*domain.CategoryWithCount{
				{Category: domain.Category{Name: "Dresses", Slug: "dresses"}, ProductCount: 4},
			}, nil
		},
	}
	router := newShopRouter(stub)

	req := httptest.NewRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "dresses") || !strings.Contains(body, "productCount") {
		t.Errorf("unexpected body: %s", body)
	}
}
