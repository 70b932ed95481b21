package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mylover-shop/internal/domain"
	"mylover-shop/internal/listing"
	"mylover-shop/internal/repository"
	"mylover-shop/internal/slug"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrCategoryInUse signals the referential delete guard: a category with
// linked products cannot be removed.
var ErrCategoryInUse = errors.New("category has linked products")

// ValidationError reports a field-level problem with a mutation payload.
// No write is performed when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Actor identifies who performed an admin mutation, for the audit trail.
// A zero Actor records an anonymous entry.
type Actor struct {
	UserID    *uuid.UUID
	IP        string
	UserAgent string
}

// OptionalDecimal distinguishes an absent decimal field from an explicit
// null (clear) and from a value.
type OptionalDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

// UnmarshalJSON marks the field as present; a JSON null clears the value.
func (o *OptionalDecimal) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// CreateProductInput is a fully-typed create payload. Zero-value optionals
// take the documented defaults.
type CreateProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	CompareAt   *decimal.Decimal
	Status      string
	Stock       int
	Images      []string
	Tags        []string
	Categories  []uuid.UUID
	SEOTitle    string
	SEODesc     string
}

// UpdateProductInput applies partial-update semantics by construction: only
// fields with a non-nil pointer (or Set flag) are written.
type UpdateProductInput struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *decimal.Decimal
	CompareAt   OptionalDecimal
	Status      *string
	Stock       *int
	Images      *[]string
	Tags        *[]string
	Categories  *[]uuid.UUID
	SEOTitle    *string
	SEODesc     *string
}

// CreateCategoryInput is a fully-typed category create payload.
type CreateCategoryInput struct {
	Name string
	Slug string
}

// UpdateCategoryInput applies partial-update semantics for categories.
type UpdateCategoryInput struct {
	Name *string
	Slug *string
}

// ProductPage is one page of a product list.
type ProductPage struct {
	Items   []*domain.ProductListItem `json:"items"`
	Total   int                       `json:"total"`
	Page    int                       `json:"page"`
	PerPage int                       `json:"perPage"`
	Pages   int                       `json:"pages"`
}

// CategoryPage is one page of a category list with product counts.
type CategoryPage struct {
	Items   []*domain.CategoryWithCount `json:"items"`
	Total   int                         `json:"total"`
	Page    int                         `json:"page"`
	PerPage int                         `json:"perPage"`
	Pages   int                         `json:"pages"`
}

// CatalogService defines the catalog business logic for both the admin
// back-office and the public storefront.
type CatalogService interface {
	ListProducts(ctx context.Context, q, status string, params listing.Params) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	CreateProduct(ctx context.Context, actor Actor, in CreateProductInput) (uuid.UUID, error)
	UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, in UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error

	ListCategories(ctx context.Context, q string, params listing.Params) (*CategoryPage, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	CreateCategory(ctx context.Context, actor Actor, in CreateCategoryInput) (uuid.UUID, error)
	UpdateCategory(ctx context.Context, actor Actor, id uuid.UUID, in UpdateCategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error

	ShopProducts(ctx context.Context, q, categorySlug, sort string, params listing.Params) (*ProductPage, error)
	ShopProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error)
	ShopCategories(ctx context.Context) ([]*domain.CategoryWithCount, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	auditLogs  repository.AuditLogRepository
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	auditLogs repository.AuditLogRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		auditLogs:  auditLogs,
		logger:     logger,
	}
}

// ListProducts returns one admin page of products matching the free-text
// query and optional status filter.
func (s *catalogService) ListProducts(ctx context.Context, q, status string, params listing.Params) (*ProductPage, error) {
	if status != "" && !domain.ValidStatus(status) {
		status = ""
	}

	filter := repository.ProductFilter{Query: q, Status: status}
	items, total, err := s.products.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
		Pages:   listing.Pages(total, params.PerPage),
	}, nil
}

// GetProduct retrieves a product by ID with its categories.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// CreateProduct validates the payload, derives slug and SEO defaults, probes
// slug uniqueness, and inserts the product.
func (s *catalogService) CreateProduct(ctx context.Context, actor Actor, in CreateProductInput) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return uuid.Nil, invalid("name", "name is required")
	}

	productSlug := strings.TrimSpace(in.Slug)
	if productSlug == "" {
		productSlug = slug.Make(name)
	}
	if productSlug == "" {
		return uuid.Nil, invalid("slug", "a slug could not be derived from the name")
	}
	if !slug.Valid(productSlug) {
		return uuid.Nil, invalid("slug", "slug must contain only lowercase letters, digits and hyphens")
	}

	if in.Price.IsNegative() {
		return uuid.Nil, invalid("price", "price must not be negative")
	}
	if in.CompareAt != nil && !in.CompareAt.IsPositive() {
		return uuid.Nil, invalid("compareAt", "compareAt must be positive when present")
	}
	if in.Stock < 0 {
		return uuid.Nil, invalid("stock", "stock must not be negative")
	}

	status := in.Status
	if status == "" {
		status = string(domain.StatusDraft)
	}
	if !domain.ValidStatus(status) {
		return uuid.Nil, invalid("status", "status must be draft, published or archived")
	}

	seoTitle := strings.TrimSpace(in.SEOTitle)
	if seoTitle == "" {
		seoTitle = slug.SEOTitle(name)
	}
	seoDesc := strings.TrimSpace(in.SEODesc)
	if seoDesc == "" {
		seoDesc = slug.SEODescription(in.Description)
	}

	taken, err := s.products.SlugExists(ctx, productSlug, nil)
	if err != nil {
		return uuid.Nil, err
	}
	if taken {
		return uuid.Nil, repository.ErrProductSlugTaken
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Slug:        productSlug,
		Description: in.Description,
		Price:       in.Price,
		CompareAt:   in.CompareAt,
		Status:      domain.ProductStatus(status),
		Stock:       in.Stock,
		Images:      in.Images,
		Tags:        in.Tags,
		SEOTitle:    seoTitle,
		SEODesc:     seoDesc,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product, in.Categories); err != nil {
		return uuid.Nil, err
	}

	s.audit(ctx, actor, "product", product.ID.String(), "create", product)
	return product.ID, nil
}

// UpdateProduct applies the fields present in the payload onto the stored
// product. A provided-but-empty slug is re-derived from the incoming name
// when one is present.
func (s *catalogService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, in UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "name must not be empty")
		}
		product.Name = name
	}

	if in.Slug != nil || in.Name != nil {
		newSlug := product.Slug
		if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
			newSlug = strings.TrimSpace(*in.Slug)
		} else if in.Name != nil {
			newSlug = slug.Make(product.Name)
		}
		if !slug.Valid(newSlug) {
			return nil, invalid("slug", "slug must contain only lowercase letters, digits and hyphens")
		}
		product.Slug = newSlug
	}

	if in.Description != nil {
		product.Description = *in.Description
	}

	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, invalid("price", "price must not be negative")
		}
		product.Price = *in.Price
	}

	if in.CompareAt.Set {
		if in.CompareAt.Value != nil && !in.CompareAt.Value.IsPositive() {
			return nil, invalid("compareAt", "compareAt must be positive when present")
		}
		product.CompareAt = in.CompareAt.Value
	}

	if in.Status != nil {
		if !domain.ValidStatus(*in.Status) {
			return nil, invalid("status", "status must be draft, published or archived")
		}
		product.Status = domain.ProductStatus(*in.Status)
	}

	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, invalid("stock", "stock must not be negative")
		}
		product.Stock = *in.Stock
	}

	if in.Images != nil {
		product.Images = *in.Images
	}
	if in.Tags != nil {
		product.Tags = *in.Tags
	}

	if in.SEOTitle != nil {
		product.SEOTitle = strings.TrimSpace(*in.SEOTitle)
	} else if in.Name != nil {
		product.SEOTitle = slug.SEOTitle(product.Name)
	}
	if in.SEODesc != nil {
		product.SEODesc = strings.TrimSpace(*in.SEODesc)
	} else if in.Description != nil {
		product.SEODesc = slug.SEODescription(product.Description)
	}

	taken, err := s.products.SlugExists(ctx, product.Slug, &id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrProductSlugTaken
	}

	product.UpdatedAt = time.Now()
	if err := s.products.Update(ctx, product, in.Categories); err != nil {
		return nil, err
	}

	updated, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "product", id.String(), "update", updated)
	return updated, nil
}

// DeleteProduct removes a product unconditionally.
func (s *catalogService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "product", id.String(), "delete", nil)
	return nil
}

// ListCategories returns one admin page of categories with product counts.
func (s *catalogService) ListCategories(ctx context.Context, q string, params listing.Params) (*CategoryPage, error) {
	items, total, err := s.categories.List(ctx, q, params)
	if err != nil {
		return nil, err
	}

	return &CategoryPage{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
		Pages:   listing.Pages(total, params.PerPage),
	}, nil
}

// GetCategory retrieves a category by ID.
func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

// CreateCategory validates the payload, derives the slug when omitted,
// probes uniqueness and inserts the category.
func (s *catalogService) CreateCategory(ctx context.Context, actor Actor, in CreateCategoryInput) (uuid.UUID, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 {
		return uuid.Nil, invalid("name", "name must be at least 2 characters")
	}

	categorySlug := strings.TrimSpace(in.Slug)
	if categorySlug == "" {
		categorySlug = slug.Make(name)
	}
	if categorySlug == "" {
		return uuid.Nil, invalid("slug", "a slug could not be derived from the name")
	}
	if !slug.Valid(categorySlug) {
		return uuid.Nil, invalid("slug", "slug must contain only lowercase letters, digits and hyphens")
	}

	taken, err := s.categories.SlugExists(ctx, categorySlug, nil)
	if err != nil {
		return uuid.Nil, err
	}
	if taken {
		return uuid.Nil, repository.ErrCategorySlugTaken
	}

	now := time.Now()
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      categorySlug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return uuid.Nil, err
	}

	s.audit(ctx, actor, "category", category.ID.String(), "create", category)
	return category.ID, nil
}

// UpdateCategory applies the fields present in the payload.
func (s *catalogService) UpdateCategory(ctx context.Context, actor Actor, id uuid.UUID, in UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 {
			return nil, invalid("name", "name must be at least 2 characters")
		}
		category.Name = name
	}

	if in.Slug != nil {
		newSlug := strings.TrimSpace(*in.Slug)
		if !slug.Valid(newSlug) {
			return nil, invalid("slug", "slug must contain only lowercase letters, digits and hyphens")
		}
		category.Slug = newSlug
	}

	taken, err := s.categories.SlugExists(ctx, category.Slug, &id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, repository.ErrCategorySlugTaken
	}

	category.UpdatedAt = time.Now()
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, "category", id.String(), "update", category)
	return category, nil
}

// DeleteCategory removes a category unless products still reference it.
func (s *catalogService) DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error {
	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, actor, "category", id.String(), "delete", nil)
	return nil
}

// ShopProducts returns one storefront page of published products. The
// free-text query also matches exact lowercase tags, and a category slug
// other than "all" restricts to that category.
func (s *catalogService) ShopProducts(ctx context.Context, q, categorySlug, sort string, params listing.Params) (*ProductPage, error) {
	params.Sort, params.Dir = listing.ShopSort(sort)

	filter := repository.ProductFilter{
		Query:         q,
		CategorySlug:  categorySlug,
		PublishedOnly: true,
		MatchTags:     true,
	}

	items, total, err := s.products.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		PerPage: params.PerPage,
		Pages:   listing.Pages(total, params.PerPage),
	}, nil
}

// ShopProductBySlug retrieves a published product for the storefront detail
// page.
func (s *catalogService) ShopProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	return s.products.FindBySlug(ctx, productSlug, true)
}

// ShopCategories lists every category with its product count for the
// storefront filter bar.
func (s *catalogService) ShopCategories(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	return s.categories.ListAll(ctx)
}

// audit records a best-effort audit entry; failures are logged and never
// surfaced to the caller.
func (s *catalogService) audit(ctx context.Context, actor Actor, entity, entityID, action string, diff any) {
	if s.auditLogs == nil {
		return
	}

	var encoded []byte
	if diff != nil {
		if data, err := json.Marshal(diff); err == nil {
			encoded = data
		}
	}

	entry := &domain.AuditLog{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Diff:      encoded,
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		CreatedAt: time.Now(),
	}

	if err := s.auditLogs.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to write audit log entry",
			zap.String("entity", entity),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
