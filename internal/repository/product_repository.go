package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mylover-shop/internal/domain"
	"mylover-shop/internal/listing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductSlugTaken = errors.New("product with this slug already exists")
)

// ProductFilter narrows a product list. Zero values mean "no restriction";
// CategorySlug treats the "all" sentinel the same as absent.
type ProductFilter struct {
	Query         string
	Status        string
	CategorySlug  string
	PublishedOnly bool
	MatchTags     bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product, categoryIDs []uuid.UUID) error
	Update(ctx context.Context, product *domain.Product, categoryIDs *[]uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.Product, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, filter ProductFilter, params listing.Params) ([]*domain.ProductListItem, int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Sortable columns, keyed by the normalized sort keys from internal/listing.
// Anything else falls back to updated_at.
var productSortColumns = map[string]string{
	"name":      "p.name",
	"price":     "p.price",
	"stock":     "p.stock",
	"status":    "p.status",
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
}

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.compare_at, p.status, p.stock, p.images, p.tags, p.seo_title, p.seo_desc, p.created_at, p.updated_at`

// Create inserts a product and its category links in one transaction.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	images, tags, err := encodeStringLists(product.Images, product.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, slug, description, price, compare_at, status, stock, images, tags, seo_title, seo_desc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		nullableString(product.Description),
		product.Price,
		nullableDecimal(product.CompareAt),
		product.Status,
		product.Stock,
		images,
		tags,
		nullableString(product.SEOTitle),
		nullableString(product.SEODesc),
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductSlugTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := linkCategories(ctx, tx, product.ID, categoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product create: %w", err)
	}
	return nil
}

// Update rewrites the product row. When categoryIDs is non-nil the category
// links are replaced with the given set; nil leaves them untouched.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, categoryIDs *[]uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	images, tags, err := encodeStringLists(product.Images, product.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, compare_at = $6,
		    status = $7, stock = $8, images = $9, tags = $10, seo_title = $11,
		    seo_desc = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		nullableString(product.Description),
		product.Price,
		nullableDecimal(product.CompareAt),
		product.Status,
		product.Stock,
		images,
		tags,
		nullableString(product.SEOTitle),
		nullableString(product.SEODesc),
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductSlugTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to clear category links: %w", err)
		}
		if err := linkCategories(ctx, tx, product.ID, *categoryIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product update: %w", err)
	}
	return nil
}

// Delete removes a product unconditionally. Category links cascade.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product with its category references.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1`, productColumns)
	return r.findOne(ctx, query, id)
}

// FindBySlug retrieves a product by slug, optionally restricted to the
// published status for storefront reads.
func (r *productRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.slug = $1`, productColumns)
	if publishedOnly {
		query += ` AND p.status = 'published'`
	}
	return r.findOne(ctx, query, slug)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var (
		product     domain.Product
		description sql.NullString
		compareAt   decimal.NullDecimal
		images      []byte
		tags        []byte
		seoTitle    sql.NullString
		seoDesc     sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&description,
		&product.Price,
		&compareAt,
		&product.Status,
		&product.Stock,
		&images,
		&tags,
		&seoTitle,
		&seoDesc,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	product.Description = description.String
	product.SEOTitle = seoTitle.String
	product.SEODesc = seoDesc.String
	if compareAt.Valid {
		product.CompareAt = &compareAt.Decimal
	}
	if err := decodeStringLists(images, tags, &product.Images, &product.Tags); err != nil {
		return nil, err
	}

	refs, err := r.categoryRefs(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.Categories = refs

	return &product, nil
}

// SlugExists probes slug uniqueness, optionally excluding one product (the
// one being updated).
func (r *productRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to probe product slug: %w", err)
	}
	return exists, nil
}

// List retrieves a filtered, sorted page of products plus the total matching
// count. The fetch and the count are two independent queries over the same
// filter; they are not transactionally consistent with each other.
func (r *productRepository) List(ctx context.Context, filter ProductFilter, params listing.Params) ([]*domain.ProductListItem, int, error) {
	where, args := buildProductFilter(filter)

	countQuery := "SELECT COUNT(*) FROM products p " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortColumn, ok := productSortColumns[params.Sort]
	if !ok {
		sortColumn = "p.updated_at"
	}
	direction := "DESC"
	if params.Dir == listing.Asc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.price, p.compare_at, p.status, p.stock, p.images, p.updated_at,
		       COALESCE((
		           SELECT jsonb_agg(c.name ORDER BY c.name)
		           FROM product_categories pc
		           JOIN categories c ON c.id = pc.category_id
		           WHERE pc.product_id = p.id
		       ), '[]'::jsonb) AS category_names
		FROM products p
		%s
		ORDER BY %s %s, p.id
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, direction, len(args)+1, len(args)+2)

	args = append(args, params.PerPage, params.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	items := []*domain.ProductListItem{}
	for rows.Next() {
		var (
			item          domain.ProductListItem
			compareAt     decimal.NullDecimal
			images        []byte
			categoryNames []byte
		)
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Slug,
			&item.Price,
			&compareAt,
			&item.Status,
			&item.Stock,
			&images,
			&item.UpdatedAt,
			&categoryNames,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}

		if compareAt.Valid {
			item.CompareAt = &compareAt.Decimal
		}
		if err := decodeStringLists(images, categoryNames, &item.Images, &item.Categories); err != nil {
			return nil, 0, err
		}
		items = append(items, &item)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return items, total, nil
}

// buildProductFilter assembles the WHERE clause shared by the paged fetch and
// the count query.
func buildProductFilter(filter ProductFilter) (string, []any) {
	conds := []string{}
	args := []any{}

	if filter.PublishedOnly {
		args = append(args, domain.StatusPublished)
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	} else if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		if filter.MatchTags {
			args = append(args, pattern, strings.ToLower(q))
			conds = append(conds, fmt.Sprintf(
				"(p.name ILIKE $%d OR p.slug ILIKE $%d OR jsonb_exists(p.tags, $%d))",
				len(args)-1, len(args)-1, len(args)))
		} else {
			args = append(args, pattern)
			conds = append(conds, fmt.Sprintf("(p.name ILIKE $%d OR p.slug ILIKE $%d)", len(args), len(args)))
		}
	}

	if filter.CategorySlug != "" && filter.CategorySlug != "all" {
		args = append(args, filter.CategorySlug)
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND c.slug = $%d
		)`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *productRepository) categoryRefs(ctx context.Context, productID uuid.UUID) ([]domain.CategoryRef, error) {
	query := `
		SELECT c.id, c.name, c.slug
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = $1
		ORDER BY c.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	refs := []domain.CategoryRef{}
	for rows.Next() {
		var ref domain.CategoryRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category reference: %w", err)
		}
		refs = append(refs, ref)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category references: %w", err)
	}
	return refs, nil
}

func linkCategories(ctx context.Context, tx *sql.Tx, productID uuid.UUID, categoryIDs []uuid.UUID) error {
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, categoryID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to link category %s: %w", categoryID, err)
		}
	}
	return nil
}

func encodeStringLists(images, tags []string) ([]byte, []byte, error) {
	encodedImages, err := json.Marshal(emptyIfNil(images))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode images: %w", err)
	}
	encodedTags, err := json.Marshal(emptyIfNil(tags))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return encodedImages, encodedTags, nil
}

func decodeStringLists(first, second []byte, firstOut, secondOut *[]string) error {
	if err := json.Unmarshal(first, firstOut); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	if err := json.Unmarshal(second, secondOut); err != nil {
		return fmt.Errorf("failed to decode string list: %w", err)
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
