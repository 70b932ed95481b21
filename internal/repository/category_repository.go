package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mylover-shop/internal/domain"
	"mylover-shop/internal/listing"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategorySlugTaken = errors.New("category with this slug already exists")
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, query string, params listing.Params) ([]*domain.CategoryWithCount, int, error)
	ListAll(ctx context.Context) ([]*domain.CategoryWithCount, error)
	CountProducts(ctx context.Context, id uuid.UUID) (int, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository.
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// The count key sorts on the aggregate over the join table, computed by the
// database so it holds across the whole collection, not one page.
var categorySortColumns = map[string]string{
	"name":  "c.name",
	"slug":  "c.slug",
	"count": "product_count",
}

// Create inserts a new category.
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategorySlugTaken
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// Update rewrites a category row.
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, category.ID, category.Name, category.Slug, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategorySlugTaken
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete removes a category row. The has-products guard lives in the service
// layer; this delete itself is unconditional.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// FindByID retrieves a category by ID.
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// SlugExists probes slug uniqueness, optionally excluding one category.
func (r *categoryRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND ($2::uuid IS NULL OR id <> $2))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to probe category slug: %w", err)
	}
	return exists, nil
}

// List retrieves a filtered, sorted page of categories with their linked
// product counts, plus the total matching count.
func (r *categoryRepository) List(ctx context.Context, search string, params listing.Params) ([]*domain.CategoryWithCount, int, error) {
	where := ""
	args := []any{}

	if q := strings.TrimSpace(search); q != "" {
		args = append(args, "%"+q+"%")
		where = "WHERE c.name ILIKE $1 OR c.slug ILIKE $1"
	}

	countQuery := "SELECT COUNT(*) FROM categories c " + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count categories: %w", err)
	}

	sortColumn, ok := categorySortColumns[params.Sort]
	if !ok {
		sortColumn = "c.name"
	}
	direction := "ASC"
	if params.Dir == listing.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at, COUNT(pc.product_id) AS product_count
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		%s
		GROUP BY c.id
		ORDER BY %s %s, c.id
		LIMIT $%d OFFSET $%d
	`, where, sortColumn, direction, len(args)+1, len(args)+2)

	args = append(args, params.PerPage, params.Offset())

	items, err := r.scanCategoryCounts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListAll retrieves every category ordered by name, with product counts.
// Used by the storefront filter bar.
func (r *categoryRepository) ListAll(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	query := `
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at, COUNT(pc.product_id) AS product_count
		FROM categories c
		LEFT JOIN product_categories pc ON pc.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC
	`

	return r.scanCategoryCounts(ctx, query)
}

// CountProducts returns the number of products linked to the category. Used
// as the delete guard.
func (r *categoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product_categories WHERE category_id = $1`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category products: %w", err)
	}
	return count, nil
}

func (r *categoryRepository) scanCategoryCounts(ctx context.Context, query string, args ...any) ([]*domain.CategoryWithCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.CategoryWithCount{}
	for rows.Next() {
		category := &domain.CategoryWithCount{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Slug,
			&category.CreatedAt,
			&category.UpdatedAt,
			&category.ProductCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
