package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	"github.com/warungmbahmanto/backend-api/internal/domain/repository"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `
	p.id, p.name, p.slug, COALESCE(p.barcode, ''), p.stock, p.min_stock,
	p.price, p.cost_price, p.description, p.image, p.category_id, c.name,
	p.created_at, p.updated_at
`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	p := &entity.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Barcode, &p.Stock, &p.MinStock,
		&p.Price, &p.CostPrice, &p.Description, &p.Image, &p.CategoryID, &p.CategoryName,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, slug, barcode, stock, min_stock, price, cost_price, description, image, category_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Slug, p.Barcode, p.Stock, p.MinStock, p.Price, p.CostPrice, p.Description, p.Image, p.CategoryID)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id::text = $1
	`, id)
	return scanProduct(row)
}

func (r *ProductRepository) FindByIdentifier(ctx context.Context, identifier string) (*entity.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id::text = $1 OR p.slug = $1 OR p.barcode = $1
	`, identifier)
	return scanProduct(row)
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products WHERE slug = $1 AND ($2 = '' OR id::text <> $2)
		)
	`, slug, excludeID).Scan(&exists)
	return exists, err
}

// List applies the filter as a dynamically built WHERE clause; the sort
// column comes from a fixed whitelist so it can be interpolated safely.
func (r *ProductRepository) List(ctx context.Context, f repository.ProductFilter) ([]entity.Product, int, error) {
	where := make([]string, 0, 8)
	args := make([]any, 0, 8)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		b := arg(f.Search)
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s OR p.barcode = %s)", p, p, b))
	}
	if f.MinPrice > 0 {
		where = append(where, "p.price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		where = append(where, "p.price <= "+arg(f.MaxPrice))
	}
	if f.CategoryID > 0 {
		where = append(where, "p.category_id = "+arg(f.CategoryID))
	}
	if f.InStock != nil {
		if *f.InStock {
			where = append(where, "p.stock > 0")
		} else {
			where = append(where, "p.stock = 0")
		}
	}
	if f.MinStock != nil {
		where = append(where, "p.stock >= "+arg(*f.MinStock))
	}
	if f.MaxStock != nil {
		where = append(where, "p.stock <= "+arg(*f.MaxStock))
	}

	cond := ""
	if len(where) > 0 {
		cond = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products p `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol := "p.created_at"
	switch f.SortBy {
	case repository.SortByName:
		sortCol = "p.name"
	case repository.SortByPrice:
		sortCol = "p.price"
	case repository.SortByStock:
		sortCol = "p.stock"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT `+productColumns+`
		FROM products p
		JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY %s %s
		LIMIT %s OFFSET %s
	`, cond, sortCol, dir, arg(limit), arg(offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]entity.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $1, slug = $2, barcode = NULLIF($3, ''), stock = $4, min_stock = $5,
			price = $6, cost_price = $7, description = $8, image = $9, category_id = $10,
			updated_at = now()
		WHERE id::text = $11
	`, p.Name, p.Slug, p.Barcode, p.Stock, p.MinStock, p.Price, p.CostPrice, p.Description, p.Image, p.CategoryID, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
