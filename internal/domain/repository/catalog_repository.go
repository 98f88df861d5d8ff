package repository

import (
	"context"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *entity.Category) error
	GetByID(ctx context.Context, id int) (*entity.Category, error)
	List(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, c *entity.Category) error
	Delete(ctx context.Context, id int) error
}

// ProductSort names the columns a listing may be ordered by.
type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPrice     ProductSort = "price"
	SortByStock     ProductSort = "stock"
	SortByCreatedAt ProductSort = "created_at"
)

// ProductFilter narrows and pages a product listing. Zero values mean
// "no constraint"; InStock and stock bounds use pointers so that an explicit
// zero can be expressed.
type ProductFilter struct {
	Page  int
	Limit int

	Search     string // ILIKE on name/description, exact on barcode
	MinPrice   int64
	MaxPrice   int64
	CategoryID int
	InStock    *bool
	MinStock   *int
	MaxStock   *int

	SortBy   ProductSort
	SortDesc bool
}

type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByIdentifier resolves a product by id, slug, or barcode.
	FindByIdentifier(ctx context.Context, identifier string) (*entity.Product, error)
	// SlugExists reports whether another product (excludeID may be empty)
	// already uses the slug.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	// List returns a page of products plus the total count for the filter.
	List(ctx context.Context, f ProductFilter) ([]entity.Product, int, error)
	Update(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id string) error
}
