package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
)

// ImageUpload carries one uploaded file from the HTTP layer.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// Pagination describes one page of a listing for response metadata.
type Pagination struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func paginate(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1 && total > 0,
	}
}

// The category listing rarely changes and is read on nearly every storefront
// page, so it is cached as one JSON blob and dropped on any category write.
const (
	categoryListCacheKey = "catalog:categories"
	categoryListCacheTTL = 10 * time.Minute
)

// CatalogService manages categories and products, including their images in
// object storage and the product search index.
type CatalogService struct {
	Categories repo.CategoryRepository
	Products   repo.ProductRepository
	GCS        *storage.Client // optional, image upload disabled when nil
	Bucket     string
	ES         *elasticsearch.Client // optional, search falls back to SQL when nil
	ESIndex    string
	Redis      *redis.Client // optional, category list cache disabled when nil
	Logger     *logrus.Logger
}

func NewCatalogService(categories repo.CategoryRepository, products repo.ProductRepository, gcs *storage.Client, bucket string, es *elasticsearch.Client, esIndex string, rdb *redis.Client, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		Categories: categories,
		Products:   products,
		GCS:        gcs,
		Bucket:     bucket,
		ES:         es,
		ESIndex:    esIndex,
		Redis:      rdb,
		Logger:     logger,
	}
}

type CategoryInput struct {
	Name        string
	Description string
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput, img *ImageUpload) (*entity.Category, error) {
	c := &entity.Category{Name: in.Name, Description: in.Description}
	if img != nil {
		url, err := s.uploadImage(ctx, "categories", img)
		if err != nil {
			return nil, err
		}
		c.Image = url
	}
	if err := s.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateCategoryCache(ctx)
	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id int) (*entity.Category, error) {
	c, err := s.Categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	if s.Redis != nil {
		var cached []entity.Category
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, categoryListCacheKey, &cached)
		if err != nil {
			s.logWarn("category cache read failed", err, nil)
		} else if ok {
			return cached, nil
		}
	}
	items, err := s.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, categoryListCacheKey, items, categoryListCacheTTL); err != nil {
			s.logWarn("category cache write failed", err, nil)
		}
	}
	return items, nil
}

func (s *CatalogService) invalidateCategoryCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, categoryListCacheKey); err != nil {
		s.logWarn("category cache invalidate failed", err, nil)
	}
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int, in CategoryInput, img *ImageUpload) (*entity.Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Description != "" {
		c.Description = in.Description
	}
	if img != nil {
		url, err := s.uploadImage(ctx, "categories", img)
		if err != nil {
			return nil, err
		}
		s.deleteImage(ctx, c.Image)
		c.Image = url
	}
	if err := s.Categories.Update(ctx, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	s.invalidateCategoryCache(ctx)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.invalidateCategoryCache(ctx)
	s.deleteImage(ctx, c.Image)
	return nil
}

type ProductInput struct {
	Name        string
	Barcode     string
	Stock       int
	MinStock    int
	Price       int64
	CostPrice   int64
	Description string
	CategoryID  int
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput, img *ImageUpload) (*entity.Product, error) {
	if _, err := s.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, in.Name, "")
	if err != nil {
		return nil, err
	}
	p := &entity.Product{
		Name:        in.Name,
		Slug:        slug,
		Barcode:     in.Barcode,
		Stock:       in.Stock,
		MinStock:    in.MinStock,
		Price:       in.Price,
		CostPrice:   in.CostPrice,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	if img != nil {
		url, err := s.uploadImage(ctx, "products", img)
		if err != nil {
			return nil, err
		}
		p.Image = url
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.indexProduct(ctx, p)
	return p, nil
}

// GetProduct resolves by id, slug, or barcode so scanner clients can reuse
// the same endpoint.
func (s *CatalogService) GetProduct(ctx context.Context, identifier string) (*entity.Product, error) {
	p, err := s.Products.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter) ([]entity.Product, Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	items, total, err := s.Products.List(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	return items, paginate(total, f.Page, f.Limit), nil
}

// UpdateProductInput applies partial updates: nil pointers and empty strings
// leave the stored value untouched.
type UpdateProductInput struct {
	Name        string
	Barcode     string
	Stock       *int
	MinStock    *int
	Price       *int64
	CostPrice   *int64
	Description string
	CategoryID  int
}

// UpdateProduct accepts any identifier GetProduct does.
func (s *CatalogService) UpdateProduct(ctx context.Context, identifier string, in UpdateProductInput, img *ImageUpload) (*entity.Product, error) {
	p, err := s.GetProduct(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if in.Name != "" && in.Name != p.Name {
		slug, err := s.uniqueSlug(ctx, in.Name, p.ID)
		if err != nil {
			return nil, err
		}
		p.Name = in.Name
		p.Slug = slug
	}
	if in.Barcode != "" {
		p.Barcode = in.Barcode
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.CategoryID != 0 && in.CategoryID != p.CategoryID {
		if _, err := s.GetCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = in.CategoryID
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.MinStock != nil {
		p.MinStock = *in.MinStock
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CostPrice != nil {
		p.CostPrice = *in.CostPrice
	}
	if img != nil {
		url, err := s.uploadImage(ctx, "products", img)
		if err != nil {
			return nil, err
		}
		s.deleteImage(ctx, p.Image)
		p.Image = url
	}

	if err := s.Products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.indexProduct(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, identifier string) error {
	p, err := s.GetProduct(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.deleteImage(ctx, p.Image)
	s.removeFromIndex(ctx, p.ID)
	return nil
}

// SearchProducts queries the search index, falling back to a SQL ILIKE scan
// when Elasticsearch is not configured.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, limit int) ([]entity.Product, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if s.ES == nil {
		return s.ListProducts(ctx, repo.ProductFilter{
			Page:     page,
			Limit:    limit,
			Search:   query,
			SortBy:   repo.SortByCreatedAt,
			SortDesc: true,
		})
	}

	body := map[string]any{
		"from": (page - 1) * limit,
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "barcode", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, Pagination{}, err
	}
	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, Pagination{}, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, Pagination{}, fmt.Errorf("search index: %s", res.Status())
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, Pagination{}, err
	}

	items := make([]entity.Product, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		items = append(items, h.Source.toEntity())
	}
	return items, paginate(out.Hits.Total.Value, page, limit), nil
}

func (s *CatalogService) uniqueSlug(ctx context.Context, name, excludeID string) (string, error) {
	base := helpers.Slugify(name)
	slug := base
	for i := 2; ; i++ {
		taken, err := s.Products.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *CatalogService) uploadImage(ctx context.Context, prefix string, img *ImageUpload) (string, error) {
	if s.GCS == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	ext := strings.ToLower(filepath.Ext(img.Filename))
	objectPath := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
	url, err := helpers.UploadObject(ctx, s.GCS, s.Bucket, objectPath, img.ContentType, img.Reader)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// deleteImage is best effort; a stale object in the bucket is not worth
// failing the request over.
func (s *CatalogService) deleteImage(ctx context.Context, url string) {
	if s.GCS == nil || url == "" {
		return
	}
	objectPath := helpers.ObjectPathFromURL(s.Bucket, url)
	if objectPath == "" {
		return
	}
	if err := helpers.DeleteObject(ctx, s.GCS, s.Bucket, objectPath); err != nil {
		s.logWarn("image delete failed", err, logrus.Fields{"object": objectPath})
	}
}

// productDoc is the search index document shape.
type productDoc struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Barcode      string `json:"barcode,omitempty"`
	Stock        int    `json:"stock"`
	Price        int64  `json:"price"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
}

func (d productDoc) toEntity() entity.Product {
	return entity.Product{
		ID:           d.ID,
		Name:         d.Name,
		Slug:         d.Slug,
		Barcode:      d.Barcode,
		Stock:        d.Stock,
		Price:        d.Price,
		Description:  d.Description,
		Image:        d.Image,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
	}
}

// indexProduct mirrors the row into the search index; indexing failures are
// logged and the write succeeds anyway, the store stays authoritative.
func (s *CatalogService) indexProduct(ctx context.Context, p *entity.Product) {
	if s.ES == nil {
		return
	}
	doc := productDoc{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Barcode:      p.Barcode,
		Stock:        p.Stock,
		Price:        p.Price,
		Description:  p.Description,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		s.logWarn("product index marshal failed", err, logrus.Fields{"product_id": p.ID})
		return
	}
	res, err := s.ES.Index(
		s.ESIndex,
		strings.NewReader(string(b)),
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(p.ID),
		s.ES.Index.WithRefresh("false"),
	)
	if err != nil {
		s.logWarn("product index failed", err, logrus.Fields{"product_id": p.ID})
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logWarn("product index failed", fmt.Errorf("status %s", res.Status()), logrus.Fields{"product_id": p.ID})
	}
}

func (s *CatalogService) removeFromIndex(ctx context.Context, id string) {
	if s.ES == nil {
		return
	}
	res, err := s.ES.Delete(s.ESIndex, id, s.ES.Delete.WithContext(ctx))
	if err != nil {
		s.logWarn("product index delete failed", err, logrus.Fields{"product_id": id})
		return
	}
	defer res.Body.Close()
}

func (s *CatalogService) logWarn(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}
