package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/warungmbahmanto/backend-api/internal/application"
	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
)

// captureProducts records the filter the listing endpoint builds.
type captureProducts struct {
	last repo.ProductFilter
}

func (s *captureProducts) Create(context.Context, *entity.Product) error { return nil }
func (s *captureProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, repo.ErrNotFound
}
func (s *captureProducts) FindByIdentifier(context.Context, string) (*entity.Product, error) {
	return nil, repo.ErrNotFound
}
func (s *captureProducts) SlugExists(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *captureProducts) List(_ context.Context, f repo.ProductFilter) ([]entity.Product, int, error) {
	s.last = f
	return nil, 0, nil
}
func (s *captureProducts) Update(context.Context, *entity.Product) error { return nil }
func (s *captureProducts) Delete(context.Context, string) error          { return nil }

func setupProductList(t *testing.T) (*gin.Engine, *captureProducts) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := &captureProducts{}
	svc := application.NewCatalogService(nil, products, nil, "", nil, "", nil, nil)
	h := NewProductHandler(svc)

	engine := gin.New()
	engine.GET("/api/product", h.List)
	return engine, products
}

func listProducts(engine *gin.Engine, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/product"+query, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestProductListDefaultsToNewestFirst(t *testing.T) {
	engine, products := setupProductList(t)

	w := listProducts(engine, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, products.last.SortDesc)
	assert.Empty(t, products.last.SortBy) // store orders by created_at when unset
}

func TestProductListSortParams(t *testing.T) {
	engine, products := setupProductList(t)

	listProducts(engine, "?order=asc")
	assert.False(t, products.last.SortDesc)

	listProducts(engine, "?sort_by=price")
	assert.Equal(t, repo.SortByPrice, products.last.SortBy)
	assert.True(t, products.last.SortDesc)

	listProducts(engine, "?sort_by=name&order=asc")
	assert.Equal(t, repo.SortByName, products.last.SortBy)
	assert.False(t, products.last.SortDesc)

	// unknown columns are ignored rather than interpolated
	listProducts(engine, "?sort_by=password_hash")
	assert.Empty(t, products.last.SortBy)
}
