package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warungmbahmanto/backend-api/internal/application"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/response"
	"github.com/warungmbahmanto/backend-api/pkg/validation"
)

type ProductHandler struct {
	Catalog *application.CatalogService
}

func NewProductHandler(catalog *application.CatalogService) *ProductHandler {
	return &ProductHandler{Catalog: catalog}
}

type productForm struct {
	Name        string `form:"name"`
	Barcode     string `form:"barcode"`
	Stock       int    `form:"stock"`
	MinStock    int    `form:"min_stock"`
	Price       int64  `form:"price"`
	CostPrice   int64  `form:"cost_price"`
	Description string `form:"description"`
	CategoryID  int    `form:"category_id"`
}

func (f productForm) toInput() application.ProductInput {
	return application.ProductInput{
		Name:        f.Name,
		Barcode:     f.Barcode,
		Stock:       f.Stock,
		MinStock:    f.MinStock,
		Price:       f.Price,
		CostPrice:   f.CostPrice,
		Description: f.Description,
		CategoryID:  f.CategoryID,
	}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	details := validateProductForm(form)
	if len(details) > 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", details)
		return
	}

	img, f, err := imageFromForm(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid image upload", nil)
		return
	}
	if f != nil {
		defer f.Close()
	}

	p, err := h.Catalog.CreateProduct(c.Request.Context(), form.toInput(), img)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p, "product created", nil)
}

// List supports pagination, text search, price/stock/category filters and
// whitelisted sorting via query parameters.
func (h *ProductHandler) List(c *gin.Context) {
	f := repo.ProductFilter{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Search: c.Query("search"),
	}
	f.MinPrice = int64(queryInt(c, "min_price", 0))
	f.MaxPrice = int64(queryInt(c, "max_price", 0))
	f.CategoryID = queryInt(c, "category_id", 0)
	if v, ok := queryBool(c, "in_stock"); ok {
		f.InStock = &v
	}
	if v := c.Query("min_stock"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinStock = &n
		}
	}
	if v := c.Query("max_stock"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxStock = &n
		}
	}
	switch repo.ProductSort(c.Query("sort_by")) {
	case repo.SortByName, repo.SortByPrice, repo.SortByStock, repo.SortByCreatedAt:
		f.SortBy = repo.ProductSort(c.Query("sort_by"))
	}
	// newest first unless the caller asks for ascending
	f.SortDesc = c.DefaultQuery("order", "desc") != "asc"

	items, meta, err := h.Catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, "products retrieved", meta)
}

// Search queries the product search index.
func (h *ProductHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	items, meta, err := h.Catalog.SearchProducts(c.Request.Context(), q, queryInt(c, "page", 1), queryInt(c, "limit", 10))
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, "products retrieved", meta)
}

// Get accepts an id, slug, or barcode.
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "product retrieved", nil)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	in := application.UpdateProductInput{
		Name:        form.Name,
		Barcode:     form.Barcode,
		Description: form.Description,
		CategoryID:  form.CategoryID,
		Stock:       formInt(c, "stock"),
		MinStock:    formInt(c, "min_stock"),
		Price:       formInt64(c, "price"),
		CostPrice:   formInt64(c, "cost_price"),
	}
	img, f, err := imageFromForm(c)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid image upload", nil)
		return
	}
	if f != nil {
		defer f.Close()
	}

	p, err := h.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in, img)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "product updated", nil)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "product deleted", nil)
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func validateProductForm(form productForm) map[string]string {
	details := map[string]string{}
	if form.Name == "" {
		details["name"] = "is required"
	} else if len(form.Name) > 100 {
		details["name"] = "must be at most 100 characters"
	}
	if len(form.Description) > 255 {
		details["description"] = "must be at most 255 characters"
	}
	if form.Price <= 0 {
		details["price"] = "must be greater than 0"
	}
	if form.CostPrice < 0 {
		details["cost_price"] = "must not be negative"
	}
	if form.Stock < 0 {
		details["stock"] = "must not be negative"
	}
	if form.MinStock < 0 {
		details["min_stock"] = "must not be negative"
	}
	if form.CategoryID <= 0 {
		details["category_id"] = "is required"
	}
	return details
}

// formInt reads an optional form field; nil when absent or not a number.
func formInt(c *gin.Context, name string) *int {
	v, ok := c.GetPostForm(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func formInt64(c *gin.Context, name string) *int64 {
	v, ok := c.GetPostForm(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func queryBool(c *gin.Context, name string) (bool, bool) {
	v := c.Query(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
