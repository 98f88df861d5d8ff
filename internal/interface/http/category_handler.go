package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warungmbahmanto/backend-api/internal/application"
	"github.com/warungmbahmanto/backend-api/pkg/response"
	"github.com/warungmbahmanto/backend-api/pkg/validation"
)

type CategoryHandler struct {
	Catalog *application.CatalogService
}

func NewCategoryHandler(catalog *application.CatalogService) *CategoryHandler {
	return &CategoryHandler{Catalog: catalog}
}

type categoryForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
}

// imageFromForm pulls the optional "image" file out of a multipart form. The
// returned file, when non-nil, must be closed by the caller.
func imageFromForm(c *gin.Context) (*application.ImageUpload, multipart.File, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &application.ImageUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, f, nil
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var form categoryForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if form.Name == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", map[string]string{"name": "is required"})
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

	cat, err := h.Catalog.CreateCategory(c.Request.Context(), application.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
	}, img)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, cat, "category created", nil)
}

func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cats, "categories retrieved", nil)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid category id", nil)
		return
	}
	cat, err := h.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cat, "category retrieved", nil)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid category id", nil)
		return
	}
	var form categoryForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
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

	cat, err := h.Catalog.UpdateCategory(c.Request.Context(), id, application.CategoryInput{
		Name:        form.Name,
		Description: form.Description,
	}, img)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cat, "category updated", nil)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid category id", nil)
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "category deleted", nil)
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrCategoryNotFound),
		errors.Is(err, application.ErrProductNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	default:
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
