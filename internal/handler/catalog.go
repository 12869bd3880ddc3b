package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
	"github.com/maxviazov/convention-catalog-service/pkg/response"
)

// creator is a JSON create body that converts into the stored model.
type creator[T any] interface {
	toModel() T
}

// searcher is a pointer to an entity's filter query struct. normalize splits
// comma-separated values; options turns present filters into criteria options.
type searcher[S any] interface {
	*S
	normalize()
	options() ([]slice.Option, error)
}

// sliceQuery holds the paging and search parameters every collection accepts.
type sliceQuery struct {
	Cursor         string `form:"cursor"`
	Size           string `form:"size"`
	Direction      string `form:"direction"`
	SearchField    string `form:"search_field"`
	SearchWord     string `form:"search_word"`
	IncludeDeleted string `form:"include_deleted"`
}

// CatalogHandler serves create/get/update/delete/search for one entity.
// Update takes the same body as create.
type CatalogHandler[T any, C creator[T], S any, PS searcher[S]] struct {
	path   string
	schema slice.Schema
	svc    service.CatalogService[T]
}

func NewCatalogHandler[T any, C creator[T], S any, PS searcher[S]](path string, schema slice.Schema, svc service.CatalogService[T]) *CatalogHandler[T, C, S, PS] {
	return &CatalogHandler[T, C, S, PS]{path: path, schema: schema, svc: svc}
}

func (h *CatalogHandler[T, C, S, PS]) Register(r *gin.RouterGroup) {
	g := r.Group(h.path)
	{
		g.POST("", h.create)
		g.GET("", h.search)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

func (h *CatalogHandler[T, C, S, PS]) create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput) // не расшифровываем внутренние детали парсинга
		return
	}
	out, err := h.svc.Create(c.Request.Context(), req.toModel())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *CatalogHandler[T, C, S, PS]) getByID(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	out, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *CatalogHandler[T, C, S, PS]) update(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	out, err := h.svc.Update(c.Request.Context(), id, req.toModel())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *CatalogHandler[T, C, S, PS]) delete(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler[T, C, S, PS]) search(c *gin.Context) {
	var q sliceQuery
	bindQuery(c, &q)
	filter := PS(new(S))
	bindQuery(c, filter)
	filter.normalize()

	var ferrs []service.FieldError
	dir, ok := slice.ParseDirection(q.Direction)
	if !ok {
		ferrs = append(ferrs, service.FieldError{Field: "direction", Message: "must be one of: asc desc"})
	}
	if strings.TrimSpace(q.SearchField) != "" && !h.schema.HasSearchField(q.SearchField) {
		ferrs = append(ferrs, service.FieldError{Field: "search_field", Message: "must be one of: " + searchFields(h.schema)})
	}
	includeDeleted := false
	if q.IncludeDeleted != "" {
		v, err := strconv.ParseBool(q.IncludeDeleted)
		if err != nil {
			ferrs = append(ferrs, service.FieldError{Field: "include_deleted", Message: "must be a boolean"})
		}
		includeDeleted = v
	}
	ferrs = append(ferrs, validateFilter(filter)...)
	opts, err := filter.options()
	if err != nil {
		ferrs = append(ferrs, service.FieldErrors(err)...)
	}
	if len(ferrs) > 0 {
		response.WriteError(c, service.NewInvalidInput(ferrs...))
		return
	}

	var size *int
	if n, err := strconv.Atoi(strings.TrimSpace(q.Size)); err == nil {
		size = &n
	}
	opts = append(opts,
		slice.WithSearch(q.SearchField, q.SearchWord),
		slice.IncludeDeleted(includeDeleted),
	)
	res, err := h.svc.Search(c.Request.Context(), service.PageParams{Cursor: q.Cursor, Size: size, Direction: dir}, opts...)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
