package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/pkg/response"
)

type ContextHandler struct {
	svc service.ContextService
}

func NewContextHandler(svc service.ContextService) *ContextHandler { return &ContextHandler{svc: svc} }

func (h *ContextHandler) Register(r *gin.RouterGroup) {
	r.GET(PathContext, h.get)
}

type contextQuery struct {
	TechStackID string   `form:"tech_stack_id"`
	LayerCodes  []string `form:"layer_codes"`
}

func (h *ContextHandler) get(c *gin.Context) {
	var q contextQuery
	bindQuery(c, &q)
	id, err := strconv.ParseInt(q.TechStackID, 10, 64)
	if err != nil || id <= 0 {
		response.WriteError(c, service.NewInvalidInput(service.FieldError{Field: "tech_stack_id", Message: "must be > 0"}))
		return
	}
	out, err := h.svc.ConventionContext(c.Request.Context(), id, splitValues(q.LayerCodes, true))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}
