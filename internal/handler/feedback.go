package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/convention-catalog-service/internal/service"
	"github.com/maxviazov/convention-catalog-service/pkg/response"
)

// FeedbackHandler exposes the review transitions of the feedback queue.
// Reviews are PATCH calls; merging is a POST since it publishes the change.
type FeedbackHandler struct {
	svc service.FeedbackService
}

func NewFeedbackHandler(svc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

func (h *FeedbackHandler) Register(r *gin.RouterGroup) {
	g := r.Group(PathFeedback + "/:id")
	{
		g.PATCH("/llm-approve", h.transition(service.ActionLLMApprove))
		g.PATCH("/llm-reject", h.transition(service.ActionLLMReject))
		g.PATCH("/approve", h.transition(service.ActionApprove))
		g.PATCH("/reject", h.transition(service.ActionReject))
		g.POST("/merge", h.transition(service.ActionMerge))
	}
}

func (h *FeedbackHandler) transition(action service.FeedbackAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		out, err := h.svc.Transition(c.Request.Context(), id, action)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		response.WriteData(c, http.StatusOK, out)
	}
}
