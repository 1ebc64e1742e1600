package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/application/event"
)

// OutboxHandler exposes outbox health and dead letter recovery to operators
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// Stats godoc
// @ID           outboxStats
// @Summary      Outbox entries per status
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[event.OutboxStatsResponse]
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDead godoc
// @ID           listDeadLetters
// @Summary      List dead letters
// @Description  Events whose delivery exhausted every retry
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]event.OutboxEntryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var req event.ListDeadRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.outboxService.ListDead(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @ID           getOutboxEntry
// @Summary      Get an outbox entry
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outbox/{id} [get]
func (h *OutboxHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	entry, err := h.outboxService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Retry godoc
// @ID           retryDeadLetter
// @Summary      Requeue a dead letter
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outbox entry ID" format(uuid)
// @Success      200 {object} APIResponse[event.OutboxEntryResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outbox/{id}/retry [post]
func (h *OutboxHandler) Retry(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	entry, err := h.outboxService.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAll godoc
// @ID           retryAllDeadLetters
// @Summary      Requeue every dead letter
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[event.RetryAllResponse]
// @Security     BearerAuth
// @Router       /admin/outbox/dead/retry [post]
func (h *OutboxHandler) RetryAll(c *gin.Context) {
	resp, err := h.outboxService.RetryAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
