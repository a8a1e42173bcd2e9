package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrisnap/backend/internal/flow"
	"github.com/pageza/nutrisnap/backend/internal/types"
)

// NutritionChat streams the reply as server-sent events: one "message" event
// per fragment and a final "done" event. Failures arrive in band as
// fragments starting with flow.ErrorPrefix. A disconnected client stops the
// stream.
func (h *AIHandler) NutritionChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cfg, profile, ok := h.callContext(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	fragments := 0
	for fragment := range h.flows.NutritionChat(ctx, cfg, flow.ChatInput{UserMessage: req.UserMessage, Profile: profile}) {
		c.SSEvent("message", gin.H{"text": fragment})
		c.Writer.Flush()
		fragments++
		if ctx.Err() != nil {
			h.log.Info("chat client disconnected", "fragments", fragments)
			return
		}
	}
	c.SSEvent("done", gin.H{"fragments": fragments})
	c.Writer.Flush()
}
