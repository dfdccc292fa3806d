package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jhs-sis-api/internal/realtime"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/response"
)

// StreamHandler serves server-sent event subscriptions on hub channels.
type StreamHandler struct {
	hub       *realtime.Hub
	keepAlive time.Duration
}

// NewStreamHandler constructs StreamHandler.
func NewStreamHandler(hub *realtime.Hub, keepAlive time.Duration) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &StreamHandler{hub: hub, keepAlive: keepAlive}
}

// Subscribe godoc
// @Summary Subscribe to a change channel
// @Description Server-sent event stream for one channel, e.g. student-list or student:{id}
// @Tags Streams
// @Produce text/event-stream
// @Param channel path string true "Channel name"
// @Success 200
// @Failure 400 {object} response.Envelope
// @Router /streams/{channel} [get]
func (h *StreamHandler) Subscribe(c *gin.Context) {
	channel := c.Param("channel")
	if !realtime.ValidChannel(channel) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown stream channel"))
		return
	}

	sub, err := h.hub.Subscribe(channel)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to subscribe"))
		return
	}
	defer h.hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event)
			return true
		case <-ticker.C:
			c.SSEvent("keepalive", gin.H{"at": time.Now().UTC()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
