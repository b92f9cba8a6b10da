package notifications

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodcourt/internal/logger"
	"foodcourt/pkg/errors"
)

type Handler struct {
	engine   *Engine
	registry *Registry
	log      logger.Logger
}

func NewHandler(engine *Engine, registry *Registry, log logger.Logger) *Handler {
	return &Handler{
		engine:   engine,
		registry: registry,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine, testLimiter gin.HandlerFunc) {
	api := router.Group("/api/notifications")
	{
		api.GET("/stats", h.GetStats)
		api.POST("/stats/reset", h.ResetStats)
		api.GET("/channels", h.GetChannels)
		api.PUT("/channels/:channel", h.SetChannel)
		api.GET("/stream", h.Stream)
		if testLimiter != nil {
			api.POST("/test", testLimiter, h.SendTest)
		} else {
			api.POST("/test", h.SendTest)
		}
	}
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":             h.engine.Stats(),
		"activeConnections": h.registry.Count(),
	})
}

func (h *Handler) ResetStats(c *gin.Context) {
	h.engine.ResetStats()
	c.JSON(http.StatusOK, gin.H{"message": "statistics reset"})
}

func (h *Handler) GetChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.engine.ChannelStates()})
}

type setChannelRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) SetChannel(c *gin.Context) {
	var req setChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	channel := c.Param("channel")
	if err := h.engine.SetChannelEnabled(channel, *req.Enabled); err != nil {
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel": channel,
		"enabled": *req.Enabled,
	})
}

type testNotificationRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Template string `json:"template"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// SendTest fires a synthetic notification through the live pipeline. Meant
// for operators verifying channel wiring, hence the rate limit on the route.
func (h *Handler) SendTest(c *gin.Context) {
	var req testNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	template := req.Template
	if template == "" {
		template = TemplateOrderCreated
	}
	body := req.Body
	if body == "" {
		body = "This is a test notification."
	}

	result := h.engine.Send(c.Request.Context(), template, Message{
		Title: req.Title,
		Body:  body,
		Metadata: map[string]interface{}{
			"type": "test",
		},
	}, SendOptions{UserID: req.UserID})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
		if result.Error != "" {
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, result)
}

// Stream upgrades the request to a server-sent-events subscription for the
// given user. The connection stays open until the client goes away or the
// registry evicts it.
func (h *Handler) Stream(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithDetail("message", "userId query parameter is required")))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, errors.ToErrorResponse(
			errors.ErrInternal.WithDetail("message", "streaming unsupported by connection")))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	conn := h.registry.Register(uuid.New().String(), userID)
	defer h.registry.Unregister(conn.ID)

	if err := writeSSE(c.Writer, StreamEvent{
		Type: StreamEventConnected,
		Payload: gin.H{
			"connectionId": conn.ID,
			"userId":       userID,
		},
		Timestamp: time.Now(),
	}); err != nil {
		return
	}
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case event := <-conn.Events:
			if err := writeSSE(c.Writer, event); err != nil {
				h.log.WarnwCtx(ctx, "Streaming write failed, dropping connection",
					"connection_id", conn.ID,
					"error", err,
				)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
