package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialcast/internal/models"
	"socialcast/internal/trigger"
	"socialcast/pkg/logging"
)

// LifecycleHandler receives status transition signals from the
// authoring host and feeds them to the trigger resolver.
type LifecycleHandler struct {
	resolver TriggerResolver
	content  ContentReader
	logger   logging.Logger
}

func NewLifecycleHandler(resolver TriggerResolver, content ContentReader, logger logging.Logger) *LifecycleHandler {
	return &LifecycleHandler{resolver: resolver, content: content, logger: logger}
}

type lifecycleRequest struct {
	ContentID      int64  `json:"content_id" binding:"required"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status" binding:"required"`
	Transport      string `json:"transport"`
}

func (h *LifecycleHandler) Handle(c *gin.Context) {
	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	item, err := h.content.Get(ctx, req.ContentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Content item not found",
		})
		return
	}

	transport := models.Transport(req.Transport)
	if transport == "" {
		transport = models.TransportDirect
	}

	outcome, err := h.resolver.Resolve(ctx, trigger.Signal{
		Previous:  models.LifecycleStatus(req.PreviousStatus),
		New:       models.LifecycleStatus(req.NewStatus),
		Item:      item,
		Transport: transport,
	})
	if err != nil {
		h.logger.WithFields(logging.Fields{
			"content_id": req.ContentID,
			"error":      err.Error(),
		}).Error("Lifecycle signal failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"outcome": outcome.String(),
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"outcome": outcome.String(),
	})
}

type metadataRequest struct {
	ContentID int64 `json:"content_id" binding:"required"`
}

// HandleMetadataPersisted is the late-stage callback endpoint for
// API-submitted items.
func (h *LifecycleHandler) HandleMetadataPersisted(c *gin.Context) {
	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	outcome, err := h.resolver.MetadataPersisted(ctx, req.ContentID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"outcome": outcome.String(),
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"outcome": outcome.String(),
	})
}
