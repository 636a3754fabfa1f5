package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialcast/internal/dispatch"
	"socialcast/internal/models"
	"socialcast/internal/store"
	"socialcast/pkg/logging"
)

// DispatchHandler runs manual, bulk and test-mode dispatches.
type DispatchHandler struct {
	dispatcher Dispatcher
	logger     logging.Logger
}

func NewDispatchHandler(dispatcher Dispatcher, logger logging.Logger) *DispatchHandler {
	return &DispatchHandler{dispatcher: dispatcher, logger: logger}
}

type dispatchRequest struct {
	ContentID       int64  `json:"content_id" binding:"required"`
	Action          string `json:"action"`
	TestMode        bool   `json:"test_mode"`
	RefreshProfiles bool   `json:"refresh_profiles"`
}

func (h *DispatchHandler) Handle(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format",
		})
		return
	}

	action := models.Action(req.Action)
	if action == "" {
		action = models.ActionPublish
	}
	switch action {
	case models.ActionPublish, models.ActionUpdate, models.ActionRepost, models.ActionBulk:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Unknown action",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	results, err := h.dispatcher.Dispatch(ctx, req.ContentID, action, dispatch.Options{
		TestMode:             req.TestMode,
		ForceRefreshProfiles: req.RefreshProfiles,
	})

	switch {
	case err == nil:
		if results == nil {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"code":    "do_not_post",
				"message": "Item is marked do-not-post",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"results": results,
		})

	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Content item not found",
		})

	case errors.Is(err, dispatch.ErrNoApplicableStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"code":    "no_applicable_status",
			"error":   "Conditions were evaluated but none passed",
		})

	case errors.Is(err, dispatch.ErrNoEnabledStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"code":    "no_enabled_status",
			"error":   "No profile has this action enabled",
		})

	case errors.Is(err, dispatch.ErrMissingCredentials):
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"code":    "configuration_error",
			"error":   "Profile directory credentials are not configured",
		})

	default:
		h.logger.WithFields(logging.Fields{
			"content_id": req.ContentID,
			"action":     string(action),
			"error":      err.Error(),
		}).Error("Dispatch failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}
