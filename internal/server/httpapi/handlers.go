package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/server/auth"
	"github.com/bizdash/bizsync/internal/server/services"
	"github.com/gin-gonic/gin"
)

type SystemService interface {
	Status(ctx context.Context, withCounts bool) (*services.SystemStatus, error)
	SetMaintenance(ctx context.Context, on bool) error
}

type DocumentService interface {
	Query(ctx context.Context, caller auth.Identity, table string) ([]records.Document, error)
}

type UserService interface {
	SetRole(ctx context.Context, userID, role string) error
}

type handler struct {
	system    SystemService
	documents DocumentService
	users     UserService
	logger    logging.Logger
}

type maintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

type documentsResponse struct {
	Table     string             `json:"table"`
	Documents []records.Document `json:"documents"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// status includes per-table counts for admins.
func (h *handler) status(c *gin.Context) {
	id, _ := identity(c)
	st, err := h.system.Status(c.Request.Context(), id.IsAdmin())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) setMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.system.SetMaintenance(c.Request.Context(), *req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	id, _ := identity(c)
	h.logger.Warn(c.Request.Context(), "maintenance mode changed", "enabled", *req.Enabled, "by", id.UserID)
	c.JSON(http.StatusOK, gin.H{"maintenance": *req.Enabled})
}

func (h *handler) setRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.Param("id")
	if err := h.users.SetRole(c.Request.Context(), userID, req.Role); err != nil {
		h.fail(c, err)
		return
	}
	id, _ := identity(c)
	h.logger.Warn(c.Request.Context(), "role changed", "target", userID, "role", req.Role, "by", id.UserID)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}

func (h *handler) listDocuments(c *gin.Context) {
	id, _ := identity(c)
	table := c.Param("table")
	docs, err := h.documents.Query(c.Request.Context(), id, table)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(docs)))
	c.JSON(http.StatusOK, documentsResponse{Table: table, Documents: docs})
}

func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrUnknownTable), errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
