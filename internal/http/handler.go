package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/client"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/models"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/repository"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/service"
)

// AccountService is implemented by *service.CPanelService
type AccountService interface {
	GetMetadata() models.ExtensionMetadata
	GetConfig() []models.ConfigField
	GetProductConfig(ctx context.Context) ([]models.ConfigField, error)
	GetUserConfig() []models.ConfigField

	CreateServer(ctx context.Context, req *models.CreateServerRequest) (*models.CreateServerResponse, error)
	SuspendServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error)
	UnsuspendServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error)
	TerminateServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error)

	GetLink() string
	GetAccount(ctx context.Context, orderProductID string) (*models.AccountInfo, error)
	GetAccountLogs(ctx context.Context, orderProductID string, limit int) ([]*models.AccountLogResponse, error)
}

var _ AccountService = (*service.CPanelService)(nil)

type Handler struct {
	svc    AccountService
	logger zerolog.Logger
}

func NewHandler(svc AccountService, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With().Str("component", "handler").Logger(),
	}
}

// respondError maps service errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	var apiErr *client.APIError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verrs):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrUsernameUnknown):
		status = http.StatusNotFound
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ==================== Config Schema Handlers ====================

// GetMetadata returns the integration metadata
func (h *Handler) GetMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetMetadata())
}

// GetConfig returns the server config schema
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": h.svc.GetConfig()})
}

// GetProductConfig returns the product config schema with live package options
func (h *Handler) GetProductConfig(c *gin.Context) {
	fields, err := h.svc.GetProductConfig(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// GetUserConfig returns the user config schema
func (h *Handler) GetUserConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": h.svc.GetUserConfig()})
}

// ==================== Lifecycle Handlers ====================

// CreateServer handles account creation requests from the billing platform
func (h *Handler) CreateServer(c *gin.Context) {
	var req models.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.svc.CreateServer(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SuspendServer handles suspension requests
func (h *Handler) SuspendServer(c *gin.Context) {
	h.accountAction(c, h.svc.SuspendServer)
}

// UnsuspendServer handles unsuspension requests
func (h *Handler) UnsuspendServer(c *gin.Context) {
	h.accountAction(c, h.svc.UnsuspendServer)
}

// TerminateServer handles termination requests
func (h *Handler) TerminateServer(c *gin.Context) {
	h.accountAction(c, h.svc.TerminateServer)
}

func (h *Handler) accountAction(c *gin.Context, action func(context.Context, *models.AccountActionRequest) (*models.AccountActionResponse, error)) {
	var req models.AccountActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := action(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ==================== Account Query Handlers ====================

// GetAccount returns the stored account of an order product
func (h *Handler) GetAccount(c *gin.Context) {
	orderProductID := c.Param("order_product_id")
	if orderProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_product_id required"})
		return
	}

	resp, err := h.svc.GetAccount(c.Request.Context(), orderProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAccountLogs returns lifecycle log entries, newest first
func (h *Handler) GetAccountLogs(c *gin.Context) {
	orderProductID := c.Param("order_product_id")
	if orderProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_product_id required"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	resp, err := h.svc.GetAccountLogs(c.Request.Context(), orderProductID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": resp})
}

// GetLink returns the host users log in at
func (h *Handler) GetLink(c *gin.Context) {
	c.JSON(http.StatusOK, models.LinkResponse{Link: h.svc.GetLink()})
}
