package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/client"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/models"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/repository"
)

// ErrUsernameUnknown is returned when neither the request nor the stored
// order product config carries the WHM username.
var ErrUsernameUnknown = errors.New("username unknown for order product")

// WHMClient is the set of WHM calls the service issues
type WHMClient interface {
	CreateAccount(ctx context.Context, p client.CreateAccountParams) error
	SuspendAccount(ctx context.Context, user string) error
	UnsuspendAccount(ctx context.Context, user string) error
	RemoveAccount(ctx context.Context, user string) error
	ListPackages(ctx context.Context) ([]models.Package, error)
}

// ConfigStore persists per order product key/value config
type ConfigStore interface {
	SetValues(ctx context.Context, orderProductID string, values map[string]string) error
	Get(ctx context.Context, orderProductID, key string) (string, error)
	GetAll(ctx context.Context, orderProductID string) (map[string]string, error)
}

// AccountLogStore records lifecycle calls
type AccountLogStore interface {
	LogAction(ctx context.Context, orderProductID, action, status, message string, metadata map[string]interface{}) error
	GetByOrderProductID(ctx context.Context, orderProductID string, limit int) ([]*models.AccountLog, error)
}

// CPanelService maps platform lifecycle events onto WHM API calls.
// Every operation issues at most one WHM request.
type CPanelService struct {
	cfg      config.CPanelConfig
	whm      WHMClient
	store    ConfigStore
	logs     AccountLogStore
	validate *validator.Validate
	random   io.Reader
	logger   zerolog.Logger
}

// NewCPanelService creates a new cpanel service
func NewCPanelService(
	cfg config.CPanelConfig,
	whm WHMClient,
	store ConfigStore,
	logs AccountLogStore,
	logger zerolog.Logger,
) *CPanelService {
	return &CPanelService{
		cfg:      cfg,
		whm:      whm,
		store:    store,
		logs:     logs,
		validate: validator.New(),
		random:   rand.Reader,
		logger:   logger.With().Str("component", "cpanel_service").Logger(),
	}
}

// CreateServer creates the hosting account and records the generated
// credentials for the order product. Nothing is stored when WHM fails.
func (s *CPanelService) CreateServer(ctx context.Context, req *models.CreateServerRequest) (*models.CreateServerResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate create request: %w", err)
	}

	username, err := generateUsername(s.random)
	if err != nil {
		return nil, fmt.Errorf("generate username: %w", err)
	}
	password, err := resolvePassword(s.random, req.Config.Password)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	log := s.logger.With().
		Str("order_product_id", req.OrderProductID).
		Str("username", username).
		Logger()
	log.Info().Str("domain", req.Config.Domain).Str("package", req.Package).Msg("creating hosting account")

	err = s.whm.CreateAccount(ctx, client.CreateAccountParams{
		Username:     username,
		Password:     password,
		ContactEmail: req.User.Email,
		Domain:       req.Config.Domain,
		Plan:         req.Package,
	})
	if err != nil {
		s.logAction(ctx, req.OrderProductID, models.ActionCreate, models.LogStatusFailed, err.Error(), map[string]interface{}{
			"domain":  req.Config.Domain,
			"package": req.Package,
		})
		return nil, fmt.Errorf("create account: %w", err)
	}

	err = s.store.SetValues(ctx, req.OrderProductID, map[string]string{
		models.ConfigKeyUsername: username,
		models.ConfigKeyPassword: password,
	})
	if err != nil {
		// account already exists on the server
		log.Error().Err(err).Msg("account created but credentials not stored")
		return nil, fmt.Errorf("store credentials for %s: %w", username, err)
	}

	s.logAction(ctx, req.OrderProductID, models.ActionCreate, models.LogStatusSuccess, "account created", map[string]interface{}{
		"username": username,
		"domain":   req.Config.Domain,
		"package":  req.Package,
	})
	log.Info().Msg("hosting account created")

	return &models.CreateServerResponse{
		Success:        true,
		OrderProductID: req.OrderProductID,
		Username:       username,
		Password:       password,
		Domain:         req.Config.Domain,
		Package:        req.Package,
	}, nil
}

// SuspendServer suspends the order product's account
func (s *CPanelService) SuspendServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error) {
	return s.accountAction(ctx, req, models.ActionSuspend, s.whm.SuspendAccount)
}

// UnsuspendServer lifts a suspension
func (s *CPanelService) UnsuspendServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error) {
	return s.accountAction(ctx, req, models.ActionUnsuspend, s.whm.UnsuspendAccount)
}

// TerminateServer removes the account from the WHM server
func (s *CPanelService) TerminateServer(ctx context.Context, req *models.AccountActionRequest) (*models.AccountActionResponse, error) {
	return s.accountAction(ctx, req, models.ActionTerminate, s.whm.RemoveAccount)
}

func (s *CPanelService) accountAction(
	ctx context.Context,
	req *models.AccountActionRequest,
	action string,
	call func(ctx context.Context, user string) error,
) (*models.AccountActionResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate %s request: %w", action, err)
	}

	username, err := s.resolveUsername(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_product_id", req.OrderProductID).
		Str("username", username).
		Str("action", action).
		Msg("account action")

	if err := call(ctx, username); err != nil {
		s.logAction(ctx, req.OrderProductID, action, models.LogStatusFailed, err.Error(), map[string]interface{}{"username": username})
		return nil, fmt.Errorf("%s account %s: %w", action, username, err)
	}

	s.logAction(ctx, req.OrderProductID, action, models.LogStatusSuccess, "account "+action+" done", map[string]interface{}{"username": username})

	return &models.AccountActionResponse{
		Success:        true,
		OrderProductID: req.OrderProductID,
		Username:       username,
		Action:         action,
	}, nil
}

// resolveUsername prefers the username sent by the platform and falls back
// to the one stored at creation.
func (s *CPanelService) resolveUsername(ctx context.Context, req *models.AccountActionRequest) (string, error) {
	if req.Config.Username != "" {
		return req.Config.Username, nil
	}

	username, err := s.store.Get(ctx, req.OrderProductID, models.ConfigKeyUsername)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUsernameUnknown
		}
		return "", fmt.Errorf("get stored username: %w", err)
	}
	return username, nil
}

// GetLink returns the host users log in at. No network call is made.
func (s *CPanelService) GetLink() string {
	return s.cfg.HostAccess
}

// GetAccount returns the stored account for an order product
func (s *CPanelService) GetAccount(ctx context.Context, orderProductID string) (*models.AccountInfo, error) {
	values, err := s.store.GetAll(ctx, orderProductID)
	if err != nil {
		return nil, fmt.Errorf("get order product config: %w", err)
	}

	username, ok := values[models.ConfigKeyUsername]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &models.AccountInfo{
		OrderProductID: orderProductID,
		Username:       username,
		HasPassword:    values[models.ConfigKeyPassword] != "",
		Link:           s.GetLink(),
	}, nil
}

// GetAccountLogs returns the newest lifecycle log entries first
func (s *CPanelService) GetAccountLogs(ctx context.Context, orderProductID string, limit int) ([]*models.AccountLogResponse, error) {
	logs, err := s.logs.GetByOrderProductID(ctx, orderProductID, limit)
	if err != nil {
		return nil, fmt.Errorf("get account logs: %w", err)
	}

	resp := make([]*models.AccountLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, &models.AccountLogResponse{
			ID:        l.ID,
			Action:    l.Action,
			Status:    l.Status,
			Message:   l.Message,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// logAction writes an account log entry. Failures are logged, not returned.
func (s *CPanelService) logAction(ctx context.Context, orderProductID, action, status, message string, metadata map[string]interface{}) {
	if err := s.logs.LogAction(ctx, orderProductID, action, status, message, metadata); err != nil {
		s.logger.Warn().Err(err).
			Str("order_product_id", orderProductID).
			Str("action", action).
			Msg("failed to write account log")
	}
}
