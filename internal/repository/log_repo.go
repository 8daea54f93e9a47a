package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/models"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

type LogRepository struct {
	db DBTX
}

func NewLogRepository(db DBTX) *LogRepository {
	return &LogRepository{db: db}
}

// Create inserts an account log entry, assigning an ID when missing
func (r *LogRepository) Create(ctx context.Context, logEntry *models.AccountLog) error {
	if logEntry.ID == "" {
		logEntry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO cpanel.account_logs (id, order_product_id, action, status, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		logEntry.ID, logEntry.OrderProductID, logEntry.Action, logEntry.Status, logEntry.Message, logEntry.Metadata,
	)
	if err != nil {
		return fmt.Errorf("insert account log: %w", err)
	}

	return nil
}

// GetByOrderProductID returns the newest log entries first
func (r *LogRepository) GetByOrderProductID(ctx context.Context, orderProductID string, limit int) ([]*models.AccountLog, error) {
	switch {
	case limit <= 0:
		limit = defaultLogLimit
	case limit > maxLogLimit:
		limit = maxLogLimit
	}

	query := `
		SELECT id, order_product_id, action, status, message, metadata, created_at
		FROM cpanel.account_logs
		WHERE order_product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, orderProductID, limit)
	if err != nil {
		return nil, fmt.Errorf("query account logs: %w", err)
	}
	defer rows.Close()

	var logEntries []*models.AccountLog
	for rows.Next() {
		logEntry := &models.AccountLog{}
		err := rows.Scan(
			&logEntry.ID, &logEntry.OrderProductID, &logEntry.Action, &logEntry.Status,
			&logEntry.Message, &logEntry.Metadata, &logEntry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan account log: %w", err)
		}
		logEntries = append(logEntries, logEntry)
	}

	return logEntries, rows.Err()
}

// LogAction is a helper to log an action with optional metadata
func (r *LogRepository) LogAction(ctx context.Context, orderProductID, action, status, message string, metadata map[string]interface{}) error {
	return r.Create(ctx, &models.AccountLog{
		OrderProductID: orderProductID,
		Action:         action,
		Status:         status,
		Message:        message,
		Metadata:       metadata,
	})
}
