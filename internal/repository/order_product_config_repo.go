package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// OrderProductConfigRepository stores the key/value config this service owns
// for each order product (the generated WHM username and password).
type OrderProductConfigRepository struct {
	db DBTX
}

func NewOrderProductConfigRepository(db DBTX) *OrderProductConfigRepository {
	return &OrderProductConfigRepository{db: db}
}

// SetValues upserts all values in a single statement so either every key is
// written or none is.
func (r *OrderProductConfigRepository) SetValues(ctx context.Context, orderProductID string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []any{orderProductID}
	rows := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, k, values[k])
		rows = append(rows, fmt.Sprintf("($1, $%d, $%d)", len(args)-1, len(args)))
	}

	query := `
		INSERT INTO cpanel.order_product_configs (order_product_id, key, value)
		VALUES ` + strings.Join(rows, ", ") + `
		ON CONFLICT (order_product_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert order_product_configs: %w", err)
	}
	return nil
}

// Get returns one value or ErrNotFound
func (r *OrderProductConfigRepository) Get(ctx context.Context, orderProductID, key string) (string, error) {
	query := `
		SELECT value
		FROM cpanel.order_product_configs
		WHERE order_product_id = $1 AND key = $2
	`
	var value string
	if err := r.db.QueryRow(ctx, query, orderProductID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("scan order_product_config: %w", err)
	}
	return value, nil
}

// GetAll returns every stored key for an order product. The map is empty
// when nothing has been stored.
func (r *OrderProductConfigRepository) GetAll(ctx context.Context, orderProductID string) (map[string]string, error) {
	query := `
		SELECT key, value
		FROM cpanel.order_product_configs
		WHERE order_product_id = $1
		ORDER BY key
	`
	rows, err := r.db.Query(ctx, query, orderProductID)
	if err != nil {
		return nil, fmt.Errorf("query order_product_configs: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan order_product_config row: %w", err)
		}
		values[key] = value
	}
	return values, rows.Err()
}
