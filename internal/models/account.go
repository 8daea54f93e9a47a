package models

import "time"

// Order product config keys written after a successful create
const (
	ConfigKeyUsername = "username"
	ConfigKeyPassword = "password"
)

// Account log actions
const (
	ActionCreate    = "create"
	ActionSuspend   = "suspend"
	ActionUnsuspend = "unsuspend"
	ActionTerminate = "terminate"
)

// Account log statuses
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// OrderProductConfig is one key/value pair stored for an order product
type OrderProductConfig struct {
	OrderProductID string
	Key            string
	Value          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccountLog represents one lifecycle call against the WHM server
type AccountLog struct {
	ID             string
	OrderProductID string
	Action         string
	Status         string
	Message        string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// Package is a hosting plan defined on the WHM server
type Package struct {
	Name string `json:"name"`
}
