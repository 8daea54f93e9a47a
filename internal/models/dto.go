package models

// ==================== Internal API DTOs ====================

// CreateServerRequest is sent by the billing platform when a hosting order is activated
type CreateServerRequest struct {
	OrderID        string     `json:"order_id"`
	OrderProductID string     `json:"order_product_id" validate:"required"`
	User           UserInfo   `json:"user"`
	Config         UserConfig `json:"config"`
	Package        string     `json:"package" validate:"required"`
}

// UserInfo carries the ordering customer
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UserConfig holds the values the customer entered in the user config form
type UserConfig struct {
	Domain   string `json:"domain" validate:"required,fqdn"`
	Password string `json:"password" validate:"omitempty,max=6,alphanum"`
}

// AccountActionRequest is sent for suspend, unsuspend and terminate
type AccountActionRequest struct {
	OrderProductID string        `json:"order_product_id" validate:"required"`
	Config         AccountConfig `json:"config"`
}

// AccountConfig holds the resolved order product config sent by the platform
type AccountConfig struct {
	Username string `json:"username"`
}

// CreateServerResponse is returned after the account exists on the WHM server
type CreateServerResponse struct {
	Success        bool   `json:"success"`
	OrderProductID string `json:"order_product_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Domain         string `json:"domain"`
	Package        string `json:"package"`
}

// AccountActionResponse is returned after suspend, unsuspend or terminate
type AccountActionResponse struct {
	Success        bool   `json:"success"`
	OrderProductID string `json:"order_product_id"`
	Username       string `json:"username"`
	Action         string `json:"action"`
}

// AccountInfo is the stored state of one order product's account
type AccountInfo struct {
	OrderProductID string `json:"order_product_id"`
	Username       string `json:"username"`
	HasPassword    bool   `json:"has_password"`
	Link           string `json:"link,omitempty"`
}

// AccountLogResponse is one log entry in API form
type AccountLogResponse struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// LinkResponse carries the login host for end users
type LinkResponse struct {
	Link string `json:"link"`
}
