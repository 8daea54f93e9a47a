package models

// Config field types understood by the billing platform's form renderer
const (
	FieldTypeText     = "text"
	FieldTypeDropdown = "dropdown"
)

// FieldOption is one entry of a dropdown field
type FieldOption struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// ConfigField describes one form input the platform renders
type ConfigField struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	FriendlyName string        `json:"friendlyName"`
	Validation   string        `json:"validation,omitempty"`
	Required     bool          `json:"required"`
	Options      []FieldOption `json:"options,omitempty"`
}

// ExtensionMetadata identifies this integration to the platform
type ExtensionMetadata struct {
	DisplayName string `json:"display_name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Website     string `json:"website"`
}
