package service

import (
	"context"
	"fmt"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/models"
)

var metadata = models.ExtensionMetadata{
	DisplayName: "CPanel",
	Version:     "1.0.1",
	Author:      "wenwu",
	Website:     "https://github.com/wenwu/saas-platform",
}

// GetMetadata identifies the integration to the platform
func (s *CPanelService) GetMetadata() models.ExtensionMetadata {
	return metadata
}

// GetConfig returns the server-level config schema
func (s *CPanelService) GetConfig() []models.ConfigField {
	return []models.ConfigField{
		{
			Name:         "host",
			Type:         models.FieldTypeText,
			FriendlyName: "Hostname",
			Validation:   "url:http,https",
			Required:     true,
		},
		{
			Name:         "hostaccess",
			Type:         models.FieldTypeText,
			FriendlyName: "Access for users hostname",
			Validation:   "url:http,https",
			Required:     false,
		},
		{
			Name:         "username",
			Type:         models.FieldTypeText,
			FriendlyName: "Username",
			Required:     true,
		},
		{
			Name:         "apikey",
			Type:         models.FieldTypeText,
			FriendlyName: "API key",
			Required:     true,
		},
	}
}

// GetProductConfig returns the per-product schema. The package options are
// fetched live from the WHM server on every call.
func (s *CPanelService) GetProductConfig(ctx context.Context) ([]models.ConfigField, error) {
	packages, err := s.whm.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	options := make([]models.FieldOption, 0, len(packages))
	for _, pkg := range packages {
		options = append(options, models.FieldOption{Value: pkg.Name, Name: pkg.Name})
	}

	return []models.ConfigField{
		{
			Name:         "package",
			Type:         models.FieldTypeDropdown,
			FriendlyName: "Package",
			Options:      options,
			Required:     true,
		},
	}, nil
}

// GetUserConfig returns the schema the customer fills in at order time.
// An empty password means one is generated at creation.
func (s *CPanelService) GetUserConfig() []models.ConfigField {
	return []models.ConfigField{
		{
			Name:         "domain",
			Type:         models.FieldTypeText,
			Validation:   "domain",
			FriendlyName: "Domain",
			Required:     true,
		},
		{
			Name:         "password",
			Type:         models.FieldTypeText,
			Validation:   "max:6|regex:/^[a-zA-Z0-9]+$/i",
			FriendlyName: "Password (max 6 characters and only letters and numbers)",
			Required:     false,
		},
	}
}
