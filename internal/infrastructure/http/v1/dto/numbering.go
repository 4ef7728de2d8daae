package dto

import (
	"fakturo/internal/domain/numbering"
)

// UpsertNumberingConfigRequest creates or replaces the numbering pattern for
// an entity type.
type UpsertNumberingConfigRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// NumberingConfigResponse is the response body for a numbering config.
type NumberingConfigResponse struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	Pattern    string `json:"pattern"`
	Version    int    `json:"version"`
}

// FromNumberingConfig creates response DTO from domain entity.
func FromNumberingConfig(cfg *numbering.Config) *NumberingConfigResponse {
	return &NumberingConfigResponse{
		ID:         cfg.ID.String(),
		EntityType: cfg.EntityType,
		Pattern:    cfg.Pattern,
		Version:    cfg.Version,
	}
}

// PreviewNumberRequest renders a pattern without consuming a sequence value.
type PreviewNumberRequest struct {
	Pattern     string `json:"pattern" binding:"required"`
	PartnerCode string `json:"partnerCode"`
	DocType     string `json:"docType"`
}
