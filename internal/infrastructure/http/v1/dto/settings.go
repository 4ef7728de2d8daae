package dto

import (
	"fakturo/internal/domain/settings"
)

// SetSettingRequest sets one tenant-scoped key/value pair.
type SetSettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse is the response body for a setting.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FromSetting creates response DTO from domain entity.
func FromSetting(s settings.Setting) SettingResponse {
	return SettingResponse{Key: s.Key, Value: s.Value}
}
