package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
)

type SettingsOutput struct {
	Body atlas.Settings
}

type PatchSettingsInput struct {
	RawBody []byte `contentType:"application/merge-patch+json"`
}

// RegisterSettings registers settings routes.
func (h *APIHandler) RegisterSettings(api huma.API) {
	huma.Get(api, "/api/v1/settings", h.GetSettings, huma.OperationTags("settings"))
	huma.Patch(api, "/api/v1/settings", h.PatchSettings, huma.OperationTags("settings"))
	huma.Delete(api, "/api/v1/settings", h.ResetSettings, huma.OperationTags("settings"))
}

func (h *APIHandler) GetSettings(ctx context.Context, input *struct{}) (*SettingsOutput, error) {
	return &SettingsOutput{Body: h.svc.Settings.Get()}, nil
}

// PatchSettings replaces each top-level key present in the body. A theme
// object replaces the whole theme.
func (h *APIHandler) PatchSettings(ctx context.Context, input *PatchSettingsInput) (*SettingsOutput, error) {
	settings, err := h.svc.Settings.Patch(ctx, input.RawBody)
	if err != nil {
		return nil, httpError(err)
	}
	return &SettingsOutput{Body: settings}, nil
}

func (h *APIHandler) ResetSettings(ctx context.Context, input *struct{}) (*SettingsOutput, error) {
	return &SettingsOutput{Body: h.svc.Settings.Reset(ctx)}, nil
}
