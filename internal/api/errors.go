package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-atlas/internal/atlas"
	"github.com/joeblew999/plat-atlas/internal/service"
)

// httpError maps service errors onto Huma status errors.
func httpError(err error) error {
	var verr *atlas.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Error(), &huma.ErrorDetail{
			Location: "body." + verr.Field,
			Message:  verr.Message,
		})
	case errors.Is(err, service.ErrInvalidImport):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrCityNotFound):
		return huma.Error404NotFound(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
