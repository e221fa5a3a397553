// Package audio provides the media backends driven by the playback
// controller.
package audio

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/infra/config"
)

// Backend is a media element that can be released.
type Backend interface {
	playback.Media
	Close() error
}

// NewFromConfig creates the media backend selected by cfg.Type.
func NewFromConfig(cfg config.MediaConfig) (Backend, error) {
	zlog.Debug().Msgf("audio: creating media backend: type=%s settings=%+v", cfg.Type, cfg.Settings)

	var (
		backend Backend
		err     error
	)
	switch cfg.Type {
	case "beep":
		backend, err = NewBeep(cfg.Settings)
	case "null", "":
		backend, err = NewNull(cfg.Settings)
	default:
		return nil, errors.Mark(errors.Newf("unsupported media type: %s", cfg.Type), apperr.ErrConfiguration)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create media backend (type %s)", cfg.Type)
	}

	zlog.Info().Msgf("audio: media backend ready: type=%s", cfg.Type)
	return backend, nil
}

// decodeSettings decodes settings into out, applies defaults and validates
// the result.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to decode settings"), apperr.ErrConfiguration)
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Mark(errors.Wrap(err, "validation failed"), apperr.ErrConfiguration)
	}
	return nil
}
