//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/apperr"
)

// AudioAvailable indicates whether speaker output is supported in this build.
// Speaker output requires cgo on linux.
const AudioAvailable = false

// Beep is unavailable in builds without cgo; NewBeep always fails.
type Beep struct{}

// NewBeep validates settings and reports that speaker output is not built in.
func NewBeep(settings map[string]any) (*Beep, error) {
	var s BeepSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return nil, errors.Mark(errors.New("beep backend requires a cgo build, use media type null"), apperr.ErrConfiguration)
}

func (b *Beep) Prepare(ctx context.Context, url string) (playback.Source, error) {
	return nil, errors.New("speaker output not built in")
}

func (b *Beep) SetSource(src playback.Source) error { return src.Close() }
func (b *Beep) Play() error                         { return nil }
func (b *Beep) Pause()                              {}
func (b *Beep) Restart() error                      { return nil }
func (b *Beep) OnEnded(fn func())                   {}
func (b *Beep) Close() error                        { return nil }
