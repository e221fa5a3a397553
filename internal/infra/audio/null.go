package audio

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/playback"
)

// NullSettings configures the null backend.
type NullSettings struct {
	// DurationMs is the simulated track length. Zero means tracks never end
	// on their own.
	DurationMs int `mapstructure:"duration_ms" default:"0" validate:"gte=0"`
}

// Null is a silent backend that only logs what it would play. With a
// duration set, it reports the end of every track after that long.
type Null struct {
	mu       sync.Mutex
	duration time.Duration
	source   string
	playing  bool
	timer    *time.Timer
	gen      uint64
	onEnded  func()
	plays    int
}

// NewNull creates a null backend from settings.
func NewNull(settings map[string]any) (*Null, error) {
	var s NullSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return &Null{duration: time.Duration(s.DurationMs) * time.Millisecond}, nil
}

// nullSource is a media URL accepted by the null backend.
type nullSource string

func (s nullSource) URL() string  { return string(s) }
func (s nullSource) Close() error { return nil }

// Prepare accepts any non-empty url without fetching it.
func (n *Null) Prepare(ctx context.Context, url string) (playback.Source, error) {
	if url == "" {
		return nil, errors.New("empty media url")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nullSource(url), nil
}

// SetSource stops the current track and selects src.
func (n *Null) SetSource(src playback.Source) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
	n.source = src.URL()
	zlog.Debug().Msgf("audio: null source set: url=%s", n.source)
	return nil
}

// Play starts or resumes the current source.
func (n *Null) Play() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.source == "" {
		return errors.New("no media source set")
	}
	n.stopLocked()
	n.playing = true
	n.plays++
	n.armLocked()
	zlog.Info().Msgf("audio: null playing: url=%s", n.source)
	return nil
}

// Pause stops the simulated clock.
func (n *Null) Pause() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
}

// Restart plays the current source from the beginning.
func (n *Null) Restart() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.source == "" {
		return errors.New("no media source set")
	}
	n.stopLocked()
	n.playing = true
	n.plays++
	n.armLocked()
	return nil
}

// OnEnded registers the end-of-track callback.
func (n *Null) OnEnded(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onEnded = fn
}

// End simulates the natural end of the current track.
func (n *Null) End() {
	n.mu.Lock()
	gen := n.gen
	n.mu.Unlock()
	n.endGen(gen)
}

// endGen ends the track of generation gen if it is still playing.
func (n *Null) endGen(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || !n.playing {
		n.mu.Unlock()
		return
	}
	n.stopLocked()
	fn := n.onEnded
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Source returns the current source URL.
func (n *Null) Source() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.source
}

// Playing reports whether a track is playing.
func (n *Null) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// Plays returns how many times playback was started.
func (n *Null) Plays() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.plays
}

// Close stops playback.
func (n *Null) Close() error {
	n.Pause()
	return nil
}

// armLocked schedules the simulated end. Must be called with lock held.
func (n *Null) armLocked() {
	if n.duration <= 0 {
		return
	}
	gen := n.gen
	n.timer = time.AfterFunc(n.duration, func() { n.endGen(gen) })
}

// stopLocked cancels the simulated clock. Must be called with lock held.
func (n *Null) stopLocked() {
	n.gen++
	n.playing = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
