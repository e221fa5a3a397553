package playback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/domain/playlist"
	"github.com/fanmade/nowplaying/internal/domain/track"
)

// Errors
var (
	ErrIndicatorUnavailable = errors.New("repeat indicator unavailable")
	ErrAlreadyBound         = errors.New("repeat indicator already bound")
)

// Resolver resolves a track ID to playable metadata.
type Resolver interface {
	Resolve(ctx context.Context, id track.ID) (*track.Metadata, error)
}

// Source is media fetched and decoded by Media.Prepare but not yet attached
// to the player.
type Source interface {
	URL() string
	Close() error
}

// Media is the audio element driven by the controller.
// Prepare does the network work and must not touch playback state; the other
// methods return promptly. SetSource takes ownership of src, even on error.
// OnEnded callbacks must be invoked outside of any Media method call.
type Media interface {
	Prepare(ctx context.Context, url string) (Source, error)
	SetSource(src Source) error
	Play() error
	Pause()
	Restart() error
	OnEnded(fn func())
}

// View renders the "now playing" fields.
type View interface {
	ShowTrack(m track.Metadata)
}

// Surface is the player container that can be hidden.
type Surface interface {
	Hide()
}

// RepeatIndicator shows exactly one icon for the given mode.
type RepeatIndicator interface {
	Show(mode RepeatMode)
}

// Readiness is a one-shot future: Done is closed once the awaited
// condition settled, Err reports how it settled.
type Readiness interface {
	Done() <-chan struct{}
	Err() error
}

// Deps holds the collaborators injected into the controller.
type Deps struct {
	Resolver Resolver
	Media    Media
	View     View
	Surface  Surface
}

// Config holds controller configuration.
type Config struct {
	// ResyncCursorOnSelect moves the cursor to the selected track's queue
	// position when a track link is activated. Off by default: selecting a
	// track leaves the cursor where queue navigation last put it.
	ResyncCursorOnSelect bool
	// EventBuffer is the capacity of the event channel.
	EventBuffer int
}

// Status is a snapshot of the controller state.
type Status struct {
	Cursor  int
	Mode    RepeatMode
	Current *track.Metadata
	Queue   []track.ID
	Closed  bool
}

// Controller manages playback over a fixed queue.
type Controller struct {
	mu sync.RWMutex
	// mediaMu serializes everything that touches the media element and view.
	// It is never held across Resolve or Media.Prepare.
	mediaMu sync.Mutex

	queue  playlist.Queue
	cursor int
	mode   RepeatMode

	current *track.Metadata
	closed  bool

	// seq is the number of the latest issued load request.
	seq uint64

	indicator RepeatIndicator

	deps   Deps
	config Config

	eventCh chan Event
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller over queue. The cursor starts at 0 and
// the repeat mode at RepeatOff. No request is issued until a track is selected.
func NewController(queue playlist.Queue, deps Deps, config Config) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		queue:   queue,
		mode:    RepeatOff,
		deps:    deps,
		config:  config,
		eventCh: make(chan Event, config.EventBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	deps.Media.OnEnded(func() {
		c.OnTrackEnded(c.ctx)
	})
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Play loads and plays id without touching the cursor.
// Failures are logged and reported as EventPlayFailed.
func (c *Controller) Play(ctx context.Context, id track.ID) {
	c.mu.Lock()
	seq := c.beginRequestLocked()
	c.mu.Unlock()

	c.load(ctx, id, seq)
}

// Select handles activation of a track link.
func (c *Controller) Select(ctx context.Context, id track.ID) {
	c.mu.Lock()
	if c.config.ResyncCursorOnSelect {
		if i := c.queue.IndexOf(id); i >= 0 {
			c.cursor = i
		}
	}
	seq := c.beginRequestLocked()
	c.mu.Unlock()

	c.load(ctx, id, seq)
}

// Next moves to the following queue entry and plays it.
// Returns false without doing anything when the cursor is on the last entry.
func (c *Controller) Next(ctx context.Context) bool {
	c.mu.Lock()
	if c.cursor >= c.queue.LastIndex() {
		c.mu.Unlock()
		return false
	}
	c.cursor++
	id, seq := c.cursorTrackLocked(), c.beginRequestLocked()
	c.mu.Unlock()

	c.load(ctx, id, seq)
	return true
}

// Previous moves to the preceding queue entry and plays it.
// Returns false without doing anything when the cursor is on the first entry.
func (c *Controller) Previous(ctx context.Context) bool {
	c.mu.Lock()
	if c.cursor <= 0 {
		c.mu.Unlock()
		return false
	}
	c.cursor--
	id, seq := c.cursorTrackLocked(), c.beginRequestLocked()
	c.mu.Unlock()

	c.load(ctx, id, seq)
	return true
}

// OnTrackEnded reacts to the natural end of the current media.
//
//	one            restart the same track, cursor unchanged, no fetch
//	all, last      cursor -> 0
//	all/off, else  cursor -> cursor+1
//	off, last      nothing
func (c *Controller) OnTrackEnded(ctx context.Context) {
	c.mu.Lock()
	switch {
	case c.mode == RepeatOne:
		c.mu.Unlock()
		c.restart()
		return
	case c.mode == RepeatAll && c.cursor == c.queue.LastIndex():
		c.cursor = 0
	case c.cursor < c.queue.LastIndex():
		c.cursor++
	default:
		zlog.Debug().Msgf("playback: end of queue reached: cursor=%d mode=%s", c.cursor, c.mode)
		c.sendEventLocked(Event{Type: EventQueueFinished, Cursor: c.cursor, Mode: c.mode})
		c.mu.Unlock()
		return
	}
	id, seq := c.cursorTrackLocked(), c.beginRequestLocked()
	c.mu.Unlock()

	c.load(ctx, id, seq)
}

// ToggleRepeat advances the repeat mode (off -> all -> one -> off) and
// returns the new mode.
func (c *Controller) ToggleRepeat() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = c.mode.Next()
	if c.indicator != nil {
		c.indicator.Show(c.mode)
	} else {
		zlog.Debug().Msgf("playback: repeat indicator not bound yet: mode=%s", c.mode)
	}

	c.sendEventLocked(Event{Type: EventRepeatChanged, Cursor: c.cursor, Mode: c.mode})
	return c.mode
}

// BindRepeatIndicator blocks until ready settles, then obtains the indicator
// from bind and paints the current mode on it. It can succeed only once.
func (c *Controller) BindRepeatIndicator(ctx context.Context, ready Readiness, bind func() (RepeatIndicator, error)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready.Done():
	}
	if err := ready.Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "repeat icons not materialized"), ErrIndicatorUnavailable)
	}

	indicator, err := bind()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to bind repeat icons"), ErrIndicatorUnavailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indicator != nil {
		return ErrAlreadyBound
	}
	c.indicator = indicator
	c.indicator.Show(c.mode)
	zlog.Debug().Msgf("playback: repeat indicator bound: mode=%s", c.mode)
	return nil
}

// Close pauses the media and hides the player surface. It does not wait for
// pending downloads. Calling it again is harmless.
func (c *Controller) Close() {
	c.mediaMu.Lock()
	c.deps.Media.Pause()
	c.deps.Surface.Hide()
	c.mediaMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.sendEventLocked(Event{Type: EventClosed, Cursor: c.cursor, Mode: c.mode})
}

// Cursor returns the current queue position.
func (c *Controller) Cursor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Mode returns the current repeat mode.
func (c *Controller) Mode() RepeatMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Queue returns the queue the controller navigates.
func (c *Controller) Queue() playlist.Queue {
	return c.queue
}

// Current returns the metadata of the last track that started playing.
func (c *Controller) Current() (*track.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return nil, false
	}
	m := *c.current
	return &m, true
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		Cursor: c.cursor,
		Mode:   c.mode,
		Queue:  c.queue.TrackIDs(),
		Closed: c.closed,
	}
	if c.current != nil {
		m := *c.current
		s.Current = &m
	}
	return s
}

// Shutdown stops event delivery and closes the event channel.
func (c *Controller) Shutdown() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.eventCh)
}

// load resolves id and prepares its media, then applies both if the request
// is still the latest one. The view only changes once the new source is
// attached.
func (c *Controller) load(ctx context.Context, id track.ID, seq uint64) {
	meta, err := c.deps.Resolver.Resolve(ctx, id)
	if err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to resolve track: id=%s", id)
		c.fail(id, err)
		return
	}
	if meta.ID == "" {
		meta.ID = id
	}
	if !meta.IsPlayable() {
		err := errors.Mark(errors.Newf("track has no media source: id=%s", id), apperr.ErrParse)
		zlog.Error().Err(err).Msgf("playback: track not playable: id=%s", id)
		c.fail(id, err)
		return
	}
	if !c.isLatest(seq) {
		c.discard(id, seq)
		return
	}

	src, err := c.deps.Media.Prepare(ctx, meta.MediaURL)
	if err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to load media: id=%s url=%s", id, meta.MediaURL)
		c.fail(id, err)
		return
	}

	c.mediaMu.Lock()
	defer c.mediaMu.Unlock()

	// The download may have taken long enough for a newer request to arrive.
	if !c.isLatest(seq) {
		src.Close()
		c.discard(id, seq)
		return
	}
	if err := c.deps.Media.SetSource(src); err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to attach media: id=%s url=%s", id, meta.MediaURL)
		c.fail(id, err)
		return
	}
	c.deps.View.ShowTrack(*meta)

	if err := c.deps.Media.Play(); err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to start media: id=%s", id)
		c.fail(id, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = meta
	c.closed = false
	zlog.Info().Msgf("playback: now playing: id=%s track=%s cursor=%d", id, meta.Label(), c.cursor)
	c.sendEventLocked(Event{
		Type:     EventTrackStarted,
		TrackID:  id,
		Metadata: meta,
		Cursor:   c.cursor,
		Mode:     c.mode,
	})
}

// restart rewinds the current media to 0 and resumes it.
func (c *Controller) restart() {
	c.mediaMu.Lock()
	err := c.deps.Media.Restart()
	c.mediaMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	var id track.ID
	if c.current != nil {
		id = c.current.ID
	}
	if err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to restart track: id=%s", id)
		c.sendEventLocked(Event{Type: EventPlayFailed, TrackID: id, Cursor: c.cursor, Mode: c.mode, Err: err})
		return
	}
	c.sendEventLocked(Event{Type: EventTrackRestarted, TrackID: id, Cursor: c.cursor, Mode: c.mode})
}

func (c *Controller) fail(id track.ID, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendEventLocked(Event{Type: EventPlayFailed, TrackID: id, Cursor: c.cursor, Mode: c.mode, Err: err})
}

func (c *Controller) discard(id track.ID, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	zlog.Debug().Msgf("playback: dropping superseded response: id=%s seq=%d latest=%d", id, seq, c.seq)
	c.sendEventLocked(Event{Type: EventPlayDiscarded, TrackID: id, Cursor: c.cursor, Mode: c.mode})
}

func (c *Controller) isLatest(seq uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return seq == c.seq
}

// beginRequestLocked issues a new request sequence number.
// Must be called with lock held.
func (c *Controller) beginRequestLocked() uint64 {
	c.seq++
	return c.seq
}

// cursorTrackLocked returns the track under the cursor.
// Must be called with lock held.
func (c *Controller) cursorTrackLocked() track.ID {
	id, _ := c.queue.At(c.cursor)
	return id
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.stopped {
		return
	}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", e.Type)
	}
}
