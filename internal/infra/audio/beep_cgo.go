//go:build (linux && cgo) || windows || darwin

package audio

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/playback"
)

// AudioAvailable indicates whether speaker output is supported in this build.
const AudioAvailable = true

// Beep plays MP3 media through the system speaker.
type Beep struct {
	mu sync.Mutex

	settings   BeepSettings
	httpClient *http.Client

	initialized bool
	sampleRate  beep.SampleRate

	source   string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	// gen invalidates end callbacks of streams that were replaced.
	gen     uint64
	onEnded func()
}

// NewBeep creates a speaker backend from settings. The speaker itself is
// opened on first playback.
func NewBeep(settings map[string]any) (*Beep, error) {
	var s BeepSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return &Beep{
		settings:   s,
		httpClient: &http.Client{Timeout: time.Duration(s.TimeoutSec) * time.Second},
		sampleRate: beep.SampleRate(s.SampleRate),
	}, nil
}

// beepSource is a decoded MP3 stream waiting to be attached.
type beepSource struct {
	url      string
	streamer beep.StreamSeekCloser
	format   beep.Format
}

func (s *beepSource) URL() string  { return s.url }
func (s *beepSource) Close() error { return s.streamer.Close() }

// Prepare downloads and decodes the media at url. The current stream keeps
// playing.
func (b *Beep) Prepare(ctx context.Context, url string) (playback.Source, error) {
	if url == "" {
		return nil, errors.New("empty media url")
	}

	data, err := download(ctx, b.httpClient, url, int64(b.settings.MaxMB)<<20)
	if err != nil {
		return nil, err
	}

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode media: url=%s", url)
	}
	zlog.Debug().Msgf("audio: source decoded: url=%s rate=%d channels=%d", url, format.SampleRate, format.NumChannels)
	return &beepSource{url: url, streamer: streamer, format: format}, nil
}

// SetSource stops the previous stream and attaches src, which must come
// from Prepare.
func (b *Beep) SetSource(src playback.Source) error {
	bs, ok := src.(*beepSource)
	if !ok {
		src.Close()
		return errors.Newf("source not prepared by beep: url=%s", src.URL())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.initSpeakerLocked(); err != nil {
		bs.Close()
		return err
	}

	b.stopLocked()
	b.source = bs.url
	b.streamer = bs.streamer
	b.format = bs.format
	return nil
}

// Play starts the current stream, or resumes it if paused.
func (b *Beep) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return errors.New("no media source set")
	}
	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}
	b.startLocked()
	return nil
}

// Pause pauses playback.
func (b *Beep) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl != nil {
		speaker.Lock()
		b.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Restart rewinds the current stream to 0 and plays it, even if it already
// ran to its end.
func (b *Beep) Restart() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.streamer == nil {
		return errors.New("no media source set")
	}

	speaker.Clear()
	b.gen++
	speaker.Lock()
	err := b.streamer.Seek(0)
	speaker.Unlock()
	if err != nil {
		return errors.Wrap(err, "failed to rewind media")
	}
	b.startLocked()
	return nil
}

// OnEnded registers the end-of-track callback.
func (b *Beep) OnEnded(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEnded = fn
}

// Close stops playback and releases the speaker.
func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	if b.initialized {
		speaker.Close()
		b.initialized = false
	}
	return nil
}

// initSpeakerLocked opens the speaker once. Must be called with lock held.
func (b *Beep) initSpeakerLocked() error {
	if b.initialized {
		return nil
	}
	buffer := b.sampleRate.N(time.Duration(b.settings.BufferMs) * time.Millisecond)
	if err := speaker.Init(b.sampleRate, buffer); err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	b.initialized = true
	return nil
}

// startLocked queues the stream on the speaker. Must be called with lock held.
func (b *Beep) startLocked() {
	resampled := beep.Resample(4, b.format.SampleRate, b.sampleRate, b.streamer)
	b.ctrl = &beep.Ctrl{Streamer: resampled, Paused: false}

	gen := b.gen
	speaker.Play(beep.Seq(b.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine; the handler may call back into Beep.
		go b.ended(gen)
	})))
	zlog.Info().Msgf("audio: playing: url=%s", b.source)
}

func (b *Beep) ended(gen uint64) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.ctrl = nil
	fn := b.onEnded
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// stopLocked drops the current stream. Must be called with lock held.
func (b *Beep) stopLocked() {
	b.gen++
	if b.initialized {
		speaker.Clear()
	}
	if b.streamer != nil {
		b.streamer.Close()
		b.streamer = nil
	}
	b.ctrl = nil
	b.source = ""
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
