package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/infra/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MediaConfig
		wantErr bool
	}{
		{name: "null", cfg: config.MediaConfig{Type: "null"}},
		{name: "null with duration", cfg: config.MediaConfig{Type: "null", Settings: map[string]any{"duration_ms": 250}}},
		{name: "unsupported", cfg: config.MediaConfig{Type: "vlc"}, wantErr: true},
		{name: "negative duration", cfg: config.MediaConfig{Type: "null", Settings: map[string]any{"duration_ms": -1}}, wantErr: true},
		{name: "undecodable settings", cfg: config.MediaConfig{Type: "null", Settings: map[string]any{"duration_ms": "long"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperr.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.NoError(t, backend.Close())
		})
	}
}

func TestNewFromConfig_Beep(t *testing.T) {
	backend, err := NewFromConfig(config.MediaConfig{Type: "beep"})
	if !AudioAvailable {
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrConfiguration))
		return
	}
	require.NoError(t, err)
	assert.NoError(t, backend.Close())
}

func TestBeepSettings_Defaults(t *testing.T) {
	var s BeepSettings
	require.NoError(t, decodeSettings(map[string]any{"sample_rate": 48000}, &s))

	assert.Equal(t, BeepSettings{SampleRate: 48000, BufferMs: 100, MaxMB: 64, TimeoutSec: 30}, s)

	err := decodeSettings(map[string]any{"sample_rate": 100}, &BeepSettings{})
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func load(t *testing.T, n *Null, url string) {
	t.Helper()
	src, err := n.Prepare(context.Background(), url)
	require.NoError(t, err)
	require.NoError(t, n.SetSource(src))
}

func TestNull_PrepareKeepsCurrentTrack(t *testing.T) {
	n, err := NewNull(nil)
	require.NoError(t, err)
	load(t, n, "http://x/a.mp3")
	require.NoError(t, n.Play())

	src, err := n.Prepare(context.Background(), "http://x/b.mp3")
	require.NoError(t, err)
	assert.Equal(t, "http://x/b.mp3", src.URL())
	assert.True(t, n.Playing(), "prepare does not touch playback")
	assert.Equal(t, "http://x/a.mp3", n.Source())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Prepare(ctx, "http://x/c.mp3")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNull_PlayAndEnd(t *testing.T) {
	n, err := NewNull(nil)
	require.NoError(t, err)

	ended := 0
	n.OnEnded(func() { ended++ })

	assert.Error(t, n.Play(), "no source yet")
	_, err = n.Prepare(context.Background(), "")
	assert.Error(t, err)

	load(t, n, "http://x/a.mp3")
	require.NoError(t, n.Play())
	assert.True(t, n.Playing())
	assert.Equal(t, "http://x/a.mp3", n.Source())

	n.End()
	assert.Equal(t, 1, ended)
	assert.False(t, n.Playing())

	n.End()
	assert.Equal(t, 1, ended, "nothing playing, nothing ends")

	require.NoError(t, n.Restart())
	assert.True(t, n.Playing())
	assert.Equal(t, 2, n.Plays())
}

func TestNull_PauseStopsPlayback(t *testing.T) {
	n, err := NewNull(nil)
	require.NoError(t, err)
	load(t, n, "http://x/a.mp3")
	require.NoError(t, n.Play())

	n.Pause()

	assert.False(t, n.Playing())
	assert.Equal(t, "http://x/a.mp3", n.Source(), "source survives pause")
}

func TestNull_SimulatedDuration(t *testing.T) {
	n, err := NewNull(map[string]any{"duration_ms": 20})
	require.NoError(t, err)

	ended := make(chan struct{}, 4)
	n.OnEnded(func() { ended <- struct{}{} })

	load(t, n, "http://x/a.mp3")
	require.NoError(t, n.Play())

	select {
	case <-ended:
	case <-time.After(time.Second):
		t.Fatal("track never ended")
	}
	assert.False(t, n.Playing())
}

func TestNull_ReplacedSourceDoesNotEnd(t *testing.T) {
	n, err := NewNull(map[string]any{"duration_ms": 30})
	require.NoError(t, err)

	ended := make(chan struct{}, 4)
	n.OnEnded(func() { ended <- struct{}{} })

	load(t, n, "http://x/a.mp3")
	require.NoError(t, n.Play())
	load(t, n, "http://x/b.mp3")

	select {
	case <-ended:
		t.Fatal("stale track reported its end")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ID3 payload"))
	})
	mux.HandleFunc("/big.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx := context.Background()

	data, err := download(ctx, server.Client(), server.URL+"/ok.mp3", 1024)
	require.NoError(t, err)
	assert.Equal(t, "ID3 payload", string(data))

	_, err = download(ctx, server.Client(), server.URL+"/missing.mp3", 1024)
	assert.True(t, errors.Is(err, apperr.ErrFetch))

	_, err = download(ctx, server.Client(), server.URL+"/big.mp3", 16)
	assert.True(t, errors.Is(err, apperr.ErrFetch))
}
