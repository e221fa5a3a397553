package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanmade/nowplaying/internal/apperr"
)

func TestNew_RequiresStaticPath(t *testing.T) {
	for _, path := range []string{"", "   "} {
		_, err := New(Config{StaticPath: path})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrConfiguration))
	}
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/static/search_24dp.svg":
			w.Header().Set("Content-Type", "image/svg+xml")
			fmt.Fprint(w, `<svg viewBox="0 0 24 24"><path d="M0 0"/></svg>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(Config{StaticPath: server.URL + "/static/"})
	require.NoError(t, err)

	text, err := client.Fetch(context.Background(), "search_24dp.svg")
	require.NoError(t, err)
	assert.Contains(t, text, "<svg")

	_, err = client.Fetch(context.Background(), "missing_24dp.svg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrFetch))
	assert.Contains(t, err.Error(), "404")
}

func TestClient_FetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(Config{StaticPath: url + "/"})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "close_24dp.svg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrFetch))
}
