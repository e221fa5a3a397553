package audio

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/fanmade/nowplaying/internal/apperr"
)

// download reads the whole media file at url into memory. Bodies larger
// than limit bytes are rejected.
func download(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create media request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Fetch(err, "media request failed: url=%s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Mark(errors.Newf("media request returned %s: url=%s", resp.Status, url), apperr.ErrFetch)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, apperr.Fetch(err, "failed to read media body: url=%s", url)
	}
	if int64(len(data)) > limit {
		return nil, errors.Mark(errors.Newf("media file exceeds %d bytes: url=%s", limit, url), apperr.ErrFetch)
	}
	return data, nil
}
