package icons

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/infra/dom"
)

// Fetcher retrieves the text of an icon asset file.
type Fetcher interface {
	Fetch(ctx context.Context, file string) (string, error)
}

// Report summarizes one materialize pass.
type Report struct {
	Replaced  int // Placeholders replaced with SVG markup
	Unknown   int // Placeholders naming no registered icon
	Failed    int // Placeholders whose fetch or parse failed
	Remaining int // Placeholders left in the document after the pass
}

// result is a settled fetch. Failures are kept like successes so a name is
// never fetched twice.
type result struct {
	text string
	err  error
}

// Loader resolves icon names and replaces placeholders in documents.
type Loader struct {
	fetcher  Fetcher
	registry Registry

	group   singleflight.Group
	cacheMu sync.RWMutex
	cache   map[string]result
	fetches atomic.Int64

	waitMu  sync.Mutex
	waiters []*waiter
	// active counts running passes per document, passed marks documents
	// with at least one finished pass.
	active map[*dom.Document]int
	passed map[*dom.Document]bool
}

// NewLoader creates a loader over registry, fetching assets with fetcher.
func NewLoader(fetcher Fetcher, registry Registry) *Loader {
	return &Loader{
		fetcher:  fetcher,
		registry: registry,
		cache:    make(map[string]result),
		active:   make(map[*dom.Document]int),
		passed:   make(map[*dom.Document]bool),
	}
}

// Registry returns the loader's icon registry.
func (l *Loader) Registry() Registry {
	return l.registry
}

// Fetches returns how many asset fetches were issued so far.
func (l *Loader) Fetches() int {
	return int(l.fetches.Load())
}

// Resolve returns the SVG text for name. Concurrent callers for the same
// name share one fetch; later callers get the cached outcome.
func (l *Loader) Resolve(ctx context.Context, name string) (string, error) {
	file, ok := l.registry.Lookup(name)
	if !ok {
		return "", errors.Mark(errors.Newf("no registry entry for %q", name), apperr.ErrUnknownIcon)
	}

	if r, ok := l.cached(name); ok {
		return r.text, r.err
	}

	ch := l.group.DoChan(name, func() (any, error) {
		if r, ok := l.cached(name); ok {
			return r.text, r.err
		}

		l.fetches.Add(1)
		zlog.Debug().Msgf("icons: fetching asset: name=%s file=%s", name, file)
		// The fetch is shared, so one caller giving up must not cancel it.
		text, err := l.fetcher.Fetch(context.WithoutCancel(ctx), file)
		if err != nil {
			err = errors.Wrapf(err, "icon %q", name)
		}

		l.cacheMu.Lock()
		l.cache[name] = result{text: text, err: err}
		l.cacheMu.Unlock()
		return text, err
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Materialize replaces every placeholder present in doc at call time.
// Placeholders are processed one after another; failures are logged and
// leave the placeholder in place. Readiness futures registered for doc are
// settled when the pass ends.
func (l *Loader) Materialize(ctx context.Context, doc *dom.Document) Report {
	var report Report

	l.begin(doc)
	for _, ph := range doc.Placeholders(nil) {
		if ctx.Err() != nil {
			break
		}

		name := ph.Attr("name")
		text, err := l.Resolve(ctx, name)
		if err != nil {
			if errors.Is(err, apperr.ErrUnknownIcon) {
				report.Unknown++
				zlog.Warn().Msgf("icons: no icon registered for placeholder: name=%q", name)
			} else {
				report.Failed++
				zlog.Error().Err(err).Msgf("icons: failed to load icon: name=%s", name)
			}
			continue
		}

		if _, err := doc.ReplaceWithMarkup(ph, text); err != nil {
			report.Failed++
			zlog.Error().Err(err).Msgf("icons: failed to inflate icon: name=%s", name)
			continue
		}
		report.Replaced++
		l.notify(doc, false)
	}

	l.notify(doc, true)
	report.Remaining = doc.CountPlaceholders(nil)

	zlog.Debug().Msgf("icons: materialize done: replaced=%d unknown=%d failed=%d remaining=%d",
		report.Replaced, report.Unknown, report.Failed, report.Remaining)
	return report
}

// Ready returns a future that completes once scope holds no placeholder.
// It completes immediately when scope is already free of placeholders, and
// with ErrUnresolved when a materialize pass of doc ends with some left. A
// future requested after doc's passes finished settles at once.
func (l *Loader) Ready(doc *dom.Document, scope *dom.Element) *Readiness {
	r := newReadiness()
	if scope == nil {
		r.settle(errors.New("readiness scope is missing"))
		return r
	}

	l.waitMu.Lock()
	defer l.waitMu.Unlock()

	left := doc.CountPlaceholders(scope)
	switch {
	case left == 0:
		r.settle(nil)
		return r
	case l.passed[doc] && l.active[doc] == 0:
		r.settle(errors.Wrapf(ErrUnresolved, "%d placeholder(s) remain", left))
		return r
	}
	l.waiters = append(l.waiters, &waiter{doc: doc, scope: scope, ready: r})
	return r
}

// notify settles the waiters of doc whose scope became free of
// placeholders. With final set, the remaining waiters of doc are settled
// with ErrUnresolved.
func (l *Loader) notify(doc *dom.Document, final bool) {
	l.waitMu.Lock()
	defer l.waitMu.Unlock()

	if final {
		l.passed[doc] = true
		if l.active[doc]--; l.active[doc] <= 0 {
			delete(l.active, doc)
		}
	}

	kept := l.waiters[:0]
	for _, w := range l.waiters {
		if w.doc != doc {
			kept = append(kept, w)
			continue
		}
		left := doc.CountPlaceholders(w.scope)
		switch {
		case left == 0:
			w.ready.settle(nil)
		case final:
			w.ready.settle(errors.Wrapf(ErrUnresolved, "%d placeholder(s) remain", left))
		default:
			kept = append(kept, w)
		}
	}
	for i := len(kept); i < len(l.waiters); i++ {
		l.waiters[i] = nil
	}
	l.waiters = kept
}

func (l *Loader) begin(doc *dom.Document) {
	l.waitMu.Lock()
	defer l.waitMu.Unlock()
	l.active[doc]++
}

func (l *Loader) cached(name string) (result, bool) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	r, ok := l.cache[name]
	return r, ok
}
