package icons

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/fanmade/nowplaying/internal/infra/dom"
)

// ErrUnresolved is reported by a Readiness whose scope still holds
// placeholders after a materialize pass.
var ErrUnresolved = errors.New("placeholders left unresolved")

// Readiness completes once no placeholder remains inside a document scope.
type Readiness struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// Done is closed when the readiness settled.
func (r *Readiness) Done() <-chan struct{} {
	return r.done
}

// Err returns nil if the scope is fully materialized. Only meaningful after Done.
func (r *Readiness) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Wait blocks until the readiness settles or ctx ends.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return r.err
	}
}

func (r *Readiness) settle(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

type waiter struct {
	doc   *dom.Document
	scope *dom.Element
	ready *Readiness
}
