// Package apperr defines the error taxonomy shared by the player components.
package apperr

import "github.com/cockroachdb/errors"

var (
	// ErrFetch is returned for network failures and non-success HTTP statuses.
	ErrFetch = errors.New("fetch failed")
	// ErrParse is returned when a response body cannot be decoded.
	ErrParse = errors.New("malformed response")
	// ErrUnknownIcon is returned when an icon name has no registry entry.
	ErrUnknownIcon = errors.New("unknown icon")
	// ErrConfiguration marks startup-fatal configuration problems.
	ErrConfiguration = errors.New("invalid configuration")
)

// Fetch wraps err as an ErrFetch with the given context message.
func Fetch(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFetch)
}

// Parse wraps err as an ErrParse with the given context message.
func Parse(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrParse)
}
