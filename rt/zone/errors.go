package zone

import "errors"

var (
	// ErrExhausted indicates the zone has no room left for the request.
	ErrExhausted = errors.New("zone: exhausted")

	// ErrBadSize indicates a negative or otherwise unusable size.
	ErrBadSize = errors.New("zone: bad size")

	// ErrForeign indicates a block that was not produced by this zone.
	ErrForeign = errors.New("zone: block not owned by zone")

	// ErrClosed indicates use of a zone after Close.
	ErrClosed = errors.New("zone: closed")
)
