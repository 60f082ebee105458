package library

import (
	"context"
	"io"
	"time"
)

// Provider enumerates assets from a library and notifies subscribers when
// the library's contents change. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Assets returns assets matching the filter.
	Assets(ctx context.Context, f Filter) ([]MediaAsset, error)

	// Count returns the total number of library assets.
	Count(ctx context.Context) (int, error)

	// NewestCaptureTime returns the most recent capture timestamp in the
	// library, or the zero time if the library is empty.
	NewestCaptureTime(ctx context.Context) (time.Time, error)

	// Resolve reports whether the given asset id still exists.
	Resolve(id string) bool

	// Open returns the raw bytes of an asset for decoding.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Subscribe registers a callback fired whenever a library change is
	// detected. Callbacks must be fast; slow work belongs on the callee's
	// own goroutine.
	Subscribe(fn func())
}
