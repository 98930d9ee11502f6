package app

import (
	"context"
	"io"

	"github.com/vm-affekt/ytmux/internal/media"
)

// Stream is one track's byte source. ContentLen is 0 when the size is unknown.
type Stream struct {
	ContentLen int64
	Body       io.ReadCloser
}

// StreamSource resolves a link to metadata and opens the best stream of a track kind.
type StreamSource interface {
	Resolve(ctx context.Context, link string) (media.Info, error)
	Open(ctx context.Context, info media.Info, kind media.TrackKind) (Stream, error)
}
