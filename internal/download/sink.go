package download

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/vm-affekt/ytmux/internal/media"
)

// SinkStrategy supplies the destination of each track's bytes.
type SinkStrategy interface {
	// Open returns the writer for kind. Closing it marks the track's output finished.
	Open(kind media.TrackKind) (io.WriteCloser, error)
	// Discard releases everything the strategy created.
	Discard() error
}

// FileRelay writes each track to a temporary sibling of the output file.
type FileRelay struct {
	paths map[media.TrackKind]string
}

func NewFileRelay(output string) *FileRelay {
	r := &FileRelay{paths: make(map[media.TrackKind]string, len(media.Tracks))}
	for _, kind := range media.Tracks {
		r.paths[kind] = media.TrackTempPath(output, kind)
	}
	return r
}

func (r *FileRelay) Path(kind media.TrackKind) string {
	return r.paths[kind]
}

func (r *FileRelay) Open(kind media.TrackKind) (io.WriteCloser, error) {
	return os.OpenFile(r.paths[kind], os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
}

// Discard removes the temporary track files.
func (r *FileRelay) Discard() error {
	var errs []error
	for _, kind := range media.Tracks {
		if err := os.Remove(r.paths[kind]); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PipeRelay forwards each track into the write end of a pipe read by the transcoder.
type PipeRelay struct {
	writers map[media.TrackKind]*os.File
}

func NewPipeRelay(video, audio *os.File) *PipeRelay {
	return &PipeRelay{writers: map[media.TrackKind]*os.File{
		media.Video: video,
		media.Audio: audio,
	}}
}

func (r *PipeRelay) Open(kind media.TrackKind) (io.WriteCloser, error) {
	w, ok := r.writers[kind]
	if !ok || w == nil {
		return nil, os.ErrInvalid
	}
	return w, nil
}

// Discard closes the write ends that are still open.
func (r *PipeRelay) Discard() error {
	var errs []error
	for _, w := range r.writers {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var errAbandoned = errors.New("track output abandoned")

// guardedWriter lets the coordinator release a sibling track's sink while its transfer
// is still running. Writes after abandon fail, which ends that transfer.
type guardedWriter struct {
	w         io.WriteCloser
	abandoned atomic.Bool
	once      sync.Once
	closeErr  error
}

func newGuardedWriter(w io.WriteCloser) *guardedWriter {
	return &guardedWriter{w: w}
}

func (g *guardedWriter) Write(p []byte) (int, error) {
	if g.abandoned.Load() {
		return 0, errAbandoned
	}
	return g.w.Write(p)
}

func (g *guardedWriter) Close() error {
	g.once.Do(func() {
		g.closeErr = g.w.Close()
	})
	return g.closeErr
}

func (g *guardedWriter) abandon() {
	g.abandoned.Store(true)
	_ = g.Close()
}
