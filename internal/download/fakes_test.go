package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/media"
)

// gatedReader returns data[:pause], blocks on gate, then returns the rest followed by err (or EOF).
type gatedReader struct {
	data  []byte
	pause int
	gate  <-chan struct{}
	err   error
	pos   int
}

func (r *gatedReader) Read(p []byte) (int, error) {
	if r.gate != nil && r.pos == r.pause {
		<-r.gate
		r.gate = nil
	}
	end := len(r.data)
	if r.gate != nil {
		end = r.pause
	}
	if r.pos >= end {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:end])
	r.pos += n
	return n, nil
}

func (r *gatedReader) Close() error { return nil }

type fakeTrack struct {
	data      []byte
	pause     int
	gate      chan struct{}
	err       error
	openErr   error
	unsizable bool
}

type fakeSource struct {
	tracks map[media.TrackKind]*fakeTrack

	mu     sync.Mutex
	opened []media.TrackKind
}

func (s *fakeSource) Resolve(ctx context.Context, link string) (media.Info, error) {
	return media.Info{ID: "vid", Title: "title"}, nil
}

func (s *fakeSource) Open(ctx context.Context, info media.Info, kind media.TrackKind) (app.Stream, error) {
	s.mu.Lock()
	s.opened = append(s.opened, kind)
	s.mu.Unlock()
	tr := s.tracks[kind]
	if tr.openErr != nil {
		return app.Stream{}, tr.openErr
	}
	size := int64(len(tr.data))
	if tr.unsizable {
		size = 0
	}
	return app.Stream{
		ContentLen: size,
		Body:       &gatedReader{data: tr.data, pause: tr.pause, gate: tr.gate, err: tr.err},
	}, nil
}

type memWriter struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed chan struct{}
	once   sync.Once
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.closed:
		return 0, errors.New("write after close")
	default:
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	w.once.Do(func() { close(w.closed) })
	return nil
}

func (w *memWriter) isClosed() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

func (w *memWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

type memSinks struct {
	writers   map[media.TrackKind]*memWriter
	openErr   map[media.TrackKind]error
	discarded bool
}

func newMemSinks() *memSinks {
	s := &memSinks{writers: map[media.TrackKind]*memWriter{}, openErr: map[media.TrackKind]error{}}
	for _, kind := range media.Tracks {
		s.writers[kind] = &memWriter{closed: make(chan struct{})}
	}
	return s
}

func (s *memSinks) Open(kind media.TrackKind) (io.WriteCloser, error) {
	if err := s.openErr[kind]; err != nil {
		return nil, err
	}
	return s.writers[kind], nil
}

func (s *memSinks) Discard() error {
	s.discarded = true
	return nil
}

type recordingReporter struct {
	mu       sync.Mutex
	updates  []float64
	finished bool
}

func (r *recordingReporter) Update(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, f)
}

func (r *recordingReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}
