package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/media"
)

const testLink = "https://www.youtube.com/watch?v=7UxNoFjmhBA"

type scriptedPrompter struct {
	answers map[app.Question]string
	// delay is spent on every answer, like a user typing
	delay time.Duration

	mu    sync.Mutex
	asked []app.Question
	said  []string
}

func (p *scriptedPrompter) Ask(ctx context.Context, q app.Question, text string) (string, error) {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, q)
	answer, ok := p.answers[q]
	if !ok {
		return "", fmt.Errorf("unexpected question %v", q)
	}
	return answer, nil
}

func (p *scriptedPrompter) Say(text string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.said = append(p.said, fmt.Sprintf(text, args...))
}

func (p *scriptedPrompter) wasAsked(q app.Question) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.asked {
		if a == q {
			return true
		}
	}
	return false
}

type failingReader struct {
	data []byte
	err  error
	pos  int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, r.err
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

type fakeSource struct {
	info       media.Info
	resolveErr error
	tracks     map[media.TrackKind][]byte
	trackErr   map[media.TrackKind]error
	// stall makes Open wait for the context to end
	stall bool

	mu     sync.Mutex
	opened []media.TrackKind
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		info: media.Info{ID: "7UxNoFjmhBA", Title: "Live: at home?", Duration: time.Second, NativeHeight: 1080},
		tracks: map[media.TrackKind][]byte{
			media.Video: bytes.Repeat([]byte("V"), 4096),
			media.Audio: bytes.Repeat([]byte("A"), 1024),
		},
		trackErr: map[media.TrackKind]error{},
	}
}

func (s *fakeSource) Resolve(ctx context.Context, link string) (media.Info, error) {
	if s.resolveErr != nil {
		return media.Info{}, s.resolveErr
	}
	return s.info, nil
}

func (s *fakeSource) Open(ctx context.Context, info media.Info, kind media.TrackKind) (app.Stream, error) {
	s.mu.Lock()
	s.opened = append(s.opened, kind)
	s.mu.Unlock()
	if s.stall {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return app.Stream{}, err
	}
	data := s.tracks[kind]
	if err := s.trackErr[kind]; err != nil {
		return app.Stream{ContentLen: int64(len(data)), Body: io.NopCloser(&failingReader{data: data[:len(data)/2], err: err})}, nil
	}
	return app.Stream{ContentLen: int64(len(data)), Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (s *fakeSource) openedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opened)
}
