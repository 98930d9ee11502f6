package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/vm-affekt/ytmux/internal/app"
)

// ErrInputClosed is returned when input ends before an answer is given.
var ErrInputClosed = errors.New("input closed before an answer was given")

// Terminal asks questions on a line-oriented terminal. Preset answers are used instead
// of reading input and are echoed so the session transcript stays readable.
//
// Input is read by a single goroutine that stays one line ahead at most. A line that
// arrives after an Ask was cancelled is kept for the next Ask.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	preset map[app.Question]string

	readOnce sync.Once
	lines    chan inputLine

	mu sync.Mutex
}

type inputLine struct {
	text string
	err  error
}

func NewTerminal(in io.Reader, out io.Writer, preset map[app.Question]string) *Terminal {
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		preset: preset,
		lines:  make(chan inputLine),
	}
}

var _ app.Prompter = (*Terminal)(nil)

// readLines feeds lines until the first read error, which is delivered before lines is closed.
func (t *Terminal) readLines() {
	defer close(t.lines)
	for {
		text, err := t.in.ReadString('\n')
		t.lines <- inputLine{text: text, err: err}
		if err != nil {
			return
		}
	}
}

func (t *Terminal) Ask(ctx context.Context, q app.Question, text string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if answer, ok := t.preset[q]; ok {
		_, _ = fmt.Fprintf(t.out, "%s%s\n", text, answer)
		return answer, nil
	}
	_, _ = fmt.Fprint(t.out, text)
	t.readOnce.Do(func() { go t.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-t.lines:
		if !ok {
			return "", fmt.Errorf("%s prompt: %w", q, ErrInputClosed)
		}
		line := strings.TrimRight(res.text, "\r\n")
		if res.err != nil {
			if errors.Is(res.err, io.EOF) && line != "" {
				return line, nil
			}
			if errors.Is(res.err, io.EOF) {
				return "", fmt.Errorf("%s prompt: %w", q, ErrInputClosed)
			}
			return "", fmt.Errorf("failed to read %s answer: %w", q, res.err)
		}
		return line, nil
	}
}

func (t *Terminal) Say(text string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, text+"\n", args...)
}
