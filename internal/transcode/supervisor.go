package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/logging"
)

const stderrTailLimit = 4096

// Reporter receives transcode progress.
type Reporter interface {
	Update(fraction float64)
	Finish()
}

type nopReporter struct{}

func (nopReporter) Update(float64) {}
func (nopReporter) Finish()        {}

// Supervisor runs the external transcoder.
type Supervisor struct {
	binary      string
	newReporter func() Reporter
}

func NewSupervisor(binary string, newReporter func() Reporter) *Supervisor {
	if binary == "" {
		binary = DefaultBinary
	}
	if newReporter == nil {
		newReporter = func() Reporter { return nopReporter{} }
	}
	return &Supervisor{
		binary:      binary,
		newReporter: newReporter,
	}
}

// Run spawns the transcoder for task and waits for it. Pipe inputs are owned by Run from
// the moment it is called and are closed in the parent once the child holds them.
// Failures are returned as *app.TranscodeError.
func (s *Supervisor) Run(ctx context.Context, task Task) error {
	log := logging.FromContextS(ctx)
	args, pipes := BuildArgs(task)

	pr, pw, err := os.Pipe()
	if err != nil {
		closeFiles(pipes)
		return s.spawnError(fmt.Errorf("failed to create progress pipe: %w", err))
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.ExtraFiles = append([]*os.File{pw}, pipes...)
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr

	log.Infow("Starting transcoder", "binary", s.binary, "args", args)
	err = cmd.Start()
	pw.Close()
	closeFiles(pipes)
	if err != nil {
		return s.spawnError(fmt.Errorf("failed to start: %w", err))
	}

	rep := s.newReporter()
	parsed := make(chan struct{})
	go func() {
		defer close(parsed)
		watchProgress(pr, task.Duration, rep)
	}()

	waitErr := cmd.Wait()
	<-parsed
	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		log.Errorw("Transcoder failed", "exit_code", code, "stderr", stderr.String())
		return &app.TranscodeError{Binary: s.binary, ExitCode: code, Stderr: stderr.String(), Err: waitErr}
	}
	rep.Finish()
	log.Info("Transcoder done!")
	return nil
}

func (s *Supervisor) spawnError(err error) error {
	return &app.TranscodeError{Binary: s.binary, ExitCode: -1, Err: err}
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
