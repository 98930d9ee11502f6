// Package transcodetest provides a shell script that stands in for ffmpeg in tests.
package transcodetest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// DefaultProgress is what the fake writes to its progress side-channel.
const DefaultProgress = "frame=10\nout_time_us=500000\nprogress=continue\nnot a sample\nout_time_us=N/A\nout_time_us=1000000\nprogress=end\n"

type Options struct {
	// ExitCode makes the fake fail without touching the output.
	ExitCode int
	// ReadFDs are descriptors whose content is appended to the output, like pipe inputs.
	ReadFDs []int
	// Progress overrides DefaultProgress.
	Progress string
	Stderr   string
}

// Fake is an installed fake transcoder.
type Fake struct {
	Path     string
	argsFile string
}

// New writes the fake into a temporary directory. The test is skipped where /bin/sh is unavailable.
func New(t testing.TB, opts Options) *Fake {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake transcoder needs a POSIX shell")
	}
	if opts.Progress == "" {
		opts.Progress = DefaultProgress
	}
	dir := t.TempDir()
	f := &Fake{
		Path:     filepath.Join(dir, "ffmpeg"),
		argsFile: filepath.Join(dir, "args.txt"),
	}

	script := &strings.Builder{}
	script.WriteString("#!/bin/sh\n")
	fmt.Fprintf(script, "printf '%%s\\n' \"$@\" > '%s'\n", f.argsFile)
	script.WriteString("for last; do :; done\n")
	fmt.Fprintf(script, "printf '%%s' '%s' >&3\n", opts.Progress)
	if opts.Stderr != "" {
		fmt.Fprintf(script, "printf '%%s\\n' '%s' >&2\n", opts.Stderr)
	}
	if opts.ExitCode != 0 {
		fmt.Fprintf(script, "exit %d\n", opts.ExitCode)
	}
	script.WriteString(": > \"$last\"\n")
	for _, fd := range opts.ReadFDs {
		fmt.Fprintf(script, "cat <&%d >> \"$last\"\n", fd)
	}
	script.WriteString("exit 0\n")

	if err := os.WriteFile(f.Path, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("failed to write fake transcoder: %v", err)
	}
	return f
}

// Invoked reports whether the fake has been run.
func (f *Fake) Invoked() bool {
	_, err := os.Stat(f.argsFile)
	return err == nil
}

// Args returns the arguments of the last run.
func (f *Fake) Args(t testing.TB) []string {
	t.Helper()
	raw, err := os.ReadFile(f.argsFile)
	if err != nil {
		t.Fatalf("fake transcoder was not invoked: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
}
