package app

import (
	"fmt"
	"strings"

	"github.com/vm-affekt/ytmux/internal/media"
)

// ResolutionError means the link could not be turned into stream metadata.
type ResolutionError struct {
	Link string
	Err  error
}

func (err *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", err.Link, err.Err)
}

func (err *ResolutionError) Unwrap() error {
	return err.Err
}

// TransferError means a track's source or sink failed mid-transfer.
type TransferError struct {
	Track media.TrackKind
	Err   error
}

func (err *TransferError) Error() string {
	return fmt.Sprintf("%s track transfer failed: %v", err.Track, err.Err)
}

func (err *TransferError) Unwrap() error {
	return err.Err
}

// TranscodeError means the transcoder could not be spawned or exited non-zero.
// ExitCode is -1 when the process never ran to an exit status.
type TranscodeError struct {
	Binary   string
	ExitCode int
	Stderr   string
	Err      error
}

func (err *TranscodeError) Error() string {
	msg := &strings.Builder{}
	if err.ExitCode >= 0 {
		_, _ = fmt.Fprintf(msg, "%s exited with status %d", err.Binary, err.ExitCode)
	} else {
		_, _ = fmt.Fprintf(msg, "%s failed: %v", err.Binary, err.Err)
	}
	if s := strings.TrimSpace(err.Stderr); s != "" {
		_, _ = fmt.Fprintf(msg, ": %s", s)
	}
	return msg.String()
}

func (err *TranscodeError) Unwrap() error {
	return err.Err
}
