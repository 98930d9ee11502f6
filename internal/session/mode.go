package session

import (
	"fmt"
	"strings"
)

// Mode is what the session produces.
type Mode string

const (
	// ModeVideo relays both tracks to files and re-encodes at a chosen quality.
	ModeVideo = Mode("v")
	// ModeAudio writes the highest quality audio track as is.
	ModeAudio = Mode("a")
	// ModeMux pipes both tracks live into a stream-copy mux.
	ModeMux = Mode("m")
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v", "video":
		return ModeVideo, nil
	case "a", "audio":
		return ModeAudio, nil
	case "m", "mux":
		return ModeMux, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}
