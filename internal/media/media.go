package media

import (
	"fmt"
	"time"
)

// TrackKind identifies one elementary stream of a video.
type TrackKind int

const (
	Video = TrackKind(iota)
	Audio
)

// Tracks lists both kinds in the order the transcoder takes them as inputs.
var Tracks = [...]TrackKind{Video, Audio}

func (k TrackKind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	}
	return fmt.Sprintf("track(%d)", int(k))
}

// Info is the resolved metadata of a remote video.
type Info struct {
	ID           string
	Title        string
	Author       string
	Duration     time.Duration
	NativeHeight int
}
