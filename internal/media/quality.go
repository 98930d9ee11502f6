package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is a target output resolution.
type Quality struct {
	Label  string
	Width  int
	Height int
}

// Dimensions returns the WxH form the scale filter expects.
func (q Quality) Dimensions() string {
	return fmt.Sprintf("%dx%d", q.Width, q.Height)
}

// Upscales reports whether encoding a source of nativeHeight to q enlarges the picture.
func (q Quality) Upscales(nativeHeight int) bool {
	return nativeHeight > 0 && q.Height > nativeHeight
}

var qualities = []Quality{
	{Label: "360p", Width: 640, Height: 360},
	{Label: "480p", Width: 854, Height: 480},
	{Label: "720p", Width: 1280, Height: 720},
	{Label: "1080p", Width: 1920, Height: 1080},
	{Label: "1440p", Width: 2560, Height: 1440},
	{Label: "4K", Width: 3840, Height: 2160},
}

// Qualities returns the selectable targets in display order.
func Qualities() []Quality {
	out := make([]Quality, len(qualities))
	copy(out, qualities)
	return out
}

// ResolveQuality maps a displayed index to its target.
func ResolveQuality(index int) (Quality, error) {
	if index < 0 || index >= len(qualities) {
		return Quality{}, fmt.Errorf("quality index %d is out of range [0, %d]", index, len(qualities)-1)
	}
	return qualities[index], nil
}

// ParseQualityIndex parses the user's answer to the quality prompt.
func ParseQualityIndex(s string) (Quality, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Quality{}, fmt.Errorf("quality index %q is not a number: %w", s, err)
	}
	return ResolveQuality(idx)
}

// ParseHeight extracts the pixel height from labels like "1080p60" or "4K".
func ParseHeight(label string) int {
	if strings.EqualFold(strings.TrimSpace(label), "4k") {
		return 2160
	}
	digits := strings.Builder{}
	for _, r := range label {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	h, _ := strconv.Atoi(digits.String())
	return h
}
