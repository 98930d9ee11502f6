package transcode

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vm-affekt/ytmux/internal/progress"
)

// Recognised side-channel keys.
const (
	KeyOutTimeUS = "out_time_us"
	// ffmpeg reports out_time_ms in microseconds as well.
	KeyOutTimeMS = "out_time_ms"
	KeyProgress  = "progress"
	KeyPercent   = "percent"

	progressEnd = "end"
)

// Sample is one key=value line of the progress side-channel.
type Sample struct {
	Key   string
	Value string
}

// ParseLine splits a side-channel line. Lines without a key are reported as not ok.
func ParseLine(line string) (Sample, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return Sample{}, false
	}
	return Sample{Key: key, Value: strings.TrimSpace(value)}, true
}

// Fraction converts a sample into completion in [0,1]. ok is false for keys that carry
// no progress and for values that cannot be read.
func (s Sample) Fraction(duration time.Duration) (fraction float64, ok bool) {
	switch s.Key {
	case KeyOutTimeUS, KeyOutTimeMS:
		if duration <= 0 {
			return 0, false
		}
		us, err := strconv.ParseInt(s.Value, 10, 64)
		if err != nil {
			return 0, false
		}
		return progress.Clamp(float64(us) / float64(duration.Microseconds())), true
	case KeyPercent:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(s.Value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return progress.Clamp(pct / 100), true
	case KeyProgress:
		if s.Value == progressEnd {
			return 1, true
		}
	}
	return 0, false
}

// watchProgress feeds every recognised sample from r to rep until r is exhausted.
func watchProgress(r io.Reader, duration time.Duration, rep Reporter) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sample, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		if f, ok := sample.Fraction(duration); ok {
			rep.Update(f)
		}
	}
	// drain so the child never blocks on a full side-channel
	_, _ = io.Copy(io.Discard, r)
}
