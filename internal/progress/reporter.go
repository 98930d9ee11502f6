package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

const (
	barWidth = 50
	barSteps = 1000

	DefaultThrottle = 100 * time.Millisecond
)

// Reporter renders an absolute completion fraction as a fixed-width bar with an ETA.
// Each tracked quantity gets its own Reporter.
type Reporter struct {
	bar *progressbar.ProgressBar

	mu       sync.Mutex
	finished bool
}

func NewReporter(w io.Writer, title string, throttle time.Duration) *Reporter {
	bar := progressbar.NewOptions(barSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(throttle),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
	return &Reporter{bar: bar}
}

// Update draws fraction as an absolute position; out-of-range values are clamped.
func (r *Reporter) Update(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	_ = r.bar.Set(int(Clamp(fraction) * barSteps))
}

// Finish draws the 100% state once, bypassing the throttle.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	_ = r.bar.Finish()
}
