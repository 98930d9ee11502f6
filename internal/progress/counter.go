package progress

import (
	"sync"
	"time"
)

// Counter is an io.Writer that counts the bytes passing through a transfer.
// onUpdate receives (downloaded, total) after every write; total is 0 while unknown.
type Counter struct {
	contentLen        int64
	currentDownloaded int64
	onUpdate          func(downloaded, total int64)

	mu        *sync.RWMutex
	startTime time.Time
}

func NewCounter(contentLen int64, onUpdate func(downloaded, total int64)) *Counter {
	return &Counter{
		contentLen: contentLen,
		onUpdate:   onUpdate,
		mu:         new(sync.RWMutex),
		startTime:  time.Now(),
	}
}

func (c *Counter) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	c.currentDownloaded += int64(len(p))
	downloaded, total := c.currentDownloaded, c.contentLen
	c.mu.Unlock()
	if c.onUpdate != nil {
		c.onUpdate(downloaded, total)
	}
	return len(p), nil
}

// SetContentLen records a total learned after the transfer started.
func (c *Counter) SetContentLen(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contentLen = n
}

// Fraction is the completed share in [0,1]; 0 while the total is unknown.
func (c *Counter) Fraction() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Fraction(c.currentDownloaded, c.contentLen)
}

func (c *Counter) ContentLen() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.contentLen
}

func (c *Counter) CurrentDownloaded() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentDownloaded
}

// Fraction divides done by total, clamped to [0,1]. An unknown total yields 0.
func Fraction(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return Clamp(float64(done) / float64(total))
}

// Clamp limits f to [0,1]. NaN maps to 0.
func Clamp(f float64) float64 {
	switch {
	case f != f, f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
