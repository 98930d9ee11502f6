package download

import (
	"sync"
	"sync/atomic"

	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/media"
)

// State of a Job. Transitions: Pending -> OneTrackDone -> BothDone, or any non-terminal state -> Failed.
type State int

const (
	StatePending = State(iota)
	StateOneTrackDone
	StateBothDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOneTrackDone:
		return "one_track_done"
	case StateBothDone:
		return "both_done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Track is one media track being transferred.
type Track struct {
	Kind media.TrackKind

	downloaded atomic.Int64
	total      atomic.Int64

	// guarded by the owning Job
	done bool
	err  error
}

func (t *Track) Downloaded() int64 {
	return t.downloaded.Load()
}

// Total is 0 while unknown.
func (t *Track) Total() int64 {
	return t.total.Load()
}

// Job pairs the video and audio tracks of one output.
type Job struct {
	VideoID string

	mu     sync.Mutex
	state  State
	tracks [len(media.Tracks)]*Track
	failed media.TrackKind
}

func NewJob(videoID string) *Job {
	j := &Job{VideoID: videoID}
	for i, kind := range media.Tracks {
		j.tracks[i] = &Track{Kind: kind}
	}
	return j
}

func (j *Job) Track(kind media.TrackKind) *Track {
	for _, t := range j.tracks {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Complete marks kind as finished. It returns true only for the transition into
// StateBothDone, so the caller's join action runs exactly once.
func (j *Job) Complete(kind media.TrackKind) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	t := j.Track(kind)
	if t == nil || t.done || j.state == StateFailed || j.state == StateBothDone {
		return false
	}
	t.done = true
	for _, other := range j.tracks {
		if !other.done {
			j.state = StateOneTrackDone
			return false
		}
	}
	j.state = StateBothDone
	return true
}

// Fail moves the job to StateFailed, attributing it to kind. Only the first failure
// of a job that has not joined is recorded.
func (j *Job) Fail(kind media.TrackKind, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateFailed || j.state == StateBothDone {
		return false
	}
	if t := j.Track(kind); t != nil {
		t.err = err
	}
	j.state = StateFailed
	j.failed = kind
	return true
}

// Err is the failure of a failed job as a *app.TransferError, nil otherwise.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateFailed {
		return nil
	}
	return &app.TransferError{Track: j.failed, Err: j.Track(j.failed).err}
}
