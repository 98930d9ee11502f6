package download

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/logging"
	"github.com/vm-affekt/ytmux/internal/media"
	"github.com/vm-affekt/ytmux/internal/progress"
	"go.uber.org/zap"
)

const statusLogInterval = 5 * time.Second

// Reporter receives a track's absolute progress.
type Reporter interface {
	Update(fraction float64)
	Finish()
}

type ReporterFactory func(kind media.TrackKind) Reporter

// JoinFunc runs once both tracks of a job have completed.
type JoinFunc func(ctx context.Context, job *Job) error

type nopReporter struct{}

func (nopReporter) Update(float64) {}
func (nopReporter) Finish()        {}

// Coordinator downloads the video and audio tracks of one source concurrently.
type Coordinator struct {
	source      app.StreamSource
	newReporter ReporterFactory
}

func NewCoordinator(source app.StreamSource, newReporter ReporterFactory) *Coordinator {
	if newReporter == nil {
		newReporter = func(media.TrackKind) Reporter { return nopReporter{} }
	}
	return &Coordinator{
		source:      source,
		newReporter: newReporter,
	}
}

type trackResult struct {
	kind media.TrackKind
	err  error
}

// Run transfers both tracks of info into sinks. onJoin, if set, is called exactly once
// when the second track completes. The first track failure fails the job: the sibling's
// sink is released, sinks are discarded and a *app.TransferError is returned without
// waiting for the sibling transfer to end.
func (c *Coordinator) Run(ctx context.Context, info media.Info, sinks SinkStrategy, onJoin JoinFunc) (*Job, error) {
	log := logging.FromContextS(ctx)
	job := NewJob(info.ID)

	writers := make([]*guardedWriter, 0, len(media.Tracks))
	fail := func(kind media.TrackKind, err error) (*Job, error) {
		job.Fail(kind, err)
		for _, w := range writers {
			w.abandon()
		}
		if err := sinks.Discard(); err != nil {
			log.Warnf("Failed to discard track outputs: %v", err)
		}
		log.Errorw("Download job failed", "failed_track", kind.String(), "error", err)
		return job, job.Err()
	}

	for _, kind := range media.Tracks {
		w, err := sinks.Open(kind)
		if err != nil {
			return fail(kind, fmt.Errorf("failed to open sink: %w", err))
		}
		writers = append(writers, newGuardedWriter(w))
	}

	results := make(chan trackResult, len(media.Tracks))
	for i, kind := range media.Tracks {
		track, w := job.Track(kind), writers[i]
		go func() {
			results <- trackResult{kind: track.Kind, err: c.transfer(ctx, info, track, w)}
		}()
	}

	for range media.Tracks {
		res := <-results
		if res.err != nil {
			return fail(res.kind, res.err)
		}
		log.Infow("Track complete", "track", res.kind.String(), "job_state", job.State().String())
		if job.Complete(res.kind) && onJoin != nil {
			if err := onJoin(ctx, job); err != nil {
				return job, err
			}
		}
	}
	return job, nil
}

// Fetch transfers a single track into w, closing w when done.
func (c *Coordinator) Fetch(ctx context.Context, info media.Info, kind media.TrackKind, w io.WriteCloser) (*Track, error) {
	track := &Track{Kind: kind}
	if err := c.transfer(ctx, info, track, w); err != nil {
		return track, &app.TransferError{Track: kind, Err: err}
	}
	return track, nil
}

func (c *Coordinator) transfer(ctx context.Context, info media.Info, track *Track, w io.WriteCloser) error {
	ctx = logging.NewContext(ctx, zap.Stringer("track", track.Kind))
	log := logging.FromContextS(ctx)

	stream, err := c.source.Open(ctx, info, track.Kind)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Body.Close()

	rep := c.newReporter(track.Kind)
	track.total.Store(stream.ContentLen)
	var (
		counter *progress.Counter
		lastLog = time.Now()
	)
	counter = progress.NewCounter(stream.ContentLen, func(downloaded, total int64) {
		track.downloaded.Store(downloaded)
		rep.Update(progress.Fraction(downloaded, total))
		if time.Since(lastLog) < statusLogInterval {
			return
		}
		lastLog = time.Now()
		if eta, err := counter.EstimatedTime(); err == nil {
			log.Debugf("Downloaded %s of %s, about %v left", humanize.Bytes(uint64(downloaded)), humanize.Bytes(uint64(total)), eta.Round(time.Second))
		}
	})

	written, err := io.Copy(io.MultiWriter(w, counter), stream.Body)
	if err != nil {
		_ = w.Close()
		log.Warnf("Transfer stopped at %s (%.0f%%)", humanize.Bytes(uint64(counter.CurrentDownloaded())), counter.Fraction()*100)
		return fmt.Errorf("failed after %s: %w", humanize.Bytes(uint64(written)), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish output: %w", err)
	}
	if counter.ContentLen() <= 0 {
		counter.SetContentLen(written)
	}
	track.total.Store(counter.ContentLen())
	rep.Finish()
	log.Infof("Transfer done: %s", humanize.Bytes(uint64(written)))
	return nil
}
