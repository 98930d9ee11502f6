package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/download"
	"github.com/vm-affekt/ytmux/internal/downloader"
	"github.com/vm-affekt/ytmux/internal/logging"
	"github.com/vm-affekt/ytmux/internal/media"
	"github.com/vm-affekt/ytmux/internal/progress"
	"github.com/vm-affekt/ytmux/internal/transcode"
	"golang.org/x/sync/errgroup"
)

// Transcoder runs the external media transcoder for one task.
type Transcoder interface {
	Run(ctx context.Context, task transcode.Task) error
}

type Config struct {
	// KeepFailedTracks leaves relay files in place when transcoding fails.
	KeepFailedTracks bool
	// DownloadTimeout bounds downloading and processing once all prompts are answered; 0 means no limit.
	DownloadTimeout  time.Duration
	ProgressThrottle time.Duration
	// ProgressOut receives the download progress bars; nil disables them.
	ProgressOut io.Writer
}

// Controller drives one interactive session from prompts to the finished file.
type Controller struct {
	prompter    app.Prompter
	source      app.StreamSource
	transcoder  Transcoder
	coordinator *download.Coordinator
	cfg         Config
}

func New(prompter app.Prompter, source app.StreamSource, transcoder Transcoder, cfg Config) *Controller {
	var newReporter download.ReporterFactory
	if cfg.ProgressOut != nil {
		newReporter = func(kind media.TrackKind) download.Reporter {
			return progress.NewReporter(cfg.ProgressOut, "Downloading "+kind.String(), cfg.ProgressThrottle)
		}
	}
	return &Controller{
		prompter:    prompter,
		source:      source,
		transcoder:  transcoder,
		coordinator: download.NewCoordinator(source, newReporter),
		cfg:         cfg,
	}
}

// Run executes the session. A nil error means the session ended cleanly, including
// when the user chose not to overwrite an existing file.
func (c *Controller) Run(ctx context.Context) error {
	ctx, log := logging.NewContextSL(ctx, "session_id", uuid.NewString())
	startT := time.Now()
	defer func() {
		log.Infof("Session finished in %v", time.Since(startT).String())
	}()

	link, err := c.prompter.Ask(ctx, app.QuestionURL, "Enter the video URL: ")
	if err != nil {
		return err
	}
	link = strings.TrimSpace(link)
	if err := downloader.ValidateLink(link); err != nil {
		return app.NewUserError("Enter a valid link to a YouTube video.").WithCause(err)
	}

	folder, err := c.prompter.Ask(ctx, app.QuestionFolder, "Enter the folder location to save video or audio: ")
	if err != nil {
		return err
	}
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = "."
	}

	info, err := c.source.Resolve(ctx, link)
	if err != nil {
		var rerr *app.ResolutionError
		if !errors.As(err, &rerr) {
			err = &app.ResolutionError{Link: link, Err: err}
		}
		return err
	}
	log.Infow("Resolved video", "video_id", info.ID, "title", info.Title, "native_height", info.NativeHeight)

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("failed to create destination folder: %w", err)
	}

	answer, err := c.prompter.Ask(ctx, app.QuestionMode,
		"Do you want to download video (mp4 - with quality options), audio (m4a - highest quality) or mux (mp4 - source quality, no re-encode)? (v/a/m): ")
	if err != nil {
		return err
	}
	mode, err := ParseMode(answer)
	if err != nil {
		return app.NewUserError(`Invalid option. Please restart and choose "v" for video, "a" for audio or "m" for mux.`).WithCause(err)
	}

	switch mode {
	case ModeVideo:
		quality, err := c.askQuality(ctx, info)
		if err != nil {
			return err
		}
		output := media.OutputPath(folder, info.Title, media.ExtVideo)
		if ok, err := c.confirmOverwrite(ctx, output, "video"); !ok || err != nil {
			return err
		}
		ctx, cancel := c.withDownloadTimeout(ctx)
		defer cancel()
		return c.transcodeVideo(ctx, info, output, quality)
	case ModeMux:
		output := media.OutputPath(folder, info.Title, media.ExtVideo)
		if ok, err := c.confirmOverwrite(ctx, output, "video"); !ok || err != nil {
			return err
		}
		ctx, cancel := c.withDownloadTimeout(ctx)
		defer cancel()
		return c.muxVideo(ctx, info, output)
	default:
		output := media.OutputPath(folder, info.Title, media.ExtAudio)
		if ok, err := c.confirmOverwrite(ctx, output, "audio"); !ok || err != nil {
			return err
		}
		ctx, cancel := c.withDownloadTimeout(ctx)
		defer cancel()
		return c.downloadAudio(ctx, info, output)
	}
}

func (c *Controller) askQuality(ctx context.Context, info media.Info) (media.Quality, error) {
	c.prompter.Say("Available target video qualities:")
	for i, q := range media.Qualities() {
		c.prompter.Say("%d: %s", i, q.Label)
	}
	answer, err := c.prompter.Ask(ctx, app.QuestionQuality,
		"Select the desired target video quality (index) (choosing higher video quality like 4K will result in longer processing time): ")
	if err != nil {
		return media.Quality{}, err
	}
	quality, err := media.ParseQualityIndex(answer)
	if err != nil {
		return media.Quality{}, app.NewUserError(fmt.Sprintf("Invalid quality index %q.", strings.TrimSpace(answer))).WithCause(err)
	}
	if quality.Upscales(info.NativeHeight) {
		c.prompter.Say("The source is %dp, it will be upscaled to %s.", info.NativeHeight, quality.Label)
	}
	return quality, nil
}

// withDownloadTimeout bounds the work that follows the last prompt.
func (c *Controller) withDownloadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.DownloadTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.DownloadTimeout)
}

// confirmOverwrite reports whether output may be written.
func (c *Controller) confirmOverwrite(ctx context.Context, output, what string) (bool, error) {
	if _, err := os.Stat(output); errors.Is(err, os.ErrNotExist) {
		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check output file: %w", err)
	}
	answer, err := c.prompter.Ask(ctx, app.QuestionOverwrite,
		fmt.Sprintf("File '%s' already exists. Do you want to overwrite? (y/n): ", output))
	if err != nil {
		return false, err
	}
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		return true, nil
	}
	c.prompter.Say("Skipping %s download.", what)
	return false, nil
}

// transcodeVideo relays both tracks to files, then scales and re-encodes them.
func (c *Controller) transcodeVideo(ctx context.Context, info media.Info, output string, quality media.Quality) error {
	log := logging.FromContextS(ctx)
	relay := download.NewFileRelay(output)
	staging := media.StagingPath(output)

	c.prompter.Say("Downloading video and audio...")
	_, err := c.coordinator.Run(ctx, info, relay, func(ctx context.Context, job *download.Job) error {
		err := c.transcoder.Run(ctx, transcode.Task{
			Video:    transcode.FileInput(relay.Path(media.Video)),
			Audio:    transcode.FileInput(relay.Path(media.Audio)),
			Quality:  &quality,
			Output:   staging,
			Duration: info.Duration,
		})
		if err != nil {
			removeStaging(ctx, staging)
			if c.cfg.KeepFailedTracks {
				log.Warnf("Keeping track files for inspection: %s, %s", relay.Path(media.Video), relay.Path(media.Audio))
				c.prompter.Say("Track files kept for inspection: %s, %s", relay.Path(media.Video), relay.Path(media.Audio))
			} else if derr := relay.Discard(); derr != nil {
				log.Warnf("Failed to remove track files: %v", derr)
			}
			return err
		}
		if err := relay.Discard(); err != nil {
			log.Warnf("Failed to remove track files: %v", err)
		}
		return c.finalize(staging, output, "Processing finished!")
	})
	return err
}

// muxVideo pipes both tracks into a stream-copy mux while they download.
func (c *Controller) muxVideo(ctx context.Context, info media.Info, output string) error {
	log := logging.FromContextS(ctx)
	vr, vw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create video pipe: %w", err)
	}
	ar, aw, err := os.Pipe()
	if err != nil {
		vr.Close()
		vw.Close()
		return fmt.Errorf("failed to create audio pipe: %w", err)
	}
	staging := media.StagingPath(output)

	c.prompter.Say("Downloading and muxing video and audio...")
	var transcodeErr, transferErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		transcodeErr = c.transcoder.Run(gctx, transcode.Task{
			Video:    transcode.PipeInput(vr),
			Audio:    transcode.PipeInput(ar),
			Output:   staging,
			Duration: info.Duration,
		})
		return transcodeErr
	})
	g.Go(func() error {
		_, transferErr = c.coordinator.Run(gctx, info, download.NewPipeRelay(vw, aw), nil)
		return transferErr
	})

	if err := g.Wait(); err != nil {
		removeStaging(ctx, staging)
		// a broken pipe only means the transcoder went away first
		if transcodeErr != nil && errors.Is(transferErr, syscall.EPIPE) {
			err = transcodeErr
		}
		log.Errorw("Mux failed", "transcode_error", transcodeErr, "transfer_error", transferErr)
		return err
	}
	return c.finalize(staging, output, "Processing finished!")
}

func (c *Controller) downloadAudio(ctx context.Context, info media.Info, output string) error {
	staging := media.StagingPath(output)
	f, err := os.Create(staging)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	c.prompter.Say("Downloading audio...")
	if _, err := c.coordinator.Fetch(ctx, info, media.Audio, f); err != nil {
		removeStaging(ctx, staging)
		return err
	}
	return c.finalize(staging, output, "Audio download finished!")
}

// finalize moves the staged file over output.
func (c *Controller) finalize(staging, output, doneMsg string) error {
	if err := os.Rename(staging, output); err != nil {
		_ = os.Remove(staging)
		return fmt.Errorf("failed to move %s to %s: %w", staging, output, err)
	}
	size := "unknown size"
	if st, err := os.Stat(output); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	c.prompter.Say("%s Saved to %s (%s)", doneMsg, output, size)
	return nil
}

func removeStaging(ctx context.Context, staging string) {
	if err := os.Remove(staging); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContextS(ctx).Warnf("Failed to remove staging file %s: %v", staging, err)
	}
}
