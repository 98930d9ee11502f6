package transcode

import (
	"fmt"
	"os"
	"time"

	"github.com/vm-affekt/ytmux/internal/media"
)

// FFmpeg settings for the re-encode path.
const (
	VideoCodec   = "libx264"
	VideoPreset  = "slow"
	VideoCRF     = "18"
	AudioCodec   = "aac"
	AudioBitrate = "192k"

	DefaultBinary = "ffmpeg"

	// progressFD is the child's descriptor for the progress side-channel; ExtraFiles[0] lands there.
	progressFD = 3
)

// Input is one transcoder input: a file path or the read end of a pipe.
type Input struct {
	Path string
	Pipe *os.File
}

func FileInput(path string) Input {
	return Input{Path: path}
}

func PipeInput(r *os.File) Input {
	return Input{Pipe: r}
}

// Task describes one transcoder run.
type Task struct {
	Video Input
	Audio Input
	// Quality forces a scale-and-re-encode; nil means stream-copy mux.
	Quality *media.Quality
	Output  string
	// Duration of the source, used to turn time-based progress into a fraction.
	Duration time.Duration
}

// BuildArgs returns the transcoder arguments for task and the pipe inputs that must be
// passed to the child, in descriptor order after the progress side-channel.
func BuildArgs(task Task) (args []string, pipes []*os.File) {
	args = []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-progress", fmt.Sprintf("pipe:%d", progressFD),
		"-y",
	}
	for _, in := range []Input{task.Video, task.Audio} {
		if in.Pipe != nil {
			args = append(args, "-i", fmt.Sprintf("pipe:%d", progressFD+1+len(pipes)))
			pipes = append(pipes, in.Pipe)
		} else {
			args = append(args, "-i", in.Path)
		}
	}
	args = append(args, "-map", "0:v:0", "-map", "1:a:0")

	if task.Quality != nil {
		args = append(args,
			"-vf", "scale="+task.Quality.Dimensions(),
			"-c:v", VideoCodec,
			"-preset", VideoPreset,
			"-crf", VideoCRF,
			"-c:a", AudioCodec,
			"-b:a", AudioBitrate,
		)
	} else {
		args = append(args, "-c:v", "copy", "-c:a", "copy")
	}
	return append(args, task.Output), pipes
}
