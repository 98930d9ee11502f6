package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/downloader"
	"github.com/vm-affekt/ytmux/internal/logging"
	"github.com/vm-affekt/ytmux/internal/progress"
	"github.com/vm-affekt/ytmux/internal/prompt"
	"github.com/vm-affekt/ytmux/internal/session"
	"github.com/vm-affekt/ytmux/internal/transcode"
)

// presetFlags maps each prompt to the flag that can answer it up front.
var presetFlags = map[app.Question]string{
	app.QuestionURL:     "url",
	app.QuestionFolder:  "dest",
	app.QuestionMode:    "mode",
	app.QuestionQuality: "quality",
}

func answerKey(flag string) string {
	return "ANSWER_" + strings.ToUpper(flag)
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "ytmux",
		Short:         "Download a YouTube video's audio and video tracks concurrently and merge them with ffmpeg",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(configPath); err != nil {
				return err
			}
			return run(cmd.Context(), buildPresets())
		},
	}

	bindPresetFlags(cmd.Flags())
	cmd.Flags().StringVar(&configPath, "config", "", "explicit env-style config file")
	return cmd
}

// bindPresetFlags registers the prompt-answering flags and binds them into viper under
// answerKey, so YTMUX_ANSWER_URL and friends work as well.
func bindPresetFlags(flags *pflag.FlagSet) {
	flags.String("url", "", "video link, skips the link prompt")
	flags.String("dest", "", "destination folder, skips the folder prompt")
	flags.String("mode", "", "v (video), a (audio) or m (mux), skips the mode prompt")
	flags.String("quality", "", "target quality index, skips the quality prompt")
	flags.Bool("overwrite", false, "answer the overwrite prompt")
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(answerKey(f.Name), f)
	})
}

// buildPresets collects prompt answers given by flag, environment or config file.
func buildPresets() map[app.Question]string {
	presets := make(map[app.Question]string)
	for q, name := range presetFlags {
		if v := viper.GetString(answerKey(name)); v != "" {
			presets[q] = v
		}
	}
	// an unchanged flag default is not set, so the prompt is still shown
	if viper.IsSet(answerKey("overwrite")) {
		presets[app.QuestionOverwrite] = "n"
		if viper.GetBool(answerKey("overwrite")) {
			presets[app.QuestionOverwrite] = "y"
		}
	}
	return presets
}

func run(ctx context.Context, presets map[app.Question]string) error {
	modeEnv := viper.GetString("MODE")
	logger, debugMode, err := buildLogger(modeEnv, viper.GetString("LOG_FILE_PATH"))
	if err != nil {
		return err
	}
	logging.SetLogger(logger)
	log := logger.Sugar()
	defer log.Sync()

	log.Infof("[YTMUX] Application is running. Environment mode=%q", modeEnv)
	log.Infof("Used config file path: %v", viper.ConfigFileUsed())

	downloadTimeout := viper.GetDuration("DOWNLOAD_TIMEOUT")
	if downloadTimeout == 0 {
		log.Info("DOWNLOAD_TIMEOUT is zero, downloads are not time limited")
	}
	throttle := viper.GetDuration("PROGRESS_THROTTLE")
	ffmpegPath := viper.GetString("FFMPEG_PATH")

	source := downloader.New(debugMode, viper.GetInt64("CHUNK_SIZE"), nil)
	supervisor := transcode.NewSupervisor(ffmpegPath, func() transcode.Reporter {
		return progress.NewReporter(os.Stdout, "Processing", throttle)
	})
	terminal := prompt.NewTerminal(os.Stdin, os.Stdout, presets)

	controller := session.New(terminal, source, supervisor, session.Config{
		KeepFailedTracks: viper.GetBool("KEEP_FAILED_TRACKS"),
		DownloadTimeout:  downloadTimeout,
		ProgressThrottle: throttle,
		ProgressOut:      os.Stdout,
	})
	if err := controller.Run(ctx); err != nil {
		log.Errorf("Session failed: %v", err)
		return err
	}
	return nil
}

// diagnostic is the single line shown to the user for a failed session.
func diagnostic(err error) string {
	var uerr *app.UserError
	if errors.As(err, &uerr) {
		return uerr.UserMessage
	}
	if errors.Is(err, context.Canceled) {
		return "Interrupted."
	}
	return "Error: " + err.Error()
}

func main() {
	setConfigDefaults()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		os.Exit(1)
	}
}
