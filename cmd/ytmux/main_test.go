package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/vm-affekt/ytmux/internal/app"
	"github.com/vm-affekt/ytmux/internal/downloader"
)

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "should_show_user_message",
			err:  fmt.Errorf("wrapped: %w", app.NewUserError("Invalid option.").WithCause(errors.New("x"))),
			want: "Invalid option.",
		},
		{
			name: "should_report_interrupt",
			err:  context.Canceled,
			want: "Interrupted.",
		},
		{
			name: "should_prefix_other_errors",
			err:  &app.TranscodeError{Binary: "ffmpeg", ExitCode: 1, Err: errors.New("exit status 1")},
			want: "Error: " + (&app.TranscodeError{Binary: "ffmpeg", ExitCode: 1, Err: errors.New("exit status 1")}).Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diagnostic(tt.err); got != tt.want {
				t.Errorf("diagnostic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildLogger(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		wantDebug bool
		wantErr   bool
	}{
		{name: "should_build_prod", mode: "prod"},
		{name: "should_build_debug", mode: "debug", wantDebug: true},
		{name: "should_treat_empty_as_debug", mode: "", wantDebug: true},
		{name: "should_reject_unknown", mode: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "ytmux.log")
			logger, debug, err := buildLogger(tt.mode, logPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if debug != tt.wantDebug {
				t.Errorf("debug = %v, want %v", debug, tt.wantDebug)
			}
			logger.Info("to file")
			_ = logger.Sync()
			if raw, _ := os.ReadFile(logPath); len(raw) == 0 {
				t.Error("log file should receive entries")
			}
		})
	}
}

func TestBuildPresets(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		config string
		flags  map[string]string
		want   map[app.Question]string
	}{
		{
			name: "should_leave_prompts_without_answers",
			want: map[app.Question]string{},
		},
		{
			name: "should_take_overwrite_from_env",
			env:  map[string]string{"YTMUX_ANSWER_OVERWRITE": "true"},
			want: map[app.Question]string{app.QuestionOverwrite: "y"},
		},
		{
			name: "should_decline_overwrite_from_env",
			env:  map[string]string{"YTMUX_ANSWER_OVERWRITE": "false"},
			want: map[app.Question]string{app.QuestionOverwrite: "n"},
		},
		{
			name:   "should_take_answers_from_config_file",
			config: "ANSWER_OVERWRITE=true\nANSWER_MODE=a\n",
			want:   map[app.Question]string{app.QuestionOverwrite: "y", app.QuestionMode: "a"},
		},
		{
			name:  "should_take_answers_from_flags",
			flags: map[string]string{"overwrite": "true", "url": "https://youtu.be/7UxNoFjmhBA", "quality": "2"},
			want: map[app.Question]string{
				app.QuestionOverwrite: "y",
				app.QuestionURL:       "https://youtu.be/7UxNoFjmhBA",
				app.QuestionQuality:   "2",
			},
		},
		{
			name: "should_take_link_and_folder_from_env",
			env:  map[string]string{"YTMUX_ANSWER_URL": "https://youtu.be/7UxNoFjmhBA", "YTMUX_ANSWER_DEST": "/tmp/out"},
			want: map[app.Question]string{
				app.QuestionURL:    "https://youtu.be/7UxNoFjmhBA",
				app.QuestionFolder: "/tmp/out",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			configPath := filepath.Join(t.TempDir(), "config.env")
			if err := os.WriteFile(configPath, []byte(tt.config), 0o644); err != nil {
				t.Fatal(err)
			}

			setConfigDefaults()
			cmd := newRootCmd()
			for name, v := range tt.flags {
				if err := cmd.Flags().Set(name, v); err != nil {
					t.Fatal(err)
				}
			}
			if err := readConfig(configPath); err != nil {
				t.Fatalf("readConfig() error = %v", err)
			}

			got := buildPresets()
			if len(got) != len(tt.want) {
				t.Fatalf("buildPresets() = %v, want %v", got, tt.want)
			}
			for q, v := range tt.want {
				if got[q] != v {
					t.Errorf("preset %v = %q, want %q", q, got[q], v)
				}
			}
		})
	}
}

func TestSetConfigDefaults_chunkSize(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setConfigDefaults()
	if got := viper.GetInt64("CHUNK_SIZE"); got != downloader.DefaultChunkSize {
		t.Errorf("CHUNK_SIZE default = %d, want %d", got, downloader.DefaultChunkSize)
	}
}
