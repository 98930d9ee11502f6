package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/vm-affekt/ytmux/internal/downloader"
	"go.uber.org/zap"
)

const (
	modeEnvProduction = "prod"
	modeEnvDebug      = "debug"
)

func setConfigDefaults() {
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("PROGRESS_THROTTLE", 100*time.Millisecond)
	viper.SetDefault("KEEP_FAILED_TRACKS", true)
	viper.SetDefault("CHUNK_SIZE", downloader.DefaultChunkSize)
	viper.SetDefault("MODE", modeEnvProduction)
}

// readConfig loads the env-style config file. An explicit file must exist; the search path may be empty.
func readConfig(explicitPath string) error {
	if explicitPath != "" {
		viper.SetConfigFile(explicitPath)
		viper.SetConfigType("env")
	} else {
		viper.AddConfigPath("/etc/ytmux")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("YTMUX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && explicitPath == "" {
			return nil
		}
		return fmt.Errorf("failed to read config (used file: %q): %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

// buildLogger keeps the terminal clean for prompts and progress bars: with LOG_FILE_PATH set
// logs go only to the file, otherwise prod mode only reports warnings to stderr.
func buildLogger(modeEnv, logFilePath string) (logger *zap.Logger, debugMode bool, err error) {
	var logCfg zap.Config
	switch modeEnv {
	case modeEnvProduction:
		logCfg = zap.NewProductionConfig()
		if logFilePath == "" {
			logCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
	case modeEnvDebug, "":
		debugMode = true
		logCfg = zap.NewDevelopmentConfig()
	default:
		return nil, false, fmt.Errorf("unknown mode %q in MODE: use 'prod' or 'debug'", modeEnv)
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	if logFilePath != "" {
		logCfg.OutputPaths = []string{logFilePath}
		logCfg.ErrorOutputPaths = []string{logFilePath}
	}
	logger, err = logCfg.Build()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, debugMode, nil
}
