// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/mutfinder/pkg/types"
)

const (
	configBaseName = "mutfinder"
	envPrefix      = "MUTFINDER"

	extractorKey     = "batch.extractor"
	workersKey       = "batch.workers"
	spansKey         = "batch.spans"
	normalizedKey    = "batch.normalized"
	patternsFileKey  = "batch.finder.patterns_file"
	skipAmbiguousKey = "batch.finder.skip_ambiguous"
	matchTimeoutKey  = "batch.finder.match_timeout"

	storeDirKey        = "store.dir"
	storeMaxResultsKey = "store.max_results"

	metricsFileKey = "metrics.file"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultWorkers         = 1
	defaultStoreDir        = "store"
	defaultStoreMaxResults = 50

	defaultLogFilename   = ".mutfinder.log"
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func setDefaults() {
	viper.SetDefault(extractorKey, string(types.ExtractorFinder))
	viper.SetDefault(workersKey, defaultWorkers)
	viper.SetDefault(spansKey, false)
	viper.SetDefault(normalizedKey, false)
	viper.SetDefault(patternsFileKey, "")
	viper.SetDefault(skipAmbiguousKey, false)
	viper.SetDefault(matchTimeoutKey, time.Duration(0))

	viper.SetDefault(storeDirKey, defaultStoreDir)
	viper.SetDefault(storeMaxResultsKey, defaultStoreMaxResults)

	viper.SetDefault(metricsFileKey, "")

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, false)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// loadConfig assembles the configuration from defaults, the config file,
// and MUTFINDER_* environment variables, then applies any flags the user
// set on cmd.
func loadConfig(cmd *cobra.Command) types.Config {
	cfg := types.Config{
		Batch: types.BatchConfig{
			Extractor:  types.ExtractorKind(viper.GetString(extractorKey)),
			Workers:    viper.GetInt(workersKey),
			Spans:      viper.GetBool(spansKey),
			Normalized: viper.GetBool(normalizedKey),
			Finder: types.FinderConfig{
				PatternsFile:  viper.GetString(patternsFileKey),
				SkipAmbiguous: viper.GetBool(skipAmbiguousKey),
				MatchTimeout:  viper.GetDuration(matchTimeoutKey),
			},
		},
		Store: types.StoreConfig{
			Dir:        viper.GetString(storeDirKey),
			MaxResults: viper.GetInt(storeMaxResultsKey),
		},
		Log: types.LogConfig{
			Filename:   viper.GetString(logFilenameKey),
			Level:      viper.GetString(logLevelKey),
			Verbose:    viper.GetBool(logVerboseKey),
			MaxSize:    viper.GetInt(logMaxSizeKey),
			MaxBackups: viper.GetInt(logMaxBackupsKey),
			MaxAge:     viper.GetInt(logMaxAgeKey),
			Compress:   viper.GetBool(logCompressKey),
		},
		Metrics: types.MetricsConfig{
			File: viper.GetString(metricsFileKey),
		},
	}

	var extractor string
	if stringFlag(cmd, "extractor", &extractor) {
		cfg.Batch.Extractor = types.ExtractorKind(extractor)
	}
	intFlag(cmd, "workers", &cfg.Batch.Workers)
	boolFlag(cmd, "spans", &cfg.Batch.Spans)
	boolFlag(cmd, "normalized", &cfg.Batch.Normalized)
	stringFlag(cmd, "patterns", &cfg.Batch.Finder.PatternsFile)
	boolFlag(cmd, "skip-ambiguous", &cfg.Batch.Finder.SkipAmbiguous)
	durationFlag(cmd, "match-timeout", &cfg.Batch.Finder.MatchTimeout)

	stringFlag(cmd, "store-dir", &cfg.Store.Dir)
	intFlag(cmd, "max-results", &cfg.Store.MaxResults)

	stringFlag(cmd, "metrics-file", &cfg.Metrics.File)

	stringFlag(cmd, "log-file", &cfg.Log.Filename)
	boolFlag(cmd, "verbose", &cfg.Log.Verbose)

	return cfg
}

// --- flag overrides ---

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func stringFlag(cmd *cobra.Command, name string, dst *string) bool {
	if !changed(cmd, name) {
		return false
	}
	*dst, _ = cmd.Flags().GetString(name)
	return true
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetDuration(name)
	}
}

// --- logging ---

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted too (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the default slog logger. Logs go to a rotating
// file unless cfg.Filename is empty, in which case they go to stderr.
func configureLogger(cfg types.LogConfig) *slog.Logger {
	level := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.TrimSpace(cfg.Filename) == "" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		opts.AddSource = true
		handler = slog.NewTextHandler(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
