// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration shared by the mutfinder packages
// and the CLI.
package types

import "time"

// ExtractorKind selects the recognition strategy.
type ExtractorKind string

const (
	ExtractorFinder   ExtractorKind = "finder"
	ExtractorBaseline ExtractorKind = "baseline"
)

// FinderConfig holds settings for the template-based finder.
type FinderConfig struct {
	// PatternsFile is an optional YAML template file replacing the defaults.
	PatternsFile string `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty"`

	// SkipAmbiguous drops one-letter matches that spell a known cell line
	// or protein name (e.g. T47D).
	SkipAmbiguous bool `json:"skip_ambiguous" yaml:"skip_ambiguous"`

	// MatchTimeout bounds each template match; zero means no limit.
	MatchTimeout time.Duration `json:"match_timeout" yaml:"match_timeout"`
}

// BatchConfig holds settings for a batch extraction run.
type BatchConfig struct {
	// Extractor is finder (default) or baseline.
	Extractor ExtractorKind `json:"extractor" yaml:"extractor"`

	// Workers is the number of documents processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// Spans requests ":start,end" spans in the output. Finder only.
	Spans bool `json:"spans" yaml:"spans"`

	// Normalized writes each distinct mutation once per document.
	Normalized bool `json:"normalized" yaml:"normalized"`

	Finder FinderConfig `json:"finder" yaml:"finder"`
}

// StoreConfig holds settings for the SQLite mention store.
type StoreConfig struct {
	// Dir contains mentions.db and export files (default "store").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LogConfig holds settings for the rotating log file.
type LogConfig struct {
	// Filename is the rotating log file (default .mutfinder.log); empty logs
	// to stderr.
	Filename string `json:"filename" yaml:"filename"`

	// Level is debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Verbose forces debug level.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// MaxSize is the size in megabytes before rotation.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAge is the number of days rotated files are kept.
	MaxAge int `json:"max_age" yaml:"max_age"`

	// Compress gzips rotated files.
	Compress bool `json:"compress" yaml:"compress"`
}

// MetricsConfig holds settings for the Prometheus textfile export.
type MetricsConfig struct {
	// File receives the metrics in text exposition format after a run.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Config groups every section of mutfinder.yaml.
type Config struct {
	Batch   BatchConfig   `json:"batch" yaml:"batch"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}
