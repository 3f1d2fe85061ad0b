// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract recognizes protein point mutation mentions in free text.
// Two strategies are provided: a word-level Baseline that reports counts,
// and a multi-template Finder that also reports exact spans. A batch driver
// runs either over a corpus of documents with a bounded worker pool.
package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/pkg/types"
)

var (
	// ErrConfiguration is returned when an extractor cannot be built from
	// its templates or settings.
	ErrConfiguration = errors.New("invalid extractor configuration")

	// ErrSpansUnsupported is returned when spans are requested from an
	// extractor that only reports counts.
	ErrSpansUnsupported = errors.New("extractor does not report spans")
)

// Extractor reports how often each mutation is mentioned in a text.
// Implementations are safe for concurrent use.
type Extractor interface {
	Name() string
	Count(text string) (mutation.Counts, error)
}

// SpanExtractor additionally reports where each mention occurs.
type SpanExtractor interface {
	Extractor
	Extract(text string) (mutation.Mentions, error)
}

// Observer receives extraction events. Every method must be safe for
// concurrent use.
type Observer interface {
	// Matched is called once per accepted template match.
	Matched(template string, m mutation.PointMutation)

	// NoOpFiltered is called for each mutation dropped because its
	// wild-type and mutant residues are identical.
	NoOpFiltered(m mutation.PointMutation)

	// Document is called once per document processed by Run.
	Document(status string, elapsed time.Duration)
}

// Document statuses reported to Observer.Document.
const (
	StatusExtracted = "extracted"
	StatusFailed    = "failed"
)

type nopObserver struct{}

func (nopObserver) Matched(string, mutation.PointMutation) {}
func (nopObserver) NoOpFiltered(mutation.PointMutation)    {}
func (nopObserver) Document(string, time.Duration)         {}

// New builds the extractor selected by cfg. A nil observer is allowed.
func New(cfg types.BatchConfig, obs Observer) (Extractor, error) {
	switch cfg.Extractor {
	case types.ExtractorBaseline:
		return NewBaseline(), nil
	case types.ExtractorFinder, "":
		return NewFinderFromConfig(cfg.Finder, obs)
	default:
		return nil, fmt.Errorf("unknown extractor %q: %w", cfg.Extractor, ErrConfiguration)
	}
}

// NewFinderFromConfig builds a Finder from the default templates, or from
// cfg.PatternsFile when set.
func NewFinderFromConfig(cfg types.FinderConfig, obs Observer) (*Finder, error) {
	templates := DefaultTemplates()
	if cfg.PatternsFile != "" {
		loaded, err := LoadTemplates(cfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		templates = loaded
	}

	var opts []FinderOption
	if cfg.SkipAmbiguous {
		opts = append(opts, WithAmbiguousFilter())
	}
	if cfg.MatchTimeout > 0 {
		opts = append(opts, WithMatchTimeout(cfg.MatchTimeout))
	}
	if obs != nil {
		opts = append(opts, WithObserver(obs))
	}
	return NewFinder(templates, opts...)
}
