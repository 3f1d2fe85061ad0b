// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/pdiddy/mutfinder/internal/mutation"
)

// ambiguousMentions are cell lines and protein names that are spelled
// like one-letter point mutations.
var ambiguousMentions = []string{
	"T47D", "T98G", "L5178Y", "J774A", "H295R", "F442A", "C33A", "C57L",
	"J558L", "A375P", "A375M", "C-33A", "V38A", "R201C", "B10R", "K562R",
	"B10S", "R3327H", "H322M", "N1003A", "H295A", "A5H", "T42A", "V15B",
	"H510A", "T2C", "S100B",
}

type compiledTemplate struct {
	name string
	re   *regexp2.Regexp
}

// Finder recognizes mutation mentions with an ordered list of regular
// expression templates and reports their spans. A Finder is immutable
// after construction.
type Finder struct {
	templates []compiledTemplate
	ambiguous map[string]struct{}
	timeout   time.Duration
	observer  Observer
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithMatchTimeout bounds the time a single template may spend on one text.
func WithMatchTimeout(d time.Duration) FinderOption {
	return func(f *Finder) { f.timeout = d }
}

// WithAmbiguousFilter skips one-letter matches whose text is a known
// cell line or protein name. With no names the built-in list is used.
func WithAmbiguousFilter(names ...string) FinderOption {
	return func(f *Finder) {
		if len(names) == 0 {
			names = ambiguousMentions
		}
		f.ambiguous = make(map[string]struct{}, len(names))
		for _, n := range names {
			f.ambiguous[n] = struct{}{}
		}
	}
}

// WithObserver registers an Observer for match events.
func WithObserver(o Observer) FinderOption {
	return func(f *Finder) {
		if o != nil {
			f.observer = o
		}
	}
}

// NewFinder compiles templates in order. An empty template list is legal
// and yields a Finder that never matches. Templates that fail to compile
// or lack a required named group are reported as ErrConfiguration.
func NewFinder(templates []Template, opts ...FinderOption) (*Finder, error) {
	f := &Finder{observer: nopObserver{}}
	for _, opt := range opts {
		opt(f)
	}

	for i, t := range templates {
		pattern := strings.ReplaceAll(t.Pattern, "(?P<", "(?<")
		flags := regexp2.None
		if i > 0 && !t.CaseSensitive {
			flags = regexp2.IgnoreCase
		}

		re, err := regexp2.Compile(pattern, flags)
		if err != nil {
			return nil, fmt.Errorf("compiling template %d (%s): %v: %w", i, t.Name, err, ErrConfiguration)
		}
		for _, g := range []string{groupWildtype, groupPosition, groupMutant} {
			if re.GroupNumberFromName(g) < 0 {
				return nil, fmt.Errorf("template %d (%s) has no %q group: %w", i, t.Name, g, ErrConfiguration)
			}
		}
		if f.timeout > 0 {
			re.MatchTimeout = f.timeout
		}

		name := t.Name
		if name == "" {
			name = fmt.Sprintf("template-%d", i)
		}
		f.templates = append(f.templates, compiledTemplate{name: name, re: re})
	}

	return f, nil
}

// Name identifies the strategy.
func (f *Finder) Name() string { return "finder" }

// Len returns the number of compiled templates.
func (f *Finder) Len() int { return len(f.templates) }

// Extract applies every template in order, scanning each left to right for
// non-overlapping matches. A span runs from the earliest of the three named
// groups to the end of the match, so leading boundary characters are
// excluded. Mutations whose wild-type and mutant residues are identical are
// removed after all templates have run.
func (f *Finder) Extract(text string) (mutation.Mentions, error) {
	mentions := mutation.Mentions{}
	offsets := byteOffsets(text)

	for _, t := range f.templates {
		m, err := t.re.FindStringMatch(text)
		for m != nil {
			wt := m.GroupByName(groupWildtype)
			pos := m.GroupByName(groupPosition)
			mut := m.GroupByName(groupMutant)

			if participated(wt) && participated(pos) && participated(mut) {
				pm, perr := mutation.FromText(pos.String(), wt.String(), mut.String())
				if perr != nil {
					return nil, fmt.Errorf("template %s matched %q: %w", t.name, m.String(), perr)
				}

				start := min(wt.Index, pos.Index, mut.Index)
				span := mutation.Span{
					Start: offsets.at(start),
					End:   offsets.at(m.Index + m.Length),
				}

				if f.isAmbiguous(text[span.Start:span.End], wt, mut) {
					slog.Debug("skipping ambiguous mention", "text", text[span.Start:span.End])
				} else {
					mentions[pm] = append(mentions[pm], span)
					f.observer.Matched(t.name, pm)
				}
			}

			m, err = t.re.FindNextMatch(m)
		}
		if err != nil {
			return nil, fmt.Errorf("matching template %s: %w", t.name, err)
		}
	}

	for pm := range mentions {
		if pm.IsNoOp() {
			delete(mentions, pm)
			f.observer.NoOpFiltered(pm)
		}
	}

	return mentions, nil
}

// Count is Extract collapsed to per-mutation counts.
func (f *Finder) Count(text string) (mutation.Counts, error) {
	mentions, err := f.Extract(text)
	if err != nil {
		return nil, err
	}
	return mentions.Counts(), nil
}

func (f *Finder) isAmbiguous(mention string, wt, mut *regexp2.Group) bool {
	if f.ambiguous == nil || wt.Length != 1 || mut.Length != 1 {
		return false
	}
	_, ok := f.ambiguous[mention]
	return ok
}

func participated(g *regexp2.Group) bool {
	return g != nil && len(g.Captures) > 0
}

// runeIndex converts the rune offsets reported by regexp2 into byte
// offsets. A nil runeIndex means the text is ASCII and offsets coincide.
type runeIndex []int

func byteOffsets(s string) runeIndex {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return nil
	}
	idx := make(runeIndex, 0, len(s)+1)
	for i := range s {
		idx = append(idx, i)
	}
	return append(idx, len(s))
}

func (r runeIndex) at(runeOffset int) int {
	if r == nil {
		return runeOffset
	}
	return r[runeOffset]
}
