// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mutation defines the canonical identity of a protein point
// mutation and the containers extractors report them in.
package mutation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/mutfinder/internal/residue"
)

// ErrInvalidMutation is returned when a mutation cannot be constructed
// from the supplied position or residues.
var ErrInvalidMutation = errors.New("invalid mutation")

// Mutation is the identity contract shared by all mutation kinds. Only
// single-residue substitutions exist today.
type Mutation interface {
	// Position is the one-based residue number.
	Position() int

	// String is the compact form, e.g. "A64G".
	String() string

	// Equal reports whether other denotes the same mutation.
	Equal(other Mutation) bool
}

// PointMutation is a single-residue substitution. The zero value is not a
// valid mutation; use New, FromText, or ParseCompact. PointMutation is
// comparable and is used directly as a map key.
type PointMutation struct {
	pos int
	wt  byte
	mut byte
}

// New builds a PointMutation from a position and two residue spellings.
// Residues may be given as one-letter codes, three-letter codes, or full
// names in any case; they must resolve to one of the twenty standard residues.
func New(position int, wildtype, mutant string) (PointMutation, error) {
	if position <= 0 {
		return PointMutation{}, fmt.Errorf("position %d must be positive: %w", position, ErrInvalidMutation)
	}
	wt, err := residue.NormalizeStandard(wildtype)
	if err != nil {
		return PointMutation{}, fmt.Errorf("wild-type residue: %v: %w", err, ErrInvalidMutation)
	}
	mut, err := residue.NormalizeStandard(mutant)
	if err != nil {
		return PointMutation{}, fmt.Errorf("mutant residue: %v: %w", err, ErrInvalidMutation)
	}
	return PointMutation{pos: position, wt: wt, mut: mut}, nil
}

var positionDigits = regexp.MustCompile(`^[0-9]+$`)

// FromText is New with a textual position. Surrounding whitespace is
// trimmed; what remains must be a run of ASCII digits.
func FromText(position, wildtype, mutant string) (PointMutation, error) {
	digits := strings.TrimSpace(position)
	if !positionDigits.MatchString(digits) {
		return PointMutation{}, fmt.Errorf("position %q is not an unsigned integer: %w", position, ErrInvalidMutation)
	}
	pos, err := strconv.Atoi(digits)
	if err != nil {
		return PointMutation{}, fmt.Errorf("position %q: %v: %w", position, err, ErrInvalidMutation)
	}
	return New(pos, wildtype, mutant)
}

var compactForm = regexp.MustCompile(`^([A-Za-z])([0-9]+)([A-Za-z])$`)

// ParseCompact parses the compact "WtPosMut" form, e.g. "A64G".
func ParseCompact(s string) (PointMutation, error) {
	m := compactForm.FindStringSubmatch(s)
	if m == nil {
		return PointMutation{}, fmt.Errorf("%q is not in compact form: %w", s, ErrInvalidMutation)
	}
	return FromText(m[2], m[1], m[3])
}

// Position returns the residue number.
func (p PointMutation) Position() int { return p.pos }

// Wildtype returns the one-letter code of the original residue.
func (p PointMutation) Wildtype() byte { return p.wt }

// Mutant returns the one-letter code of the substituted residue.
func (p PointMutation) Mutant() byte { return p.mut }

// IsNoOp reports whether the wild-type and mutant residues are identical.
func (p PointMutation) IsNoOp() bool { return p.wt == p.mut }

// String returns the compact form.
func (p PointMutation) String() string {
	return string(p.wt) + strconv.Itoa(p.pos) + string(p.mut)
}

// Equal reports whether other is a PointMutation with the same fields.
func (p PointMutation) Equal(other Mutation) bool {
	switch o := other.(type) {
	case PointMutation:
		return p == o
	case *PointMutation:
		return o != nil && p == *o
	}
	return false
}

// Less orders mutations by compact form.
func (p PointMutation) Less(other PointMutation) bool {
	return p.String() < other.String()
}

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// String renders the span as "start,end".
func (s Span) String() string {
	return strconv.Itoa(s.Start) + "," + strconv.Itoa(s.End)
}

// Counts maps each mutation to the number of times it was mentioned.
type Counts map[PointMutation]int

// Total returns the sum of all counts.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Mentions maps each mutation to the spans where it was mentioned, in
// discovery order.
type Mentions map[PointMutation][]Span

// Counts collapses mentions into per-mutation counts.
func (m Mentions) Counts() Counts {
	c := make(Counts, len(m))
	for k, spans := range m {
		c[k] = len(spans)
	}
	return c
}

// Sorted returns the keys of m ordered by compact form.
func Sorted[V any](m map[PointMutation]V) []PointMutation {
	keys := make([]PointMutation, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
