// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package residue maps the textual spellings of amino acid residues to
// their one-letter codes. It accepts one-letter codes, three-letter codes,
// and full English names in any letter case, plus the ambiguity codes
// Xaa, Glx, and Asx.
package residue

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidResidue is returned when a token names no known residue.
var ErrInvalidResidue = errors.New("invalid residue")

// Residue describes one standard amino acid.
type Residue struct {
	// One is the single-letter code (e.g. 'A').
	One byte

	// Three is the three-letter code in title case (e.g. "Ala").
	Three string

	// Names holds the lowercase English names, preferred name first.
	Names []string
}

// standard lists the twenty residues a PointMutation may carry.
var standard = []Residue{
	{'A', "Ala", []string{"alanine"}},
	{'R', "Arg", []string{"arginine"}},
	{'N', "Asn", []string{"asparagine"}},
	{'D', "Asp", []string{"aspartic acid", "aspartate"}},
	{'C', "Cys", []string{"cysteine"}},
	{'E', "Glu", []string{"glutamic acid", "glutamate"}},
	{'Q', "Gln", []string{"glutamine"}},
	{'G', "Gly", []string{"glycine"}},
	{'H', "His", []string{"histidine"}},
	{'I', "Ile", []string{"isoleucine"}},
	{'L', "Leu", []string{"leucine"}},
	{'K', "Lys", []string{"lysine"}},
	{'M', "Met", []string{"methionine"}},
	{'F', "Phe", []string{"phenylalanine"}},
	{'P', "Pro", []string{"proline"}},
	{'S', "Ser", []string{"serine"}},
	{'T', "Thr", []string{"threonine"}},
	{'W', "Trp", []string{"tryptophan"}},
	{'Y', "Tyr", []string{"tyrosine"}},
	{'V', "Val", []string{"valine"}},
}

// ambiguous maps the ambiguity codes onto their one-letter forms.
// The bare letters X, Z, and B are not accepted.
var ambiguous = map[string]byte{
	"xaa": 'X',
	"glx": 'Z',
	"asx": 'B',
}

// lookup is keyed by lowercase spelling.
var lookup = buildLookup()

func buildLookup() map[string]byte {
	m := make(map[string]byte, len(standard)*4+len(ambiguous))
	for _, r := range standard {
		m[strings.ToLower(string(r.One))] = r.One
		m[strings.ToLower(r.Three)] = r.One
		for _, n := range r.Names {
			m[n] = r.One
		}
	}
	for k, v := range ambiguous {
		m[k] = v
	}
	return m
}

// Normalize returns the one-letter code for token. Matching is
// case-insensitive and ignores surrounding whitespace. The ambiguity codes
// X, Z, and B are returned for Xaa, Glx, and Asx.
func Normalize(token string) (byte, error) {
	key := strings.ToLower(strings.TrimSpace(token))
	if key == "" {
		return 0, fmt.Errorf("empty residue token: %w", ErrInvalidResidue)
	}
	code, ok := lookup[key]
	if !ok {
		return 0, fmt.Errorf("unknown residue %q: %w", token, ErrInvalidResidue)
	}
	return code, nil
}

// NormalizeStandard is Normalize restricted to the twenty standard residues.
func NormalizeStandard(token string) (byte, error) {
	code, err := Normalize(token)
	if err != nil {
		return 0, err
	}
	if !IsStandard(code) {
		return 0, fmt.Errorf("ambiguous residue %q: %w", token, ErrInvalidResidue)
	}
	return code, nil
}

// IsStandard reports whether code is one of the twenty standard one-letter codes.
func IsStandard(code byte) bool {
	for _, r := range standard {
		if r.One == code {
			return true
		}
	}
	return false
}

// Standard returns a copy of the standard residue table.
func Standard() []Residue {
	out := make([]Residue, len(standard))
	copy(out, standard)
	return out
}

// Letters returns the twenty standard one-letter codes as a string.
func Letters() string {
	var b strings.Builder
	for _, r := range standard {
		b.WriteByte(r.One)
	}
	return b.String()
}

// ThreeLetterCodes returns the title-case three-letter codes.
func ThreeLetterCodes() []string {
	out := make([]string, len(standard))
	for i, r := range standard {
		out[i] = r.Three
	}
	return out
}

// FullNames returns every lowercase English name, longest first so that a
// regex alternation built from it prefers "glutamic acid" over "glutamate".
func FullNames() []string {
	var out []string
	for _, r := range standard {
		out = append(out, r.Names...)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
