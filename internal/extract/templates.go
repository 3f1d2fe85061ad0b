// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mutfinder/internal/residue"
)

// Named capture groups every finder template must define.
const (
	groupWildtype = "wt_res"
	groupPosition = "pos"
	groupMutant   = "mut_res"
)

// Template is one recognition pattern. Patterns are written in .NET/Perl
// syntax and must capture the groups wt_res, pos, and mut_res. The RE2
// spelling (?P<name>...) is accepted.
type Template struct {
	// Name labels the template in logs and metrics.
	Name string `json:"name" yaml:"name"`

	// Pattern is the regular expression source.
	Pattern string `json:"pattern" yaml:"pattern"`

	// CaseSensitive disables case folding. The first template of a finder
	// is always compiled case-sensitive.
	CaseSensitive bool `json:"case_sensitive" yaml:"case_sensitive"`
}

// templateFile is the on-disk layout read by LoadTemplates.
type templateFile struct {
	Templates []Template `yaml:"templates"`
}

const (
	// leadBoundary is the character (or start of text) allowed before a mention.
	leadBoundary = `(?:^|[\s(\['"/,\-])`

	// trailBoundary is a zero-width check for the character (or end of
	// text) allowed after a mention.
	trailBoundary = `(?=[.,\s)\]'":;\-?!/]|$)`
)

// oneLetterClass is the character class of the twenty standard codes.
func oneLetterClass() string {
	return "[" + residue.Letters() + "]"
}

// residueWords is an alternation of full names and three-letter codes.
func residueWords() string {
	words := append(residue.FullNames(), residue.ThreeLetterCodes()...)
	return "(?:" + strings.Join(words, "|") + ")"
}

// DefaultTemplates returns the built-in recognition patterns, in order:
// one-letter codes (case-sensitive, position 10 or higher), three-letter
// codes or names run together, joined by "-->", and joined by " to ".
func DefaultTemplates() []Template {
	one := oneLetterClass()
	word := residueWords()

	return []Template{
		{
			Name: "one-letter",
			Pattern: leadBoundary +
				`(?<wt_res>` + one + `)(?<pos>[1-9][0-9]+)(?<mut_res>` + one + `)` +
				trailBoundary,
			CaseSensitive: true,
		},
		{
			Name: "three-letter",
			Pattern: leadBoundary +
				`(?<wt_res>` + word + `)(?<pos>[1-9][0-9]*)(?<mut_res>` + word + `)` +
				trailBoundary,
		},
		{
			Name: "three-letter-arrow",
			Pattern: leadBoundary +
				`(?<wt_res>` + word + `)(?<pos>[1-9][0-9]*)-->(?<mut_res>` + word + `)` +
				trailBoundary,
		},
		{
			Name: "three-letter-to",
			Pattern: leadBoundary +
				`(?<wt_res>` + word + `)(?<pos>[1-9][0-9]*) to (?<mut_res>` + word + `)` +
				trailBoundary,
		},
	}
}

// LoadTemplates reads a YAML pattern file of the form
//
//	templates:
//	  - name: one-letter
//	    pattern: ...
//	    case_sensitive: true
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing pattern file %s: %v: %w", path, err, ErrConfiguration)
	}
	for i := range f.Templates {
		if f.Templates[i].Name == "" {
			f.Templates[i].Name = fmt.Sprintf("template-%d", i)
		}
	}
	return f.Templates, nil
}

// MarshalTemplates renders templates in the LoadTemplates layout.
func MarshalTemplates(templates []Template) ([]byte, error) {
	data, err := yaml.Marshal(templateFile{Templates: templates})
	if err != nil {
		return nil, fmt.Errorf("marshaling templates: %w", err)
	}
	return data, nil
}
