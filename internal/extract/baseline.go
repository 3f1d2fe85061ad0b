// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"

	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/internal/residue"
)

// windowWords is how many words may separate a "WtPos" word from its
// destination residue.
const windowWords = 10

var (
	sentenceBreak = regexp.MustCompile(`\.\s+`)
	nonWordChars  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// baselineWordPatterns match a whole word: uppercase one-letter codes or
// title-case three-letter codes on both sides of the position.
var baselineWordPatterns = func() []*regexp2.Regexp {
	one := oneLetterClass()
	three := "(?:" + strings.Join(residue.ThreeLetterCodes(), "|") + ")"
	return []*regexp2.Regexp{
		regexp2.MustCompile(`^(?<wt_res>`+one+`)(?<pos>[1-9][0-9]*)(?<mut_res>`+one+`)$`, regexp2.None),
		regexp2.MustCompile(`^(?<wt_res>`+three+`)(?<pos>[1-9][0-9]*)(?<mut_res>`+three+`)$`, regexp2.None),
	}
}()

// baselineWindowPatterns match a "WtPos" word followed, within ten words,
// by a destination residue written as a title-case three-letter code or a
// lowercase or capitalized full name. The wild-type residue may be an
// uppercase one-letter code, a title-case three-letter code, or a lowercase
// or capitalized full name.
var baselineWindowPatterns = func() []*regexp2.Regexp {
	one := oneLetterClass()
	three := strings.Join(residue.ThreeLetterCodes(), "|")

	var names []string
	for _, n := range residue.FullNames() {
		names = append(names, n, strings.ToUpper(n[:1])+n[1:])
	}
	full := strings.Join(names, "|")
	dest := "(?<mut_res>" + full + "|" + three + ")"

	gap := fmt.Sprintf(`(?:\s+\S+){0,%d}?\s+`, windowWords-1)
	tail := `(?<pos>[1-9][0-9]*)` + gap + dest + `(?=\s|$)`
	return []*regexp2.Regexp{
		regexp2.MustCompile(`(?<=^|\s)(?<wt_res>`+one+`)`+tail, regexp2.None),
		regexp2.MustCompile(`(?<=^|\s)(?<wt_res>`+three+`)`+tail, regexp2.None),
		regexp2.MustCompile(`(?<=^|\s)(?<wt_res>`+full+`)`+tail, regexp2.None),
	}
}()

// Baseline is the word-level extractor. It splits text into sentences,
// strips punctuation, and matches whole words against case-restricted
// templates. It reports counts only.
type Baseline struct {
	words   []*regexp2.Regexp
	windows []*regexp2.Regexp
}

// NewBaseline returns a Baseline with the built-in templates.
func NewBaseline() *Baseline {
	return &Baseline{
		words:   baselineWordPatterns,
		windows: baselineWindowPatterns,
	}
}

// Name identifies the strategy.
func (b *Baseline) Name() string { return "baseline" }

// Count returns how often each mutation is mentioned in text.
func (b *Baseline) Count(text string) (mutation.Counts, error) {
	counts := mutation.Counts{}

	for _, sentence := range preprocessSentences(text) {
		for _, word := range preprocessWords(sentence) {
			for _, re := range b.words {
				m, err := re.FindStringMatch(word)
				if err != nil {
					return nil, fmt.Errorf("matching word %q: %w", word, err)
				}
				if m == nil {
					continue
				}
				if err := tally(counts, m); err != nil {
					return nil, err
				}
			}
		}

		for _, re := range b.windows {
			m, err := re.FindStringMatch(sentence)
			for m != nil {
				if terr := tally(counts, m); terr != nil {
					return nil, terr
				}
				m, err = re.FindNextMatch(m)
			}
			if err != nil {
				return nil, fmt.Errorf("matching sentence: %w", err)
			}
		}
	}

	return counts, nil
}

func tally(counts mutation.Counts, m *regexp2.Match) error {
	pm, err := mutation.FromText(
		m.GroupByName(groupPosition).String(),
		m.GroupByName(groupWildtype).String(),
		m.GroupByName(groupMutant).String(),
	)
	if err != nil {
		return fmt.Errorf("mention %q: %w", m.String(), err)
	}
	counts[pm]++
	return nil
}

// preprocessSentences splits text at a period followed by whitespace and
// deletes every character other than ASCII letters, digits, and whitespace.
func preprocessSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := sentenceBreak.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(nonWordChars.ReplaceAllString(p, "")))
	}
	return out
}

// preprocessWords splits text on whitespace and strips non-alphanumeric
// characters from each word. A word made only of punctuation becomes "".
func preprocessWords(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return r
			}
			return -1
		}, f)
	}
	return out
}
