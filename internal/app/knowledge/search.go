package knowledge

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const sectionSeparator = "\n\n"

// SearchOptions bound the keyword retrieval.
type SearchOptions struct {
	MinTokenLength   int // query tokens shorter than this are ignored
	TopSections      int // max scored sections returned
	CharBudget       int // max characters in the result, separators included
	NoTermsSections  int // sections returned when the query has no usable tokens
	NoMatchSections  int // sections returned when nothing scores
	RawFallbackChars int // prefix returned when the text has no sections
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinTokenLength:   2,
		TopSections:      5,
		CharBudget:       2500,
		NoTermsSections:  8,
		NoMatchSections:  6,
		RawFallbackChars: 2000,
	}
}

// Tokenize lower-cases the query and splits it on whitespace, dropping short tokens.
func Tokenize(query string, minLen int) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) < minLen {
			continue
		}
		out = append(out, strings.ToLower(w))
	}
	return out
}

// Score counts how many tokens occur in section (case-insensitive substring match).
func Score(section string, tokens []string) int {
	lower := strings.ToLower(section)
	n := 0
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

type scoredSection struct {
	score int
	text  string
}

// Search returns the corpus text most relevant to query.
// It is a linear scan: every section is scored on each call.
func (c *Corpus) Search(query string, opts SearchOptions) string {
	if !c.Loaded() {
		return ""
	}
	if len(c.sections) == 0 {
		return truncateRunes(c.raw, opts.RawFallbackChars)
	}

	tokens := Tokenize(query, opts.MinTokenLength)
	if len(tokens) == 0 {
		return pack(head(c.sections, opts.NoTermsSections), opts.CharBudget)
	}

	var scored []scoredSection
	for _, sec := range c.sections {
		if s := Score(sec, tokens); s > 0 {
			scored = append(scored, scoredSection{score: s, text: sec})
		}
	}
	if len(scored) == 0 {
		return pack(head(c.sections, opts.NoMatchSections), opts.CharBudget)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if opts.TopSections > 0 && len(scored) > opts.TopSections {
		scored = scored[:opts.TopSections]
	}

	top := make([]string, len(scored))
	for i, s := range scored {
		top[i] = s.text
	}
	return pack(top, opts.CharBudget)
}

func head(sections []string, n int) []string {
	if n <= 0 || n > len(sections) {
		return sections
	}
	return sections[:n]
}

// pack joins sections with a blank line, never exceeding budget runes.
// Only the last section taken may be cut short. budget <= 0 means unlimited.
func pack(sections []string, budget int) string {
	if budget <= 0 {
		return strings.Join(sections, sectionSeparator)
	}

	var (
		out   []string
		total int
	)
	for _, sec := range sections {
		sep := 0
		if len(out) > 0 {
			sep = utf8.RuneCountInString(sectionSeparator)
		}
		n := utf8.RuneCountInString(sec)
		if total+sep+n > budget {
			if remain := budget - total - sep; remain > 0 {
				out = append(out, truncateRunes(sec, remain))
			}
			break
		}
		out = append(out, sec)
		total += sep + n
	}
	return strings.Join(out, sectionSeparator)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
