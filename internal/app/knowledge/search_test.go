package knowledge_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/persona-relay/internal/app/knowledge"
)

const sampleText = `==============================
SAYLANI WELFARE
==============================

Saylani Welfare International Trust was founded in 1999 by Maulana Bashir Ahmed Farooqui.

The Dastarkhwan programme serves free food to thousands of people every day.

Saylani Mass IT Training (SMIT) offers free education in software development.

The trust runs free medical clinics across Pakistan.

Ration is distributed monthly to families in need.`

func TestTokenize(t *testing.T) {
	got := knowledge.Tokenize("  What IS a Saylani  x ?", 2)
	assert.Equal(t, []string{"what", "is", "saylani"}, got)
}

func TestScoreCountsDistinctTokenOccurrences(t *testing.T) {
	sec := "Free FOOD and free education"
	assert.Equal(t, 2, knowledge.Score(sec, []string{"food", "education", "medical"}))
	assert.Equal(t, 0, knowledge.Score(sec, []string{"ration"}))
}

func TestSearchRanksByScore(t *testing.T) {
	c := knowledge.NewCorpus("saylani", sampleText)

	got := c.Search("free food dastarkhwan", knowledge.DefaultSearchOptions())
	parts := strings.Split(got, "\n\n")

	assert.True(t, strings.HasPrefix(parts[0], "The Dastarkhwan programme"), got)
	assert.Contains(t, got, "free education")
	assert.Contains(t, got, "free medical")
	assert.NotContains(t, got, "Ration is distributed")
}

func TestSearchTiesKeepCorpusOrder(t *testing.T) {
	c := knowledge.NewCorpus("t", "alpha one\n\nbeta one\n\ngamma one")

	got := c.Search("one", knowledge.DefaultSearchOptions())
	assert.Equal(t, "alpha one\n\nbeta one\n\ngamma one", got)
}

func TestSearchSkipsSeparatorLines(t *testing.T) {
	c := knowledge.NewCorpus("saylani", sampleText)
	for _, s := range c.Sections() {
		assert.False(t, strings.HasPrefix(s, "===="), s)
	}
	assert.Len(t, c.Sections(), 5)
}

func TestSearchNormalizesCRLF(t *testing.T) {
	c := knowledge.NewCorpus("t", "first\r\n\r\nsecond")
	assert.Equal(t, []string{"first", "second"}, c.Sections())
}

func TestSearchTopSectionsLimit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("common word section\n\n")
	}
	c := knowledge.NewCorpus("t", b.String())

	got := c.Search("common", knowledge.DefaultSearchOptions())
	assert.Len(t, strings.Split(got, "\n\n"), 5)
}

func TestSearchNeverExceedsBudget(t *testing.T) {
	sections := []string{
		strings.Repeat("a", 900) + " match",
		strings.Repeat("b", 900) + " match",
		strings.Repeat("c", 900) + " match",
	}
	c := knowledge.NewCorpus("t", strings.Join(sections, "\n\n"))

	opts := knowledge.DefaultSearchOptions()
	got := c.Search("match", opts)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), opts.CharBudget)
	assert.Equal(t, opts.CharBudget, utf8.RuneCountInString(got))

	parts := strings.Split(got, "\n\n")
	assert.Len(t, parts, 3)
	assert.Equal(t, sections[0], parts[0])
	assert.Equal(t, sections[1], parts[1])
	assert.True(t, strings.HasPrefix(sections[2], parts[2]))
	assert.Less(t, len(parts[2]), len(sections[2]))
}

func TestSearchBudgetCountsRunes(t *testing.T) {
	c := knowledge.NewCorpus("t", strings.Repeat("é", 50)+" match")
	opts := knowledge.DefaultSearchOptions()
	opts.CharBudget = 10

	got := c.Search("match", opts)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 10, utf8.RuneCountInString(got))
}

func TestSearchNoMatchReturnsLeadingSections(t *testing.T) {
	var secs []string
	for i := 0; i < 9; i++ {
		secs = append(secs, "section "+strings.Repeat("x", i+1))
	}
	c := knowledge.NewCorpus("t", strings.Join(secs, "\n\n"))

	got := c.Search("zebra", knowledge.DefaultSearchOptions())
	assert.NotEmpty(t, got)
	assert.Equal(t, strings.Join(secs[:6], "\n\n"), got)
}

func TestSearchNoUsableTokensReturnsLeadingSections(t *testing.T) {
	var secs []string
	for i := 0; i < 10; i++ {
		secs = append(secs, "s"+strings.Repeat("y", i))
	}
	c := knowledge.NewCorpus("t", strings.Join(secs, "\n\n"))

	got := c.Search("a ? !", knowledge.DefaultSearchOptions())
	assert.Equal(t, strings.Join(secs[:8], "\n\n"), got)
}

func TestSearchEmptyCorpus(t *testing.T) {
	c := knowledge.NewCorpus("t", "   \n\n  ")
	assert.False(t, c.Loaded())
	assert.Empty(t, c.Search("anything", knowledge.DefaultSearchOptions()))

	var nilCorpus *knowledge.Corpus
	assert.Empty(t, nilCorpus.Search("anything", knowledge.DefaultSearchOptions()))
}

func TestSearchOnlySeparatorsFallsBackToRawText(t *testing.T) {
	raw := strings.Repeat("=", 3000)
	c := knowledge.NewCorpus("t", raw)

	got := c.Search("anything", knowledge.DefaultSearchOptions())
	assert.Equal(t, raw[:2000], got)
}
