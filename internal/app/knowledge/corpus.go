package knowledge

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// separatorPrefix marks decorative ruler lines that are not real sections.
var separatorPrefix = strings.Repeat("=", 20)

// Corpus is a static knowledge text split into blank-line delimited sections.
// It is immutable once built.
type Corpus struct {
	name     string
	raw      string
	sections []string
}

// NewCorpus splits text into sections.
func NewCorpus(name, text string) *Corpus {
	raw := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	return &Corpus{
		name:     name,
		raw:      raw,
		sections: splitSections(raw),
	}
}

// LoadCorpus reads a UTF-8 text file from disk.
func LoadCorpus(name, path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read knowledge file",
			goerr.V("name", name), goerr.V("path", path))
	}
	return NewCorpus(name, string(data)), nil
}

func splitSections(raw string) []string {
	var out []string
	for _, block := range strings.Split(raw, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, separatorPrefix) {
			continue
		}
		out = append(out, block)
	}
	return out
}

func (c *Corpus) Name() string { return c.name }

// Text is the whole normalized corpus.
func (c *Corpus) Text() string {
	if c == nil {
		return ""
	}
	return c.raw
}

// Sections returns a copy of the corpus sections in file order.
func (c *Corpus) Sections() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.sections...)
}

// Loaded reports whether the corpus has any text at all.
func (c *Corpus) Loaded() bool {
	return c != nil && c.raw != ""
}
