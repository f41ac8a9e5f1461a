package knowledge

import (
	"strings"
)

// DefaultNoKnowledgePhrases are reply fragments meaning the model has no answer.
var DefaultNoKnowledgePhrases = []string{
	"i don't have", "i don't know", "i couldn't find", "i cannot find", "i do not have",
	"i'm not sure", "i am not sure", "i don't have information", "i have no information",
	"i couldn't find information", "i don't have access", "i don't have any information",
	"no information", "don't have details", "couldn't find any", "not in my knowledge",
	"outside my knowledge", "limited knowledge", "don't have specific",
}

// Base is a corpus together with the keywords that make a query relevant to it.
type Base struct {
	Name     string
	Intro    string
	Keywords []string
	Corpus   *Corpus
}

// Matches reports whether query mentions any of the base keywords.
func (b *Base) Matches(query string) bool {
	if b == nil {
		return false
	}
	return containsAny(query, b.Keywords)
}

// Answer returns Intro followed by the retrieved text, or "" when retrieval is empty.
func (b *Base) Answer(query string, opts SearchOptions) string {
	if b == nil || b.Corpus == nil {
		return ""
	}
	text := b.Corpus.Search(strings.TrimSpace(query), opts)
	if text == "" {
		return ""
	}
	if b.Intro == "" {
		return text
	}
	return b.Intro + "\n\n" + text
}

// IndicatesNoKnowledge reports whether reply contains one of phrases.
func IndicatesNoKnowledge(reply string, phrases []string) bool {
	return containsAny(reply, phrases)
}

func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
