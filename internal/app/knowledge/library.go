package knowledge

import (
	"context"
	"errors"
	"io/fs"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PabloGalante/persona-relay/internal/observability"
)

// Source describes where a knowledge base comes from.
type Source struct {
	Name     string
	Path     string
	Intro    string
	Keywords []string
}

// Library holds every knowledge base loaded at startup.
type Library struct {
	bases map[string]*Base
	order []string
}

// LoadLibrary reads all sources. A missing file is not fatal: the base is
// kept with an empty corpus so its retrieval returns nothing.
func LoadLibrary(ctx context.Context, sources []Source) (*Library, error) {
	log := observability.LoggerFromContext(ctx)
	lib := &Library{bases: make(map[string]*Base, len(sources))}

	for _, src := range sources {
		if src.Name == "" {
			return nil, goerr.New("knowledge source without name", goerr.V("path", src.Path))
		}
		if _, dup := lib.bases[src.Name]; dup {
			return nil, goerr.New("duplicate knowledge source", goerr.V("name", src.Name))
		}

		corpus, err := LoadCorpus(src.Name, src.Path)
		switch {
		case err == nil:
			log.Info("knowledge base loaded",
				"name", src.Name,
				"path", src.Path,
				"sections", len(corpus.sections))
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("knowledge file not found, retrieval disabled", "name", src.Name, "path", src.Path)
			corpus = NewCorpus(src.Name, "")
		default:
			log.Error("failed to load knowledge base, retrieval disabled", "name", src.Name, "error", err)
			corpus = NewCorpus(src.Name, "")
		}

		lib.Add(&Base{
			Name:     src.Name,
			Intro:    src.Intro,
			Keywords: src.Keywords,
			Corpus:   corpus,
		})
	}

	return lib, nil
}

// NewLibrary builds a library from already constructed bases.
func NewLibrary(bases ...*Base) *Library {
	lib := &Library{bases: make(map[string]*Base, len(bases))}
	for _, b := range bases {
		lib.Add(b)
	}
	return lib
}

// Add registers b, replacing a base with the same name.
func (l *Library) Add(b *Base) {
	if _, exists := l.bases[b.Name]; !exists {
		l.order = append(l.order, b.Name)
	}
	l.bases[b.Name] = b
}

func (l *Library) Get(name string) (*Base, bool) {
	b, ok := l.bases[name]
	return b, ok
}

// Names returns base names in load order.
func (l *Library) Names() []string {
	return append([]string(nil), l.order...)
}
