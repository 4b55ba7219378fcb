package interview

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
)

const (
	minPrompts = 5
	maxPrompts = 9
)

//go:embed catalog.toml
var catalogTOML []byte

// StoryType is a catalog entry: a kind of story with its ordered prompts.
type StoryType struct {
	ID      string   `toml:"id" json:"id"`
	Name    string   `toml:"name" json:"name"`
	Prompts []string `toml:"prompts" json:"prompts"`
}

// Catalog is the immutable set of story types.
type Catalog struct {
	types []StoryType
	index map[string]int
}

type catalogFile struct {
	StoryTypes []StoryType `toml:"story_types"`
}

// ParseCatalog decodes and validates a TOML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(file.StoryTypes) == 0 {
		return nil, fmt.Errorf("%w: catalog has no story types", apperr.ErrInvalidInput)
	}

	c := &Catalog{index: make(map[string]int, len(file.StoryTypes))}

	for _, st := range file.StoryTypes {
		id := strings.TrimSpace(st.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: story type with empty id", apperr.ErrInvalidInput)
		}

		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate story type %q", apperr.ErrInvalidInput, id)
		}

		if n := len(st.Prompts); n < minPrompts || n > maxPrompts {
			return nil, fmt.Errorf("%w: story type %q has %d prompts, want %d-%d",
				apperr.ErrInvalidInput, id, n, minPrompts, maxPrompts)
		}

		st.ID = id
		c.index[id] = len(c.types)
		c.types = append(c.types, st)
	}

	return c, nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(catalogTOML)
})

// DefaultCatalog returns the built-in catalog of six story types.
func DefaultCatalog() (*Catalog, error) {
	return loadDefault()
}

// Types returns every story type in display order.
func (c *Catalog) Types() []StoryType {
	out := make([]StoryType, len(c.types))
	for i, st := range c.types {
		out[i] = st.clone()
	}

	return out
}

// Lookup returns the story type with the given id.
func (c *Catalog) Lookup(id string) (StoryType, error) {
	i, ok := c.index[id]
	if !ok {
		return StoryType{}, fmt.Errorf("%w: %q", apperr.ErrUnknownStoryType, id)
	}

	return c.types[i].clone(), nil
}

func (st StoryType) clone() StoryType {
	st.Prompts = slices.Clone(st.Prompts)
	return st
}
