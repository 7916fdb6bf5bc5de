package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/folio/internal/store"
)

// Catalog is the set of templates a site can use.
type Catalog struct {
	Templates []Template `yaml:"templates"`
}

// Template is a named page layout and its ordered content blocks.
type Template struct {
	Name   string  `yaml:"name"`
	Blocks []Block `yaml:"blocks,omitempty"`
}

// Block is a content slot. Name and Kind are optional.
type Block struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name,omitempty"`
	Kind string `yaml:"kind,omitempty"`
}

// Store is the subset of the store Apply needs.
type Store interface {
	EnsureTemplate(ctx context.Context, name string) (*store.Template, error)
	FindOrCreateBlock(ctx context.Context, templateID int64, key, name, kind string) (*store.Block, error)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog, rejecting unknown fields, and validates it.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks that template names and block keys are present and unique.
func (c *Catalog) Validate() error {
	names := make(map[string]bool, len(c.Templates))
	for i, t := range c.Templates {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("templates[%d]: name is required", i)
		}
		if names[name] {
			return fmt.Errorf("templates[%d]: duplicate template %q", i, name)
		}
		names[name] = true

		keys := make(map[string]bool, len(t.Blocks))
		for j, b := range t.Blocks {
			if strings.TrimSpace(b.Key) == "" {
				return fmt.Errorf("template %q blocks[%d]: key is required", name, j)
			}
			if keys[b.Key] {
				return fmt.Errorf("template %q blocks[%d]: duplicate key %q", name, j, b.Key)
			}
			keys[b.Key] = true
		}
	}
	return nil
}

// Template returns the named template, or nil.
func (c *Catalog) Template(name string) *Template {
	for i := range c.Templates {
		if c.Templates[i].Name == name {
			return &c.Templates[i]
		}
	}
	return nil
}

// Apply ensures every template and block in c exists in st. It returns the
// number of templates applied.
func Apply(ctx context.Context, st Store, c *Catalog) (int, error) {
	for _, t := range c.Templates {
		tmpl, err := st.EnsureTemplate(ctx, t.Name)
		if err != nil {
			return 0, fmt.Errorf("apply template %q: %w", t.Name, err)
		}
		for _, b := range t.Blocks {
			name := b.Name
			if name == "" {
				name = BlockName(b.Key)
			}
			if _, err := st.FindOrCreateBlock(ctx, tmpl.ID, b.Key, name, b.Kind); err != nil {
				return 0, fmt.Errorf("apply template %q: %w", t.Name, err)
			}
		}
	}
	return len(c.Templates), nil
}

// BlockName turns a block key into a display name: "hero_title" becomes
// "Hero Title".
func BlockName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	// A cases.Caser keeps state and cannot be shared between goroutines.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
