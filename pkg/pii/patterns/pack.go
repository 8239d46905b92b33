package patterns

import (
	"bytes"
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed packs/*.yaml
var packFS embed.FS

// PackFile is the top-level YAML structure of a pattern pack.
type PackFile struct {
	// Pack is the activation tag: "core", a region code, or an industry code.
	Pack string `yaml:"pack" json:"pack"`

	// Description is a human-readable summary of the pack.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Patterns are the detector definitions, in declaration order.
	Patterns []PatternConfig `yaml:"patterns" json:"patterns"`
}

// PatternConfig is a single detector definition within a pack.
type PatternConfig struct {
	ID              string   `yaml:"id" json:"id"`
	Type            string   `yaml:"type" json:"type"`
	Kind            Kind     `yaml:"kind,omitempty" json:"kind,omitempty"`
	Priority        int      `yaml:"priority" json:"priority"`
	Regex           string   `yaml:"regex" json:"regex"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty" json:"case_insensitive,omitempty"`
	Validator       string   `yaml:"validator,omitempty" json:"validator,omitempty"`
	Context         []string `yaml:"context,omitempty" json:"context,omitempty"`
	Window          int      `yaml:"window,omitempty" json:"window,omitempty"`
	Enabled         *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// isEnabled returns true if the pattern is enabled (defaults to true when nil).
func (c *PatternConfig) isEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ParsePackFile parses pack YAML bytes. Unknown fields are rejected so that
// typos in operator-supplied packs fail loudly at construction.
func ParsePackFile(data []byte) (*PackFile, error) {
	var pf PackFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing pack YAML: %w", err)
	}
	return &pf, nil
}

// LoadPackFile reads and parses a pack YAML file from disk.
func LoadPackFile(path string) (*PackFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pack file %s: %w", path, err)
	}
	return ParsePackFile(data)
}

// EmbeddedPack returns the raw YAML of a built-in pack.
func EmbeddedPack(tag string) ([]byte, error) {
	return packFS.ReadFile("packs/" + tag + ".yaml")
}
