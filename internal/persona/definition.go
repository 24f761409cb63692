package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed persona.yaml
var defaultDefinition []byte

// Definition is the declarative persona loaded from YAML: trait set, mood
// axes, event-tag tables and styling pools.
type Definition struct {
	Traits            []TraitDef                  `yaml:"traits"`
	Mood              []MoodDef                   `yaml:"mood"`
	Adjustments       map[string][]AdjustmentDef  `yaml:"adjustments"`
	Boosts            map[string][]BoostDef       `yaml:"boosts"`
	Styling           []StylingDef                `yaml:"styling"`
	EmotionalKeywords []string                    `yaml:"emotional_keywords"`
}

type TraitDef struct {
	Name       string   `yaml:"name"`
	Base       float64  `yaml:"base"`
	Rate       float64  `yaml:"rate"`
	Influences []string `yaml:"influences"`
}

type MoodDef struct {
	Name string  `yaml:"name"`
	Base float64 `yaml:"base"`
}

type AdjustmentDef struct {
	Trait string  `yaml:"trait"`
	Delta float64 `yaml:"delta"`
}

type BoostDef struct {
	Axis   string  `yaml:"axis"`
	Amount float64 `yaml:"amount"`
}

type StylingDef struct {
	Trait         string   `yaml:"trait"`
	Scale         float64  `yaml:"scale"`
	EmotionalOnly bool     `yaml:"emotional_only"`
	Phrases       []string `yaml:"phrases"`
}

// LoadDefinition reads a persona definition file. An empty path or a missing
// file falls back to the embedded default.
func LoadDefinition(path string) (*Definition, error) {
	data := defaultDefinition
	if strings.TrimSpace(path) != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read persona definition %q: %w", path, err)
			}
		} else {
			data = fileData
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse persona definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (d *Definition) validate() error {
	if len(d.Traits) == 0 {
		return fmt.Errorf("persona definition has no traits")
	}
	seen := make(map[string]struct{}, len(d.Traits))
	for _, t := range d.Traits {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("persona trait with empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate persona trait %q", name)
		}
		seen[name] = struct{}{}
		if t.Base < 0 || t.Base > 1 {
			return fmt.Errorf("trait %q base %.3f out of [0,1]", name, t.Base)
		}
	}
	for tag, adjustments := range d.Adjustments {
		for _, adj := range adjustments {
			if _, ok := seen[adj.Trait]; !ok {
				return fmt.Errorf("adjustment for tag %q references unknown trait %q", tag, adj.Trait)
			}
		}
	}
	return nil
}
