package jsonapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yomuapp/yomu/pkg/lib"
)

// Definition describes one JSON-API deployment in the definitions file.
type Definition struct {
	ID      int64  `yaml:"id" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Lang    string `yaml:"lang" validate:"required"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type definitionsFile struct {
	Sources []Definition `yaml:"sources"`
}

// LoadDefinitions reads and validates the YAML source definitions file.
func LoadDefinitions(path string) ([]Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions file: %w", err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse definitions file: %w", err)
	}

	seen := make(map[int64]bool, len(file.Sources))
	for _, def := range file.Sources {
		if err := lib.ValidateStruct(&def); err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.Name, err)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("duplicate source id %d", def.ID)
		}
		seen[def.ID] = true
	}

	return file.Sources, nil
}
