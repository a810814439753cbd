package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// Load builds the configuration. The loading order (from lowest to highest
// priority):
//  1. Default values (in code)
//  2. The YAML file at path, when path is not empty
//  3. Environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type categoriesFile struct {
	Categories []valueobjects.Category `yaml:"categories"`
}

// LoadCategories reads a category table file:
//
//	categories:
//	  - name: technology
//	    color: "#3b82f6"
func LoadCategories(path string) ([]valueobjects.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}
	for i, c := range file.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
	}
	return file.Categories, nil
}
