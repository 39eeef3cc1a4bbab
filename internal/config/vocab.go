// Package config provides configuration loading utilities.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultKeywordVocabulary is the built-in term list used by the cascading
// keyword filter. Matching is case-insensitive substring; the list is a
// static vocabulary, not NLP, so the filter stage stays deterministic.
var DefaultKeywordVocabulary = []string{
	"backend", "frontend", "fullstack", "devops", "qa", "analyst", "manager",
	"mobile", "web", "api", "database", "cloud", "docker", "kubernetes",
	"agile", "scrum", "team lead", "architect", "senior", "middle", "junior",
}

type vocabYAML struct {
	Terms []string `yaml:"terms"`
}

// LoadKeywordVocabulary returns the keyword vocabulary, reading the optional
// YAML override file when path is non-empty. An empty or missing terms list
// in the file is an error; callers should fall back to the default only by
// passing an empty path.
func LoadKeywordVocabulary(path string) ([]string, error) {
	if path == "" {
		return DefaultKeywordVocabulary, nil
	}
	// #nosec G304 -- Configuration files are expected to be safe
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=config.LoadKeywordVocabulary: %w", err)
	}
	var v vocabYAML
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("op=config.LoadKeywordVocabulary: parse: %w", err)
	}
	if len(v.Terms) == 0 {
		return nil, fmt.Errorf("op=config.LoadKeywordVocabulary: no terms in %s", path)
	}
	return v.Terms, nil
}
