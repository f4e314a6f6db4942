package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the configuration and fills the parsed fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Wordlists.LevelsPath == "" || c.Wordlists.FrequencyPath == "" {
		return fmt.Errorf("wordlists: levels_path and frequency_path are required")
	}
	if !c.Snapshot.Disabled && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required when the cache is enabled")
	}
	if err := c.Stats.validate(); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if c.Import.Workers < 1 || c.Import.BatchSize < 1 {
		return fmt.Errorf("import: workers and batch_size must be >= 1 (got %d, %d)", c.Import.Workers, c.Import.BatchSize)
	}
	if c.Article.Deck == "" || c.Article.Model == "" || c.Article.Field == "" {
		return fmt.Errorf("article: deck, model and field are required")
	}
	for deck, models := range c.SearchFields {
		if strings.TrimSpace(deck) == "" {
			return fmt.Errorf("search_fields: empty deck name")
		}
		for model := range models {
			if strings.TrimSpace(model) == "" {
				return fmt.Errorf("search_fields: deck %q has an empty model name", deck)
			}
		}
	}
	return nil
}

func (s StatsConfig) validate() error {
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", s.Timezone, err)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", s.Workers)
	}
	return nil
}
