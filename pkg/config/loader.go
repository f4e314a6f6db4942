package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when no path is given and WC_CONFIG is unset.
const DefaultPath = "./wordcoverage.yaml"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML path is path, else the WC_CONFIG env, else DefaultPath. A missing
// file is an error only when the path was given explicitly.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv("WC_CONFIG")
		explicitPath = path != ""
	}
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		// No file, load from ENV + defaults only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	cfg.addArticleTarget()

	return &cfg, nil
}

// addArticleTarget makes captured articles searchable unless the user
// configured that deck and model explicitly.
func (c *Config) addArticleTarget() {
	if c.SearchFields == nil {
		c.SearchFields = make(map[string]map[string]string)
	}
	models := c.SearchFields[c.Article.Deck]
	if models == nil {
		models = make(map[string]string)
		c.SearchFields[c.Article.Deck] = models
	}
	if _, ok := models[c.Article.Model]; !ok {
		models[c.Article.Model] = c.Article.Field
	}
}
