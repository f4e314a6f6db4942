package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Wordlists WordlistsConfig `yaml:"wordlists"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Stats     StatsConfig     `yaml:"stats"`
	Import    ImportConfig    `yaml:"import"`
	Article   ArticleConfig   `yaml:"article"`
	Log       LogConfig       `yaml:"log"`

	// SearchFields maps deck name -> model name -> the field scanned for
	// vocabulary. An empty field name disables that model in that deck.
	SearchFields map[string]map[string]string `yaml:"search_fields"`
}

// DatabaseConfig holds the corpus store location.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"WC_DATABASE_PATH" env-default:"corpus.db"`
}

// WordlistsConfig holds the target list locations. A URL, when set, is used
// to download a list that is missing on disk.
type WordlistsConfig struct {
	LevelsPath      string        `yaml:"levels_path"      env:"WC_LEVELS_PATH"      env-default:"hsk.json"`
	LevelsURL       string        `yaml:"levels_url"       env:"WC_LEVELS_URL"`
	FrequencyPath   string        `yaml:"frequency_path"   env:"WC_FREQUENCY_PATH"   env-default:"freq.txt"`
	FrequencyURL    string        `yaml:"frequency_url"    env:"WC_FREQUENCY_URL"`
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"WC_DOWNLOAD_TIMEOUT" env-default:"60s"`
}

// SnapshotConfig controls the automaton cache.
type SnapshotConfig struct {
	Disabled bool   `yaml:"disabled" env:"WC_SNAPSHOT_DISABLED"`
	Path     string `yaml:"path"     env:"WC_SNAPSHOT_PATH"     env-default:"snapshots.db"`
}

// StatsConfig controls a coverage run. Word matching folds case unless
// CaseSensitive is set.
type StatsConfig struct {
	Timezone      string `yaml:"timezone"       env:"WC_TIMEZONE"       env-default:"Local"`
	Workers       int    `yaml:"workers"        env:"WC_WORKERS"        env-default:"2"`
	CaseSensitive bool   `yaml:"case_sensitive" env:"WC_CASE_SENSITIVE"`
}

// Location resolves Timezone. Validate has already checked it loads.
func (s StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ImportConfig controls JSONL corpus imports.
type ImportConfig struct {
	Workers   int `yaml:"workers"    env:"WC_IMPORT_WORKERS"    env-default:"4"`
	BatchSize int `yaml:"batch_size" env:"WC_IMPORT_BATCH_SIZE" env-default:"50"`
}

// ArticleConfig names where captured article sentences are stored.
type ArticleConfig struct {
	Deck    string        `yaml:"deck"    env:"WC_ARTICLE_DECK"    env-default:"Articles"`
	Model   string        `yaml:"model"   env:"WC_ARTICLE_MODEL"   env-default:"Article"`
	Field   string        `yaml:"field"   env:"WC_ARTICLE_FIELD"   env-default:"Text"`
	Timeout time.Duration `yaml:"timeout" env:"WC_ARTICLE_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
