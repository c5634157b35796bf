package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"hammy/internal/project"
)

// EnvPrefix is the prefix for environment overrides, e.g. HAMMY_VECTOR_HOST.
const EnvPrefix = "HAMMY"

// SupportedLanguages lists the language ids the parser understands.
var SupportedLanguages = []string{"php", "javascript", "typescript", "python", "go"}

// Config represents the hammy configuration loaded from config/hammy.yaml
type Config struct {
	Project ProjectConfig `json:"project" yaml:"project" mapstructure:"project"`
	Ignore  IgnoreConfig  `json:"ignore" yaml:"ignore" mapstructure:"ignore"`
	Parsing ParsingConfig `json:"parsing" yaml:"parsing" mapstructure:"parsing"`
	Vector  VectorConfig  `json:"vector" yaml:"vector" mapstructure:"vector"`
	VCS     VCSConfig     `json:"vcs" yaml:"vcs" mapstructure:"vcs"`
	Watch   WatchConfig   `json:"watch" yaml:"watch" mapstructure:"watch"`
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// ProjectConfig identifies the project being indexed
type ProjectConfig struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	Root string `json:"root" yaml:"root" mapstructure:"root"`
}

// IgnoreConfig selects which ignore sources are composed
type IgnoreConfig struct {
	UseGitignore   bool     `json:"use_gitignore" yaml:"use_gitignore" mapstructure:"use_gitignore"`
	UseHgignore    bool     `json:"use_hgignore" yaml:"use_hgignore" mapstructure:"use_hgignore"`
	UseHammyignore bool     `json:"use_hammyignore" yaml:"use_hammyignore" mapstructure:"use_hammyignore"`
	ExtraPatterns  []string `json:"extra_patterns" yaml:"extra_patterns" mapstructure:"extra_patterns"`
}

// ParsingConfig controls which files are parsed
type ParsingConfig struct {
	Languages     []string `json:"languages" yaml:"languages" mapstructure:"languages"`
	MaxFileSizeKB int      `json:"max_file_size_kb" yaml:"max_file_size_kb" mapstructure:"max_file_size_kb"`
	// Workers bounds parallel parsing; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// VectorConfig configures the dense vector store and the embedder feeding it
type VectorConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Scheme           string `json:"scheme" yaml:"scheme" mapstructure:"scheme"`
	Host             string `json:"host" yaml:"host" mapstructure:"host"`
	ClassPrefix      string `json:"class_prefix" yaml:"class_prefix" mapstructure:"class_prefix"`
	EmbeddingModel   string `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model"`
	EmbeddingBaseURL string `json:"embedding_base_url" yaml:"embedding_base_url" mapstructure:"embedding_base_url"`
	APIKeyEnv        string `json:"api_key_env" yaml:"api_key_env" mapstructure:"api_key_env"`
	BatchSize        int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	TimeoutMs        int    `json:"timeout_ms" yaml:"timeout_ms" mapstructure:"timeout_ms"`
}

// VCSConfig controls history lookups
type VCSConfig struct {
	MaxCommits      int `json:"max_commits" yaml:"max_commits" mapstructure:"max_commits"`
	ChurnWindowDays int `json:"churn_window_days" yaml:"churn_window_days" mapstructure:"churn_window_days"`
}

// WatchConfig controls the incremental maintainer
type WatchConfig struct {
	DebounceMs int `json:"debounce_ms" yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// SearchConfig tunes rank fusion and diversification
type SearchConfig struct {
	MMRLambda float64 `json:"mmr_lambda" yaml:"mmr_lambda" mapstructure:"mmr_lambda"`
	RRFK      int     `json:"rrf_k" yaml:"rrf_k" mapstructure:"rrf_k"`
}

// LoggingConfig controls log level and file rotation
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"`
	MaxSize    string `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Name: "",
			Root: ".",
		},
		Ignore: IgnoreConfig{
			UseGitignore:   true,
			UseHgignore:    true,
			UseHammyignore: true,
			ExtraPatterns:  []string{},
		},
		Parsing: ParsingConfig{
			Languages:     append([]string(nil), SupportedLanguages...),
			MaxFileSizeKB: 500,
		},
		Vector: VectorConfig{
			Enabled:        false,
			Scheme:         "http",
			Host:           "localhost:8080",
			ClassPrefix:    "Hammy",
			EmbeddingModel: "text-embedding-3-small",
			APIKeyEnv:      "OPENAI_API_KEY",
			BatchSize:      500,
			TimeoutMs:      10000,
		},
		VCS: VCSConfig{
			MaxCommits:      5000,
			ChurnWindowDays: 90,
		},
		Watch: WatchConfig{
			DebounceMs: 1500,
		},
		Search: SearchConfig{
			MMRLambda: 0.6,
			RRFK:      60,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxBackups: 3,
		},
	}
}

// configDirs are searched in order for hammy.yaml / config.yaml.
func configDirs(projectRoot string) []string {
	return []string{
		filepath.Join(projectRoot, "config"),
		filepath.Join(projectRoot, ".hammy"),
	}
}

// LoadConfig loads configuration from config/hammy.yaml (or .hammy/config.yaml)
// under projectRoot, applying HAMMY_* environment overrides. A missing file
// yields the defaults. Project.Root is resolved to an absolute path.
func LoadConfig(projectRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := findConfigFile(projectRoot)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Field: "file", Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}

	root := cfg.Project.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(projectRoot, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ConfigError{Field: "project.root", Message: err.Error()}
	}
	cfg.Project.Root = abs
	if cfg.Project.Name == "" {
		cfg.Project.Name = project.DetectName(abs)
	}

	return cfg, nil
}

// ConfigPath returns the file LoadConfig would read, or "" when none exists.
func ConfigPath(projectRoot string) string {
	return findConfigFile(projectRoot)
}

func findConfigFile(projectRoot string) string {
	names := []string{"hammy.yaml", "hammy.yml", "config.yaml", "config.yml"}
	for _, dir := range configDirs(projectRoot) {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("project.root", d.Project.Root)
	v.SetDefault("ignore.use_gitignore", d.Ignore.UseGitignore)
	v.SetDefault("ignore.use_hgignore", d.Ignore.UseHgignore)
	v.SetDefault("ignore.use_hammyignore", d.Ignore.UseHammyignore)
	v.SetDefault("ignore.extra_patterns", d.Ignore.ExtraPatterns)
	v.SetDefault("parsing.languages", d.Parsing.Languages)
	v.SetDefault("parsing.max_file_size_kb", d.Parsing.MaxFileSizeKB)
	v.SetDefault("parsing.workers", d.Parsing.Workers)
	v.SetDefault("vector.enabled", d.Vector.Enabled)
	v.SetDefault("vector.scheme", d.Vector.Scheme)
	v.SetDefault("vector.host", d.Vector.Host)
	v.SetDefault("vector.class_prefix", d.Vector.ClassPrefix)
	v.SetDefault("vector.embedding_model", d.Vector.EmbeddingModel)
	v.SetDefault("vector.embedding_base_url", d.Vector.EmbeddingBaseURL)
	v.SetDefault("vector.api_key_env", d.Vector.APIKeyEnv)
	v.SetDefault("vector.batch_size", d.Vector.BatchSize)
	v.SetDefault("vector.timeout_ms", d.Vector.TimeoutMs)
	v.SetDefault("vcs.max_commits", d.VCS.MaxCommits)
	v.SetDefault("vcs.churn_window_days", d.VCS.ChurnWindowDays)
	v.SetDefault("watch.debounce_ms", d.Watch.DebounceMs)
	v.SetDefault("search.mmr_lambda", d.Search.MMRLambda)
	v.SetDefault("search.rrf_k", d.Search.RRFK)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
}

// Save writes the configuration to config/hammy.yaml under projectRoot.
func (c *Config) Save(projectRoot string) (string, error) {
	dir := filepath.Join(projectRoot, "config")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "hammy.yaml")
	return path, os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	known := make(map[string]bool, len(SupportedLanguages))
	for _, l := range SupportedLanguages {
		known[l] = true
	}
	if len(c.Parsing.Languages) == 0 {
		return &ConfigError{Field: "parsing.languages", Message: "at least one language is required"}
	}
	for _, l := range c.Parsing.Languages {
		if !known[strings.ToLower(l)] {
			return &ConfigError{Field: "parsing.languages", Message: fmt.Sprintf("unsupported language %q", l)}
		}
	}
	if c.Parsing.MaxFileSizeKB <= 0 {
		return &ConfigError{Field: "parsing.max_file_size_kb", Message: "must be positive"}
	}
	if c.Parsing.Workers < 0 {
		return &ConfigError{Field: "parsing.workers", Message: "must not be negative"}
	}
	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounce_ms", Message: "must not be negative"}
	}
	if c.Search.MMRLambda < 0 || c.Search.MMRLambda > 1 {
		return &ConfigError{Field: "search.mmr_lambda", Message: "must be within [0,1]"}
	}
	if c.Search.RRFK <= 0 {
		return &ConfigError{Field: "search.rrf_k", Message: "must be positive"}
	}
	if c.Vector.Enabled && c.Vector.Host == "" {
		return &ConfigError{Field: "vector.host", Message: "required when the vector store is enabled"}
	}
	if c.VCS.ChurnWindowDays <= 0 {
		return &ConfigError{Field: "vcs.churn_window_days", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
