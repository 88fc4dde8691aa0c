package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/boost"
)

// Config holds the search gateway configuration. Loaded once at
// startup and never mutated afterwards.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Engine   EngineConfig   `yaml:"engine"`
	Redis    RedisConfig    `yaml:"redis"`
	Search   SearchConfig   `yaml:"search"`
	ClickLog ClickLogConfig `yaml:"clicklog"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	URL        string `yaml:"url"`
	SiteID     string `yaml:"site_id"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RedisConfig holds connection settings for the title cache and the
// click-event stream.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// BoostConfig is one relevance boost declaration.
type BoostConfig struct {
	Field  string  `yaml:"field"`
	Weight float64 `yaml:"weight"`
	Kind   string  `yaml:"kind"` // additive (default), multiplicative
}

// SearchConfig holds the query augmentation and presentation settings.
type SearchConfig struct {
	Boosts           []BoostConfig     `yaml:"boosts"`
	KnownFacets      []string          `yaml:"known_facets"`
	FormatGroups     map[string]string `yaml:"format_groups"`
	HighlightFields  []string          `yaml:"highlight_fields"`
	ResultFields     []string          `yaml:"result_fields"`
	SnippetLength    int               `yaml:"snippet_length"`
	FragSize         int               `yaml:"frag_size"`
	MaxAnalyzedChars int               `yaml:"max_analyzed_chars"`
	FacetLimit       int               `yaml:"facet_limit"`
	DefaultSort      string            `yaml:"default_sort"`
	PageSize         int               `yaml:"page_size"`
}

// ClickLogConfig holds click-through logging settings.
type ClickLogConfig struct {
	Driver  string `yaml:"driver"` // redis (default), csv, off
	Stream  string `yaml:"stream"`
	CSVPath string `yaml:"csv_path"`
}

// Load reads configuration from a YAML file by environment name
// (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable,
// defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.TimeoutSec <= 0 {
		c.Engine.TimeoutSec = 10
	}
	if c.Search.SnippetLength <= 0 {
		c.Search.SnippetLength = 180
	}
	if c.Search.FragSize <= 0 {
		c.Search.FragSize = 200
	}
	if c.Search.MaxAnalyzedChars <= 0 {
		c.Search.MaxAnalyzedChars = 51200
	}
	if c.Search.FacetLimit <= 0 {
		c.Search.FacetLimit = 50
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 20
	}
	if len(c.Search.HighlightFields) == 0 {
		c.Search.HighlightFields = []string{"title", "notes", "organization_titles"}
	}
	if len(c.Search.ResultFields) == 0 {
		c.Search.ResultFields = []string{
			"id", "index_id", "name", "title", "notes",
			"organization", "organization_titles", "res_format",
			"license_id", "metadata_modified", "size_sum",
		}
	}
	if c.ClickLog.Driver == "" {
		c.ClickLog.Driver = "redis"
	}
	if c.ClickLog.Stream == "" {
		c.ClickLog.Stream = "dfl:search:clicks"
	}
}

// Validate checks the configuration for correctness. A malformed boost
// declaration is a startup failure, never reported per request.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Engine.URL == "" {
		return fmt.Errorf("engine.url is required")
	}
	if c.Engine.SiteID == "" {
		return fmt.Errorf("engine.site_id is required")
	}
	if _, err := c.BoostSpecs(); err != nil {
		return err
	}
	switch c.ClickLog.Driver {
	case "redis", "csv", "off":
		// ok
	default:
		return fmt.Errorf("clicklog.driver must be \"redis\", \"csv\" or \"off\", got %q", c.ClickLog.Driver)
	}
	if c.ClickLog.Driver == "redis" && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required for the redis click log driver")
	}
	if c.ClickLog.Driver == "csv" && c.ClickLog.CSVPath == "" {
		return fmt.Errorf("clicklog.csv_path is required for the csv click log driver")
	}
	return nil
}

// BoostSpecs builds the validated boost specifications.
func (c *Config) BoostSpecs() ([]boost.Spec, error) {
	specs := make([]boost.Spec, 0, len(c.Search.Boosts))
	for i, b := range c.Search.Boosts {
		spec, err := boost.New(b.Field, b.Weight, boost.Kind(b.Kind))
		if err != nil {
			return nil, fmt.Errorf("search.boosts[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
