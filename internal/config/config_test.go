package config

import (
	"strings"
	"testing"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/domain/search/boost"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Engine: EngineConfig{URL: "http://solr:8983/solr/ckan", SiteID: "dfl.example.org"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingEngine(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing engine URL")
	}

	cfg = validConfig()
	cfg.Engine.SiteID = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing site id")
	}
}

func TestValidate_BadBoost(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Boosts = []BoostConfig{
		{Field: "copy_data_quality", Weight: -1},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for negative boost weight")
	}
	if !strings.Contains(err.Error(), "search.boosts[0]") {
		t.Errorf("error %q should name the offending boost", err)
	}
}

func TestValidate_ClickLogDrivers(t *testing.T) {
	cfg := validConfig()
	cfg.ClickLog.Driver = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}

	cfg = validConfig()
	cfg.ClickLog.Driver = "redis"
	cfg.Redis.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg = validConfig()
	cfg.ClickLog.Driver = "csv"
	cfg.ClickLog.CSVPath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for csv driver without path")
	}

	cfg = validConfig()
	cfg.ClickLog.Driver = "off"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Search.SnippetLength != 180 {
		t.Errorf("snippet length = %d", cfg.Search.SnippetLength)
	}
	if cfg.Search.MaxAnalyzedChars != 51200 {
		t.Errorf("max analyzed chars = %d", cfg.Search.MaxAnalyzedChars)
	}
	if cfg.ClickLog.Stream != "dfl:search:clicks" {
		t.Errorf("stream = %q", cfg.ClickLog.Stream)
	}
	if len(cfg.Search.HighlightFields) == 0 {
		t.Error("highlight fields default missing")
	}
}

func TestBoostSpecs(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Boosts = []BoostConfig{
		{Field: "copy_data_quality", Weight: 0.1},
		{Field: "copy_dataset_boost", Weight: 1, Kind: "multiplicative"},
	}

	specs, err := cfg.BoostSpecs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("specs = %d", len(specs))
	}
	if specs[0].Kind() != boost.Additive {
		t.Errorf("default kind = %q", specs[0].Kind())
	}
	if specs[1].Kind() != boost.Multiplicative {
		t.Errorf("kind = %q", specs[1].Kind())
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DFL_TEST_SITE", "data.london.gov.uk")

	in := []byte("site_id: ${DFL_TEST_SITE}\nurl: ${DFL_TEST_MISSING:-http://fallback}\n")
	got := string(expandEnvVars(in))

	if !strings.Contains(got, "site_id: data.london.gov.uk") {
		t.Errorf("expanded = %q", got)
	}
	if !strings.Contains(got, "url: http://fallback") {
		t.Errorf("default not applied: %q", got)
	}
}
