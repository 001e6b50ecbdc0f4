package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSharedInstruction = `You are part of an investment research team at a hedge fund.
Base every statement on the data returned by your tools. Quote figures with their period and units.
When data is missing or a tool returns an error, say so plainly instead of guessing.
Write in concise markdown with a short summary first.`

type Config struct {
	App struct {
		Name   string `yaml:"name"`
		UserID string `yaml:"user_id"`
	} `yaml:"app"`
	FMP struct {
		BaseURL               string  `yaml:"base_url"`
		APIKeyEnv             string  `yaml:"api_key_env"`
		TimeoutSeconds        int     `yaml:"timeout_seconds"`
		RequestsPerSecond     float64 `yaml:"requests_per_second"`
		Burst                 int     `yaml:"burst"`
		EconomicCacheTTLHours int     `yaml:"economic_cache_ttl_hours"`
		EconomicCacheSize     int     `yaml:"economic_cache_size"`
		EconomicLookbackYears int     `yaml:"economic_lookback_years"`
	} `yaml:"fmp"`
	Models struct {
		Default         string            `yaml:"default"`
		Source          string            `yaml:"source"`
		Static          map[string]string `yaml:"static"`
		OpenAIBaseURL   string            `yaml:"openai_base_url"`
		OpenAIAPIKeyEnv string            `yaml:"openai_api_key_env"`
		GoogleAPIKeyEnv string            `yaml:"google_api_key_env"`
	} `yaml:"models"`
	Firestore struct {
		ProjectIDEnv   string `yaml:"project_id_env"`
		CredentialsEnv string `yaml:"credentials_env"`
		Collection     string `yaml:"collection"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"firestore"`
	Redis struct {
		URLEnv string `yaml:"url_env"`
		Key    string `yaml:"key"`
	} `yaml:"redis"`
	Prompts struct {
		SharedInstruction string `yaml:"shared_instruction"`
	} `yaml:"prompts"`
	Results struct {
		BaseDir     string `yaml:"base_dir"`
		AnalysisLog string `yaml:"analysis_log"`
	} `yaml:"results"`
	Sessions struct {
		// DBPath enables SQLite session persistence; empty keeps sessions in memory.
		DBPath string `yaml:"db_path"`
	} `yaml:"sessions"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Web struct {
		GuruFocusBaseURL string `yaml:"gurufocus_base_url"`
		SearchBaseURL    string `yaml:"search_base_url"`
		MaxResults       int    `yaml:"max_results"`
		TimeoutSeconds   int    `yaml:"timeout_seconds"`
	} `yaml:"web"`
}

// DefaultConfig returns a config with every default applied. Used when config.yaml is absent.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "stock_analysis_agent"
	}
	if c.App.UserID == "" {
		c.App.UserID = "default_user"
	}

	if c.FMP.BaseURL == "" {
		c.FMP.BaseURL = "https://financialmodelingprep.com/stable/"
	}
	if c.FMP.APIKeyEnv == "" {
		c.FMP.APIKeyEnv = "FMP_API_KEY"
	}
	if c.FMP.TimeoutSeconds == 0 {
		c.FMP.TimeoutSeconds = 30
	}
	if c.FMP.RequestsPerSecond == 0 {
		c.FMP.RequestsPerSecond = 5
	}
	if c.FMP.Burst == 0 {
		c.FMP.Burst = 5
	}
	if c.FMP.EconomicCacheTTLHours == 0 {
		c.FMP.EconomicCacheTTLHours = 24
	}
	if c.FMP.EconomicCacheSize == 0 {
		c.FMP.EconomicCacheSize = 1024
	}
	if c.FMP.EconomicLookbackYears == 0 {
		c.FMP.EconomicLookbackYears = 3
	}

	if c.Models.Default == "" {
		c.Models.Default = "gemini-2.5-flash"
	}
	if c.Models.Source == "" {
		c.Models.Source = "static"
	}
	if c.Models.OpenAIBaseURL == "" {
		c.Models.OpenAIBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.Models.OpenAIAPIKeyEnv == "" {
		c.Models.OpenAIAPIKeyEnv = "OPENROUTER_API_KEY"
	}
	if c.Models.GoogleAPIKeyEnv == "" {
		c.Models.GoogleAPIKeyEnv = "GOOGLE_API_KEY"
	}

	if c.Firestore.ProjectIDEnv == "" {
		c.Firestore.ProjectIDEnv = "FIREBASE_PROJECT_ID"
	}
	if c.Firestore.CredentialsEnv == "" {
		c.Firestore.CredentialsEnv = "FIREBASE_CREDENTIALS_PATH"
	}
	if c.Firestore.Collection == "" {
		c.Firestore.Collection = "stock_agents"
	}
	if c.Firestore.TimeoutSeconds == 0 {
		c.Firestore.TimeoutSeconds = 5
	}

	if c.Redis.URLEnv == "" {
		c.Redis.URLEnv = "REDIS_URL"
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "stock_agents:models"
	}

	if c.Prompts.SharedInstruction == "" {
		c.Prompts.SharedInstruction = defaultSharedInstruction
	}

	if c.Results.BaseDir == "" {
		c.Results.BaseDir = "results"
	}
	if c.Results.AnalysisLog == "" {
		c.Results.AnalysisLog = "results/analysis_log.jsonl"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Web.GuruFocusBaseURL == "" {
		c.Web.GuruFocusBaseURL = "https://www.gurufocus.com"
	}
	if c.Web.SearchBaseURL == "" {
		c.Web.SearchBaseURL = "https://html.duckduckgo.com/html/"
	}
	if c.Web.MaxResults == 0 {
		c.Web.MaxResults = 8
	}
	if c.Web.TimeoutSeconds == 0 {
		c.Web.TimeoutSeconds = 20
	}
}

func (c *Config) Validate() error {
	switch c.Models.Source {
	case "static", "firestore", "redis":
	default:
		return fmt.Errorf("invalid models.source '%s': must be 'static', 'firestore' or 'redis'", c.Models.Source)
	}
	if c.FMP.BaseURL == "" {
		return errors.New("fmp.base_url cannot be empty")
	}
	if c.Web.GuruFocusBaseURL == "" || c.Web.SearchBaseURL == "" {
		return errors.New("web base urls cannot be empty")
	}
	if c.FMP.RequestsPerSecond <= 0 {
		return fmt.Errorf("fmp.requests_per_second must be > 0, got %.2f", c.FMP.RequestsPerSecond)
	}
	if c.FMP.Burst <= 0 {
		return fmt.Errorf("fmp.burst must be > 0, got %d", c.FMP.Burst)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

// FMPTimeout is the per-request timeout for the financial data API.
func (c *Config) FMPTimeout() time.Duration {
	return time.Duration(c.FMP.TimeoutSeconds) * time.Second
}

// EconomicCacheTTL is how long economic indicator series stay cached.
func (c *Config) EconomicCacheTTL() time.Duration {
	return time.Duration(c.FMP.EconomicCacheTTLHours) * time.Hour
}

func (c *Config) FirestoreTimeout() time.Duration {
	return time.Duration(c.Firestore.TimeoutSeconds) * time.Second
}

func (c *Config) WebTimeout() time.Duration {
	return time.Duration(c.Web.TimeoutSeconds) * time.Second
}
