package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	DatabasePath string `json:"database_path"`

	LLMProvider   string `json:"llm_provider"`
	DeepThinkLLM  string `json:"deep_think_llm"`
	QuickThinkLLM string `json:"quick_think_llm"`
	BackendURL    string `json:"backend_url"`

	DeepSeekAPIKey string `json:"deepseek_api_key"`
	OpenAIAPIKey   string `json:"openai_api_key"`

	MaxDebateRounds      int `json:"max_debate_rounds"`
	MaxRiskDiscussRounds int `json:"max_risk_discuss_rounds"`

	// Analyst fan-out settings. Read once at run start; immutable for the
	// run's duration.
	SelectedAnalysts   []string      `json:"selected_analysts"`
	ParallelAnalysts   bool          `json:"parallel_analysts"`
	MaxParallelWorkers int           `json:"max_parallel_workers"`
	AnalystTimeout     time.Duration `json:"analyst_timeout"`
	AnalystRetries     int           `json:"analyst_retries"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	// Data-source credentials
	FinnhubAPIKey       string `json:"finnhub_api_key"`
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		DatabasePath: filepath.Join(currentDir, "data", "quantcrew.db"),

		LLMProvider:   "deepseek",
		DeepThinkLLM:  "deepseek-reasoner",
		QuickThinkLLM: "deepseek-chat",
		BackendURL:    "https://api.deepseek.com/v1",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,

		SelectedAnalysts:   []string{"market", "fundamentals", "news", "social"},
		ParallelAnalysts:   false,
		MaxParallelWorkers: 4,
		AnalystTimeout:     300 * time.Second,
		AnalystRetries:     2,

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,
	}
}

// Load builds the effective configuration: defaults, then .env, then process
// environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	setString(&c.LLMProvider, "LLM_PROVIDER")
	setString(&c.DeepThinkLLM, "DEEP_THINK_LLM")
	setString(&c.QuickThinkLLM, "QUICK_THINK_LLM")
	setString(&c.BackendURL, "LLM_BACKEND_URL")
	setString(&c.DeepSeekAPIKey, "DEEPSEEK_API_KEY")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.FinnhubAPIKey, "FINNHUB_API_KEY")
	setString(&c.LongportAppKey, "LONGPORT_APP_KEY")
	setString(&c.LongportAppSecret, "LONGPORT_APP_SECRET")
	setString(&c.LongportAccessToken, "LONGPORT_ACCESS_TOKEN")
	setString(&c.DatabasePath, "QUANTCREW_DB_PATH")

	setBool(&c.ParallelAnalysts, "PARALLEL_ANALYSTS_ENABLED")
	setInt(&c.MaxParallelWorkers, "MAX_PARALLEL_WORKERS")
	setSeconds(&c.AnalystTimeout, "ANALYST_TIMEOUT")
	setInt(&c.AnalystRetries, "PARALLEL_RETRY_COUNT")

	setBool(&c.OnlineTools, "ONLINE_TOOLS_ENABLED")
	setBool(&c.CacheEnabled, "CACHE_ENABLED")
	setBool(&c.Debug, "QUANTCREW_DEBUG")

	setInt(&c.MaxDebateRounds, "MAX_DEBATE_ROUNDS")
	setInt(&c.MaxRiskDiscussRounds, "MAX_RISK_DISCUSS_ROUNDS")

	if v := os.Getenv("SELECTED_ANALYSTS"); v != "" {
		parts := strings.Split(v, ",")
		analysts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				analysts = append(analysts, p)
			}
		}
		if len(analysts) > 0 {
			c.SelectedAnalysts = analysts
		}
	}
}

// Validate rejects settings the run cannot start with.
func (c *Config) Validate() error {
	if c.MaxParallelWorkers < 1 {
		return fmt.Errorf("max parallel workers must be >= 1, got %d", c.MaxParallelWorkers)
	}
	if c.AnalystTimeout <= 0 {
		return fmt.Errorf("analyst timeout must be positive, got %s", c.AnalystTimeout)
	}
	if c.AnalystRetries < 0 {
		return fmt.Errorf("analyst retries must be >= 0, got %d", c.AnalystRetries)
	}
	if len(c.SelectedAnalysts) == 0 {
		return fmt.Errorf("at least one analyst must be selected")
	}
	switch c.LLMProvider {
	case "deepseek":
		if c.DeepSeekAPIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLMProvider)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir, c.DataCacheDir, filepath.Dir(c.DatabasePath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}
