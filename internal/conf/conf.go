package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/grouphunt/groupsearch-bot/internal/biz/usecase"
	"github.com/grouphunt/groupsearch-bot/internal/service"
)

// Config represents application configuration
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig

	// Feishu configuration (optional second frontend)
	Feishu FeishuConfig

	// Search configuration
	Search SearchConfig

	// Store configuration
	Store StoreConfig

	// LLM configuration (optional, keyword suggestions)
	LLM LLMConfig

	// API configuration
	API APIConfig

	// Catalog configuration (loaded from YAML)
	Catalog *CatalogConfig

	// Debug mode
	Debug bool
}

// TelegramConfig contains Telegram configuration
type TelegramConfig struct {
	BotToken string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// Enabled reports whether both Feishu credentials are set
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// SearchConfig contains aggregation and display settings
type SearchConfig struct {
	Limit                int // Total results per search
	DisplayLimit         int // Results shown in a reply
	SourceTimeoutSeconds int
	WebSourceURL         string
	WebSourceEnabled     bool
}

// StoreConfig contains database configuration
type StoreConfig struct {
	DBPath string
}

// LLMConfig contains the OpenAI-compatible endpoint configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// APIConfig contains local HTTP API configuration
type APIConfig struct {
	Port int // 0 disables the API
}

// LoadEnvFile loads a .env file into the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".groupsearch", "groups_search.db")
	}

	webSourceURL := os.Getenv("WEB_SOURCE_URL")
	if webSourceURL == "" {
		webSourceURL = "https://telegram.me"
	}

	// Load catalog from YAML
	catalog, err := LoadCatalogConfig(os.Getenv("CATALOG_PATH"))
	if err != nil {
		fmt.Printf("[Config] %v, using defaults\n", err)
		catalog = DefaultCatalogConfig()
	}

	return &Config{
		Telegram: TelegramConfig{
			BotToken: os.Getenv("BOT_TOKEN"),
		},
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Search: SearchConfig{
			Limit:                envInt("SEARCH_LIMIT", 15),
			DisplayLimit:         envInt("DISPLAY_LIMIT", 8),
			SourceTimeoutSeconds: envInt("SOURCE_TIMEOUT_SECONDS", 10),
			WebSourceURL:         webSourceURL,
			WebSourceEnabled:     os.Getenv("WEB_SOURCE_ENABLED") != "false",
		},
		Store: StoreConfig{
			DBPath: dbPath,
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("LLM_API_KEY"),
			BaseURL: os.Getenv("LLM_BASE_URL"),
			Model:   os.Getenv("LLM_MODEL"),
		},
		API: APIConfig{
			Port: envInt("API_PORT", 0),
		},
		Catalog: catalog,
		Debug:   os.Getenv("DEBUG") == "true",
	}
}

// envInt reads a positive integer, falling back on missing or invalid values
func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}

// ToAggregatorConfig converts to aggregator configuration
func (c *SearchConfig) ToAggregatorConfig() usecase.AggregatorConfig {
	return usecase.AggregatorConfig{
		SourceTimeout: time.Duration(c.SourceTimeoutSeconds) * time.Second,
	}
}

// ToDispatcherConfig converts to dispatcher configuration
func (c *Config) ToDispatcherConfig() service.DispatcherConfig {
	catalog := c.Catalog
	if catalog == nil {
		catalog = DefaultCatalogConfig()
	}

	cfg := service.DispatcherConfig{
		SearchLimit:  c.Search.Limit,
		DisplayLimit: c.Search.DisplayLimit,
		Debug:        c.Debug,
	}
	for _, t := range catalog.Trending {
		cfg.Trending = append(cfg.Trending, service.TrendingEntry{
			Title:    t.Title,
			Username: t.Username,
			Members:  t.Members,
			Category: t.Category,
		})
	}
	for _, cat := range catalog.Categories {
		cfg.Categories = append(cfg.Categories, service.CategoryEntry{
			Key:     cat.Key,
			Label:   cat.Label,
			Keyword: cat.Keyword,
		})
	}
	return cfg
}

// Validate validates the configuration for running the bot
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" && !c.Feishu.Enabled() {
		return &ConfigError{Field: "BOT_TOKEN", Message: "required (or FEISHU_APP_ID/FEISHU_APP_SECRET)"}
	}
	if c.Search.Limit <= 0 {
		return &ConfigError{Field: "SEARCH_LIMIT", Message: "must be positive"}
	}
	if c.Search.DisplayLimit <= 0 {
		return &ConfigError{Field: "DISPLAY_LIMIT", Message: "must be positive"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
