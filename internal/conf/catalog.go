package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grouphunt/groupsearch-bot/internal/biz/domain"
)

// CatalogConfig contains the static bot catalog loaded from YAML
type CatalogConfig struct {
	Trending   []TrendingGroup `yaml:"trending"`
	Categories []Category      `yaml:"categories"`
	Sources    SourceTemplates `yaml:"sources"`
	Suggest    SuggestPrompts  `yaml:"suggest"`
}

// TrendingGroup is one entry of the trending list
type TrendingGroup struct {
	Title    string `yaml:"title"`
	Username string `yaml:"username"`
	Members  string `yaml:"members"`
	Category string `yaml:"category"`
}

// Category is a browsable search category
type Category struct {
	Key     string `yaml:"key"`     // Callback suffix, cat_<key>
	Label   string `yaml:"label"`   // Button text
	Keyword string `yaml:"keyword"` // Search query run for the category
}

// GroupTemplate describes a templated group record.
// Placeholders: {{query}} (raw), {{Query}} (title case), {{handle}} (sanitised).
type GroupTemplate struct {
	Title       string `yaml:"title"`
	Username    string `yaml:"username"`
	Description string `yaml:"description"`
	Members     string `yaml:"members"`
}

// SourceTemplates contains the templates used by each source
type SourceTemplates struct {
	Web       GroupTemplate   `yaml:"web"`
	Directory []GroupTemplate `yaml:"directory"`
	Stats     []GroupTemplate `yaml:"stats"`
}

// SuggestPrompts contains keyword suggestion prompts
type SuggestPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadCatalogConfig loads the catalog from YAML, falling back to defaults
func LoadCatalogConfig(configPath string) (*CatalogConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/catalog.yaml",
			"/etc/groupsearch-bot/catalog.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "catalog.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No catalog.yaml found, using defaults")
		return DefaultCatalogConfig(), nil
	}

	fmt.Printf("[Config] Loading catalog from: %s\n", loadedPath)

	var config CatalogConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse catalog.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *CatalogConfig) fillDefaults() {
	defaults := DefaultCatalogConfig()

	if len(c.Trending) == 0 {
		c.Trending = defaults.Trending
	}
	if len(c.Categories) == 0 {
		c.Categories = defaults.Categories
	}
	for i := range c.Categories {
		if c.Categories[i].Keyword == "" {
			c.Categories[i].Keyword = c.Categories[i].Key
		}
		if c.Categories[i].Label == "" {
			c.Categories[i].Label = c.Categories[i].Key
		}
	}

	if c.Sources.Web.Title == "" {
		c.Sources.Web = defaults.Sources.Web
	}
	if len(c.Sources.Directory) == 0 {
		c.Sources.Directory = defaults.Sources.Directory
	}
	if len(c.Sources.Stats) == 0 {
		c.Sources.Stats = defaults.Sources.Stats
	}

	if c.Suggest.SystemPrompt == "" {
		c.Suggest.SystemPrompt = defaults.Suggest.SystemPrompt
	}
}

// CategoryByKey looks up a category, ok is false when unknown
func (c *CatalogConfig) CategoryByKey(key string) (Category, bool) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Key, key) {
			return cat, true
		}
	}
	return Category{}, false
}

// DefaultCatalogConfig returns the default catalog
func DefaultCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		Trending: []TrendingGroup{
			{Title: "Crypto Italia", Username: "cryptoitalia", Members: "45.2K", Category: "💰 Crypto"},
			{Title: "Tech News Italia", Username: "technewsit", Members: "38.7K", Category: "💻 Tech"},
			{Title: "Gaming Community", Username: "gaming_ita", Members: "29.1K", Category: "🎮 Gaming"},
			{Title: "Milano Eventi", Username: "milanoeventi", Members: "22.5K", Category: "🏙️ City"},
			{Title: "Startup Italia", Username: "startupitalia", Members: "18.9K", Category: "🚀 Business"},
		},
		Categories: []Category{
			{Key: "crypto", Label: "💰 Crypto", Keyword: "crypto"},
			{Key: "tech", Label: "💻 Tech", Keyword: "tech"},
			{Key: "gaming", Label: "🎮 Gaming", Keyword: "gaming"},
			{Key: "studio", Label: "📚 Study", Keyword: "studio"},
			{Key: "citta", Label: "🏙️ City", Keyword: "citta"},
			{Key: "food", Label: "🍕 Food", Keyword: "food"},
			{Key: "sport", Label: "⚽ Sport", Keyword: "sport"},
			{Key: "musica", Label: "🎵 Music", Keyword: "musica"},
			{Key: "cinema", Label: "🎬 Cinema", Keyword: "cinema"},
			{Key: "auto", Label: "🚗 Cars", Keyword: "auto"},
		},
		Sources: SourceTemplates{
			Web: GroupTemplate{
				Title:       "Gruppo {{Query}}",
				Username:    "{{handle}}_group",
				Description: "Group dedicated to {{query}}",
				Members:     "5.2K",
			},
			Directory: []GroupTemplate{
				{
					Title:       "{{Query}} Community",
					Username:    "{{handle}}_community",
					Description: "Community around {{query}}",
					Members:     "12.5K",
				},
				{
					Title:       "{{Query}} News",
					Username:    "{{handle}}_news",
					Description: "News and updates on {{query}}",
					Members:     "8.7K",
				},
			},
			Stats: []GroupTemplate{
				{
					Title:       "{{Query}} Official",
					Username:    "official_{{handle}}",
					Description: "Official channel for {{query}}",
					Members:     "25.1K",
				},
			},
		},
		Suggest: SuggestPrompts{
			SystemPrompt: `You help users find public chat groups by keyword.
The user's search returned no groups. Propose up to 3 alternative search keywords
that are more generic or differently spelled.

Rules:
1. One keyword or short phrase per line
2. No numbering, no explanations
3. Keep the user's language`,
		},
	}
}

// ToGroupTemplate converts to the domain template
func (t GroupTemplate) ToGroupTemplate() domain.GroupTemplate {
	return domain.GroupTemplate{
		Title:       t.Title,
		Username:    t.Username,
		Description: t.Description,
		Members:     t.Members,
	}
}

// ToGroupTemplates converts a template list
func ToGroupTemplates(templates []GroupTemplate) []domain.GroupTemplate {
	out := make([]domain.GroupTemplate, len(templates))
	for i, t := range templates {
		out[i] = t.ToGroupTemplate()
	}
	return out
}
