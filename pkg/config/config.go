package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Provider names accepted in llm_provider.
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
)

const configDirName = ".meshchat"

// Config represents the application configuration
type Config struct {
	LLMProvider string          `json:"llm_provider"`
	Providers   ProvidersConfig `json:"providers"`
	Mesh        MeshConfig      `json:"mesh"`
	Gallery     GalleryConfig   `json:"gallery"`
	Server      ServerConfig    `json:"server"`
	History     HistoryConfig   `json:"history"`
	LogLevel    string          `json:"log_level"`
	LogFormat   string          `json:"log_format"`
	LogFile     string          `json:"log_file"`
}

// ProvidersConfig holds per-provider LLM settings.
type ProvidersConfig struct {
	Groq       ProviderConfig `json:"groq"`
	OpenRouter ProviderConfig `json:"openrouter"`
	OpenAI     ProviderConfig `json:"openai"`
	Google     ProviderConfig `json:"google"`
}

// ProviderConfig holds one provider's API configuration
type ProviderConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url,omitempty"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// MeshConfig controls STL decoding and normalization.
type MeshConfig struct {
	TargetSize        float64 `json:"target_size"`
	KeepParsedNormals bool    `json:"keep_parsed_normals"`
	MaxDownloadBytes  int64   `json:"max_download_bytes"`
}

// GalleryConfig controls the comparison gallery.
type GalleryConfig struct {
	ItemsPerPage int    `json:"items_per_page"`
	CSVURL       string `json:"csv_url"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr       string   `json:"addr"`
	AllowHosts []string `json:"allow_hosts"` // empty allows any host
}

// HistoryConfig controls the local history database.
type HistoryConfig struct {
	DBPath string `json:"db_path"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: ProviderGroq,
		Providers: ProvidersConfig{
			Groq: ProviderConfig{
				APIURL:            "https://api.groq.com/openai/v1",
				Model:             "openai/gpt-oss-120b",
				Temperature:       0.7,
				MaxTokens:         4000,
				APITimeoutSeconds: 60,
			},
			OpenRouter: ProviderConfig{
				APIURL:            "https://openrouter.ai/api/v1",
				Model:             "google/gemini-3.0-flash",
				Temperature:       0.7,
				MaxTokens:         4000,
				APITimeoutSeconds: 60,
			},
			OpenAI: ProviderConfig{
				APIURL:            "https://api.openai.com/v1",
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         4000,
				APITimeoutSeconds: 60,
			},
			Google: ProviderConfig{
				Model:             "gemini-3-flash-preview",
				Temperature:       0.7,
				MaxTokens:         4000,
				APITimeoutSeconds: 60,
			},
		},
		Mesh: MeshConfig{
			TargetSize:       1.8,
			MaxDownloadBytes: 50 << 20,
		},
		Gallery: GalleryConfig{
			ItemsPerPage: 10,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		History: HistoryConfig{
			DBPath: defaultPath("history.db"),
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(configPath, cfg); err != nil {
				return Config{}, fmt.Errorf("failed to create default config: %w", err)
			}
			return applyEnv(cfg), nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	// Decoding over the defaults keeps them for keys missing from the file
	// while explicit zero values still win.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return applyEnv(fillBlanks(cfg)), nil
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid. API keys are checked
// separately by ValidateProvider since most commands never call an LLM.
func (c Config) Validate() error {
	if _, ok := c.Provider(c.LLMProvider); !ok {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	for _, name := range []string{ProviderGroq, ProviderOpenRouter, ProviderOpenAI} {
		p, _ := c.Provider(name)
		if err := validateAPIURL(name, p.APIURL); err != nil {
			return err
		}
	}

	for _, name := range SupportedProviders() {
		p, _ := c.Provider(name)
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("%s temperature must be between 0 and 2, got: %f", name, p.Temperature)
		}
		if p.MaxTokens <= 0 {
			return fmt.Errorf("%s max_tokens must be positive, got: %d", name, p.MaxTokens)
		}
		if p.APITimeoutSeconds <= 0 {
			return fmt.Errorf("%s api_timeout_seconds must be positive, got: %d", name, p.APITimeoutSeconds)
		}
	}

	if c.Mesh.TargetSize <= 0 {
		return fmt.Errorf("mesh.target_size must be positive, got: %f", c.Mesh.TargetSize)
	}
	if c.Mesh.MaxDownloadBytes <= 0 {
		return fmt.Errorf("mesh.max_download_bytes must be positive, got: %d", c.Mesh.MaxDownloadBytes)
	}
	if c.Gallery.ItemsPerPage <= 0 {
		return fmt.Errorf("gallery.items_per_page must be positive, got: %d", c.Gallery.ItemsPerPage)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}

	return nil
}

// ValidateProvider checks that the active provider can be used.
func (c Config) ValidateProvider() error {
	p, ok := c.Provider(c.LLMProvider)
	if !ok {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("%s api_key is required (set in config file or environment)", c.LLMProvider)
	}
	if strings.TrimSpace(p.Model) == "" {
		return fmt.Errorf("%s model is required", c.LLMProvider)
	}
	return nil
}

// Provider returns the settings for a provider name.
func (c Config) Provider(name string) (ProviderConfig, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGroq:
		return c.Providers.Groq, true
	case ProviderOpenRouter:
		return c.Providers.OpenRouter, true
	case ProviderOpenAI:
		return c.Providers.OpenAI, true
	case ProviderGoogle:
		return c.Providers.Google, true
	}
	return ProviderConfig{}, false
}

// SupportedProviders lists the valid llm_provider values.
func SupportedProviders() []string {
	return []string{ProviderGroq, ProviderOpenRouter, ProviderOpenAI, ProviderGoogle}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return defaultPath("config.json")
}

func defaultPath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDirName, name)
	}
	return filepath.Join(homeDir, configDirName, name)
}

func validateAPIURL(name, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s api_url is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s api_url must be an absolute URL, got: %q", name, raw)
	}
	return nil
}

func fillBlanks(cfg Config) Config {
	def := Default()
	if strings.TrimSpace(cfg.LLMProvider) == "" {
		cfg.LLMProvider = def.LLMProvider
	}
	fill := func(p *ProviderConfig, d ProviderConfig) {
		if strings.TrimSpace(p.APIURL) == "" {
			p.APIURL = d.APIURL
		}
		if strings.TrimSpace(p.Model) == "" {
			p.Model = d.Model
		}
	}
	fill(&cfg.Providers.Groq, def.Providers.Groq)
	fill(&cfg.Providers.OpenRouter, def.Providers.OpenRouter)
	fill(&cfg.Providers.OpenAI, def.Providers.OpenAI)
	fill(&cfg.Providers.Google, def.Providers.Google)
	if strings.TrimSpace(cfg.History.DBPath) == "" {
		cfg.History.DBPath = def.History.DBPath
	}
	return cfg
}

// applyEnv overlays environment variables on top of the file values.
func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("MESHCHAT_LLM_PROVIDER")); v != "" {
		cfg.LLMProvider = v
	}
	if v := strings.TrimSpace(os.Getenv("MESHCHAT_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	keys := []struct {
		env string
		dst *string
	}{
		{"GROQ_API_KEY", &cfg.Providers.Groq.APIKey},
		{"OPENROUTER_API_KEY", &cfg.Providers.OpenRouter.APIKey},
		{"OPENAI_API_KEY", &cfg.Providers.OpenAI.APIKey},
		{"GEMINI_API_KEY", &cfg.Providers.Google.APIKey},
	}
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k.env)); v != "" {
			*k.dst = v
		}
	}
	return cfg
}
