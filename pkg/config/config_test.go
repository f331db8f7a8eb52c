package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MESHCHAT_LLM_PROVIDER", "MESHCHAT_LOG_LEVEL",
		"GROQ_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLMProvider != ProviderGroq {
		t.Errorf("Expected LLMProvider 'groq', got %q", cfg.LLMProvider)
	}

	if cfg.Providers.OpenRouter.APIURL != "https://openrouter.ai/api/v1" {
		t.Errorf("Expected API URL 'https://openrouter.ai/api/v1', got %q", cfg.Providers.OpenRouter.APIURL)
	}

	if cfg.Mesh.TargetSize != 1.8 {
		t.Errorf("Expected TargetSize 1.8, got %f", cfg.Mesh.TargetSize)
	}

	if cfg.Gallery.ItemsPerPage != 10 {
		t.Errorf("Expected ItemsPerPage 10, got %d", cfg.Gallery.ItemsPerPage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestLoad_CreateDefault(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".meshchat", "config.json")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8787" {
		t.Errorf("Expected default server addr, got %q", cfg.Server.Addr)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

func TestLoad_ExistingConfig(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	initialCfg := Default()
	initialCfg.Gallery.ItemsPerPage = 25
	initialCfg.Mesh.KeepParsedNormals = true
	if err := Save(configPath, initialCfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Gallery.ItemsPerPage != 25 {
		t.Errorf("Expected ItemsPerPage 25, got %d", cfg.Gallery.ItemsPerPage)
	}
	if !cfg.Mesh.KeepParsedNormals {
		t.Error("Expected KeepParsedNormals to round-trip")
	}
}

func TestLoad_MigrationDefaults(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Missing api_url and llm_provider, explicit temperature 0 should be preserved
	raw := `{
  "providers": {
    "openai": {"model": "", "temperature": 0, "max_tokens": 100, "api_timeout_seconds": 5}
  }
}`
	if err := os.WriteFile(configPath, []byte(raw), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderGroq {
		t.Errorf("Expected default provider, got %q", cfg.LLMProvider)
	}
	if cfg.Providers.OpenAI.APIURL != "https://api.openai.com/v1" {
		t.Errorf("Expected default api_url, got %q", cfg.Providers.OpenAI.APIURL)
	}
	if cfg.Providers.OpenAI.Model != "gpt-4o" {
		t.Errorf("Expected blank model to be filled, got %q", cfg.Providers.OpenAI.Model)
	}
	if cfg.Providers.OpenAI.Temperature != 0 {
		t.Errorf("Expected explicit temperature 0 to be preserved, got %f", cfg.Providers.OpenAI.Temperature)
	}
	if cfg.Mesh.TargetSize != 1.8 {
		t.Errorf("Expected missing mesh section to default, got %f", cfg.Mesh.TargetSize)
	}
}

func TestLoad_CorruptedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for corrupted JSON")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MESHCHAT_LLM_PROVIDER", "google")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("MESHCHAT_LOG_LEVEL", "debug")

	configPath := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderGoogle {
		t.Errorf("Expected provider from env, got %q", cfg.LLMProvider)
	}
	if cfg.Providers.Google.APIKey != "gemini-key" {
		t.Errorf("Expected api key from env, got %q", cfg.Providers.Google.APIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level from env, got %q", cfg.LogLevel)
	}
	if err := cfg.ValidateProvider(); err != nil {
		t.Errorf("ValidateProvider() failed: %v", err)
	}

	// Env values are not written back to disk.
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if strings.Contains(string(data), "gemini-key") {
		t.Error("Env api key should not be persisted")
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := Default()
	cfg.Providers.Groq.APIKey = "test-key"

	if err := Save(configPath, cfg); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected file mode 0600, got %o", perm)
	}
}

func TestValidate_UnsupportedProvider(t *testing.T) {
	cfg := Default()
	cfg.LLMProvider = "anthropic"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}

func TestValidateProvider_MissingAPIKey(t *testing.T) {
	cfg := Default()

	err := cfg.ValidateProvider()
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "groq api_key is required") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_InvalidAPIURL(t *testing.T) {
	cfg := Default()
	cfg.Providers.OpenRouter.APIURL = "not a url"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for relative api_url")
	}
}

func TestValidate_Temperature(t *testing.T) {
	tests := []struct {
		temp  float64
		valid bool
	}{
		{-0.1, false},
		{0.0, true},
		{0.7, true},
		{2.0, true},
		{2.1, false},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Providers.Groq.Temperature = tt.temp

		err := cfg.Validate()
		if tt.valid && err != nil {
			t.Errorf("Temperature %f should be valid, got error: %v", tt.temp, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("Temperature %f should be invalid", tt.temp)
		}
	}
}

func TestValidate_MeshAndGallery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero target size", func(c *Config) { c.Mesh.TargetSize = 0 }},
		{"negative download cap", func(c *Config) { c.Mesh.MaxDownloadBytes = -1 }},
		{"zero page size", func(c *Config) { c.Gallery.ItemsPerPage = 0 }},
		{"blank server addr", func(c *Config) { c.Server.Addr = " " }},
		{"zero max tokens", func(c *Config) { c.Providers.Google.MaxTokens = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid log format")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath() returned empty string")
	}

	if !strings.Contains(path, ".meshchat") {
		t.Errorf("Expected path to contain '.meshchat', got %q", path)
	}
}
