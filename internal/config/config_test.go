package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: "5000", Mode: "release", MaxUploadMB: 50},
		JWT:      JWTConfig{Secret: "secret", Expiration: time.Hour},
		Analyzer: AnalyzerConfig{Provider: ProviderGemini, Timeout: time.Minute},
		Gemini:   GeminiConfig{APIKey: "key", Model: "gemini-2.5-flash"},
		AWS:      AWSConfig{Region: "ap-southeast-1"},
		Storage:  StorageConfig{Root: "./data"},
		Watch:    WatchConfig{Interval: 15 * time.Second},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid gemini", func(c *Config) {}, false},
		{"valid rekognition without gemini key", func(c *Config) {
			c.Analyzer.Provider = ProviderRekognition
			c.Gemini.APIKey = ""
		}, false},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, true},
		{"zero jwt expiration", func(c *Config) { c.JWT.Expiration = 0 }, true},
		{"gemini without key", func(c *Config) { c.Gemini.APIKey = "" }, true},
		{"rekognition without region", func(c *Config) {
			c.Analyzer.Provider = ProviderRekognition
			c.AWS.Region = ""
		}, true},
		{"unknown provider", func(c *Config) { c.Analyzer.Provider = "tesseract" }, true},
		{"empty storage root", func(c *Config) { c.Storage.Root = "" }, true},
		{"interval too short", func(c *Config) { c.Watch.Interval = 4 * time.Second }, true},
		{"interval too long", func(c *Config) { c.Watch.Interval = 301 * time.Second }, true},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWatchInterval_Bounds(t *testing.T) {
	tests := []struct {
		in      time.Duration
		wantErr bool
	}{
		{5 * time.Second, false},
		{15 * time.Second, false},
		{300 * time.Second, false},
		{4999 * time.Millisecond, true},
		{0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			err := ValidateWatchInterval(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWatchInterval(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("WATCH_INTERVAL", "30s")
	t.Setenv("SERVER_PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("jwt secret = %q", cfg.JWT.Secret)
	}
	if cfg.Watch.Interval != 30*time.Second {
		t.Errorf("watch interval = %s, want 30s", cfg.Watch.Interval)
	}
	if cfg.Server.Port != "8081" {
		t.Errorf("port = %q, want 8081", cfg.Server.Port)
	}
	if cfg.JWT.Expiration != 7*24*time.Hour {
		t.Errorf("jwt expiration default = %s", cfg.JWT.Expiration)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("gemini model default = %q", cfg.Gemini.Model)
	}
	if cfg.Seed.PricePerRequest != 1000 {
		t.Errorf("price default = %d", cfg.Seed.PricePerRequest)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GEMINI_API_KEY", "gk")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty jwt secret")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
