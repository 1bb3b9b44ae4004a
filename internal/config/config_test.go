package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default mode is api", func(c *Config) bool { return c.Mode == "api" }},
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }},
		{"default port is 8080", func(c *Config) bool { return c.Port == 8080 }},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default migrations dir", func(c *Config) bool { return c.MigrationsDir == "migrations" }},
		{"default CORS allows all origins", func(c *Config) bool {
			return len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*"
		}},
		{"default invitation token TTL", func(c *Config) bool { return c.InvitationTokenTTL == "168h" }},
		{"default access token TTL", func(c *Config) bool { return c.AccessTokenTTL == "15m" }},
		{"default vector index is in-memory", func(c *Config) bool { return c.VectorIndexURL == "memory://" }},
		{"default embedding provider is in-memory", func(c *Config) bool { return c.EmbeddingURL == "memory://" }},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8080" }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("%s: unexpected value %+v", tt.name, cfg)
			}
		})
	}
}

func TestConfig_CORSAllowedOrigins_CommaSeparated(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	for i, v := range want {
		if cfg.CORSAllowedOrigins[i] != v {
			t.Errorf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], v)
		}
	}
}

func TestConfig_ModeOverride(t *testing.T) {
	t.Setenv("CLEARVOICE_MODE", "worker")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Mode != "worker" {
		t.Errorf("Mode = %q, want worker", cfg.Mode)
	}
}
