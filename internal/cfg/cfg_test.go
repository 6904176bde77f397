package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name: "valid config with required fields",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "test_token",
				"ACCOUNTS":           "primary=101-004-1-001,mt4=101-004-1-002",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DefaultEnv != "practice" {
					t.Errorf("expected default env practice, got %s", settings.DefaultEnv)
				}
				p, ok := settings.Profile("practice")
				if !ok {
					t.Fatal("expected practice profile")
				}
				if p.Token != "test_token" {
					t.Errorf("expected Token 'test_token', got %s", p.Token)
				}
				if p.BaseURL != "https://api-fxpractice.oanda.com" {
					t.Errorf("expected default practice URL, got %s", p.BaseURL)
				}
				if settings.Currency != "£" {
					t.Errorf("expected default currency £, got %s", settings.Currency)
				}
				if settings.RESTTimeout != 5*time.Second {
					t.Errorf("expected default RESTTimeout 5s, got %v", settings.RESTTimeout)
				}
				if id, ok := settings.AccountID("practice", "mt4"); !ok || id != "101-004-1-002" {
					t.Errorf("expected mt4 alias to resolve, got %q %v", id, ok)
				}
			},
		},
		{
			name: "live environment with overrides",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "live_token",
				"ACCOUNTS":           "primary=001-004-9-001",
				"TRADING_ENV":        "live",
				"LISTEN_PORT":        "8088",
				"PUSH_INTERVAL":      "10s",
				"CURRENCY_SYMBOL":    "$",
				"DEFAULT_START_FROM": "2024-01-01",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DefaultEnv != "live" {
					t.Errorf("expected live env, got %s", settings.DefaultEnv)
				}
				p, _ := settings.Profile("live")
				if p.BaseURL != "https://api-fxtrade.oanda.com" {
					t.Errorf("expected default live URL, got %s", p.BaseURL)
				}
				if settings.ListenPort != 8088 {
					t.Errorf("expected ListenPort 8088, got %d", settings.ListenPort)
				}
				if settings.PushInterval != 10*time.Second {
					t.Errorf("expected PushInterval 10s, got %v", settings.PushInterval)
				}
				if settings.Currency != "$" {
					t.Errorf("expected currency $, got %s", settings.Currency)
				}
			},
		},
		{
			name: "missing token",
			envVars: map[string]string{
				"ACCOUNTS": "primary=101-004-1-001",
			},
			wantErr: true,
		},
		{
			name: "missing accounts",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "test_token",
			},
			wantErr: true,
		},
		{
			name: "malformed account mapping",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "test_token",
				"ACCOUNTS":           "primary",
			},
			wantErr: true,
		},
		{
			name: "unknown environment",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "test_token",
				"ACCOUNTS":           "primary=101-004-1-001",
				"TRADING_ENV":        "staging",
			},
			wantErr: true,
		},
		{
			name: "bad default start date",
			envVars: map[string]string{
				"OANDA_ACCESS_TOKEN": "test_token",
				"ACCOUNTS":           "primary=101-004-1-001",
				"DEFAULT_START_FROM": "01/01/2024",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
environments:
  practice:
    token: "practice_token"
    accounts:
      primary: "101-004-1-001"
  live:
    baseURL: "https://example.test"
    token: "live_token"
    accounts:
      mt4: "001-004-9-002"

dashboard:
  defaultEnv: "live"
  listenPort: 8080
  currency: "€"
  pushInterval: "15s"

system:
  dataPath: "/custom/data"
  metricsPort: 9090
  restTimeout: "10s"
  syncInterval: "2m"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if len(settings.Profiles) != 2 {
					t.Errorf("expected 2 profiles, got %d", len(settings.Profiles))
				}
				if settings.DefaultEnv != "live" {
					t.Errorf("expected DefaultEnv live, got %s", settings.DefaultEnv)
				}
				live, _ := settings.Profile("live")
				if live.BaseURL != "https://example.test" {
					t.Errorf("expected custom live URL, got %s", live.BaseURL)
				}
				practice, _ := settings.Profile("practice")
				if practice.BaseURL != "https://api-fxpractice.oanda.com" {
					t.Errorf("expected default practice URL, got %s", practice.BaseURL)
				}
				if settings.Currency != "€" {
					t.Errorf("expected currency €, got %s", settings.Currency)
				}
				if settings.SyncInterval != 2*time.Minute {
					t.Errorf("expected SyncInterval 2m, got %v", settings.SyncInterval)
				}
				if settings.RESTTimeout != 10*time.Second {
					t.Errorf("expected RESTTimeout 10s, got %v", settings.RESTTimeout)
				}
				if settings.DataPath != "/custom/data" {
					t.Errorf("expected DataPath /custom/data, got %s", settings.DataPath)
				}
			},
		},
		{
			name: "token from environment",
			yamlContent: `
environments:
  practice:
    accounts:
      primary: "101-004-1-001"
`,
			envOverrides: map[string]string{
				"OANDA_ACCESS_TOKEN": "env_token",
				"LISTEN_PORT":        "7000",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				p, _ := settings.Profile("practice")
				if p.Token != "env_token" {
					t.Errorf("expected env token, got %s", p.Token)
				}
				if settings.ListenPort != 7000 {
					t.Errorf("expected ListenPort 7000, got %d", settings.ListenPort)
				}
			},
		},
		{
			name: "YAML missing token",
			yamlContent: `
environments:
  practice:
    accounts:
      primary: "101-004-1-001"
`,
			wantErr: true,
		},
		{
			name: "default env not configured",
			yamlContent: `
environments:
  practice:
    token: "t"
    accounts:
      primary: "101-004-1-001"
dashboard:
  defaultEnv: "live"
`,
			wantErr: true,
		},
		{
			name:        "invalid YAML",
			yamlContent: `invalid: yaml: content: [`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlContent), 0o600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			settings, err := loadFromYAML(path)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad_PrefersConfigFile(t *testing.T) {
	clearTestEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
environments:
  practice:
    token: "file_token"
    accounts:
      primary: "101-004-1-001"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ := settings.Profile("practice")
	if p.Token != "file_token" {
		t.Errorf("expected token from file, got %s", p.Token)
	}
}

func TestAccountID(t *testing.T) {
	settings := Settings{
		Profiles: map[string]Profile{
			"practice": {Accounts: map[string]string{"primary": "101-1"}},
		},
	}

	if id, ok := settings.AccountID("practice", "primary"); !ok || id != "101-1" {
		t.Errorf("alias lookup failed: %q %v", id, ok)
	}
	if id, ok := settings.AccountID("practice", "101-1"); !ok || id != "101-1" {
		t.Errorf("raw ID lookup failed: %q %v", id, ok)
	}
	if _, ok := settings.AccountID("practice", "missing"); ok {
		t.Error("expected unknown alias to fail")
	}
	if _, ok := settings.AccountID("live", "primary"); ok {
		t.Error("expected unknown env to fail")
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "TRADING_ENV", "OANDA_ACCESS_TOKEN", "OANDA_BASE_URL", "ACCOUNTS",
		"LISTEN_PORT", "METRICS_PORT", "DATA_PATH", "REST_TIMEOUT", "CURRENCY_SYMBOL",
		"SYNC_INTERVAL", "PUSH_INTERVAL", "STATS_URL", "DEFAULT_START_FROM", "TRADES_PER_PULL",
	} {
		t.Setenv(key, "")
	}
}

func TestAliases(t *testing.T) {
	settings := Settings{
		Profiles: map[string]Profile{
			"practice": {Accounts: map[string]string{"swing": "101-2", "primary": "101-1"}},
		},
	}

	got := settings.Aliases("practice")
	if len(got) != 2 || got[0] != "primary" || got[1] != "swing" {
		t.Errorf("Aliases() = %v, want [primary swing]", got)
	}
	if got := settings.Aliases("live"); got != nil {
		t.Errorf("Aliases(live) = %v, want nil", got)
	}
}
