package cfg

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"oanda-dashboard/internal/common"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Profile holds the broker connection for one trading environment.
type Profile struct {
	BaseURL  string            `validate:"required,url"`
	Token    string            `validate:"required"`
	Accounts map[string]string `validate:"required,min=1"` // alias -> broker account ID
}

type Settings struct {
	Profiles         map[string]Profile
	DefaultEnv       string `validate:"oneof=practice live"`
	ListenPort       int    `validate:"min=1024,max=65535"`
	MetricsPort      int    `validate:"min=1024,max=65535"`
	DataPath         string
	RESTTimeout      time.Duration
	Currency         string `validate:"required"`
	SyncInterval     time.Duration
	PushInterval     time.Duration
	DefaultStartFrom string
	TradesPerPull    int `validate:"min=1,max=500"`
}

type ConfigFile struct {
	Environments map[string]struct {
		BaseURL  string            `yaml:"baseURL"`
		Token    string            `yaml:"token"`
		Accounts map[string]string `yaml:"accounts"`
	} `yaml:"environments"`

	Dashboard struct {
		DefaultEnv       string `yaml:"defaultEnv"`
		ListenPort       int    `yaml:"listenPort"`
		Currency         string `yaml:"currency"`
		PushInterval     string `yaml:"pushInterval"`
		DefaultStartFrom string `yaml:"defaultStartFrom"`
	} `yaml:"dashboard"`

	System struct {
		DataPath      string `yaml:"dataPath"`
		MetricsPort   int    `yaml:"metricsPort"`
		RESTTimeout   string `yaml:"restTimeout"`
		SyncInterval  string `yaml:"syncInterval"`
		TradesPerPull int    `yaml:"tradesPerPull"`
	} `yaml:"system"`
}

var validate = validator.New()

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	profiles := make(map[string]Profile, len(config.Environments))
	for env, e := range config.Environments {
		p := Profile{
			BaseURL:  e.BaseURL,
			Token:    e.Token,
			Accounts: e.Accounts,
		}
		if p.BaseURL == "" {
			p.BaseURL = defaultBrokerURL(env)
		}
		// the token for the active environment may come from the environment
		if p.Token == "" && env == getEnvOrDefault(common.EnvTradingEnv, common.EnvPractice) {
			p.Token = os.Getenv(common.EnvBrokerToken)
		}
		profiles[env] = p
	}

	settings := Settings{
		Profiles:         profiles,
		DefaultEnv:       getEnvOrDefault(common.EnvTradingEnv, stringOr(config.Dashboard.DefaultEnv, common.EnvPractice)),
		ListenPort:       getIntFromEnvOrConfig(common.EnvListenPort, config.Dashboard.ListenPort, common.DefaultListenPort),
		MetricsPort:      getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		DataPath:         getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		RESTTimeout:      parseDurationOr(config.System.RESTTimeout, 5*time.Second),
		Currency:         getEnvOrDefault(common.EnvCurrency, stringOr(config.Dashboard.Currency, common.DefaultCurrency)),
		SyncInterval:     parseDurationOr(config.System.SyncInterval, time.Minute),
		PushInterval:     parseDurationOr(config.Dashboard.PushInterval, 5*time.Second),
		DefaultStartFrom: getEnvOrDefault(common.EnvDefaultFrom, config.Dashboard.DefaultStartFrom),
		TradesPerPull:    getIntFromEnvOrConfig(common.EnvTradesPerPull, config.System.TradesPerPull, common.DefaultTradesPerPull),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	token, err := getEnvRequired(common.EnvBrokerToken)
	if err != nil {
		return Settings{}, err
	}

	accounts, err := parseAccounts(os.Getenv(common.EnvAccounts))
	if err != nil {
		return Settings{}, err
	}

	env := getEnvOrDefault(common.EnvTradingEnv, common.EnvPractice)
	settings := Settings{
		Profiles: map[string]Profile{
			env: {
				BaseURL:  getEnvOrDefault(common.EnvBrokerURL, defaultBrokerURL(env)),
				Token:    token,
				Accounts: accounts,
			},
		},
		DefaultEnv:       env,
		ListenPort:       getIntOrDefault(common.EnvListenPort, common.DefaultListenPort),
		MetricsPort:      getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DataPath:         os.Getenv(common.EnvDataPath), // optional
		RESTTimeout:      getDurationOrDefault(common.EnvRESTTimeout, 5*time.Second),
		Currency:         getEnvOrDefault(common.EnvCurrency, common.DefaultCurrency),
		SyncInterval:     getDurationOrDefault(common.EnvSyncInterval, time.Minute),
		PushInterval:     getDurationOrDefault(common.EnvPushInterval, 5*time.Second),
		DefaultStartFrom: os.Getenv(common.EnvDefaultFrom),
		TradesPerPull:    getIntOrDefault(common.EnvTradesPerPull, common.DefaultTradesPerPull),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Profile returns the broker profile for env.
func (s *Settings) Profile(env string) (Profile, bool) {
	p, ok := s.Profiles[env]
	return p, ok
}

// AccountID resolves an account alias within env to its broker account ID.
// A raw broker account ID is accepted as well.
func (s *Settings) AccountID(env, alias string) (string, bool) {
	p, ok := s.Profiles[env]
	if !ok {
		return "", false
	}
	if id, ok := p.Accounts[alias]; ok {
		return id, true
	}
	for _, id := range p.Accounts {
		if id == alias {
			return id, true
		}
	}
	return "", false
}

// Aliases lists the account aliases configured for env, sorted.
func (s *Settings) Aliases(env string) []string {
	p, ok := s.Profiles[env]
	if !ok {
		return nil
	}
	aliases := make([]string, 0, len(p.Accounts))
	for alias := range p.Accounts {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func defaultBrokerURL(env string) string {
	if env == common.EnvLive {
		return common.DefaultLiveURL
	}
	return common.DefaultPracticeURL
}

// parseAccounts reads "alias=id,alias=id".
func parseAccounts(v string) (map[string]string, error) {
	if v == "" {
		return nil, fmt.Errorf(common.ErrMsgAccountsRequired)
	}
	accounts := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		alias, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || alias == "" || id == "" {
			return nil, fmt.Errorf("invalid account mapping %q, expected alias=id", pair)
		}
		accounts[alias] = id
	}
	return accounts, nil
}

func getEnvRequired(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is missing", key)
	}
	return v, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func stringOr(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func parseDurationOr(v string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings checks struct tags first and then the ranges tags cannot express.
func validateSettings(settings *Settings) error {
	if err := validate.Struct(settings); err != nil {
		return err
	}

	if len(settings.Profiles) == 0 {
		return fmt.Errorf("at least one environment must be configured")
	}
	for env, p := range settings.Profiles {
		if env != common.EnvPractice && env != common.EnvLive {
			return fmt.Errorf("environment %q: %s", env, common.ErrMsgInvalidEnv)
		}
		if p.Token == "" {
			return fmt.Errorf("environment %s: %s", env, common.ErrMsgTokenRequired)
		}
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("environment %s: %w", env, err)
		}
	}
	if _, ok := settings.Profiles[settings.DefaultEnv]; !ok {
		return fmt.Errorf("default environment %s is not configured", settings.DefaultEnv)
	}

	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if settings.SyncInterval < 5*time.Second || settings.SyncInterval > time.Hour {
		return fmt.Errorf("sync interval must be between 5s and 1h, got %v", settings.SyncInterval)
	}
	if settings.PushInterval < time.Second || settings.PushInterval > 5*time.Minute {
		return fmt.Errorf("push interval must be between 1s and 5m, got %v", settings.PushInterval)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}
	if settings.DefaultStartFrom != "" {
		if _, err := time.Parse(common.DefaultDateLayout, settings.DefaultStartFrom); err != nil {
			return fmt.Errorf("default start date must be YYYY-MM-DD, got %q", settings.DefaultStartFrom)
		}
	}

	return nil
}
