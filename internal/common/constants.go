package common

// Trading environments
const (
	EnvPractice = "practice"
	EnvLive     = "live"
)

// Environment variable keys
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvTradingEnv    = "TRADING_ENV"
	EnvBrokerToken   = "OANDA_ACCESS_TOKEN"
	EnvBrokerURL     = "OANDA_BASE_URL"
	EnvAccounts      = "ACCOUNTS"
	EnvListenPort    = "LISTEN_PORT"
	EnvMetricsPort   = "METRICS_PORT"
	EnvDataPath      = "DATA_PATH"
	EnvRESTTimeout   = "REST_TIMEOUT"
	EnvCurrency      = "CURRENCY_SYMBOL"
	EnvSyncInterval  = "SYNC_INTERVAL"
	EnvPushInterval  = "PUSH_INTERVAL"
	EnvStatsURL      = "STATS_URL"
	EnvLogLevel      = "LOG_LEVEL"
	EnvDefaultFrom   = "DEFAULT_START_FROM"
	EnvDotEnvFile    = "DOTENV_FILE"
	EnvTradesPerPull = "TRADES_PER_PULL"
)

// Configuration defaults
const (
	DefaultPracticeURL   = "https://api-fxpractice.oanda.com"
	DefaultLiveURL       = "https://api-fxtrade.oanda.com"
	DefaultStatsURL      = "http://localhost:5000"
	DefaultListenPort    = 5000
	DefaultMetricsPort   = 9100
	DefaultCurrency      = "£"
	DefaultTradesPerPull = 500
	DefaultDateLayout    = "2006-01-02"
)

// Common error messages
const (
	ErrMsgTokenRequired    = "broker access token is required"
	ErrMsgAccountsRequired = "at least one account alias is required"
	ErrMsgInvalidEnv       = "env must be either practice or live"
)

// Validation constants
const (
	MinPort          = 1024
	MaxPort          = 65535
	MaxTradesPerPull = 500
)
