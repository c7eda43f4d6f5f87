package configloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"wallet_connector/internal/domain/entity"
	"wallet_connector/internal/pkg/logger"
	"wallet_connector/internal/pkg/utils"
)

// Environment variables that take precedence over the file.
const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvPairingProjectID = "WALLETCONNECT_PROJECT_ID"
	EnvInjectedURL      = "INJECTED_PROVIDER_URL"
	EnvLogLevel         = "LOG_LEVEL"
	EnvServerPort       = "SERVER_PORT"
	EnvSessionBackend   = "SESSION_BACKEND"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisPassword    = "REDIS_PASSWORD"

	DefaultConfigPath = "config/config.yml"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                   string   `yaml:"port"`
	ShutdownTimeoutSeconds int      `yaml:"shutdownTimeoutSeconds"`
	AllowedOrigins         []string `yaml:"allowedOrigins"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// RedisConfig is used by the redis session backend only.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SessionConfig selects where the provider key and the connected marker live.
type SessionConfig struct {
	Backend string      `yaml:"backend"` // file | memory | redis
	Origin  string      `yaml:"origin"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// PairingMetadata describes this application to remote wallets.
type PairingMetadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Icons       []string `yaml:"icons"`
}

// PairingConfig holds remote-pairing connector settings.
type PairingConfig struct {
	ProjectID         string          `yaml:"projectId"`
	RelayURL          string          `yaml:"relayURL"`
	QRSize            int             `yaml:"qrSize"`
	RPCTimeoutSeconds int             `yaml:"rpcTimeoutSeconds"`
	Metadata          PairingMetadata `yaml:"metadata"`
}

// InjectedConfig holds settings of the injected provider endpoint.
type InjectedConfig struct {
	ProviderURL           string `yaml:"providerURL"`
	RPCCallTimeoutSeconds int    `yaml:"rpcCallTimeoutSeconds"`
	PollIntervalSeconds   int    `yaml:"pollIntervalSeconds"`
}

// RateLimitConfig limits connect requests coming through the API.
type RateLimitConfig struct {
	ConnectPerMinute int `yaml:"connectPerMinute"`
	Burst            int `yaml:"burst"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig               `yaml:"server"`
	Logging   LoggingConfig              `yaml:"logging"`
	Session   SessionConfig              `yaml:"session"`
	Pairing   PairingConfig              `yaml:"pairing"`
	Injected  InjectedConfig             `yaml:"injected"`
	RateLimit RateLimitConfig            `yaml:"rateLimit"`
	Networks  []entity.NetworkDefinition `yaml:"networks"` // added to the built-in networks
}

// Path returns the config path from CONFIG_PATH or the default.
func Path() string {
	return utils.GetEnv(EnvConfigPath, DefaultConfigPath)
}

// Load reads the YAML configuration file from the given path and unmarshals it.
// A .env file in the working directory is loaded first, existing variables win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Pairing.ProjectID = utils.GetEnv(EnvPairingProjectID, cfg.Pairing.ProjectID)
	cfg.Injected.ProviderURL = utils.GetEnv(EnvInjectedURL, cfg.Injected.ProviderURL)
	cfg.Logging.Level = utils.GetEnv(EnvLogLevel, cfg.Logging.Level)
	cfg.Server.Port = utils.GetEnv(EnvServerPort, cfg.Server.Port)
	cfg.Session.Backend = utils.GetEnv(EnvSessionBackend, cfg.Session.Backend)
	cfg.Session.Redis.Addr = utils.GetEnv(EnvRedisAddr, cfg.Session.Redis.Addr)
	cfg.Session.Redis.Password = utils.GetEnv(EnvRedisPassword, cfg.Session.Redis.Password)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "file"
	}
	if cfg.Session.Origin == "" {
		cfg.Session.Origin = "wallet_connector"
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = "data/session.json"
	}

	if cfg.Pairing.RelayURL == "" {
		cfg.Pairing.RelayURL = "wss://relay.walletconnect.com"
	}
	if cfg.Pairing.QRSize <= 0 {
		cfg.Pairing.QRSize = 256
	}
	if cfg.Pairing.RPCTimeoutSeconds <= 0 {
		cfg.Pairing.RPCTimeoutSeconds = 15
	}
	if cfg.Pairing.Metadata.Name == "" {
		cfg.Pairing.Metadata.Name = "Wallet Connector"
	}

	if cfg.Injected.RPCCallTimeoutSeconds <= 0 {
		cfg.Injected.RPCCallTimeoutSeconds = 10
	}
	if cfg.Injected.PollIntervalSeconds <= 0 {
		cfg.Injected.PollIntervalSeconds = 12 // примерно один блок
	}

	if cfg.RateLimit.ConnectPerMinute <= 0 {
		cfg.RateLimit.ConnectPerMinute = 30
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
}

func validate(cfg *Config) error {
	if _, _, ok := logger.ParseLevel(cfg.Logging.Level); !ok {
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Session.Backend) {
	case "file", "memory":
	case "redis":
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("session backend redis needs session.redis.addr or %s", EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	for i, n := range cfg.Networks {
		if n.Identifier == "" || n.ChainID == 0 {
			return fmt.Errorf("networks[%d]: identifier and chainId are required", i)
		}
	}
	return nil
}
