package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBSource string
	Port     string
	Env      string

	Hedera HederaConfig
	JWT    JWTConfig

	StatusRefreshInterval time.Duration
	Retry                 RetryConfig
	TxLogWriteTimeout     time.Duration
	RateLimit             RateLimitConfig

	// InitialBalance is funded to every new account, in tinybars.
	InitialBalance int64
}

type HederaConfig struct {
	Network     string
	OperatorID  string
	OperatorKey string
}

type JWTConfig struct {
	Secret string
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("hedera.network", "testnet")
	v.SetDefault("status.refresh_interval", "5m")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", "500ms")
	v.SetDefault("retry.factor", 2.0)
	v.SetDefault("txlog.write_timeout", "5s")
	v.SetDefault("ratelimit.rps", 10.0)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("account.initial_balance", 0)
}

// New returns a viper instance with defaults and environment overrides;
// nested keys read as HEDERA_OPERATOR_ID and so on.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file at path and the environment.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper validates required keys and builds the Config.
func FromViper(v *viper.Viper) (*Config, error) {
	required := map[string]string{
		"db_source":           "DB_SOURCE",
		"hedera.operator_id":  "HEDERA_OPERATOR_ID",
		"hedera.operator_key": "HEDERA_OPERATOR_KEY",
		"jwt.secret":          "JWT_SECRET",
	}
	var missing []string
	for key, env := range required {
		if v.GetString(key) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		DBSource: v.GetString("db_source"),
		Port:     v.GetString("server_port"),
		Env:      v.GetString("environment"),
		Hedera: HederaConfig{
			Network:     v.GetString("hedera.network"),
			OperatorID:  v.GetString("hedera.operator_id"),
			OperatorKey: v.GetString("hedera.operator_key"),
		},
		JWT:                   JWTConfig{Secret: v.GetString("jwt.secret")},
		StatusRefreshInterval: v.GetDuration("status.refresh_interval"),
		Retry: RetryConfig{
			MaxAttempts:  v.GetInt("retry.max_attempts"),
			InitialDelay: v.GetDuration("retry.initial_delay"),
			Factor:       v.GetFloat64("retry.factor"),
		},
		TxLogWriteTimeout: v.GetDuration("txlog.write_timeout"),
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("ratelimit.rps"),
			Burst: v.GetInt("ratelimit.burst"),
		},
		InitialBalance: v.GetInt64("account.initial_balance"),
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, errors.New("retry.max_attempts must be at least 1")
	}
	if cfg.StatusRefreshInterval <= 0 {
		return nil, errors.New("status.refresh_interval must be positive")
	}
	if cfg.InitialBalance < 0 {
		return nil, errors.New("account.initial_balance cannot be negative")
	}
	return cfg, nil
}
