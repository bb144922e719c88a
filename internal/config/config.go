// Package config loads the accountd daemon configuration from a YAML file
// with environment overrides.
package config

import (
	"os"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/notify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix marks environment variables that override file values, e.g.
// GOACCOUNT_HTTP_ADDR or GOACCOUNT_TOKENS_SIGNINGKEY.
const EnvPrefix = "GOACCOUNT_"

const (
	EmailModeSMTP = "smtp"
	EmailModeFile = "file"
	EmailModeLog  = "log"
)

type Config struct {
	Env struct {
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Addr     string `json:"addr" yaml:"addr"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
			ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Postgres selects the Postgres store when DSN is set; otherwise accounts
	// live in memory.
	Postgres struct {
		DSN            string `json:"dsn" yaml:"dsn"`
		MigrateOnStart bool   `json:"migrateOnStart" yaml:"migrateOnStart"`
	} `json:"postgres" yaml:"postgres"`

	Redis struct {
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
	} `json:"redis" yaml:"redis"`

	Cookies Cookies `json:"cookies" yaml:"cookies"`

	Tokens struct {
		SigningKey            string        `json:"signingKey" yaml:"signingKey"`
		Issuer                string        `json:"issuer" yaml:"issuer"`
		ProtectorTTL          time.Duration `json:"protectorTtl" yaml:"protectorTtl"`
		TOTPPeriod            time.Duration `json:"totpPeriod" yaml:"totpPeriod"`
		TOTPDigits            int           `json:"totpDigits" yaml:"totpDigits"`
		PasswordUpdatePurpose string        `json:"passwordUpdatePurpose" yaml:"passwordUpdatePurpose"`
	} `json:"tokens" yaml:"tokens"`

	TwoFactorLimiter struct {
		Enabled     bool          `json:"enabled" yaml:"enabled"`
		MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
		Cooldown    time.Duration `json:"cooldown" yaml:"cooldown"`
	} `json:"twoFactorLimiter" yaml:"twoFactorLimiter"`

	EmailLimits struct {
		PasswordReset RequestLimit `json:"passwordReset" yaml:"passwordReset"`
		Confirmation  RequestLimit `json:"confirmation" yaml:"confirmation"`
	} `json:"emailLimits" yaml:"emailLimits"`

	Email struct {
		Mode string              `json:"mode" yaml:"mode"`
		SMTP notify.EmailOptions `json:"smtp" yaml:"smtp"`
	} `json:"email" yaml:"email"`

	Audit struct {
		Enabled    bool `json:"enabled" yaml:"enabled"`
		BufferSize int  `json:"bufferSize" yaml:"bufferSize"`
	} `json:"audit" yaml:"audit"`

	Metrics struct {
		Enabled           bool `json:"enabled" yaml:"enabled"`
		LatencyHistograms bool `json:"latencyHistograms" yaml:"latencyHistograms"`
	} `json:"metrics" yaml:"metrics"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

type Cookies struct {
	Prefix       string        `json:"prefix" yaml:"prefix"`
	Domain       string        `json:"domain" yaml:"domain"`
	Secure       bool          `json:"secure" yaml:"secure"`
	TTL          time.Duration `json:"ttl" yaml:"ttl"`
	TwoFactorTTL time.Duration `json:"twoFactorTtl" yaml:"twoFactorTtl"`
}

// RequestLimit caps one kind of outbound email.
type RequestLimit struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	MaxRequests int           `json:"maxRequests" yaml:"maxRequests"`
	Window      time.Duration `json:"window" yaml:"window"`
	ThrottleIP  bool          `json:"throttleIp" yaml:"throttleIp"`
}

func (l RequestLimit) engine() goAccount.RequestLimiterConfig {
	return goAccount.RequestLimiterConfig{
		Enabled:     l.Enabled,
		MaxRequests: l.MaxRequests,
		Window:      l.Window,
		ThrottleIP:  l.ThrottleIP,
	}
}

// Default returns the configuration used for keys absent from both the file
// and the environment.
func Default() *Config {
	cfg := &Config{}
	cfg.Env.ServiceName = "accountd"
	cfg.Env.Log.Level = "info"

	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.Timeouts.ReadTimeout = 10 * time.Second
	cfg.HTTP.Timeouts.ReadHeaderTimeout = 5 * time.Second
	cfg.HTTP.Timeouts.WriteTimeout = 10 * time.Second
	cfg.HTTP.Timeouts.IdleTimeout = 60 * time.Second
	cfg.HTTP.Timeouts.ShutdownTimeout = 15 * time.Second

	cfg.Cookies.Prefix = "goaccount"
	cfg.Cookies.Secure = true
	cfg.Cookies.TTL = 14 * 24 * time.Hour
	cfg.Cookies.TwoFactorTTL = 5 * time.Minute

	engine := goAccount.DefaultConfig()
	cfg.Tokens.Issuer = engine.Tokens.Issuer
	cfg.Tokens.ProtectorTTL = engine.Tokens.ProtectorTTL
	cfg.Tokens.TOTPPeriod = engine.Tokens.TOTPPeriod
	cfg.Tokens.TOTPDigits = engine.Tokens.TOTPDigits
	cfg.Tokens.PasswordUpdatePurpose = engine.Tokens.PasswordUpdatePurpose

	cfg.TwoFactorLimiter.MaxAttempts = engine.TwoFactorLimiter.MaxAttempts
	cfg.TwoFactorLimiter.Cooldown = engine.TwoFactorLimiter.Cooldown

	cfg.EmailLimits.PasswordReset.MaxRequests = engine.PasswordResetLimiter.MaxRequests
	cfg.EmailLimits.PasswordReset.Window = engine.PasswordResetLimiter.Window
	cfg.EmailLimits.Confirmation.MaxRequests = engine.ConfirmationLimiter.MaxRequests
	cfg.EmailLimits.Confirmation.Window = engine.ConfirmationLimiter.Window

	cfg.Email.Mode = EmailModeLog
	cfg.Email.SMTP = notify.DefaultEmailOptions()

	cfg.Audit.BufferSize = engine.Audit.BufferSize
	return cfg
}

// Load reads path (when non-empty) over [Default] and applies GOACCOUNT_*
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s failed", path)
		}
	}

	known := structKeys(cfg)
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, v string) (string, any) {
			return canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), known), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the engine does not validate itself.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	switch c.Email.Mode {
	case EmailModeSMTP, EmailModeFile, EmailModeLog:
	default:
		return errors.Errorf("unknown email mode %q", c.Email.Mode)
	}
	if c.TwoFactorLimiter.Enabled && c.Redis.Addr == "" {
		return errors.New("twoFactorLimiter requires redis.addr")
	}
	if (c.EmailLimits.PasswordReset.Enabled || c.EmailLimits.Confirmation.Enabled) && c.Redis.Addr == "" {
		return errors.New("emailLimits require redis.addr")
	}
	if len(c.Tokens.SigningKey) < 32 {
		return errors.New("tokens.signingKey must be at least 32 bytes")
	}
	return nil
}

// Engine maps the daemon settings onto an engine configuration.
func (c *Config) Engine() goAccount.Config {
	cfg := goAccount.DefaultConfig()
	cfg.Tokens.PrivateKey = []byte(c.Tokens.SigningKey)
	cfg.Tokens.Issuer = c.Tokens.Issuer
	cfg.Tokens.ProtectorTTL = c.Tokens.ProtectorTTL
	cfg.Tokens.TOTPPeriod = c.Tokens.TOTPPeriod
	cfg.Tokens.TOTPDigits = c.Tokens.TOTPDigits
	cfg.Tokens.PasswordUpdatePurpose = c.Tokens.PasswordUpdatePurpose
	cfg.TwoFactorLimiter.Enabled = c.TwoFactorLimiter.Enabled
	cfg.TwoFactorLimiter.MaxAttempts = c.TwoFactorLimiter.MaxAttempts
	cfg.TwoFactorLimiter.Cooldown = c.TwoFactorLimiter.Cooldown
	cfg.PasswordResetLimiter = c.EmailLimits.PasswordReset.engine()
	cfg.ConfirmationLimiter = c.EmailLimits.Confirmation.engine()
	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.LatencyHistograms
	return cfg
}
