package goAccount

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/token"
)

// Config is the complete engine configuration.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Schemes              SchemeConfig
	Claims               ClaimConfig
	Tokens               TokenConfig
	TwoFactorLimiter     TwoFactorLimiterConfig
	PasswordResetLimiter RequestLimiterConfig
	ConfirmationLimiter  RequestLimiterConfig
	Email                EmailConfig
	Audit                AuditConfig
	Metrics              MetricsConfig
}

/*
====================================
SCHEME CONFIG
====================================
*/

// SchemeConfig names the two authentication schemes.
type SchemeConfig struct {
	Application string
	TwoFactor   string
}

/*
====================================
CLAIM CONFIG
====================================
*/

// ClaimConfig names the claim types written into principals. An empty Email
// omits the email claim.
type ClaimConfig struct {
	AccountID     string
	SecurityStamp string
	Email         string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig selects a provider per purpose and configures both providers.
type TokenConfig struct {
	// Purposes maps a purpose to "protector" or "totp".
	Purposes map[string]string

	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	ProtectorTTL  time.Duration

	TOTPDigits    int
	TOTPPeriod    time.Duration
	TOTPAlgorithm string
	TOTPPepper    []byte

	// PasswordUpdatePurpose is the purpose UpdatePassword and ResetPassword
	// validate tokens against.
	PasswordUpdatePurpose string
}

/*
====================================
TWO-FACTOR LIMITER CONFIG
====================================
*/

// TwoFactorLimiterConfig caps failed second-factor codes per account.
// Enabling it requires a Redis client.
type TwoFactorLimiterConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

// RequestLimiterConfig caps outbound emails of one kind in a fixed window.
// PasswordResetLimiter counts per requested address, ConfirmationLimiter per
// account. Enabling either requires a Redis client.
type RequestLimiterConfig struct {
	Enabled     bool
	MaxRequests int
	Window      time.Duration
	// ThrottleIP also counts requests per client address (see [WithClientIP]).
	ThrottleIP bool
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailConfig holds notification subjects and body prefixes. The token or
// code is appended to the prefix.
type EmailConfig struct {
	ConfirmationSubject     string
	ConfirmationBodyPrefix  string
	TwoFactorSubject        string
	TwoFactorBodyPrefix     string
	PasswordResetSubject    string
	PasswordResetBodyPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters and the stamp-validation histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the defaults. Tokens.PrivateKey must still be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Schemes: SchemeConfig{
			Application: "Application",
			TwoFactor:   "TwoFactor",
		},
		Claims: ClaimConfig{
			AccountID:     "AccountId",
			SecurityStamp: "SecurityStamp",
			Email:         "Email",
		},
		Tokens: TokenConfig{
			Purposes: map[string]string{
				token.PurposeEmailConfirmation: token.ProviderProtector,
				token.PurposeTwoFactor:         token.ProviderTOTP,
				token.PurposePasswordReset:     token.ProviderProtector,
			},
			SigningMethod:         "hs256",
			Issuer:                "goaccount",
			ProtectorTTL:          token.DefaultProtectorTTL,
			TOTPDigits:            6,
			TOTPPeriod:            180 * time.Second,
			TOTPAlgorithm:         "SHA1",
			PasswordUpdatePurpose: token.PurposePasswordReset,
		},
		TwoFactorLimiter: TwoFactorLimiterConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Cooldown:    time.Minute,
		},
		PasswordResetLimiter: RequestLimiterConfig{
			Enabled:     false,
			MaxRequests: 3,
			Window:      15 * time.Minute,
		},
		ConfirmationLimiter: RequestLimiterConfig{
			Enabled:     false,
			MaxRequests: 3,
			Window:      15 * time.Minute,
		},
		Email: EmailConfig{
			ConfirmationSubject:     "confirmation email",
			ConfirmationBodyPrefix:  "your link:",
			TwoFactorSubject:        "security code",
			TwoFactorBodyPrefix:     "Your security code is: ",
			PasswordResetSubject:    "password reset",
			PasswordResetBodyPrefix: "your password reset link:",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Tokens.PrivateKey = cloneBytes(cfg.Tokens.PrivateKey)
	out.Tokens.PublicKey = cloneBytes(cfg.Tokens.PublicKey)
	out.Tokens.TOTPPepper = cloneBytes(cfg.Tokens.TOTPPepper)
	if cfg.Tokens.Purposes != nil {
		out.Tokens.Purposes = make(map[string]string, len(cfg.Tokens.Purposes))
		for k, v := range cfg.Tokens.Purposes {
			out.Tokens.Purposes[k] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Schemes
	if c.Schemes.Application == "" || c.Schemes.TwoFactor == "" {
		return errors.New("Schemes Application and TwoFactor must be set")
	}
	if c.Schemes.Application == c.Schemes.TwoFactor {
		return errors.New("Schemes Application and TwoFactor must differ")
	}

	// Claims
	if c.Claims.AccountID == "" || c.Claims.SecurityStamp == "" {
		return errors.New("Claims AccountID and SecurityStamp must be set")
	}
	if c.Claims.AccountID == c.Claims.SecurityStamp {
		return errors.New("Claims AccountID and SecurityStamp must differ")
	}

	// Tokens
	if c.Tokens.SigningMethod != "hs256" && c.Tokens.SigningMethod != "ed25519" {
		return errors.New("unsupported Tokens SigningMethod")
	}
	if len(c.Tokens.PrivateKey) == 0 {
		return errors.New("Tokens PrivateKey is required")
	}
	if c.Tokens.SigningMethod == "hs256" && len(c.Tokens.PrivateKey) < 32 {
		return errors.New("Tokens hs256 PrivateKey must be at least 32 bytes")
	}
	if c.Tokens.SigningMethod == "ed25519" && len(c.Tokens.PublicKey) == 0 {
		return errors.New("Tokens ed25519 requires PublicKey")
	}
	if c.Tokens.ProtectorTTL <= 0 {
		return errors.New("Tokens ProtectorTTL must be > 0")
	}
	if c.Tokens.TOTPDigits != 6 && c.Tokens.TOTPDigits != 8 {
		return errors.New("Tokens TOTPDigits must be 6 or 8")
	}
	if c.Tokens.TOTPPeriod < time.Second {
		return errors.New("Tokens TOTPPeriod must be >= 1s")
	}
	if c.Tokens.PasswordUpdatePurpose == "" {
		return errors.New("Tokens PasswordUpdatePurpose must be set")
	}
	for _, purpose := range []string{
		token.PurposeEmailConfirmation,
		token.PurposeTwoFactor,
		c.Tokens.PasswordUpdatePurpose,
	} {
		if _, ok := c.Tokens.Purposes[purpose]; !ok {
			return errors.New("Tokens Purposes must map " + purpose)
		}
	}

	// Two-factor limiter
	if c.TwoFactorLimiter.Enabled {
		if c.TwoFactorLimiter.MaxAttempts <= 0 {
			return errors.New("TwoFactorLimiter MaxAttempts must be > 0")
		}
		if c.TwoFactorLimiter.Cooldown <= 0 {
			return errors.New("TwoFactorLimiter Cooldown must be > 0")
		}
	}

	for name, l := range map[string]RequestLimiterConfig{
		"PasswordResetLimiter": c.PasswordResetLimiter,
		"ConfirmationLimiter":  c.ConfirmationLimiter,
	} {
		if !l.Enabled {
			continue
		}
		if l.MaxRequests <= 0 {
			return errors.New(name + " MaxRequests must be > 0")
		}
		if l.Window <= 0 {
			return errors.New(name + " Window must be > 0")
		}
	}

	// Email
	if c.Email.ConfirmationSubject == "" || c.Email.TwoFactorSubject == "" || c.Email.PasswordResetSubject == "" {
		return errors.New("Email subjects must be set")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
