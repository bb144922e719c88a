package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	defaultTOTPPeriod = 180 * time.Second
	defaultTOTPDigits = 6
)

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// TOTPConfig configures [TOTPProvider].
type TOTPConfig struct {
	// Digits is 6 or 8. Zero selects 6.
	Digits int
	// Period is the time step. Zero selects 180s.
	Period time.Duration
	// Algorithm is "SHA1", "SHA256" or "SHA512". Empty selects SHA1.
	Algorithm string
	// Pepper is an optional server-side secret mixed into every derived key.
	Pepper []byte
	// Now overrides the clock.
	Now func() time.Time
}

// TOTPProvider issues numeric time-based codes whose key is derived from the
// subject's security stamp, the purpose and the subject id. Codes are accepted
// in the current time step and one adjacent step on either side.
type TOTPProvider struct {
	opts   totp.ValidateOpts
	digits int
	pepper []byte
	now    func() time.Time
}

// NewTOTPProvider validates cfg and returns a provider.
func NewTOTPProvider(cfg TOTPConfig) (*TOTPProvider, error) {
	if cfg.Digits == 0 {
		cfg.Digits = defaultTOTPDigits
	}
	if cfg.Period == 0 {
		cfg.Period = defaultTOTPPeriod
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var digits otp.Digits
	switch cfg.Digits {
	case 6:
		digits = otp.DigitsSix
	case 8:
		digits = otp.DigitsEight
	default:
		return nil, errors.New("totp digits must be 6 or 8")
	}
	if cfg.Period < time.Second || cfg.Period%time.Second != 0 {
		return nil, errors.New("totp period must be a whole number of seconds")
	}
	alg, err := parseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	return &TOTPProvider{
		opts: totp.ValidateOpts{
			Period:    uint(cfg.Period / time.Second),
			Skew:      1,
			Digits:    digits,
			Algorithm: alg,
		},
		digits: cfg.Digits,
		pepper: append([]byte(nil), cfg.Pepper...),
		now:    cfg.Now,
	}, nil
}

// Name implements [Provider].
func (p *TOTPProvider) Name() string { return ProviderTOTP }

// Generate implements [Provider].
func (p *TOTPProvider) Generate(ctx context.Context, purpose string, s Subject) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.valid() {
		return "", ErrInvalidSubject
	}
	return totp.GenerateCodeCustom(p.secret(purpose, s), p.now(), p.opts)
}

// Validate implements [Provider].
func (p *TOTPProvider) Validate(ctx context.Context, purpose, code string, s Subject) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if ctx.Err() != nil || !s.valid() || !isNumeric(code, p.digits) {
		return false
	}
	valid, err := totp.ValidateCustom(code, p.secret(purpose, s), p.now(), p.opts)
	return err == nil && valid
}

func (p *TOTPProvider) secret(purpose string, s Subject) string {
	key := make([]byte, 0, len(p.pepper)+len(s.SecurityStamp))
	key = append(key, p.pepper...)
	key = append(key, s.SecurityStamp...)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("totp:" + purpose + ":" + s.idString()))
	return secretEncoding.EncodeToString(mac.Sum(nil))
}

func isNumeric(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func parseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	default:
		return 0, errors.New("unsupported totp algorithm")
	}
}
