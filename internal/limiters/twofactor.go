package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTwoFactorMaxAttempts = 5
	defaultTwoFactorCooldown    = time.Minute
	twoFactorKeyPrefix          = "2fa:"
)

var (
	ErrTwoFactorRateLimited = errors.New("two-factor attempts exhausted")
	ErrTwoFactorUnavailable = errors.New("two-factor limiter unavailable")
)

// TwoFactorConfig holds the failure threshold and window.
type TwoFactorConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// TwoFactor counts failed second-factor codes per account in Redis.
type TwoFactor struct {
	redis       redis.UniversalClient
	maxAttempts int64
	cooldown    time.Duration
}

// NewTwoFactor returns a limiter. Zero-value fields in cfg fall back to
// 5 attempts per minute.
func NewTwoFactor(client redis.UniversalClient, cfg TwoFactorConfig) *TwoFactor {
	max := cfg.MaxAttempts
	if max <= 0 {
		max = defaultTwoFactorMaxAttempts
	}
	cd := cfg.Cooldown
	if cd <= 0 {
		cd = defaultTwoFactorCooldown
	}
	return &TwoFactor{redis: client, maxAttempts: int64(max), cooldown: cd}
}

func twoFactorKey(accountID int64) string {
	return twoFactorKeyPrefix + strconv.FormatInt(accountID, 10)
}

// Check returns ErrTwoFactorRateLimited once the account has used up its attempts.
func (l *TwoFactor) Check(ctx context.Context, accountID int64) error {
	if l == nil {
		return nil
	}
	count, err := l.redis.Get(ctx, twoFactorKey(accountID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrTwoFactorUnavailable, err)
	}
	if count >= l.maxAttempts {
		return ErrTwoFactorRateLimited
	}
	return nil
}

// RecordFailure counts one failed code. The window starts at the first failure.
func (l *TwoFactor) RecordFailure(ctx context.Context, accountID int64) error {
	if l == nil {
		return nil
	}
	key := twoFactorKey(accountID)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTwoFactorUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrTwoFactorUnavailable, err)
		}
	}
	if count >= l.maxAttempts {
		return ErrTwoFactorRateLimited
	}
	return nil
}

// Reset clears the counter after a successful sign-in.
func (l *TwoFactor) Reset(ctx context.Context, accountID int64) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, twoFactorKey(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTwoFactorUnavailable, err)
	}
	return nil
}
