package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRequestMax    = 3
	defaultRequestWindow = 15 * time.Minute
)

// Key prefixes for the email request limiters.
const (
	PasswordResetPrefix = "pwreset"
	ConfirmationPrefix  = "confirm"
)

var (
	ErrRequestRateLimited        = errors.New("email requests exhausted")
	ErrRequestLimiterUnavailable = errors.New("request limiter unavailable")
)

// RequestConfig holds the fixed window for one kind of outbound email.
type RequestConfig struct {
	MaxRequests int
	Window      time.Duration
	// ThrottleIP adds a second window per client address.
	ThrottleIP bool
}

// Requests caps how many emails of one kind a recipient, and optionally a
// client address, can trigger per window.
type Requests struct {
	redis       redis.UniversalClient
	prefix      string
	maxRequests int64
	window      time.Duration
	throttleIP  bool
}

// NewRequests returns a limiter whose keys start with prefix. Zero-value
// fields in cfg fall back to 3 requests per 15 minutes.
func NewRequests(client redis.UniversalClient, prefix string, cfg RequestConfig) *Requests {
	max := cfg.MaxRequests
	if max <= 0 {
		max = defaultRequestMax
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultRequestWindow
	}
	return &Requests{
		redis:       client,
		prefix:      prefix,
		maxRequests: int64(max),
		window:      window,
		throttleIP:  cfg.ThrottleIP,
	}
}

// Allow counts one request for identifier and ip. It returns
// ErrRequestRateLimited once either window is exhausted. An empty ip skips
// the address window.
func (l *Requests) Allow(ctx context.Context, identifier, ip string) error {
	if l == nil {
		return nil
	}
	if err := l.enforce(ctx, l.prefix+":"+identifier); err != nil {
		return err
	}
	if l.throttleIP && ip != "" {
		return l.enforce(ctx, l.prefix+"-ip:"+ip)
	}
	return nil
}

func (l *Requests) enforce(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRequestLimiterUnavailable, err)
		}
	}
	if count > l.maxRequests {
		return ErrRequestRateLimited
	}
	return nil
}
