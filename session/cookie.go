package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/principal"
)

const (
	defaultCookiePrefix  = "goaccount"
	defaultCookieTTL     = 14 * 24 * time.Hour
	defaultPendingScheme = "TwoFactor"
	defaultPendingTTL    = 5 * time.Minute
)

// CookieOptions configure [Cookies].
type CookieOptions struct {
	Prefix   string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	// TTL is the lifetime of a signed principal.
	TTL time.Duration
	// SchemeTTL overrides TTL for individual schemes.
	SchemeTTL map[string]time.Duration
	// PendingScheme names the two-factor pending scheme. Unless SchemeTTL
	// sets it, its cookies live for 5 minutes. Defaults to "TwoFactor".
	PendingScheme string
}

// Cookies creates per-request cookie transports sharing one codec.
type Cookies struct {
	codec *Codec
	opts  CookieOptions
}

// NewCookies returns a cookie transport factory.
func NewCookies(codec *Codec, opts CookieOptions) *Cookies {
	if opts.Prefix == "" {
		opts.Prefix = defaultCookiePrefix
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultCookieTTL
	}
	if opts.PendingScheme == "" {
		opts.PendingScheme = defaultPendingScheme
	}
	schemeTTL := make(map[string]time.Duration, len(opts.SchemeTTL)+1)
	for k, v := range opts.SchemeTTL {
		schemeTTL[k] = v
	}
	if d := schemeTTL[opts.PendingScheme]; d <= 0 {
		schemeTTL[opts.PendingScheme] = defaultPendingTTL
	}
	opts.SchemeTTL = schemeTTL
	return &Cookies{codec: codec, opts: opts}
}

// CookieName returns the cookie that carries scheme.
func (c *Cookies) CookieName(scheme string) string {
	return c.opts.Prefix + "." + strings.ToLower(scheme)
}

func (c *Cookies) ttl(scheme string) time.Duration {
	if d, ok := c.opts.SchemeTTL[scheme]; ok && d > 0 {
		return d
	}
	return c.opts.TTL
}

// ForRequest binds a transport to one request/response pair.
func (c *Cookies) ForRequest(w http.ResponseWriter, r *http.Request) *CookieSession {
	return &CookieSession{cookies: c, w: w, r: r, written: map[string]*entry{}}
}

type entry struct {
	p     *principal.Principal
	props Properties
}

// CookieSession reads principals from request cookies and writes sign-in and
// sign-out results to the response. Writes made during the request are visible
// to later Authenticate calls on the same value.
type CookieSession struct {
	cookies *Cookies
	w       http.ResponseWriter
	r       *http.Request

	mu      sync.Mutex
	written map[string]*entry
}

// SignIn issues a signed cookie for p under scheme.
func (s *CookieSession) SignIn(ctx context.Context, scheme string, p *principal.Principal, props Properties) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ttl := s.cookies.ttl(scheme)
	value, err := s.cookies.codec.Encode(p, props, ttl)
	if err != nil {
		return err
	}

	cookie := s.baseCookie(scheme)
	cookie.Value = value
	if props.IsPersistent {
		cookie.MaxAge = int(ttl / time.Second)
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(s.w, cookie)

	s.mu.Lock()
	s.written[scheme] = &entry{p: p, props: props}
	s.mu.Unlock()
	return nil
}

// SignOut expires the cookie for scheme. Signing out an absent scheme is a no-op
// apart from the expiring cookie header.
func (s *CookieSession) SignOut(ctx context.Context, scheme string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cookie := s.baseCookie(scheme)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(s.w, cookie)

	s.mu.Lock()
	s.written[scheme] = nil
	s.mu.Unlock()
	return nil
}

// Authenticate returns the principal for scheme, or nil when the cookie is
// absent, expired or fails verification.
func (s *CookieSession) Authenticate(ctx context.Context, scheme string) (*principal.Principal, error) {
	p, _, err := s.lookup(ctx, scheme)
	return p, err
}

// Properties reports how the principal for scheme was persisted.
func (s *CookieSession) Properties(ctx context.Context, scheme string) (Properties, bool) {
	p, props, err := s.lookup(ctx, scheme)
	if err != nil || p == nil {
		return Properties{}, false
	}
	return props, true
}

func (s *CookieSession) lookup(ctx context.Context, scheme string) (*principal.Principal, Properties, error) {
	if err := ctx.Err(); err != nil {
		return nil, Properties{}, err
	}

	s.mu.Lock()
	e, touched := s.written[scheme]
	s.mu.Unlock()
	if touched {
		if e == nil {
			return nil, Properties{}, nil
		}
		return e.p, e.props, nil
	}

	if s.r == nil {
		return nil, Properties{}, nil
	}
	c, err := s.r.Cookie(s.cookies.CookieName(scheme))
	if err != nil || c.Value == "" {
		return nil, Properties{}, nil
	}
	p, props, err := s.cookies.codec.Decode(c.Value, scheme)
	if err != nil {
		return nil, Properties{}, nil
	}
	return p, props, nil
}

func (s *CookieSession) baseCookie(scheme string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookies.CookieName(scheme),
		Path:     s.cookies.opts.Path,
		Domain:   s.cookies.opts.Domain,
		Secure:   s.cookies.opts.Secure,
		HttpOnly: true,
		SameSite: s.cookies.opts.SameSite,
	}
}
