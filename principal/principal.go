package principal

import (
	"context"
	"errors"
	"strconv"
)

// Default claim type names.
const (
	DefaultAccountIDClaimType     = "AccountId"
	DefaultSecurityStampClaimType = "SecurityStamp"
	DefaultEmailClaimType         = "Email"
)

// Claim is one typed value in a principal.
type Claim struct {
	Type  string `json:"t"`
	Value string `json:"v"`
}

// Principal is the claim set behind one authentication scheme.
type Principal struct {
	Scheme string
	Claims []Claim
}

// FindFirst returns the first claim of claimType.
func (p *Principal) FindFirst(claimType string) (Claim, bool) {
	if p == nil {
		return Claim{}, false
	}
	for _, c := range p.Claims {
		if c.Type == claimType {
			return c, true
		}
	}
	return Claim{}, false
}

// AccountID parses the account id held in claimType.
func (p *Principal) AccountID(claimType string) (int64, bool) {
	c, ok := p.FindFirst(claimType)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Identity is the account state a principal is created from.
type Identity struct {
	AccountID     int64
	Email         string
	SecurityStamp string
}

// Enricher appends extra claims to an application principal. Returning an
// error aborts principal creation.
type Enricher func(ctx context.Context, id Identity) ([]Claim, error)

// Options names the claim types and the scheme that carries the stamp.
type Options struct {
	AccountIDClaimType     string
	SecurityStampClaimType string
	EmailClaimType         string
	ApplicationScheme      string
}

// Builder creates principals for both authentication schemes.
type Builder struct {
	opts      Options
	enrichers []Enricher
}

// NewBuilder returns a builder. Empty claim type names fall back to the defaults.
func NewBuilder(opts Options, enrichers ...Enricher) (*Builder, error) {
	if opts.ApplicationScheme == "" {
		return nil, errors.New("application scheme is required")
	}
	if opts.AccountIDClaimType == "" {
		opts.AccountIDClaimType = DefaultAccountIDClaimType
	}
	if opts.SecurityStampClaimType == "" {
		opts.SecurityStampClaimType = DefaultSecurityStampClaimType
	}
	if opts.AccountIDClaimType == opts.SecurityStampClaimType {
		return nil, errors.New("account id and security stamp claim types must differ")
	}
	return &Builder{opts: opts, enrichers: append([]Enricher(nil), enrichers...)}, nil
}

// Options returns the builder's claim configuration.
func (b *Builder) Options() Options { return b.opts }

// CreatePrincipal builds a principal carrying only the account id claim.
func (b *Builder) CreatePrincipal(accountID int64, scheme string) *Principal {
	return &Principal{
		Scheme: scheme,
		Claims: []Claim{{Type: b.opts.AccountIDClaimType, Value: strconv.FormatInt(accountID, 10)}},
	}
}

// CreatePrincipalContext builds a principal for id. The application scheme
// also carries the security stamp, the configured email claim and any
// enricher claims. Other schemes carry only the account id.
func (b *Builder) CreatePrincipalContext(ctx context.Context, id Identity, scheme string) (*Principal, error) {
	p := b.CreatePrincipal(id.AccountID, scheme)
	if scheme != b.opts.ApplicationScheme {
		return p, nil
	}
	if id.SecurityStamp == "" {
		return nil, errors.New("application principal requires a security stamp")
	}

	p.Claims = append(p.Claims, Claim{Type: b.opts.SecurityStampClaimType, Value: id.SecurityStamp})
	if b.opts.EmailClaimType != "" && id.Email != "" {
		p.Claims = append(p.Claims, Claim{Type: b.opts.EmailClaimType, Value: id.Email})
	}
	for _, enrich := range b.enrichers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		extra, err := enrich(ctx, id)
		if err != nil {
			return nil, err
		}
		p.Claims = append(p.Claims, extra...)
	}
	return p, nil
}
