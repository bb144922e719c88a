// Package memory is an in-process [goAccount.AccountRepository] for tests,
// demos and single-instance deployments.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/password"
	"github.com/google/uuid"
)

// Repository keeps accounts in a map guarded by a mutex. Emails are matched
// case-insensitively. Every credential or two-factor change draws a new
// random security stamp.
type Repository struct {
	mu      sync.RWMutex
	hasher  password.Hasher
	decoy   *password.Decoy
	nextID  int64
	byID    map[int64]*goAccount.Account
	byEmail map[string]int64
}

var _ goAccount.AccountRepository = (*Repository)(nil)

// New returns an empty repository hashing with hasher. A nil hasher selects
// [password.NewDefault].
func New(hasher password.Hasher) *Repository {
	if hasher == nil {
		hasher = password.NewDefault()
	}
	return &Repository{
		hasher:  hasher,
		decoy:   password.NewDecoy(hasher),
		byID:    map[int64]*goAccount.Account{},
		byEmail: map[string]int64{},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newStamp() string {
	return uuid.NewString()
}

func clone(a *goAccount.Account) *goAccount.Account {
	copied := *a
	return &copied
}

func (r *Repository) GetAccountByEmailAndPassword(ctx context.Context, email, pass string) (*goAccount.Account, error) {
	account, err := r.GetAccountByEmail(ctx, email)
	if errors.Is(err, goAccount.ErrAccountNotFound) {
		r.decoy.Verify(pass)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	ok, err := r.hasher.Verify(pass, account.PasswordHash)
	if err != nil || !ok {
		return nil, goAccount.ErrAccountNotFound
	}
	return account, nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*goAccount.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, goAccount.ErrAccountNotFound
	}
	return clone(a), nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*goAccount.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, goAccount.ErrAccountNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *Repository) CreateAccount(ctx context.Context, email, pass string) (*goAccount.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := r.hasher.Hash(pass)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(email)
	if _, taken := r.byEmail[key]; taken {
		return nil, goAccount.ErrDuplicateEmail
	}
	r.nextID++
	a := &goAccount.Account{
		ID:            r.nextID,
		Email:         strings.TrimSpace(email),
		PasswordHash:  hash,
		SecurityStamp: newStamp(),
	}
	r.byID[a.ID] = a
	r.byEmail[key] = a.ID
	return clone(a), nil
}

// UpdateAccountEmailConfirmed sets the confirmed flag. The stamp is kept, so
// existing sessions stay valid.
func (r *Repository) UpdateAccountEmailConfirmed(ctx context.Context, id int64) (bool, error) {
	return r.update(ctx, id, false, func(a *goAccount.Account) {
		a.EmailConfirmed = true
	})
}

func (r *Repository) UpdateAccountPasswordHash(ctx context.Context, id int64, pass string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	hash, err := r.hasher.Hash(pass)
	if err != nil {
		return false, err
	}
	return r.update(ctx, id, true, func(a *goAccount.Account) {
		a.PasswordHash = hash
	})
}

func (r *Repository) UpdateAccountTwoFactorEnabled(ctx context.Context, id int64, enabled bool) (bool, error) {
	return r.update(ctx, id, true, func(a *goAccount.Account) {
		a.TwoFactorEnabled = enabled
	})
}

func (r *Repository) update(ctx context.Context, id int64, rotate bool, fn func(*goAccount.Account)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	fn(a)
	if rotate {
		a.SecurityStamp = newStamp()
	}
	return true, nil
}

// Len reports how many accounts are stored.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
