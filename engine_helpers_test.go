package goAccount

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/session"
	"github.com/google/uuid"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type fakeRepository struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*Account
	byEmail  map[string]int64
	password map[int64]string

	getErr      error
	createErr   error
	nilOnCreate bool
	updateFalse bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		accounts: map[int64]*Account{},
		byEmail:  map[string]int64{},
		password: map[int64]string{},
	}
}

func (r *fakeRepository) add(email, password string, twoFactor, confirmed bool) *Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a := &Account{
		ID:               r.nextID,
		Email:            email,
		PasswordHash:     "plain:" + password,
		TwoFactorEnabled: twoFactor,
		EmailConfirmed:   confirmed,
		SecurityStamp:    uuid.NewString(),
	}
	r.accounts[a.ID] = a
	r.byEmail[strings.ToLower(email)] = a.ID
	r.password[a.ID] = password
	copied := *a
	return &copied
}

func (r *fakeRepository) lookup(id int64) (*Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeRepository) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			n++
		}
	}
	return n
}

func (r *fakeRepository) GetAccountByEmailAndPassword(ctx context.Context, email, password string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok || r.password[id] != password {
		return nil, ErrAccountNotFound
	}
	return r.lookup(id)
}

func (r *fakeRepository) GetAccount(ctx context.Context, id int64) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.lookup(id)
}

func (r *fakeRepository) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return r.lookup(id)
}

func (r *fakeRepository) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	_, taken := r.byEmail[strings.ToLower(email)]
	r.mu.Unlock()
	if taken {
		return nil, ErrDuplicateEmail
	}
	a := r.add(email, password, false, false)
	if r.nilOnCreate {
		return nil, nil
	}
	return a, nil
}

func (r *fakeRepository) UpdateAccountEmailConfirmed(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || r.updateFalse {
		return false, nil
	}
	a.EmailConfirmed = true
	return true, nil
}

func (r *fakeRepository) UpdateAccountPasswordHash(ctx context.Context, id int64, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || r.updateFalse {
		return false, nil
	}
	a.PasswordHash = "plain:" + password
	a.SecurityStamp = uuid.NewString()
	r.password[id] = password
	return true, nil
}

func (r *fakeRepository) UpdateAccountTwoFactorEnabled(ctx context.Context, id int64, enabled bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || r.updateFalse {
		return false, nil
	}
	a.TwoFactorEnabled = enabled
	a.SecurityStamp = uuid.NewString()
	return true, nil
}

type sentEmail struct {
	Body      string
	Recipient string
	Subject   string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (s *recordingSender) SendEmail(ctx context.Context, body, recipient, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentEmail{Body: body, Recipient: recipient, Subject: subject})
	return nil
}

func (s *recordingSender) messages() []sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEmail(nil), s.sent...)
}

func (s *recordingSender) last(t *testing.T) sentEmail {
	t.Helper()
	msgs := s.messages()
	if len(msgs) == 0 {
		t.Fatal("expected an email to have been sent")
	}
	return msgs[len(msgs)-1]
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	// Aligned to a 180s step so codes stay in the same window during a test.
	return &testClock{now: time.Unix(1_800_000_000-1_800_000_000%180, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Tokens.PrivateKey = []byte(testSigningKey)
	cfg.Metrics.Enabled = true
	return cfg
}

type testEnv struct {
	engine *Engine
	repo   *fakeRepository
	sender *recordingSender
	clock  *testClock
}

func newTestEnv(t *testing.T, cfg Config, opts ...func(*Builder)) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:   newFakeRepository(),
		sender: &recordingSender{},
		clock:  newTestClock(),
	}
	b := New().
		WithConfig(cfg).
		WithRepository(env.repo).
		WithEmailSender(env.sender).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func tokenFromBody(t *testing.T, body, prefix string) string {
	t.Helper()
	tok, ok := strings.CutPrefix(body, prefix)
	if !ok || tok == "" {
		t.Fatalf("body %q does not start with %q", body, prefix)
	}
	return tok
}

func hasPrincipal(t *testing.T, sess *session.Memory, scheme string) bool {
	t.Helper()
	p, err := sess.Authenticate(context.Background(), scheme)
	if err != nil {
		t.Fatalf("Authenticate(%s) failed: %v", scheme, err)
	}
	return p != nil
}

var errBackendDown = errors.New("backend down")

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
