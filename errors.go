package goAccount

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine was not produced by [Builder.Build].
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrAccountNotFound is returned by repositories when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by [AccountRepository.CreateAccount] when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNilAccount is returned when a repository reports success without an account.
	ErrNilAccount = errors.New("repository returned no account after create")
	// ErrAccountRequired is returned when an operation receives a nil account.
	ErrAccountRequired = errors.New("account is required")
	// ErrNilSession is returned when an operation that needs a session transport receives nil.
	ErrNilSession = errors.New("session transport is required")
	// ErrTwoFactorLimiterUnavailable is returned when the attempt limiter backend fails.
	ErrTwoFactorLimiterUnavailable = errors.New("two-factor limiter unavailable")
	// ErrEmailRateLimited is returned by [Engine.SendConfirmationEmail] when the
	// confirmation limiter refuses another email.
	ErrEmailRateLimited = errors.New("too many email requests")
	// ErrRequestLimiterUnavailable is returned when an email request limiter backend fails.
	ErrRequestLimiterUnavailable = errors.New("email request limiter unavailable")
)

// Reasons recorded on failed outcomes. They never leave the engine as errors.
var (
	errInvalidCredentials = errors.New("invalid credentials")
	errInvalidToken       = errors.New("invalid token")
	errNoPendingSession   = errors.New("no two-factor session")
	errNoSession          = errors.New("no application session")
	errStampRejected      = errors.New("security stamp rejected")
	errRateLimited        = errors.New("rate limited")
)
