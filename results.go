package goAccount

// PasswordSignInResult is the outcome of [Engine.PasswordSignIn].
type PasswordSignInResult uint8

const (
	PasswordSignInFailed PasswordSignInResult = iota
	PasswordSignInSucceeded
	PasswordSignInTwoFactorRequired
)

func (r PasswordSignInResult) String() string {
	switch r {
	case PasswordSignInSucceeded:
		return "succeeded"
	case PasswordSignInTwoFactorRequired:
		return "two_factor_required"
	default:
		return "failed"
	}
}

// TwoFactorSignInResult is the outcome of [Engine.TwoFactorSignIn].
type TwoFactorSignInResult uint8

const (
	TwoFactorSignInFailed TwoFactorSignInResult = iota
	TwoFactorSignInSucceeded
)

func (r TwoFactorSignInResult) String() string {
	if r == TwoFactorSignInSucceeded {
		return "succeeded"
	}
	return "failed"
}

// CreateAccountResult is the outcome of [Engine.CreateAccount].
type CreateAccountResult uint8

const (
	CreateAccountFailed CreateAccountResult = iota
	CreateAccountSucceeded
)

func (r CreateAccountResult) String() string {
	if r == CreateAccountSucceeded {
		return "succeeded"
	}
	return "failed"
}

// ConfirmEmailResult is the outcome of [Engine.ConfirmEmail].
type ConfirmEmailResult uint8

const (
	ConfirmEmailFailed ConfirmEmailResult = iota
	ConfirmEmailInvalidToken
	ConfirmEmailSucceeded
)

func (r ConfirmEmailResult) String() string {
	switch r {
	case ConfirmEmailInvalidToken:
		return "invalid_token"
	case ConfirmEmailSucceeded:
		return "succeeded"
	default:
		return "failed"
	}
}
