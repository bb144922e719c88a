package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
)

const maxBodyBytes = 64 << 10

type credentialsRequest struct {
	Email      string `json:"email" validate:"required,email,max=256"`
	Password   string `json:"password" validate:"required,min=8,max=256"`
	RememberMe bool   `json:"rememberMe"`
}

type twoFactorRequest struct {
	Code       string `json:"code" validate:"required,numeric,min=6,max=8"`
	RememberMe bool   `json:"rememberMe"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email,max=256"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email,max=256"`
	Token    string `json:"token" validate:"required,max=4096"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type toggleTwoFactorRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type accountResponse struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	EmailConfirmed   bool   `json:"emailConfirmed"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

type resultResponse struct {
	Result string `json:"result"`
}

func (a *app) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.engine.CreateAccount(r.Context(), a.sessionFor(w, r), req.Email, req.Password)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res != goAccount.CreateAccountSucceeded {
		status = http.StatusConflict
	}
	writeJSON(w, status, resultResponse{Result: res.String()})
}

func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.engine.PasswordSignIn(r.Context(), a.sessionFor(w, r), req.Email, req.Password,
		goAccount.SignInProperties{IsPersistent: req.RememberMe})
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	status := http.StatusOK
	if res == goAccount.PasswordSignInFailed {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resultResponse{Result: res.String()})
}

func (a *app) handleTwoFactorLogin(w http.ResponseWriter, r *http.Request) {
	var req twoFactorRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.engine.TwoFactorSignIn(r.Context(), a.sessionFor(w, r), req.Code, req.RememberMe)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	status := http.StatusOK
	if res != goAccount.TwoFactorSignInSucceeded {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, resultResponse{Result: res.String()})
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.SignOut(r.Context(), a.sessionFor(w, r)); err != nil {
		a.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.engine.SendPasswordResetEmail(r.Context(), req.Email); err != nil {
		a.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *app) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !a.decode(w, r, &req) {
		return
	}
	ok, err := a.engine.ResetPassword(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleMe(w http.ResponseWriter, r *http.Request) {
	account, _ := middleware.AccountFromContext(r.Context())
	writeJSON(w, http.StatusOK, accountResponse{
		ID:               account.ID,
		Email:            account.Email,
		EmailConfirmed:   account.EmailConfirmed,
		TwoFactorEnabled: account.TwoFactorEnabled,
	})
}

func (a *app) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.engine.ConfirmEmail(r.Context(), a.sessionFor(w, r), req.Token)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	status := http.StatusOK
	switch res {
	case goAccount.ConfirmEmailInvalidToken:
		status = http.StatusBadRequest
	case goAccount.ConfirmEmailFailed:
		status = http.StatusConflict
	}
	writeJSON(w, status, resultResponse{Result: res.String()})
}

func (a *app) handleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	account, _ := middleware.AccountFromContext(r.Context())
	if account.EmailConfirmed {
		writeError(w, http.StatusConflict, "email already confirmed")
		return
	}
	if err := a.engine.SendConfirmationEmail(r.Context(), account); err != nil {
		if errors.Is(err, goAccount.ErrEmailRateLimited) {
			writeError(w, http.StatusTooManyRequests, "too many confirmation emails")
			return
		}
		a.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *app) handleToggleTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req toggleTwoFactorRequest
	if !a.decode(w, r, &req) {
		return
	}
	account, _ := middleware.AccountFromContext(r.Context())
	ok, err := a.engine.SetTwoFactorEnabled(r.Context(), a.sessionFor(w, r), account, *req.Enabled)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"twoFactorEnabled": *req.Enabled})
}

// decode reads a JSON body into dst and validates it. On failure it writes a
// 400 and returns false.
func (a *app) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := a.validate.StructCtx(r.Context(), dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func (a *app) internalError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.ErrorContext(r.Context(), "request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
