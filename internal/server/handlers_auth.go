package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gymbucket/gymbucket/internal/auth"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*auth.LoginResult
}

type registerResponse struct {
	Success              bool         `json:"success"`
	Message              string       `json:"message"`
	User                 *models.User `json:"user"`
	RequiresVerification bool         `json:"requiresVerification"`
}

// authFail maps account errors onto responses; anything unknown falls
// through to fail.
func (s *Server) authFail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked):
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, auth.ErrInvalidResetToken), errors.Is(err, auth.ErrInvalidVerification),
		errors.Is(err, auth.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.authFail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "login successful", LoginResult: res})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in validate.RegistrationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := s.accounts.Register(r.Context(), in)
	if err != nil {
		s.authFail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Success:              true,
		Message:              "registration successful, check your email to verify the account",
		User:                 u,
		RequiresVerification: true,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	res, err := s.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.authFail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Message: "token refreshed", LoginResult: res})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), claimsFromContext(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeOK(w, "logged out")
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email parameter required")
		return
	}
	exists, err := s.accounts.CheckEmail(r.Context(), email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// handleForgotPassword always reports success so the endpoint cannot be
// used to probe for accounts.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validate.Email(req.Email) {
		writeValidation(w, validate.Errors{"email is not valid"})
		return
	}
	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.log.Error("forgot password", "error", err)
	}
	writeOK(w, "if the address is registered, a reset link has been sent")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.accounts.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		s.authFail(w, r, err)
		return
	}
	writeOK(w, "password has been reset")
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.accounts.VerifyEmail(r.Context(), req.Token); err != nil {
		s.authFail(w, r, err)
		return
	}
	writeOK(w, "email verified")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	err := s.accounts.ResendVerification(r.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no account with that email")
		return
	}
	if err != nil {
		s.authFail(w, r, err)
		return
	}
	writeOK(w, "verification email sent")
}
