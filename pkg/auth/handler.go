package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pocketplan/pocketplan/internal/rest"
	"github.com/pocketplan/pocketplan/internal/validation"
	"github.com/pocketplan/pocketplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type RegisterDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type CredentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CodeDTO struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResetDTO struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type EmailDTO struct {
	Email string `json:"email"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Uid       string    `json:"uid"`
}

type RegisteredDTO struct {
	Uid      string `json:"uid"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register godoc
// @Summary Register a new account
// @Description Creates an unverified account and mails a verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterDTO true "Account"
// @Success 201 {object} RegisteredDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Email already registered"
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if !decode(w, r, &dto) {
		return
	}
	created, err := h.service.Register(r.Context(), dto.Email, dto.Password, dto.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, RegisteredDTO{
		Uid:      created.Uid,
		Email:    created.Email,
		Verified: created.Verified,
	})
}

// Verify godoc
// @Summary Verify email address
// @Tags Auth
// @Accept json
// @Param body body CodeDTO true "Email and code"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse "Invalid or expired code"
// @Router /api/auth/verify [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var dto CodeDTO
	if !decode(w, r, &dto) {
		return
	}
	if err := h.service.Verify(r.Context(), dto.Email, dto.Code); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResendCode godoc
// @Summary Send a new verification code
// @Tags Auth
// @Accept json
// @Param body body EmailDTO true "Email"
// @Success 202
// @Router /api/auth/resend [post]
func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if !decode(w, r, &dto) {
		return
	}
	if err := h.service.ResendCode(r.Context(), dto.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body CredentialsDTO true "Credentials"
// @Success 200 {object} SessionDTO
// @Failure 401 {object} rest.ErrorResponse "Invalid credentials"
// @Failure 403 {object} rest.ErrorResponse "Email not verified"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto CredentialsDTO
	if !decode(w, r, &dto) {
		return
	}
	session, err := h.service.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SessionDTO{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Uid:       session.User.Uid,
	})
}

// ForgotPassword godoc
// @Summary Request a password reset code
// @Description Always accepted, whether or not the email is registered
// @Tags Auth
// @Accept json
// @Param body body EmailDTO true "Email"
// @Success 202
// @Router /api/auth/password/forgot [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto EmailDTO
	if !decode(w, r, &dto) {
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), dto.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword godoc
// @Summary Set a new password using a reset code
// @Tags Auth
// @Accept json
// @Param body body ResetDTO true "Reset request"
// @Success 204
// @Failure 400 {object} rest.ErrorResponse "Invalid or expired code"
// @Router /api/auth/password/reset [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto ResetDTO
	if !decode(w, r, &dto) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), dto.Email, dto.Code, dto.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if verr, ok := validation.As(err); ok {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request", verr.Error())
		return
	}
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		rest.WriteError(w, http.StatusConflict, "Email already registered", "")
	case errors.Is(err, ErrInvalidCode):
		rest.WriteError(w, http.StatusBadRequest, "Invalid or expired code", "")
	case errors.Is(err, ErrAlreadyVerified):
		rest.WriteError(w, http.StatusConflict, "Email already verified", "")
	case errors.Is(err, ErrInvalidCredentials):
		rest.WriteError(w, http.StatusUnauthorized, "Invalid email or password", "")
	case errors.Is(err, ErrNotVerified):
		rest.WriteError(w, http.StatusForbidden, "Email address is not verified", "")
	default:
		log.Errorf("auth request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
