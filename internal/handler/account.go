package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/clubhub/internal/auth"
	"github.com/sakif/clubhub/internal/service"
)

// AccountHandler exposes registration, login, and session renewal.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type renewRequest struct {
	UpdateToken string `json:"update_token"`
}

// HandleRegister creates an account and returns its session credentials.
//
// HTTP: POST /api/register
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, user.Credentials())
}

// HandleLogin verifies credentials and returns a fresh session.
//
// HTTP: POST /api/login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user.Credentials())
}

// HandleRenewSession rotates the token pair for a valid update token.
//
// HTTP: POST /api/session
func (h *AccountHandler) HandleRenewSession(w http.ResponseWriter, r *http.Request) {
	var req renewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.RenewSession(r.Context(), req.UpdateToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user.Credentials())
}

// HandleMe returns the full profile of the session's user.
//
// HTTP: GET /api/me (behind RequireSession)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// RequireSession guarantees a user; reaching here is a wiring bug.
		h.logger.Error("HandleMe reached without session user")
		writeError(w, nil)
		return
	}

	writeData(w, http.StatusOK, user)
}
