package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/clubhub/internal/service"
)

// UserHandler exposes user browsing and deletion.
type UserHandler struct {
	directory *service.DirectoryService
	logger    *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(directory *service.DirectoryService, logger *slog.Logger) *UserHandler {
	return &UserHandler{directory: directory, logger: logger}
}

// HandleList returns every user.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}

// HandleDelete deletes a user (cascading to their posts) and returns them.
//
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.directory.DeleteUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, user)
}
