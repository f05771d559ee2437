package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/clubhub/internal/apperror"
	"github.com/sakif/clubhub/internal/auth"
	"github.com/sakif/clubhub/internal/repository"
	"github.com/sakif/clubhub/internal/service"
)

// ClubHandler exposes club CRUD, filtered search, and favoriting.
type ClubHandler struct {
	directory *service.DirectoryService
	logger    *slog.Logger
}

// NewClubHandler creates a ClubHandler.
func NewClubHandler(directory *service.DirectoryService, logger *slog.Logger) *ClubHandler {
	return &ClubHandler{directory: directory, logger: logger}
}

// HandleList returns clubs, optionally filtered.
//
// HTTP: GET /api/clubs?category=&query=&level=&application_required=
// All supplied filters AND together; no parameters returns every club.
func (h *ClubHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := clubFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	clubs, err := h.directory.ListClubs(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, clubs)
}

// HandleCreate creates a club.
//
// HTTP: POST /api/clubs
func (h *ClubHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateClubInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}

	club, err := h.directory.CreateClub(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, club)
}

// HandleGet returns one club.
//
// HTTP: GET /api/clubs/{id}
func (h *ClubHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	club, err := h.directory.GetClub(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, club)
}

// HandleDelete deletes a club and returns it.
//
// HTTP: DELETE /api/clubs/{id}
func (h *ClubHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	club, err := h.directory.DeleteClub(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, club)
}

// HandleFavorite adds the club to the session user's favorites.
//
// HTTP: POST /api/clubs/{id}/favorite (behind RequireSession)
func (h *ClubHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	clubID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.logger.Error("HandleFavorite reached without session user")
		writeError(w, nil)
		return
	}

	updated, err := h.directory.FavoriteClub(r.Context(), user.ID, clubID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// clubFilterFromQuery builds a ClubFilter from URL query parameters.
// Returns nil when no filter parameter is present.
func clubFilterFromQuery(r *http.Request) (*repository.ClubFilter, error) {
	q := r.URL.Query()

	filter := &repository.ClubFilter{
		Category:    q.Get("category"),
		SearchQuery: q.Get("query"),
		Level:       q.Get("level"),
	}

	empty := filter.Category == "" && filter.SearchQuery == "" && filter.Level == ""

	if raw := q.Get("application_required"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperror.ValidationFailed("application_required",
				"application_required must be true or false")
		}
		filter.ApplicationRequired = &v
		empty = false
	}

	if empty {
		return nil, nil
	}
	return filter, nil
}
