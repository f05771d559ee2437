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

// PostHandler exposes post CRUD, filtered search, and liking.
type PostHandler struct {
	directory *service.DirectoryService
	logger    *slog.Logger
}

// NewPostHandler creates a PostHandler.
func NewPostHandler(directory *service.DirectoryService, logger *slog.Logger) *PostHandler {
	return &PostHandler{directory: directory, logger: logger}
}

type createPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// HandleList returns posts, optionally filtered.
//
// HTTP: GET /api/posts?query=&author_id=
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := postFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.directory.ListPosts(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, posts)
}

// HandleCreate creates a post authored by the session user.
//
// HTTP: POST /api/posts (behind RequireSession)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.logger.Error("HandleCreate reached without session user")
		writeError(w, nil)
		return
	}

	post, err := h.directory.CreatePost(r.Context(), service.CreatePostInput{
		Title:    req.Title,
		Body:     req.Body,
		AuthorID: user.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, post)
}

// HandleGet returns one post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.directory.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, post)
}

// HandleDelete deletes a post and returns it.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.directory.DeletePost(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, post)
}

// HandleLike adds the post to the session user's liked set.
//
// HTTP: POST /api/posts/{id}/like (behind RequireSession)
func (h *PostHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.logger.Error("HandleLike reached without session user")
		writeError(w, nil)
		return
	}

	updated, err := h.directory.LikePost(r.Context(), user.ID, postID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, updated)
}

// postFilterFromQuery builds a PostFilter from URL query parameters.
// Returns nil when no filter parameter is present.
func postFilterFromQuery(r *http.Request) (*repository.PostFilter, error) {
	q := r.URL.Query()

	filter := &repository.PostFilter{SearchQuery: q.Get("query")}

	if raw := q.Get("author_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperror.ValidationFailed("author_id",
				"author_id must be a positive integer")
		}
		filter.AuthorID = id
	}

	if filter.SearchQuery == "" && filter.AuthorID == 0 {
		return nil, nil
	}
	return filter, nil
}
