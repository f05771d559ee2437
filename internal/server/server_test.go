package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := New(Config{DBPath: ":memory:"}, logger)
	require.NoError(t, err, "failed to assemble server")

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

// apiResponse mirrors the response envelope with the data left raw, so each
// test can decode it into whatever shape it expects.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// doJSON performs a request against the test server and decodes the
// envelope. An empty token leaves the Authorization header unset.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

type credentials struct {
	SessionToken string `json:"session_token"`
	UpdateToken  string `json:"update_token"`
}

func register(t *testing.T, ts *httptest.Server, name, email, password string) credentials {
	t.Helper()

	status, resp := doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, resp.Success)

	var creds credentials
	require.NoError(t, json.Unmarshal(resp.Data, &creds))
	require.NotEmpty(t, creds.SessionToken)
	require.NotEmpty(t, creds.UpdateToken)
	return creds
}

type userPayload struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	FavoriteClubs []struct {
		ID int64 `json:"id"`
	} `json:"favorite_clubs"`
	CreatedPosts []struct {
		ID int64 `json:"id"`
	} `json:"created_posts"`
	LikedPosts []struct {
		ID int64 `json:"id"`
	} `json:"liked_posts"`
}

func me(t *testing.T, ts *httptest.Server, sessionToken string) userPayload {
	t.Helper()

	status, resp := doJSON(t, ts, http.MethodGet, "/api/me", sessionToken, nil)
	require.Equal(t, http.StatusOK, status)

	var user userPayload
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	return user
}

// =========================================================================
// ACCOUNT LIFECYCLE
// =========================================================================

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)

	creds := register(t, ts, "Ann Tran", "ann1@example.edu", "pw123")
	assert.Len(t, creds.SessionToken, 32)

	// Same email again is rejected.
	status, resp := doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"name": "Impostor", "email": "ann1@example.edu", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	// Wrong password and unknown email both come back 401.
	status, _ = doJSON(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ann1@example.edu", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email": "nobody@example.edu", "password": "pw123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// A successful login rotates the pair.
	status, resp = doJSON(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ann1@example.edu", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, status)
	var loggedIn credentials
	require.NoError(t, json.Unmarshal(resp.Data, &loggedIn))
	assert.NotEqual(t, creds.SessionToken, loggedIn.SessionToken)
	assert.NotEqual(t, creds.UpdateToken, loggedIn.UpdateToken)

	// The pre-login update token died with the rotation.
	status, _ = doJSON(t, ts, http.MethodPost, "/api/session", "", map[string]string{
		"update_token": creds.UpdateToken,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// The current one renews exactly once.
	status, resp = doJSON(t, ts, http.MethodPost, "/api/session", "", map[string]string{
		"update_token": loggedIn.UpdateToken,
	})
	require.Equal(t, http.StatusOK, status)
	var renewed credentials
	require.NoError(t, json.Unmarshal(resp.Data, &renewed))

	status, _ = doJSON(t, ts, http.MethodPost, "/api/session", "", map[string]string{
		"update_token": loggedIn.UpdateToken,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// /me works with the live session and never leaks credentials.
	user := me(t, ts, renewed.SessionToken)
	assert.Equal(t, "Ann Tran", user.Name)
	assert.Equal(t, "ann1@example.edu", user.Email)

	status, resp = doJSON(t, ts, http.MethodGet, "/api/me", renewed.SessionToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(resp.Data), "password")
	assert.NotContains(t, string(resp.Data), "token")

	// No token, stale token, garbage token: all 401.
	for _, token := range []string{"", loggedIn.SessionToken, "garbage"} {
		status, resp = doJSON(t, ts, http.MethodGet, "/api/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status, "token %q", token)
		assert.False(t, resp.Success)
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"name": "Ann", "password": "pw"}},
		{"missing name", map[string]string{"email": "a@example.edu", "password": "pw"}},
		{"missing password", map[string]string{"name": "Ann", "email": "a@example.edu"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := doJSON(t, ts, http.MethodPost, "/api/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, resp.Success)
		})
	}
}

// =========================================================================
// CLUB ENDPOINTS
// =========================================================================

type clubPayload struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Category            string `json:"category"`
	ApplicationRequired *bool  `json:"application_required"`
	InterestedUsers     []struct {
		ID int64 `json:"id"`
	} `json:"interested_users"`
}

func createClub(t *testing.T, ts *httptest.Server, body map[string]any) clubPayload {
	t.Helper()

	status, resp := doJSON(t, ts, http.MethodPost, "/api/clubs", "", body)
	require.Equal(t, http.StatusCreated, status)

	var club clubPayload
	require.NoError(t, json.Unmarshal(resp.Data, &club))
	return club
}

func TestClubEndpoints(t *testing.T) {
	ts := newTestServer(t)

	status, resp := doJSON(t, ts, http.MethodPost, "/api/clubs", "", map[string]any{
		"description": "no name", "level": "undergraduate", "category": "games",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)

	chess := createClub(t, ts, map[string]any{
		"name":                 "Chess Society",
		"description":          "Weekly blitz nights",
		"level":                "undergraduate",
		"category":             "games",
		"application_required": true,
	})
	createClub(t, ts, map[string]any{
		"name":        "Robotics Lab",
		"description": "Build and race robots",
		"level":       "graduate",
		"category":    "engineering",
	})

	listClubs := func(query string) []clubPayload {
		t.Helper()
		status, resp := doJSON(t, ts, http.MethodGet, "/api/clubs"+query, "", nil)
		require.Equal(t, http.StatusOK, status)
		var clubs []clubPayload
		require.NoError(t, json.Unmarshal(resp.Data, &clubs))
		return clubs
	}

	assert.Len(t, listClubs(""), 2)
	assert.Len(t, listClubs("?category=games"), 1)
	assert.Len(t, listClubs("?query=CHESS"), 1)
	assert.Len(t, listClubs("?query=robots"), 1)
	// An unspecified application_required matches either way.
	assert.Len(t, listClubs("?application_required=true"), 2)
	assert.Len(t, listClubs("?application_required=false"), 1)
	assert.Len(t, listClubs("?category=games&level=graduate"), 0)

	status, _ = doJSON(t, ts, http.MethodGet, "/api/clubs?application_required=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/clubs/%d", chess.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var got clubPayload
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Chess Society", got.Name)
	require.NotNil(t, got.ApplicationRequired)
	assert.True(t, *got.ApplicationRequired)

	status, _ = doJSON(t, ts, http.MethodGet, "/api/clubs/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = doJSON(t, ts, http.MethodGet, "/api/clubs/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/clubs/%d", chess.ID), "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/clubs/%d", chess.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// =========================================================================
// POSTS AND RELATIONS
// =========================================================================

type postPayload struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	AuthorID        int64  `json:"author_id"`
	InterestedUsers []struct {
		ID int64 `json:"id"`
	} `json:"interested_users"`
}

func TestPostsAndRelations(t *testing.T) {
	ts := newTestServer(t)

	annCreds := register(t, ts, "Ann", "ann1@example.edu", "pw123")
	benCreds := register(t, ts, "Ben", "ben1@example.edu", "pw456")
	ann := me(t, ts, annCreds.SessionToken)
	ben := me(t, ts, benCreds.SessionToken)

	// Posting requires a session.
	status, _ := doJSON(t, ts, http.MethodPost, "/api/posts", "", map[string]string{
		"title": "Anyone up for a study group?",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	// The author is always the session user.
	status, resp := doJSON(t, ts, http.MethodPost, "/api/posts", annCreds.SessionToken, map[string]string{
		"title": "Anyone up for a study group?",
		"body":  "Thursdays at the library.",
	})
	require.Equal(t, http.StatusCreated, status)
	var post postPayload
	require.NoError(t, json.Unmarshal(resp.Data, &post))
	assert.Equal(t, ann.ID, post.AuthorID)

	// Liking your own post is forbidden.
	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)
	status, resp = doJSON(t, ts, http.MethodPost, likePath, annCreds.SessionToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, resp.Success)

	// Someone else can, and doing it twice leaves one edge.
	for i := 0; i < 2; i++ {
		status, resp = doJSON(t, ts, http.MethodPost, likePath, benCreds.SessionToken, nil)
		require.Equal(t, http.StatusOK, status)
	}
	var liker userPayload
	require.NoError(t, json.Unmarshal(resp.Data, &liker))
	require.Len(t, liker.LikedPosts, 1)
	assert.Equal(t, post.ID, liker.LikedPosts[0].ID)

	// The post now shows Ben as interested.
	status, resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &post))
	require.Len(t, post.InterestedUsers, 1)
	assert.Equal(t, ben.ID, post.InterestedUsers[0].ID)

	// Favoriting mirrors into both the user and the club.
	club := createClub(t, ts, map[string]any{
		"name":        "Film Club",
		"description": "Screenings every Friday",
		"level":       "undergraduate",
		"category":    "arts",
	})
	status, _ = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/clubs/%d/favorite", club.ID),
		benCreds.SessionToken, nil)
	require.Equal(t, http.StatusOK, status)

	ben = me(t, ts, benCreds.SessionToken)
	require.Len(t, ben.FavoriteClubs, 1)
	assert.Equal(t, club.ID, ben.FavoriteClubs[0].ID)

	status, resp = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/clubs/%d", club.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	var gotClub clubPayload
	require.NoError(t, json.Unmarshal(resp.Data, &gotClub))
	require.Len(t, gotClub.InterestedUsers, 1)
	assert.Equal(t, ben.ID, gotClub.InterestedUsers[0].ID)

	// Post filters.
	listPosts := func(query string) []postPayload {
		t.Helper()
		status, resp := doJSON(t, ts, http.MethodGet, "/api/posts"+query, "", nil)
		require.Equal(t, http.StatusOK, status)
		var posts []postPayload
		require.NoError(t, json.Unmarshal(resp.Data, &posts))
		return posts
	}
	assert.Len(t, listPosts(""), 1)
	assert.Len(t, listPosts("?query=STUDY"), 1)
	assert.Len(t, listPosts(fmt.Sprintf("?author_id=%d", ann.ID)), 1)
	assert.Len(t, listPosts(fmt.Sprintf("?author_id=%d", ben.ID)), 0)

	// Deleting Ann removes her post; Ben's like set empties with it.
	status, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/users/%d", ann.ID), "", nil)
	require.Equal(t, http.StatusOK, status)

	assert.Len(t, listPosts(""), 0)
	ben = me(t, ts, benCreds.SessionToken)
	assert.Len(t, ben.LikedPosts, 0)
	assert.Len(t, ben.FavoriteClubs, 1)
}
