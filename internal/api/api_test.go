package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blog_system/internal/config"
	"blog_system/internal/db"
	"blog_system/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer assembles a router backed by a throwaway sqlite database.
// Caching is disabled (nil redis client) so tests need no external services.
func newTestServer(t *testing.T, strict bool) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:         "sqlite",
		DBPath:           filepath.Join(dir, "test.db"),
		ImageDir:         filepath.Join(dir, "images"),
		StrictPostUpdate: strict,
	}
	database, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database))
	return SetupRouter(cfg, database, nil), database
}

// doJSON fires a JSON request at the router and returns the recorder
func doJSON(r *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// register creates a user and returns its session cookie and decoded body
func register(t *testing.T, r *gin.Engine, username, email, password string) (*http.Cookie, domain.User) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, "register body: %s", w.Body.String())
	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	cookie := sessionCookie(t, w)
	return cookie, user
}

// sessionCookie pulls the access_token cookie out of a response
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "access_token" {
			return ck
		}
	}
	t.Fatal("no access_token cookie set")
	return nil
}

func TestRegister(t *testing.T) {
	r, _ := newTestServer(t, false)

	w := doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	cookie := sessionCookie(t, w)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "user", user.Role)
	assert.NotEmpty(t, user.AccessToken)
	assert.Equal(t, user.AccessToken, cookie.Value)
	assert.Equal(t, 3600*24*7, cookie.MaxAge)

	// The password digest must not leak into the response body
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "secret")

	// The fresh session resolves
	w = doJSON(r, http.MethodGet, "/auth/me", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterConflict(t *testing.T) {
	r, _ := newTestServer(t, false)
	register(t, r, "alice", "alice@example.com", "secret")

	// Same email, different username: email wins the identifier routing
	w := doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"username": "alice2", "email": "alice@example.com", "password": "secret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Malformed email falls back to the username column
	w = doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"username": "alice", "email": "Not-An-Email", "password": "secret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	r, _ := newTestServer(t, false)
	oldCookie, created := register(t, r, "alice", "alice@example.com", "secret")

	// Unknown identifier
	w := doJSON(r, http.MethodPost, "/auth/login", gin.H{"username": "nobody", "password": "secret"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Wrong password
	w = doJSON(r, http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Correct credentials by username
	w = doJSON(r, http.MethodPost, "/auth/login", gin.H{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	newCookie := sessionCookie(t, w)

	// Login rotates the token
	assert.NotEqual(t, created.AccessToken, user.AccessToken)
	assert.Equal(t, user.AccessToken, newCookie.Value)

	// The old token no longer resolves, the new one does
	w = doJSON(r, http.MethodGet, "/auth/me", nil, oldCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodGet, "/auth/me", nil, newCookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// Login by email works the same way
	w = doJSON(r, http.MethodPost, "/auth/login", gin.H{"username": "alice@example.com", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionRequired(t *testing.T) {
	r, _ := newTestServer(t, false)

	// No cookie at all
	w := doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A cookie nobody carries
	stale := &http.Cookie{Name: "access_token", Value: "00000000-0000-0000-0000-000000000000"}
	w = doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"}, stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostCreateAndList(t *testing.T) {
	r, _ := newTestServer(t, false)
	cookie, user := register(t, r, "alice", "alice@example.com", "secret")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var post domain.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, user.ID, post.UserID) // Owner is the session user
	assert.False(t, post.CreatedAt.IsZero())
	assert.True(t, post.CreatedAt.Equal(post.EditedAt)) // Equal on creation

	// Filtered listings
	for _, path := range []string{
		"/posts/all",
		"/posts/id?q=1",
		"/posts/user_id?q=1",
		"/posts/title?q=T",
		"/posts/content?q=C",
	} {
		w = doJSON(r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		var posts []domain.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
		assert.Len(t, posts, 1, path)
	}

	// Absent id yields an empty list, not an error
	w = doJSON(r, http.MethodGet, "/posts/id?q=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	// Malformed numeric queries and unknown fields are rejected
	w = doJSON(r, http.MethodGet, "/posts/id?q=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodGet, "/posts/user_id?q=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodGet, "/posts/owner?q=1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostUpdate(t *testing.T) {
	r, _ := newTestServer(t, false)
	cookie, _ := register(t, r, "alice", "alice@example.com", "secret")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var created domain.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	time.Sleep(20 * time.Millisecond) // Ensure a strictly later edit timestamp

	// Legacy surface: no cookie required for updates
	w = doJSON(r, http.MethodPut, "/posts/1", gin.H{"title": "T2", "content": "C2"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/posts/id?q=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var posts []domain.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "T2", posts[0].Title)
	assert.Equal(t, "C2", posts[0].Content)
	assert.True(t, posts[0].EditedAt.After(posts[0].CreatedAt)) // Refreshed on update
	assert.True(t, posts[0].CreatedAt.Equal(created.CreatedAt)) // Never touched again

	// Unknown id is a silent no-op
	w = doJSON(r, http.MethodPut, "/posts/999", gin.H{"title": "X", "content": "Y"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Malformed id is rejected
	w = doJSON(r, http.MethodPut, "/posts/abc", gin.H{"title": "X", "content": "Y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostUpdateStrict(t *testing.T) {
	r, database := newTestServer(t, true)
	owner, _ := register(t, r, "alice", "alice@example.com", "secret")
	other, _ := register(t, r, "bob", "bob@example.com", "secret")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"}, owner)
	require.Equal(t, http.StatusOK, w.Code)

	// Strict mode requires a session
	w = doJSON(r, http.MethodPut, "/posts/1", gin.H{"title": "X", "content": "Y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Non-owner, non-admin is rejected
	w = doJSON(r, http.MethodPut, "/posts/1", gin.H{"title": "X", "content": "Y"}, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner may edit
	w = doJSON(r, http.MethodPut, "/posts/1", gin.H{"title": "X", "content": "Y"}, owner)
	assert.Equal(t, http.StatusOK, w.Code)

	// Admin may edit anyone's post
	require.NoError(t, database.Model(&domain.User{}).Where("username = ?", "bob").Update("role", "admin").Error)
	w = doJSON(r, http.MethodPut, "/posts/1", gin.H{"title": "Z", "content": "W"}, other)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown id surfaces as 404 in strict mode
	w = doJSON(r, http.MethodPut, "/posts/999", gin.H{"title": "X", "content": "Y"}, owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostDelete(t *testing.T) {
	r, database := newTestServer(t, false)
	owner, _ := register(t, r, "alice", "alice@example.com", "secret")
	other, _ := register(t, r, "bob", "bob@example.com", "secret")

	w := doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T", "content": "C"}, owner)
	require.Equal(t, http.StatusOK, w.Code)

	// No session
	w = doJSON(r, http.MethodDelete, "/posts/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Non-owner, non-admin
	w = doJSON(r, http.MethodDelete, "/posts/1", nil, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown post
	w = doJSON(r, http.MethodDelete, "/posts/999", nil, owner)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Owner deletes; the post is gone afterwards
	w = doJSON(r, http.MethodDelete, "/posts/1", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/posts/id?q=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	// Admin deletes another user's post
	w = doJSON(r, http.MethodPost, "/posts", gin.H{"title": "T2", "content": "C2"}, owner)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, database.Model(&domain.User{}).Where("username = ?", "bob").Update("role", "admin").Error)
	w = doJSON(r, http.MethodDelete, "/posts/2", nil, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileImage(t *testing.T) {
	r, _ := newTestServer(t, false)
	cookie, _ := register(t, r, "alice", "alice@example.com", "secret")

	// No cookie
	req := httptest.NewRequest(http.MethodGet, "/auth/profile-image", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// No image stored yet
	w = doJSON(r, http.MethodGet, "/auth/profile-image", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Upload a file as multipart form data
	content := []byte("fake-jpeg-bytes")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "avatar.jpg")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/auth/profile-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The stored image streams back
	w = doJSON(r, http.MethodGet, "/auth/profile-image", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestAdminUsers(t *testing.T) {
	r, database := newTestServer(t, false)
	alice, _ := register(t, r, "alice", "alice@example.com", "secret")
	bob, _ := register(t, r, "bob", "bob@example.com", "secret")

	// Plain users are rejected
	w := doJSON(r, http.MethodGet, "/admin/users", nil, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins see the listing, without tokens or digests
	require.NoError(t, database.Model(&domain.User{}).Where("username = ?", "bob").Update("role", "admin").Error)
	w = doJSON(r, http.MethodGet, "/admin/users", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Users []UserAdminResponse `json:"users"`
		Total int64               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Users, 2)
	assert.EqualValues(t, 2, resp.Total)
	assert.NotContains(t, w.Body.String(), "access_token")
}
