package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tunevault/core/auth"
	"tunevault/model"
	"tunevault/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUserRepository is a stateful in-memory user store.
type memUserRepository struct {
	nextID int64
	users  map[int64]*model.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{nextID: 1, users: make(map[int64]*model.User)}
}

func (m *memUserRepository) CreateUser(user *model.User) (int64, error) {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, repository.ErrDuplicateUser
		}
	}
	id := m.nextID
	m.nextID++
	copied := *user
	copied.ID = id
	m.users[id] = &copied
	return id, nil
}

func (m *memUserRepository) GetUserByID(id int64) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepository) GetUserByUsername(username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memUserRepository) GetUserByEmail(email string) (*model.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func newAuthTestEnv(t *testing.T) (*testEnv, *memUserRepository) {
	t.Helper()
	auth.Configure("test-secret", time.Hour)

	env := newTestEnv(t)
	users := newMemUserRepository()
	env.handler.userRepo = users
	return env, users
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{
		Username: "alice",
		Password: "s3cret-pass",
		Email:    "Alice@Example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var registered TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "bearer", registered.TokenType)
	assert.Equal(t, "alice", registered.User.Username)
	assert.Equal(t, "alice@example.com", registered.User.Email)

	// The password hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "s3cret-pass")
	assert.NotContains(t, rec.Body.String(), "password_hash")

	// Login by username.
	rec = postJSON(t, env.router, "/api/auth/login", LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Login by email, case-insensitive.
	rec = postJSON(t, env.router, "/api/auth/login", LoginRequest{Username: "ALICE@example.com", Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterDuplicate(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	body := RegisterRequest{Username: "bob", Password: "pw123456", Email: "bob@example.com"}
	rec := postJSON(t, env.router, "/api/auth/register", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, env.router, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate_user", decodeError(t, rec).Error)
}

func TestRegisterMissingFields(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{Username: "carol"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{
		Username: "dave", Password: "right-pass", Email: "dave@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, env.router, "/api/auth/login", LoginRequest{Username: "dave", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Error)
}

func TestLoginUnknownUser(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/login", LoginRequest{Username: "nobody", Password: "whatever"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteRequiresAuth(t *testing.T) {
	env, _ := newAuthTestEnv(t)
	env.addSong(t, "s1", "Song", "s1.mp3", []byte("ID3data"))

	req := httptest.NewRequest(http.MethodDelete, "/api/songs/s1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, env.repo.songs, "s1")
}

func TestDeleteOwnedSongByOwner(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{
		Username: "erin", Password: "pw123456", Email: "erin@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var registered TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	env.addSong(t, "s1", "Mine", "s1.mp3", []byte("ID3data"))
	env.repo.songs["s1"].UserID.Int64 = registered.User.ID
	env.repo.songs["s1"].UserID.Valid = true

	req := httptest.NewRequest(http.MethodDelete, "/api/songs/s1", nil)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	del := httptest.NewRecorder()
	env.router.ServeHTTP(del, req)

	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.NotContains(t, env.repo.songs, "s1")
}

func TestDeleteOwnedSongByStranger(t *testing.T) {
	env, _ := newAuthTestEnv(t)

	rec := postJSON(t, env.router, "/api/auth/register", RegisterRequest{
		Username: "frank", Password: "pw123456", Email: "frank@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var registered TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	env.addSong(t, "s1", "Not Yours", "s1.mp3", []byte("ID3data"))
	env.repo.songs["s1"].UserID.Int64 = registered.User.ID + 100
	env.repo.songs["s1"].UserID.Valid = true

	req := httptest.NewRequest(http.MethodDelete, "/api/songs/s1", nil)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	del := httptest.NewRecorder()
	env.router.ServeHTTP(del, req)

	assert.Equal(t, http.StatusForbidden, del.Code)
	assert.Contains(t, env.repo.songs, "s1")
}
