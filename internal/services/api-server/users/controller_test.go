package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NordCoder/Libra/internal/domain/user"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type memUsers struct{ byID map[int64]*user.User }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	for _, x := range m.byID {
		if x.Email == u.Email {
			return pg.ErrConflict
		}
	}
	u.ID = int64(len(m.byID) + 1)
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, pg.ErrNotFound
}

func (m *memUsers) GetByEmail(context.Context, string) (*user.User, error) { return nil, pg.ErrNotFound }

func (m *memUsers) List(context.Context) ([]*user.User, error) { return nil, nil }

func (m *memUsers) SetAvatar(_ context.Context, id int64, url string) error {
	u, ok := m.byID[id]
	if !ok {
		return pg.ErrNotFound
	}
	u.AvatarURL = &url
	return nil
}

func setup(t *testing.T) (*gin.Engine, *memUsers) {
	t.Helper()
	repo := &memUsers{byID: map[int64]*user.User{}}
	store, err := uploads.NewStore(uploads.Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	r := gin.New()
	NewController(repo, store, zap.NewNop()).Register(r.Group("/api/users"))
	return r, repo
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUsers_CreateDefaultsToMember(t *testing.T) {
	r, repo := setup(t)

	w := post(r, `{"name":"Ada","email":" Ada@Example.com "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, user.RoleMember, repo.byID[1].Role)
	assert.Equal(t, "ada@example.com", repo.byID[1].Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = post(r, `{"name":"Ada Again","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")
}

func TestUsers_Validation(t *testing.T) {
	r, repo := setup(t)

	w := post(r, `{"name":"A","email":"nope","role":"admin"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct{ Errors []string }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{
		"Name must be at least 2 characters long",
		"Valid email is required",
		"Role must be member or librarian",
	}, body.Errors)
	assert.Empty(t, repo.byID)
}

func TestUsers_ReadSide(t *testing.T) {
	r, _ := setup(t)
	post(r, `{"name":"Grace","email":"grace@example.com","role":"librarian"}`)

	for path, want := range map[string]int{
		"/api/users":   http.StatusOK,
		"/api/users/1": http.StatusOK,
		"/api/users/2": http.StatusNotFound,
		"/api/users/x": http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}
