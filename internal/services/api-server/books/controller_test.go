package books

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NordCoder/Libra/internal/domain/book"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type memBooks struct {
	byID   map[int64]*book.Book
	nextID int64
}

func (m *memBooks) Create(_ context.Context, b *book.Book) error {
	m.nextID++
	b.ID = m.nextID
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBooks) GetByID(_ context.Context, id int64) (*book.Book, error) {
	if b, ok := m.byID[id]; ok {
		return b, nil
	}
	return nil, pg.ErrNotFound
}

func (m *memBooks) GetMany(context.Context, []int64) ([]*book.Book, error) { return nil, nil }

func (m *memBooks) List(context.Context) ([]*book.Book, error) {
	var out []*book.Book
	for i := int64(1); i <= m.nextID; i++ {
		if b, ok := m.byID[i]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBooks) Update(_ context.Context, b *book.Book) error {
	if _, ok := m.byID[b.ID]; !ok {
		return pg.ErrNotFound
	}
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBooks) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memBooks) SetCover(_ context.Context, id int64, url string) error {
	b, ok := m.byID[id]
	if !ok {
		return pg.ErrNotFound
	}
	b.CoverURL = &url
	return nil
}

func setup(t *testing.T) (*gin.Engine, *memBooks) {
	t.Helper()
	repo := &memBooks{byID: map[int64]*book.Book{}}
	store, err := uploads.NewStore(uploads.Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	r := gin.New()
	NewController(repo, store, zap.NewNop()).Register(r.Group("/api/books"))
	return r, repo
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBooks_CRUD(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPost, "/api/books", `{"title":" Dune ","author":"Frank Herbert","isbn":"9780441172719"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created book.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Dune", created.Title)

	w = do(r, http.MethodGet, "/api/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"Frank Herbert"`)

	w = do(r, http.MethodPut, "/api/books/1", `{"title":"Dune Messiah","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Book updated")

	w = do(r, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dune Messiah")

	w = do(r, http.MethodDelete, "/api/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/books/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}

func TestBooks_EmptyListIsArray(t *testing.T) {
	r, _ := setup(t)
	w := do(r, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestBooks_Validation(t *testing.T) {
	r, repo := setup(t)

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"missing fields", `{}`, []string{
			"Title is required and must not be empty",
			"Author is required and must not be empty",
		}},
		{"long title", `{"title":"` + strings.Repeat("x", 256) + `","author":"A"}`, []string{
			"Title must be less than 255 characters",
		}},
		{"bad isbn", `{"title":"T","author":"A","isbn":"12345"}`, []string{
			"ISBN must be 10 or 13 digits (numbers only)",
		}},
		{"isbn with dashes", `{"title":"T","author":"A","isbn":"978-0441172719"}`, []string{
			"ISBN must be 10 or 13 digits (numbers only)",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/books", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			var body struct{ Errors []string }
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Errors)
		})
	}
	assert.Empty(t, repo.byID)

	w := do(r, http.MethodPost, "/api/books", `{"title":"T","author":"A","isbn":"0441172717"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBooks_BadIDAndMissing(t *testing.T) {
	r, _ := setup(t)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/books/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/api/books/9", `{"title":"T","author":"A"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/books/9", "").Code)
}

func TestBooks_CoverUpload(t *testing.T) {
	r, repo := setup(t)
	require.NoError(t, repo.Create(context.Background(), &book.Book{Title: "T", Author: "A"}))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("cover", "front.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/books/1/cover", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NotNil(t, repo.byID[1].CoverURL)
	assert.True(t, strings.HasPrefix(*repo.byID[1].CoverURL, "/uploads/covers/cover-"))

	w = do(r, http.MethodPut, "/api/books/1/cover", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}
