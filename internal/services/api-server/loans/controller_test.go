package loans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/loan"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type memLoans struct {
	byID   map[int64]*loan.Loan
	nextID int64
}

func (m *memLoans) Create(_ context.Context, l *loan.Loan) error {
	if l.UserID == 404 {
		return pg.ErrConstraint
	}
	m.nextID++
	l.ID = m.nextID
	l.Status = loan.StatusActive
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memLoans) GetByID(_ context.Context, id int64) (*loan.Loan, error) {
	if l, ok := m.byID[id]; ok {
		return l, nil
	}
	return nil, pg.ErrNotFound
}

func (m *memLoans) List(context.Context) ([]*loan.View, error) { return nil, nil }

func (m *memLoans) MarkReturned(_ context.Context, id int64, d time.Time) error {
	l, ok := m.byID[id]
	if !ok {
		return pg.ErrNotFound
	}
	if !l.Active() {
		return pg.ErrConflict
	}
	l.ReturnDate = &d
	l.Status = loan.StatusReturned
	return nil
}

func (m *memLoans) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return pg.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memLoans) FindActive(context.Context, int64, int64) (*loan.Loan, error) {
	return nil, pg.ErrNotFound
}

func (m *memLoans) FindDueBetween(context.Context, time.Time, time.Time) ([]*loan.Notice, error) {
	return nil, nil
}

func (m *memLoans) FindOverdue(context.Context, time.Time) ([]*loan.Notice, error) { return nil, nil }

func setup() (*gin.Engine, *memLoans, *Controller) {
	repo := &memLoans{byID: map[int64]*loan.Loan{}}
	ct := NewController(repo, zap.NewNop())
	ct.now = func() time.Time { return time.Date(2024, 3, 16, 15, 0, 0, 0, time.UTC) }
	r := gin.New()
	ct.Register(r.Group("/api/loans"))
	return r, repo, ct
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoans_Create(t *testing.T) {
	r, repo, _ := setup()

	w := do(r, http.MethodPost, "/api/loans", `{"user_id":1,"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	l := repo.byID[1]
	require.NotNil(t, l)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), l.DueDate)
	assert.Equal(t, loan.StatusActive, l.Status)
}

func TestLoans_CreateValidation(t *testing.T) {
	r, repo, _ := setup()

	tests := []struct {
		body string
		want string
	}{
		{`{"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`, "user_id is required"},
		{`{"user_id":1,"book_id":2,"loan_date":"03/01/2024","due_date":"2024-03-15"}`, "loan_date must be a YYYY-MM-DD date"},
		{`{"user_id":1,"book_id":2,"loan_date":"2024-03-15","due_date":"2024-03-01"}`, "due_date must not be before loan_date"},
	}
	for _, tt := range tests {
		w := do(r, http.MethodPost, "/api/loans", tt.body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), tt.want)
	}
	assert.Empty(t, repo.byID)

	w := do(r, http.MethodPost, "/api/loans", `{"user_id":404,"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid reference")
}

func TestLoans_ReturnIsFinal(t *testing.T) {
	r, repo, _ := setup()
	do(r, http.MethodPost, "/api/loans", `{"user_id":1,"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`)

	w := do(r, http.MethodPut, "/api/loans/1/return", `{"return_date":"2024-03-14"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Book returned", body["message"])
	assert.Equal(t, "2024-03-14", body["return_date"])
	assert.Equal(t, loan.StatusReturned, repo.byID[1].Status)

	w = do(r, http.MethodPut, "/api/loans/1/return", `{"return_date":"2024-03-20"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), *repo.byID[1].ReturnDate)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/api/loans/9/return", "").Code)
}

func TestLoans_ReturnDefaultsToToday(t *testing.T) {
	r, repo, _ := setup()
	do(r, http.MethodPost, "/api/loans", `{"user_id":1,"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`)

	w := do(r, http.MethodPut, "/api/loans/1/return", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), *repo.byID[1].ReturnDate)

	w = do(r, http.MethodPut, "/api/loans/1/return", `{"return_date":"yesterday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoans_Delete(t *testing.T) {
	r, _, _ := setup()
	do(r, http.MethodPost, "/api/loans", `{"user_id":1,"book_id":2,"loan_date":"2024-03-01","due_date":"2024-03-15"}`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/loans/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodDelete, "/api/loans/1", "").Code)
	assert.Equal(t, "[]", do(r, http.MethodGet, "/api/loans", "").Body.String())
}
