package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/NordCoder/Libra/internal/services/notifier"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRepo struct {
	entries    []*notification.Entry
	limit      int
	userID     int64
	statsSince time.Time
}

func (f *fakeRepo) Create(context.Context, *notification.Record) error { return nil }

func (f *fakeRepo) List(context.Context) ([]*notification.Entry, error) { return f.entries, nil }

func (f *fakeRepo) ListByUser(_ context.Context, userID int64, limit int) ([]*notification.Entry, error) {
	f.userID, f.limit = userID, limit
	return f.entries, nil
}

func (f *fakeRepo) Stats(_ context.Context, since time.Time) ([]*notification.Stat, error) {
	f.statsSince = since
	return []*notification.Stat{{Type: notification.TypeOverdue, Status: notification.StatusSent, Count: 3, Date: "2024-03-16"}}, nil
}

func (f *fakeRepo) ExistsSent(context.Context, int64, int64, notification.Type, time.Time) (bool, error) {
	return false, nil
}

type fakeDispatcher struct {
	res notification.Result
	err error
}

func (f fakeDispatcher) Dispatch(context.Context, int64, int64, notification.Type) (notification.Result, error) {
	return f.res, f.err
}

type fakeStatus struct{}

func (fakeStatus) Status() notifier.SchedulerStatus {
	return notifier.SchedulerStatus{Running: true, Timezone: "UTC", Jobs: []notifier.JobStatus{{Name: "due_soon", Spec: "0 9 * * *"}}}
}

var fixedNow = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func router(repo *fakeRepo, d Dispatcher, s SchedulerStatus) *gin.Engine {
	ct := NewController(repo, d, s, zap.NewNop())
	ct.now = func() time.Time { return fixedNow }
	r := gin.New()
	ct.Register(r.Group("/api/notifications"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSend_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		d    fakeDispatcher
		code int
		body string
	}{
		{
			name: "sent",
			d:    fakeDispatcher{res: notification.Result{Success: true, MessageID: "<m@x>"}},
			code: http.StatusOK,
			body: `"message":"Notification sent successfully"`,
		},
		{
			name: "unsupported type",
			d:    fakeDispatcher{err: fmt.Errorf("%w: %q", notifier.ErrUnsupportedType, "bogus_type")},
			code: http.StatusBadRequest,
			body: `"error":"Unsupported notification type"`,
		},
		{
			name: "missing user",
			d:    fakeDispatcher{err: fmt.Errorf("user 9: %w", notifier.ErrNotFound)},
			code: http.StatusBadRequest,
			body: `"error":"User or book not found"`,
		},
		{
			name: "delivery failure",
			d: fakeDispatcher{
				res: notification.Result{Error: "smtp dial: connection refused"},
				err: fmt.Errorf("%w: smtp dial: connection refused", notifier.ErrDeliveryFailed),
			},
			code: http.StatusInternalServerError,
			body: `"details":"smtp dial: connection refused"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router(&fakeRepo{}, tt.d, nil), http.MethodPost, "/api/notifications/send", `{"userId":1,"bookId":2,"type":"overdue"}`)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestSend_ResultShape(t *testing.T) {
	d := fakeDispatcher{res: notification.Result{Success: true, MessageID: "<m@x>"}}
	w := do(router(&fakeRepo{}, d, nil), http.MethodPost, "/api/notifications/send", `{"userId":1,"bookId":2,"type":"due_reminder"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Notification sent successfully","result":{"success":true,"messageId":"<m@x>"}}`, w.Body.String())
}

func TestReadSide(t *testing.T) {
	repo := &fakeRepo{entries: []*notification.Entry{{
		Record:    notification.Record{ID: 1, UserID: 4, BookID: 2, Type: notification.TypeDueReminder, Status: notification.StatusSent},
		UserName:  "Ada",
		BookTitle: "Dune",
	}}}
	r := router(repo, fakeDispatcher{}, fakeStatus{})

	w := do(r, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	var es []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &es))
	require.Len(t, es, 1)
	assert.Equal(t, "Ada", es[0]["user_name"])
	assert.Equal(t, "Dune", es[0]["book_title"])
	assert.Equal(t, "due_reminder", es[0]["type"])

	w = do(r, http.MethodGet, "/api/notifications/user/4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), repo.userID)
	assert.Equal(t, 50, repo.limit)

	w = do(r, http.MethodGet, "/api/notifications/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fixedNow.Add(-30*24*time.Hour), repo.statsSince)
	assert.JSONEq(t, `[{"type":"overdue","status":"sent","count":3,"date":"2024-03-16"}]`, w.Body.String())

	w = do(r, http.MethodGet, "/api/notifications/scheduler", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)
	assert.Contains(t, w.Body.String(), `"0 9 * * *"`)
}

func TestSchedulerStatus_WithoutScheduler(t *testing.T) {
	w := do(router(&fakeRepo{}, fakeDispatcher{}, nil), http.MethodGet, "/api/notifications/scheduler", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running":false,"timezone":"","jobs":[]}`, w.Body.String())
}
