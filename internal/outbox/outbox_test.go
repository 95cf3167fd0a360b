package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/kafka"
	"github.com/NordCoder/Libra/internal/domain/outbox"
	"github.com/NordCoder/Libra/internal/obs/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type noWait struct{}

func (noWait) Next(int) time.Duration { return 0 }

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.NotificationRecorded
	fails  int
}

func (p *fakePublisher) PublishNotificationRecorded(_ context.Context, ev kafka.NotificationRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) published() []kafka.NotificationRecorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.NotificationRecorded(nil), p.events...)
}

type fakeRepo struct {
	mu      sync.Mutex
	pending []outbox.Message
	marked  []string
}

func (r *fakeRepo) Enqueue(context.Context, string, outbox.Kind, []byte) error { return nil }

func (r *fakeRepo) PickBatch(_ context.Context, batch int, _ time.Duration) ([]outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.pending)
	if n > batch {
		n = batch
	}
	out := r.pending[:n]
	r.pending = r.pending[n:]
	return out, nil
}

func (r *fakeRepo) MarkSuccess(_ context.Context, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marked = append(r.marked, keys...)
	return nil
}

func (r *fakeRepo) markedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.marked...)
}

func event(id int64) []byte {
	data, _ := EncodeNotificationRecorded(kafka.NotificationRecorded{
		NotificationID: id,
		UserID:         7,
		BookID:         9,
		Type:           "overdue",
		Status:         "sent",
		MessageID:      "<m@libra>",
		SentAt:         time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC),
	})
	return data
}

func TestGlobalHandler_PublishesDecodedEvent(t *testing.T) {
	pub := &fakePublisher{}
	h, err := MakeGlobalOutboxHandler(pub, retry.Policy{Attempts: 1})(outbox.KindNotificationRecorded)
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), event(42)))

	got := pub.published()
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].NotificationID)
	assert.Equal(t, "overdue", got[0].Type)
	assert.Equal(t, "<m@libra>", got[0].MessageID)
}

func TestGlobalHandler_UnknownKind(t *testing.T) {
	_, err := MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{})(outbox.Kind(99))
	assert.Error(t, err)
}

func TestGlobalHandler_BadPayload(t *testing.T) {
	h, err := MakeGlobalOutboxHandler(&fakePublisher{}, retry.Policy{Attempts: 1})(outbox.KindNotificationRecorded)
	require.NoError(t, err)
	assert.Error(t, h(context.Background(), []byte("{")))
}

func TestGlobalHandler_RetriesPublish(t *testing.T) {
	pub := &fakePublisher{fails: 2}
	h, err := MakeGlobalOutboxHandler(pub, retry.Policy{Attempts: 3, Backoff: noWait{}})(outbox.KindNotificationRecorded)
	require.NoError(t, err)

	require.NoError(t, h(context.Background(), event(1)))
	assert.Len(t, pub.published(), 1)

	pub.fails = 5
	assert.Error(t, h(context.Background(), event(2)))
	assert.Len(t, pub.published(), 1)
}

func TestRunner_MarksOnlyHandledMessages(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := &fakeRepo{pending: []outbox.Message{
		{IdempotencyKey: "notification-1", Kind: outbox.KindNotificationRecorded, Data: event(1)},
		{IdempotencyKey: "bogus", Kind: outbox.Kind(99)},
		{IdempotencyKey: "notification-2", Kind: outbox.KindNotificationRecorded, Data: event(2)},
	}}
	pub := &fakePublisher{}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, retry.Policy{Attempts: 1}),
		2, 10, 5*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	require.Eventually(t, func() bool { return len(repo.markedKeys()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()

	assert.ElementsMatch(t, []string{"notification-1", "notification-2"}, repo.markedKeys())
	assert.Len(t, pub.published(), 2)
}
