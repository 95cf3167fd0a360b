package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	msg := notification.Message{
		From:    DefaultFrom,
		To:      "ada@example.com",
		Subject: "📚 Due Date Reminder: Dune",
		HTML:    "<p><strong>Book:</strong> Dune</p>",
	}
	now := time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)

	raw, err := buildMessage(msg, "<abc@library.com>", now)
	require.NoError(t, err)
	s := string(raw)

	assert.Contains(t, s, "From: "+DefaultFrom+"\r\n")
	assert.Contains(t, s, "To: ada@example.com\r\n")
	assert.Contains(t, s, "Message-ID: <abc@library.com>\r\n")
	assert.Contains(t, s, "MIME-Version: 1.0\r\n")
	assert.Contains(t, s, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, s, "Subject: =?utf-8?q?")
	assert.Contains(t, s, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, s, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, s, "Book: Dune")

	head, _, ok := strings.Cut(s, "\r\n\r\n")
	require.True(t, ok)
	assert.NotContains(t, head, "<p>")
}

func TestNewMessageID(t *testing.T) {
	id := newMessageID("noreply@library.com")
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@library.com>"))
	assert.NotEqual(t, id, newMessageID("noreply@library.com"))

	assert.True(t, strings.HasSuffix(newMessageID("nobody"), "@localhost>"))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	assert.Equal(t, "localhost", host("localhost"))
	assert.Equal(t, "::1", host("[::1]:25"))
}

func TestMailer_SendReportsDialFailure(t *testing.T) {
	// nothing listens on port 1 of the loopback interface
	m := NewMailer(SMTPConfig{Addr: "127.0.0.1:1", Timeout: time.Second})

	res := m.Send(t.Context(), notification.Message{To: "ada@example.com", Subject: "s", HTML: "<p>x</p>"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "smtp dial")
	assert.Empty(t, res.MessageID)
}

func TestMailer_SendRejectsBadRecipient(t *testing.T) {
	m := NewMailer(SMTPConfig{Addr: "127.0.0.1:1"})

	res := m.Send(t.Context(), notification.Message{To: "not an address", Subject: "s", HTML: "x"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "parse to")
}
