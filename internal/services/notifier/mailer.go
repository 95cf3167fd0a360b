package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/NordCoder/Libra/internal/domain/notification"
	"github.com/google/uuid"
	"github.com/k3a/html2text"
	"go.uber.org/zap"
)

var _ notification.EmailSender = (*Mailer)(nil)

// Mailer delivers a rendered message with a single SMTP attempt.
type Mailer struct {
	addr     string
	auth     smtp.Auth
	useTLS   bool
	startTLS bool
	tlsConf  *tls.Config
	timeout  time.Duration
	from     string

	log *zap.Logger
}

func NewMailer(cfg SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	from := cfg.From
	if from == "" {
		from = DefaultFrom
	}
	return &Mailer{
		addr:     cfg.Addr,
		auth:     auth,
		useTLS:   cfg.UseTLS,
		startTLS: cfg.StartTLS,
		tlsConf:  &tls.Config{ServerName: host(cfg.Addr), InsecureSkipVerify: cfg.InsecureSkipVerify},
		timeout:  timeout,
		from:     from,
		log:      zap.L().With(zap.String("component", "notifier.mailer")),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "notifier.mailer"))
	return &cp
}

// Send never retries; a failure is reported in the Result.
func (m *Mailer) Send(ctx context.Context, msg notification.Message) notification.Result {
	if msg.From == "" {
		msg.From = m.from
	}
	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)

	envFrom, err := mail.ParseAddress(msg.From)
	if err != nil {
		log.Error("bad from address", zap.Error(err))
		return notification.Result{Error: fmt.Sprintf("parse from: %v", err)}
	}
	rcpt, err := mail.ParseAddress(msg.To)
	if err != nil {
		log.Error("bad recipient address", zap.Error(err))
		return notification.Result{Error: fmt.Sprintf("parse to: %v", err)}
	}

	messageID := newMessageID(envFrom.Address)
	raw, err := buildMessage(msg, messageID, time.Now())
	if err != nil {
		log.Error("build message failed", zap.Error(err))
		return notification.Result{Error: err.Error()}
	}

	if err := m.deliver(ctx, envFrom.Address, rcpt.Address, raw); err != nil {
		log.Error("email send failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return notification.Result{Error: err.Error()}
	}

	log.Info("email sent", zap.String("message_id", messageID), zap.Duration("elapsed", time.Since(start)))
	return notification.Result{Success: true, MessageID: messageID}
}

// Verify dials the server and authenticates without sending anything.
func (m *Mailer) Verify(ctx context.Context) error {
	c, closeConn, err := m.client(ctx)
	if err != nil {
		return err
	}
	defer closeConn()
	return c.Quit()
}

func (m *Mailer) deliver(ctx context.Context, from, to string, raw []byte) error {
	c, closeConn, err := m.client(ctx)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}

// client returns an authenticated session; the deadline comes from ctx or the configured timeout.
func (m *Mailer) client(ctx context.Context) (*smtp.Client, func(), error) {
	dialer := net.Dialer{Timeout: m.timeout}
	var (
		conn net.Conn
		err  error
	)
	if m.useTLS {
		td := tls.Dialer{NetDialer: &dialer, Config: m.tlsConf}
		conn, err = td.DialContext(ctx, "tcp", m.addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", m.addr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("smtp dial: %w", err)
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("smtp client: %w", err)
	}
	closeConn := func() { _ = c.Close() }

	if !m.useTLS && m.startTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(m.tlsConf); err != nil {
				closeConn()
				return nil, nil, fmt.Errorf("smtp STARTTLS: %w", err)
			}
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				closeConn()
				return nil, nil, fmt.Errorf("smtp auth: %w", err)
			}
		}
	}
	return c, closeConn, nil
}

// buildMessage renders a multipart/alternative body with a plain-text part derived from the HTML.
func buildMessage(msg notification.Message, messageID string, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", html2text.HTML2Text(msg.HTML)},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, fmt.Errorf("create part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("write part: %w", err)
		}
		if err := qp.Close(); err != nil {
			return nil, fmt.Errorf("close part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out bytes.Buffer
	hdr := func(k, v string) { out.WriteString(k + ": " + v + "\r\n") }
	hdr("From", msg.From)
	hdr("To", msg.To)
	hdr("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	hdr("Date", now.Format(time.RFC1123Z))
	hdr("Message-ID", messageID)
	hdr("MIME-Version", "1.0")
	hdr("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func newMessageID(fromAddr string) string {
	domain := "localhost"
	if i := strings.LastIndex(fromAddr, "@"); i >= 0 && i < len(fromAddr)-1 {
		domain = fromAddr[i+1:]
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func host(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}
