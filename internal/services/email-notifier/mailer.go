package notifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	config "github.com/NordCoder/StillbirthNotify/internal/config/email-notifier"
	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

// Mailer delivers plain-text alerts over SMTP, one connection per mail.
// With UseTLS the connection is TLS from the first byte; otherwise STARTTLS is
// used when the server offers it.
type Mailer struct {
	cfg  config.SMTP
	host string
	auth smtp.Auth
	now  func() time.Time
	log  *zap.Logger
}

var _ notification.EmailSender = (*Mailer)(nil)

func New(cfg config.SMTP, l *zap.Logger) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if l == nil {
		l = zap.L()
	}
	m := &Mailer{
		cfg:  cfg,
		host: host(cfg.Addr),
		now:  time.Now,
		log:  l.With(zap.String("component", "email-notifier.mailer"), zap.String("smtp_addr", cfg.Addr)),
	}
	if cfg.User != "" || cfg.Password != "" {
		m.auth = smtp.PlainAuth("", cfg.User, cfg.Password, m.host)
	}
	return m
}

// Send returns a retry.Permanent error when the server rejects the mail with a 5xx reply.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	start := time.Now()
	msg := m.compose(to, subject, body)
	if err := m.send(ctx, to, msg); err != nil {
		m.log.Error("send failed", zap.String("to", to), zap.Error(err))
		return classify(err)
	}
	m.log.Info("email sent", zap.String("to", to), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *Mailer) send(ctx context.Context, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if m.cfg.UseTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: m.host})
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if !m.cfg.UseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data end: %w", err)
	}
	return c.Quit()
}

func (m *Mailer) compose(to, subject, body string) []byte {
	subject = strings.TrimSpace(m.cfg.SubjPrefix + " " + subject)
	var b bytes.Buffer
	hdr := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	hdr("From", m.cfg.From)
	hdr("To", to)
	hdr("Subject", mime.QEncoding.Encode("utf-8", subject))
	hdr("Date", m.now().UTC().Format(time.RFC1123Z))
	hdr("Message-ID", "<"+uuid.NewString()+"@"+m.host+">")
	hdr("MIME-Version", "1.0")
	hdr("Content-Type", "text/plain; charset=utf-8")
	hdr("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

func classify(err error) error {
	var te *textproto.Error
	if errors.As(err, &te) && te.Code >= 500 {
		return retry.Permanent(err)
	}
	return err
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
