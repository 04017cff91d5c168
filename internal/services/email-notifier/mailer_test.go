package notifier

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/NordCoder/StillbirthNotify/internal/config/email-notifier"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

// smtpStub speaks just enough SMTP for net/smtp: no STARTTLS, no AUTH.
type smtpStub struct {
	ln     net.Listener
	reject map[string]bool

	mu   sync.Mutex
	data []string
}

func newSMTPStub(t *testing.T) *smtpStub {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &smtpStub{ln: ln, reject: map[string]bool{}}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *smtpStub) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.session(c)
	}
}

func (s *smtpStub) session(c net.Conn) {
	defer c.Close()
	tp := textproto.NewConn(c)
	reply := func(l string) { _ = tp.PrintfLine("%s", l) }
	reply("220 stub ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250 stub")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			reply("250 ok")
		case strings.HasPrefix(cmd, "RCPT TO"):
			addr := strings.Trim(line[len("RCPT TO:"):], "<> ")
			if s.reject[addr] {
				reply("550 no such mailbox")
				continue
			}
			reply("250 ok")
		case cmd == "DATA":
			reply("354 go ahead")
			b, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = append(s.data, string(b))
			s.mu.Unlock()
			reply("250 queued")
		case cmd == "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func (s *smtpStub) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.data...)
}

func TestMailer_Send(t *testing.T) {
	stub := newSMTPStub(t)
	m := New(config.SMTP{Addr: stub.ln.Addr().String(), From: "alerts@moh.go.ke", SubjPrefix: "[SBN]", Timeout: 2 * time.Second}, zap.NewNop())

	require.NoError(t, m.Send(context.Background(), "county@moh.go.ke", "Stillbirth notification #7 at Ward A", "line one\nline two"))

	msgs := stub.messages()
	require.Len(t, msgs, 1)
	r := textproto.NewReader(bufio.NewReader(strings.NewReader(msgs[0])))
	hdr, err := r.ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "[SBN] Stillbirth notification #7 at Ward A", hdr.Get("Subject"))
	assert.Equal(t, "county@moh.go.ke", hdr.Get("To"))
	assert.NotEmpty(t, hdr.Get("Message-Id"))
	assert.Contains(t, msgs[0], "line one\nline two")
}

func TestMailer_RejectedRecipientIsPermanent(t *testing.T) {
	stub := newSMTPStub(t)
	stub.reject["gone@moh.go.ke"] = true
	m := New(config.SMTP{Addr: stub.ln.Addr().String(), From: "alerts@moh.go.ke"}, zap.NewNop())

	err := m.Send(context.Background(), "gone@moh.go.ke", "s", "b")
	require.Error(t, err)
	assert.False(t, retry.IsRetryable(err))
}

func TestMailer_UnreachableIsRetryable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := New(config.SMTP{Addr: addr, From: "alerts@moh.go.ke", Timeout: time.Second}, zap.NewNop())
	err = m.Send(context.Background(), "x@moh.go.ke", "s", "b")
	require.Error(t, err)
	assert.True(t, retry.IsRetryable(err))
}

func TestMailer_EncodesNonASCIISubject(t *testing.T) {
	m := New(config.SMTP{Addr: "mail.local:25", From: "a@b"}, zap.NewNop())
	msg := string(m.compose("x@y", "Kisumu – Ward", "b"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "\r\n\r\nb\r\n")
}
