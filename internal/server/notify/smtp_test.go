package notify

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMTP struct {
	ln         net.Listener
	rejectRcpt bool

	mu   sync.Mutex
	from string
	rcpt string
	data string
}

func startFakeSMTP(t *testing.T, rejectRcpt bool) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTP{ln: ln, rejectRcpt: rejectRcpt}
	t.Cleanup(func() { ln.Close() })
	go s.serve()
	return s
}

func (s *fakeSMTP) port() int { return s.ln.Addr().(*net.TCPAddr).Port }

func (s *fakeSMTP) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	w("220 localhost ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			w("250-localhost")
			w("250 8BITMIME")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			s.mu.Lock()
			s.from = line[len("MAIL FROM:"):]
			s.mu.Unlock()
			w("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			if s.rejectRcpt {
				w("550 no such user")
				continue
			}
			s.mu.Lock()
			s.rcpt = line[len("RCPT TO:"):]
			s.mu.Unlock()
			w("250 OK")
		case cmd == "DATA":
			w("354 go ahead")
			var sb strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(l)
			}
			s.mu.Lock()
			s.data = sb.String()
			s.mu.Unlock()
			w("250 queued")
		case cmd == "QUIT":
			w("221 bye")
			return
		default:
			w("502 not implemented")
		}
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	srv := startFakeSMTP(t, false)

	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "Auth <noreply@example.com>"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, n.Send(ctx, "alice@example.com", LoginSubject, "line1\nline2"))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Contains(t, srv.from, "<noreply@example.com>")
	assert.Contains(t, srv.rcpt, "<alice@example.com>")
	assert.Contains(t, srv.data, "Subject: Your Login OTP\r\n")
	assert.Contains(t, srv.data, "To: alice@example.com\r\n")
	assert.Contains(t, srv.data, "line1\r\nline2")
}

func TestSMTPNotifier_RecipientRejected(t *testing.T) {
	srv := startFakeSMTP(t, true)

	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: srv.port(), From: "noreply@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := n.Send(ctx, "ghost@example.com", LoginSubject, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@example.com")
}

func TestSMTPNotifier_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@example.com"})
	assert.Error(t, n.Send(context.Background(), "a@example.com", "s", "b"))
}

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("From <f@example.com>", "t@example.com", "Hello", "a\nb")

	assert.True(t, strings.HasPrefix(msg, "From: From <f@example.com>\r\nTo: t@example.com\r\nSubject: Hello\r\n"))
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n\r\na\r\nb")
}

func TestParseAddress(t *testing.T) {
	assert.Equal(t, "f@example.com", parseAddress("Name <f@example.com>"))
	assert.Equal(t, "f@example.com", parseAddress("  f@example.com "))
}
