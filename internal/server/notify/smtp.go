package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier speaks implicit TLS on port 465 and upgrades with STARTTLS
// elsewhere when the server offers it.
type SMTPNotifier struct {
	cfg  SMTPConfig
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
	tls  *tls.Config
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	d := &net.Dialer{}
	return &SMTPNotifier{
		cfg:  cfg,
		dial: d.DialContext,
		tls:  &tls.Config{ServerName: cfg.Host},
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := n.send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, body string) error {
	client, err := n.client(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if n.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)); err != nil {
				return err
			}
		}
	}
	if err := client.Mail(parseAddress(n.cfg.From)); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(buildMessage(n.cfg.From, to, subject, body))); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (n *SMTPNotifier) client(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	conn, err := n.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if n.cfg.Port == 465 {
		conn = tls.Client(conn, n.tls)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if n.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(n.tls); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
	}
	return client, nil
}

func buildMessage(from, to, subject, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		strings.ReplaceAll(body, "\n", "\r\n"),
	}
	return strings.Join(headers, "\r\n")
}
