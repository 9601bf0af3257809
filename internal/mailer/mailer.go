// Package mailer delivers verification emails over SMTP, or to the log in
// development.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

const verifySubject = "Verify Your Email - Sign Language Translation"

//go:embed templates/verify-email.html
var verifyTemplateSource string

var verifyTemplate = template.Must(template.New("verify-email").Parse(verifyTemplateSource))

// Options configure both mailers. ClientURL is the web client origin the
// verification link points to.
type Options struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	FromName  string
	ClientURL string
	TokenTTL  time.Duration
	Timeout   time.Duration
}

// VerificationLink builds {ClientURL}/verify-email?token=...
func (o Options) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(o.ClientURL, "/"), url.QueryEscape(token))
}

func (o Options) renderVerify(token string) (string, error) {
	var buf bytes.Buffer
	err := verifyTemplate.Execute(&buf, map[string]string{
		"Link":      o.VerificationLink(token),
		"ExpiresIn": humanizeTTL(o.TokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render verification email: %w", err)
	}
	return buf.String(), nil
}

func (o Options) buildMessage(to, htmlBody string) []byte {
	from := (&mail.Address{Name: o.FromName, Address: o.From}).String()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + verifySubject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")
	return []byte(msg)
}

// SMTPMailer sends through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPMailer struct {
	opts Options
}

func NewSMTPMailer(opts Options) *SMTPMailer {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.From == "" {
		opts.From = opts.Username
	}
	return &SMTPMailer{opts: opts}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	body, err := m.opts.renderVerify(token)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.opts.Host, m.opts.Port)
	slog.Debug("sending verification email", "to", to, "via", addr)

	if err := m.send(ctx, addr, to, m.opts.buildMessage(to, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	slog.Info("verification email sent", "action", "send_email", "to", to)
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, addr, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	// Bounds the whole SMTP conversation, not just the dial.
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.opts.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.opts.Host}); err != nil {
			return err
		}
	}
	if m.opts.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Host)); err != nil {
			return err
		}
	}

	if err := c.Mail(m.opts.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// LogMailer writes the verification link to the log instead of sending it.
type LogMailer struct {
	opts Options
}

func NewLogMailer(opts Options) *LogMailer {
	return &LogMailer{opts: opts}
}

func (m *LogMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	slog.Info("verification email (log provider)", "action", "send_email", "to", to, "link", m.opts.VerificationLink(token))
	return nil
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return "24 hours"
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
