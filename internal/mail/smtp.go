package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Providers throttle or slow-walk unfamiliar senders, so the timeouts
// are deliberately generous.
const (
	connectTimeout = 30 * time.Second
	socketTimeout  = 30 * time.Second
)

// SMTPTransport talks plain SMTP with either implicit TLS (secure=true,
// typically port 465) or STARTTLS (secure=false, typically port 587).
type SMTPTransport struct{}

func NewSMTPTransport() *SMTPTransport {
	return &SMTPTransport{}
}

func (t *SMTPTransport) connect(ctx context.Context, cfg Config) (*smtp.Client, error) {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial: %w", err)
	}
	// One deadline covers greeting, handshake and the whole exchange.
	if err := conn.SetDeadline(time.Now().Add(socketTimeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp deadline: %w", err)
	}

	if cfg.Secure {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12})
		client, err := smtp.NewClient(tlsConn, cfg.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("smtp greeting: %w", err)
		}
		return client, nil
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp greeting: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return client, nil
}

func (t *SMTPTransport) auth(client *smtp.Client, cfg Config) error {
	if cfg.Username == "" {
		return nil
	}
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	return nil
}

// Verify connects and authenticates, then disconnects cleanly. No mail
// is transmitted.
func (t *SMTPTransport) Verify(ctx context.Context, cfg Config) error {
	client, err := t.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := t.auth(client, cfg); err != nil {
		return err
	}
	return client.Quit()
}

func (t *SMTPTransport) Send(ctx context.Context, cfg Config, msg Message) (*SendResult, error) {
	client, err := t.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := t.auth(client, cfg); err != nil {
		return nil, err
	}

	if err := client.Mail(cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return nil, fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return nil, fmt.Errorf("smtp data: %w", err)
	}
	body := buildMessage(cfg, msg)
	if _, err := writer.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("smtp close: %w", err)
	}
	if err := client.Quit(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return nil, fmt.Errorf("smtp quit: %w", err)
	}

	return &SendResult{
		MessageID: fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), cfg.Host),
		Response:  "250 message accepted",
	}, nil
}

// buildMessage assembles an RFC 822 message. When an HTML body is
// present the text and HTML parts go out as multipart/alternative.
func buildMessage(cfg Config, msg Message) string {
	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", cfg.FromName, cfg.FromEmail)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(msg.Text)
		b.WriteString("\r\n")
		return b.String()
	}

	const boundary = "teamdesk-alt-boundary"
	b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
	b.WriteString("\r\n")
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Text)
	b.WriteString("\r\n--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.String()
}
