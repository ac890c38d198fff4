package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendTransport delivers through the Resend HTTPS API instead of raw
// SMTP. The API key travels in the config's username/password pair.
type ResendTransport struct{}

func NewResendTransport() *ResendTransport {
	return &ResendTransport{}
}

// Verify checks what can be checked without transmitting: Resend has no
// preflight probe, so a present API key is the whole check and real
// verification happens on send.
func (t *ResendTransport) Verify(ctx context.Context, cfg Config) error {
	if cfg.Password == "" {
		return fmt.Errorf("resend API key is missing")
	}
	return nil
}

func (t *ResendTransport) Send(ctx context.Context, cfg Config, msg Message) (*SendResult, error) {
	client := resend.NewClient(cfg.Password)

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	sent, err := client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("resend send: %w", err)
	}

	return &SendResult{MessageID: sent.Id, Response: "accepted by resend"}, nil
}
