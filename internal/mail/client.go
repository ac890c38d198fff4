package mail

import (
	"context"
	"log/slog"

	"github.com/sapliy/teamdesk/pkg/metrics"
)

// Result is the structured outcome of one verify+send attempt. The
// client never returns an error across this boundary; failures are
// carried in the result so callers can surface them as-is.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Response  string `json:"smtpResponse,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Client wraps a Transport with the verify-before-send policy, timeout
// handling and provider-aware error classification. One call is one
// attempt; retries are the caller's decision.
type Client struct {
	log    *slog.Logger
	smtp   Transport
	resend Transport
}

func NewClient(log *slog.Logger) *Client {
	return NewClientWith(log, NewSMTPTransport(), NewResendTransport())
}

// NewClientWith injects transports; tests use it to stub the network.
func NewClientWith(log *slog.Logger, smtpT, resendT Transport) *Client {
	return &Client{log: log, smtp: smtpT, resend: resendT}
}

func (c *Client) transportFor(cfg Config) Transport {
	if cfg.Provider == ProviderResend {
		return c.resend
	}
	return c.smtp
}

func failure(msg string, stage string) Result {
	metrics.EmailsFailed.WithLabelValues(stage).Inc()
	return Result{Success: false, Error: msg}
}

// Send runs one delivery attempt: precondition checks, then verify,
// then send. The send step never starts unless verify succeeded.
func (c *Client) Send(ctx context.Context, cfg Config, msg Message) Result {
	if !cfg.Enabled {
		return Result{Success: false, Error: "email sending is disabled; enable and save the email configuration first"}
	}
	if len(msg.To) == 0 {
		return Result{Success: false, Error: "no recipient specified"}
	}
	for _, rcpt := range msg.To {
		if !ValidEmail(rcpt) {
			return Result{Success: false, Error: "recipient " + rcpt + " is not a valid email address"}
		}
	}

	// Password stays out of the logs.
	attempt := c.log.With(
		"provider", cfg.Provider,
		"host", cfg.Host,
		"port", cfg.Port,
		"secure", cfg.Secure,
		"username", cfg.Username,
	)

	transport := c.transportFor(cfg)

	attempt.Info("verifying email transport")
	if err := transport.Verify(ctx, cfg); err != nil {
		classified := classifyError(cfg, "verify", err)
		attempt.Error("transport verify failed", "error", classified)
		return failure(classified, "verify")
	}

	attempt.Info("sending email", "recipients", len(msg.To), "subject", msg.Subject)
	res, err := transport.Send(ctx, cfg, msg)
	if err != nil {
		classified := classifyError(cfg, "send", err)
		attempt.Error("email send failed", "error", classified)
		return failure(classified, "send")
	}

	metrics.EmailsSent.Inc()
	attempt.Info("email sent", "messageId", res.MessageID)
	return Result{Success: true, MessageID: res.MessageID, Response: res.Response}
}
