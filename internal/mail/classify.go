package mail

import (
	"fmt"
	"strings"
)

// classifyError rewrites low-level transport errors into actionable
// guidance. Raw messages are appended so nothing is lost for debugging.
func classifyError(cfg Config, stage string, err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "Greeting never received"),
		strings.Contains(lower, "i/o timeout"),
		strings.Contains(lower, "deadline exceeded"):
		return fmt.Sprintf(
			"connection to %s:%s timed out before the server greeting: check that the host and port are reachable (no firewall in the way) and that an App Password is used for Gmail/Yahoo accounts (%s)",
			cfg.Host, cfg.Port, msg)

	case strings.Contains(msg, "SSL routines"),
		strings.Contains(lower, "wrong version number"),
		strings.Contains(lower, "first record does not look like a tls handshake"):
		return fmt.Sprintf(
			"TLS mismatch for %s:%s: port 587 needs secure=false (STARTTLS) and port 465 needs secure=true (implicit TLS); flip the secure flag to match the port (%s)",
			cfg.Host, cfg.Port, msg)

	case strings.Contains(lower, "username and password not accepted"),
		strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "invalid credentials"),
		strings.Contains(lower, "535"):
		return fmt.Sprintf(
			"authentication rejected by %s: re-check the username and password; Gmail and Yahoo require an App Password, Resend expects the API key in both fields (%s)",
			cfg.Host, msg)

	default:
		return fmt.Sprintf("%s failed for %s:%s: %s", stage, cfg.Host, cfg.Port, msg)
	}
}
