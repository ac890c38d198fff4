package mail

import "context"

// Message is one outbound email. Scheduled reports put every recipient
// in To of a single message; changing that would alter the observable
// email structure.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html,omitempty"`
}

// SendResult is what a transport reports back on success.
type SendResult struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response,omitempty"`
}

// Transport is the network primitive the client wraps with timeout and
// error-classification policy. Verify probes connectivity and auth
// without transmitting; Send performs one delivery attempt.
type Transport interface {
	Verify(ctx context.Context, cfg Config) error
	Send(ctx context.Context, cfg Config, msg Message) (*SendResult, error)
}
