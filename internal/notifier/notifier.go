// Package notifier delivers outgoing email notifications, preferring a
// durable queue with a fall-back to immediate delivery.
package notifier

import "context"

// Message is an outgoing email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Job is the queue envelope for a Message.
type Job struct {
	ID string `json:"id"`
	Message
}

// Sender performs a single synchronous delivery attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher accepts a message for delivery. A nil error means the message
// was accepted (queued or sent), not that it reached the recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}
