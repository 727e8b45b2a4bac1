// Package channels contains the outbound WhatsApp transports. Both the
// Meta Cloud API and the Twilio bridge speak the same Sender interface so
// the dispatcher does not care which one is wired.
package channels

import "context"

// Sender delivers outbound text to a customer's phone.
type Sender interface {
	// Send delivers text to the phone number in digits-only form.
	Send(ctx context.Context, to, text string) error
	// MarkRead flags an inbound message as read on the channel.
	// Transports without read receipts treat it as a no-op.
	MarkRead(ctx context.Context, messageID string) error
	Name() string
}
