package notify

import "context"

type Attachment struct {
	Filename string
	Content  []byte
}

type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Notifier delivers customer email. Implementations must respect context
// cancellation so a slow mail server cannot hang a caller.
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}
