package line

import "github.com/linebridge/bridge/internal/channel"

// WebhookBatch is the body LINE posts to the bot webhook.
type WebhookBatch struct {
	Destination string  `json:"destination,omitempty"`
	Events      []Event `json:"events"`
}

// Event is one webhook event. Message is nil for non-message events.
type Event struct {
	Type       string                `json:"type"`
	Timestamp  int64                 `json:"timestamp,omitempty"`
	ReplyToken string                `json:"replyToken,omitempty"`
	Message    *EventMessage         `json:"message,omitempty"`
	Source     channel.MessageSource `json:"source"`
}

// EventMessage is the message object of a message event.
type EventMessage struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent returns the text of a text message event.
func (e Event) TextContent() (string, bool) {
	if e.Type != "message" || e.Message == nil || e.Message.Type != "text" {
		return "", false
	}
	return e.Message.Text, true
}
