// Package channel holds the platform-neutral types shared by both bridge
// directions: channel pairs, message sources, canonical messages and
// dispatch outcomes, plus the registry that routes between them.
package channel

import (
	"strings"
)

// ChannelPair binds one LINE credential and its recipients to the Teams
// endpoint they relay with. Pairs are immutable once loaded.
type ChannelPair struct {
	Key                 string   `json:"key"                  validate:"required"`
	Credential          string   `json:"-"                    validate:"required"`
	RecipientIDs        []string `json:"recipient_ids"        validate:"min=1,dive,required"`
	CounterpartEndpoint string   `json:"counterpart_endpoint" validate:"required,url"`
}

// HasRecipient reports whether id is one of the pair's recipients.
func (p ChannelPair) HasRecipient(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, candidate := range p.RecipientIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// SourceKind identifies who authored an inbound LINE message.
type SourceKind string

const (
	SourceUser  SourceKind = "user"
	SourceGroup SourceKind = "group"
	SourceRoom  SourceKind = "room"
)

// MessageSource describes the author of an inbound LINE message.
type MessageSource struct {
	Kind    SourceKind `json:"type"`
	UserID  string     `json:"userId,omitempty"`
	GroupID string     `json:"groupId,omitempty"`
	RoomID  string     `json:"roomId,omitempty"`
}

// RecipientID returns the push target the source belongs to: the group,
// else the room, else the user.
func (s MessageSource) RecipientID() string {
	if id := strings.TrimSpace(s.GroupID); id != "" {
		return id
	}
	if id := strings.TrimSpace(s.RoomID); id != "" {
		return id
	}
	return strings.TrimSpace(s.UserID)
}

// MessageType names a canonical message variant.
type MessageType string

const (
	MessageText    MessageType = "text"
	MessageImage   MessageType = "image"
	MessageVideo   MessageType = "video"
	MessageSticker MessageType = "sticker"
)

// Message is the canonical, wire-neutral message both directions produce.
// Only the fields of its Type are meaningful.
type Message struct {
	Type       MessageType `json:"type"`
	Text       string      `json:"text,omitempty"`
	URL        string      `json:"url,omitempty"`
	PreviewURL string      `json:"preview_url,omitempty"`
	PackageID  string      `json:"package_id,omitempty"`
	StickerID  string      `json:"sticker_id,omitempty"`
}

// TextMessage builds a text message.
func TextMessage(text string) Message {
	return Message{Type: MessageText, Text: text}
}

// ImageMessage builds an image message previewed by its own URL.
func ImageMessage(url string) Message {
	return Message{Type: MessageImage, URL: url, PreviewURL: url}
}

// VideoMessage builds a video message previewed by its own URL.
func VideoMessage(url string) Message {
	return Message{Type: MessageVideo, URL: url, PreviewURL: url}
}

// StickerMessage builds a sticker message.
func StickerMessage(packageID, stickerID string) Message {
	return Message{Type: MessageSticker, PackageID: packageID, StickerID: stickerID}
}

// DispatchOutcome records how one recipient's push settled.
type DispatchOutcome struct {
	RecipientID string `json:"recipient_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// CountFailures returns the number of unsuccessful outcomes.
func CountFailures(outcomes []DispatchOutcome) int {
	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
		}
	}
	return failed
}
