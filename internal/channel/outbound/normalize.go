// Package outbound turns Teams webhook payloads into canonical messages and
// pushes them to every LINE recipient of the matching channel pair.
package outbound

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/linebridge/bridge/internal/channel"
	"github.com/linebridge/bridge/internal/notice"
)

// EmptyMessageText is sent when a payload carries nothing to relay.
const EmptyMessageText = "empty message received"

var htmlTagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^<>]*)?/?>`)

// TeamsPayload is the body a Teams flow posts to /webhook/teams/:channel.
type TeamsPayload struct {
	Text        string   `json:"text,omitempty"`
	Message     string   `json:"message,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	StickerID   string   `json:"stickerId,omitempty"`
	PackageID   string   `json:"packageId,omitempty"`
}

// ChannelKeyResolver finds a pair by its channel key.
type ChannelKeyResolver interface {
	ResolveByChannelKey(key string) (channel.ChannelPair, bool)
}

// Normalizer builds the canonical message sequence for a payload.
type Normalizer struct {
	registry  ChannelKeyResolver
	extractor *notice.Extractor
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(registry ChannelKeyResolver, extractor *notice.Extractor) *Normalizer {
	return &Normalizer{registry: registry, extractor: extractor}
}

// Normalize resolves the pair for channelKey and renders payload. An unknown
// key returns an error wrapping channel.ErrUnroutable.
func (n *Normalizer) Normalize(payload TeamsPayload, channelKey string) ([]channel.Message, channel.ChannelPair, error) {
	pair, ok := n.registry.ResolveByChannelKey(channelKey)
	if !ok {
		return nil, channel.ChannelPair{}, fmt.Errorf("channel %q: %w", channelKey, channel.ErrUnroutable)
	}
	return n.Messages(payload), pair, nil
}

// Messages renders payload without routing. Output depends only on payload.
func (n *Normalizer) Messages(payload TeamsPayload) []channel.Message {
	messages := make([]channel.Message, 0, 2+len(payload.Attachments))

	if containsHTML(payload.Text) {
		messages = append(messages, channel.TextMessage(n.noticeText(payload)))
	} else {
		if text := strings.TrimSpace(payload.Text); text != "" {
			messages = append(messages, channel.TextMessage(text))
		}
		if text := strings.TrimSpace(payload.Message); text != "" {
			messages = append(messages, channel.TextMessage(text))
		}
	}

	for _, raw := range payload.Attachments {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		switch channel.Classify(url) {
		case channel.AttachmentImage:
			messages = append(messages, channel.ImageMessage(url))
		case channel.AttachmentVideo:
			messages = append(messages, channel.VideoMessage(url))
		default:
			messages = append(messages, channel.TextMessage("attachment: "+url))
		}
	}

	stickerID := strings.TrimSpace(payload.StickerID)
	packageID := strings.TrimSpace(payload.PackageID)
	if stickerID != "" && packageID != "" {
		messages = append(messages, channel.StickerMessage(packageID, stickerID))
	}

	if len(messages) == 0 {
		messages = append(messages, channel.TextMessage(EmptyMessageText))
	}
	return messages
}

func (n *Normalizer) noticeText(payload TeamsPayload) string {
	extractor := n.extractor
	if extractor == nil {
		extractor = notice.NewExtractor(nil)
	}
	note := extractor.Extract(payload.Text, payload.Attachments)
	var b strings.Builder
	b.WriteString("author: ")
	b.WriteString(note.Author)
	b.WriteString("\nsubject: ")
	b.WriteString(note.Subject)
	b.WriteString("\nbody: \"")
	b.WriteString(note.Body)
	b.WriteString("\"")
	if note.HasAttachment() {
		b.WriteString("\nfile: ")
		b.WriteString(note.AttachmentName)
		b.WriteString(" ")
		b.WriteString(note.AttachmentURL)
	}
	return b.String()
}

func containsHTML(text string) bool {
	return strings.Contains(text, "<") && htmlTagPattern.MatchString(text)
}
