package line

import (
	"fmt"

	"github.com/linebridge/bridge/internal/channel"
)

// wireMessage is a Messaging API message object. Only the fields of its
// type are serialized.
type wireMessage struct {
	Type               string `json:"type"`
	Text               string `json:"text,omitempty"`
	OriginalContentURL string `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string `json:"previewImageUrl,omitempty"`
	PackageID          string `json:"packageId,omitempty"`
	StickerID          string `json:"stickerId,omitempty"`
}

func toWireMessage(msg channel.Message) (wireMessage, error) {
	switch msg.Type {
	case channel.MessageText:
		return wireMessage{Type: "text", Text: msg.Text}, nil
	case channel.MessageImage, channel.MessageVideo:
		preview := msg.PreviewURL
		if preview == "" {
			preview = msg.URL
		}
		return wireMessage{Type: string(msg.Type), OriginalContentURL: msg.URL, PreviewImageURL: preview}, nil
	case channel.MessageSticker:
		return wireMessage{Type: "sticker", PackageID: msg.PackageID, StickerID: msg.StickerID}, nil
	default:
		return wireMessage{}, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}

func toWireMessages(messages []channel.Message) ([]wireMessage, error) {
	items := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		item, err := toWireMessage(msg)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
