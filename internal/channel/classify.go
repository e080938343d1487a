package channel

import "strings"

// AttachmentKind is the coarse type of an attachment URL.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentDocument AttachmentKind = "document"
	AttachmentUnknown  AttachmentKind = "unknown"
)

var attachmentSuffixes = []struct {
	suffix string
	kind   AttachmentKind
}{
	{".jpg", AttachmentImage},
	{".jpeg", AttachmentImage},
	{".png", AttachmentImage},
	{".mp4", AttachmentVideo},
	{".pdf", AttachmentDocument},
}

// Classify maps a URL to its attachment kind by case-insensitive suffix only.
// Query strings are not stripped and content is never fetched.
func Classify(url string) AttachmentKind {
	lower := strings.ToLower(strings.TrimSpace(url))
	for _, item := range attachmentSuffixes {
		if strings.HasSuffix(lower, item.suffix) {
			return item.kind
		}
	}
	return AttachmentUnknown
}
