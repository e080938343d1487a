package channel

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want AttachmentKind
	}{
		{url: "https://x/a.jpg", want: AttachmentImage},
		{url: "https://x/a.jpeg", want: AttachmentImage},
		{url: "https://x/a.png", want: AttachmentImage},
		{url: "https://x/a.mp4", want: AttachmentVideo},
		{url: "https://x/a.pdf", want: AttachmentDocument},
		{url: "https://x/a.gif", want: AttachmentUnknown},
		{url: "https://x/a.png?size=large", want: AttachmentUnknown},
		{url: "", want: AttachmentUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.url); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}

func TestClassifyIgnoresExtensionCase(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{"jpg", "jpeg", "png", "mp4", "pdf", "txt"} {
		lower := Classify("https://x/file." + ext)
		upper := Classify("https://x/file." + strings.ToUpper(ext))
		mixed := Classify("https://x/file." + strings.ToUpper(ext[:1]) + ext[1:])
		if lower != upper || lower != mixed {
			t.Fatalf("case variance for %s: %s %s %s", ext, lower, upper, mixed)
		}
	}
}

func TestMessageSourceRecipientID(t *testing.T) {
	t.Parallel()

	if got := (MessageSource{Kind: SourceGroup, UserID: "U1", GroupID: "C1"}).RecipientID(); got != "C1" {
		t.Fatalf("group source recipient = %q", got)
	}
	if got := (MessageSource{Kind: SourceRoom, UserID: "U1", RoomID: "R1"}).RecipientID(); got != "R1" {
		t.Fatalf("room source recipient = %q", got)
	}
	if got := (MessageSource{Kind: SourceUser, UserID: "U1"}).RecipientID(); got != "U1" {
		t.Fatalf("user source recipient = %q", got)
	}
}
