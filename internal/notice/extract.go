// Package notice pulls structured fields out of semi-structured notification
// text (author, subject, body and an optional PDF reference).
package notice

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	DefaultAuthor  = "unknown"
	DefaultSubject = "no subject"
)

var (
	mentionAllPattern = regexp.MustCompile(`(?i)@?\bALL\b`)
	blankRunPattern   = regexp.MustCompile(`\n{2,}`)
	authorPattern     = regexp.MustCompile(`^RT\s+(.+)$`)
	fileRefPattern    = regexp.MustCompile(`(?i)^(.+\.pdf)\s*\((http[^\s)]*)\)$`)
)

// Notification is the structured result of Extract.
type Notification struct {
	Author         string `json:"author"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentName string `json:"attachment_name,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
}

// HasAttachment reports whether a PDF reference was found.
func (n Notification) HasAttachment() bool {
	return n.AttachmentURL != ""
}

// Extractor classifies notification lines. It is stateless between calls and
// safe for concurrent use.
type Extractor struct {
	keywords []string
}

// NewExtractor creates an Extractor matching subject lines against keywords
// (case-insensitive substring match).
func NewExtractor(keywords []string) *Extractor {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return &Extractor{keywords: normalized}
}

// Extract converts text (HTML when it contains '<') into a Notification.
// attachments is consulted for a PDF only when the text has no file line.
func (e *Extractor) Extract(text string, attachments []string) Notification {
	var st scanState
	for _, line := range splitLines(text) {
		st.feed(line, e.isSubject(line))
	}
	n := st.result()
	if !n.HasAttachment() {
		if name, ref, ok := firstPDF(attachments); ok {
			n.AttachmentName = name
			n.AttachmentURL = ref
		}
	}
	return n
}

func (e *Extractor) isSubject(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.Contains(text, "<") {
		text = HTMLToText(text)
	}
	text = mentionAllPattern.ReplaceAllString(text, "")
	text = blankRunPattern.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// lineKind is the category a scanned line was claimed by.
type lineKind int

const (
	lineIgnored lineKind = iota
	lineAuthor
	lineFile
	lineSubject
	lineBody
)

// scanState is the line classifier. A line is tried as author, then file
// reference, then subject, then body; file comes before subject so a PDF
// line whose name contains a subject keyword stays a file. Each category
// locks on its first match; author and file lines are always claimed by
// their category, so a second "RT ..." line is dropped rather than becoming
// the body.
type scanState struct {
	locked         map[lineKind]bool
	author         string
	subject        string
	body           string
	attachmentName string
	attachmentURL  string
}

func (s *scanState) feed(line string, subjectCandidate bool) lineKind {
	if s.locked == nil {
		s.locked = map[lineKind]bool{}
	}
	if m := authorPattern.FindStringSubmatch(line); m != nil {
		if !s.locked[lineAuthor] {
			s.author = strings.TrimSpace(m[1])
			s.locked[lineAuthor] = true
		}
		return lineAuthor
	}
	if m := fileRefPattern.FindStringSubmatch(line); m != nil {
		if !s.locked[lineFile] {
			s.attachmentName = strings.TrimSpace(m[1])
			s.attachmentURL = strings.TrimSpace(m[2])
			s.locked[lineFile] = true
		}
		return lineFile
	}
	if subjectCandidate && !s.locked[lineSubject] {
		s.subject = line
		s.locked[lineSubject] = true
		return lineSubject
	}
	if !s.locked[lineBody] {
		s.body = line
		s.locked[lineBody] = true
		return lineBody
	}
	return lineIgnored
}

func (s *scanState) result() Notification {
	n := Notification{
		Author:         s.author,
		Subject:        s.subject,
		Body:           s.body,
		AttachmentName: s.attachmentName,
		AttachmentURL:  s.attachmentURL,
	}
	if n.Author == "" {
		n.Author = DefaultAuthor
	}
	if n.Subject == "" {
		n.Subject = DefaultSubject
	}
	return n
}

func firstPDF(attachments []string) (name, ref string, ok bool) {
	for _, raw := range attachments {
		ref = strings.TrimSpace(raw)
		if !strings.HasSuffix(strings.ToLower(ref), ".pdf") {
			continue
		}
		segment := ref[strings.LastIndex(ref, "/")+1:]
		if decoded, err := url.PathUnescape(segment); err == nil {
			segment = decoded
		}
		return segment, ref, true
	}
	return "", "", false
}
