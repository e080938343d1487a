package notice

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testKeywords = []string{"簡報", "報告", "監測", "presentation", "briefing", "report", "monitoring"}

func TestExtractPlainTemplate(t *testing.T) {
	t.Parallel()

	e := NewExtractor(testKeywords)
	got := e.Extract("RT Alice\n簡報通知\n內文\nreport.pdf (http://x/report.pdf)", nil)
	want := Notification{
		Author:         "Alice",
		Subject:        "簡報通知",
		Body:           "內文",
		AttachmentName: "report.pdf",
		AttachmentURL:  "http://x/report.pdf",
	}
	assert.Equal(t, want, got)
}

func TestExtractDefaults(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("", nil)
	assert.Equal(t, Notification{Author: DefaultAuthor, Subject: DefaultSubject}, got)
}

func TestExtractFirstMatchWins(t *testing.T) {
	t.Parallel()

	text := "RT Alice\nRT Bob\nfirst body\nweekly report\nmonitoring digest\nsecond body\na.pdf (http://x/a.pdf)\nb.pdf (http://x/b.pdf)"
	got := NewExtractor(testKeywords).Extract(text, nil)
	assert.Equal(t, "Alice", got.Author)
	assert.Equal(t, "weekly report", got.Subject)
	assert.Equal(t, "first body", got.Body)
	assert.Equal(t, "a.pdf", got.AttachmentName)
	assert.Equal(t, "http://x/a.pdf", got.AttachmentURL)
}

func TestExtractFileLineIsNotTakenAsSubject(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("report.pdf (https://x/report.pdf)\nBriefing at noon", nil)
	assert.Equal(t, "report.pdf", got.AttachmentName)
	assert.Equal(t, "Briefing at noon", got.Subject)
	assert.Equal(t, "", got.Body)
}

func TestExtractStripsMentionAllAndBlankLines(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("@ALL\n\n\n  RT   Carol  \n\nALL please read\n", nil)
	assert.Equal(t, "Carol", got.Author)
	assert.Equal(t, "please read", got.Body)
}

func TestExtractStripsMentionAllOnWordBoundariesOnly(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("RT Carol\nALLOCATION @all review", nil)
	assert.Equal(t, "ALLOCATION  review", got.Body)
}

func TestExtractHTMLDecodesEntities(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("<p>RT Ops</p><p>monitoring alert</p><p>CPU &lt; 5% &amp; disk &gt; 90%</p>", nil)
	assert.Equal(t, "Ops", got.Author)
	assert.Equal(t, "monitoring alert", got.Subject)
	assert.Equal(t, "CPU < 5% & disk > 90%", got.Body)

	got = NewExtractor(testKeywords).Extract("<", nil)
	assert.Equal(t, "<", got.Body)
}

func TestExtractFallsBackToAttachmentList(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("RT Dan\nbody", []string{
		"https://x/photo.png",
		"https://x/files/%E5%A0%B1%E5%91%8A%202024.PDF",
		"https://x/other.pdf",
	})
	assert.Equal(t, "報告 2024.PDF", got.AttachmentName)
	assert.Equal(t, "https://x/files/%E5%A0%B1%E5%91%8A%202024.PDF", got.AttachmentURL)
}

func TestExtractInTextFileBeatsAttachmentList(t *testing.T) {
	t.Parallel()

	got := NewExtractor(testKeywords).Extract("x.pdf (http://x/x.pdf)", []string{"https://x/y.pdf"})
	assert.Equal(t, "http://x/x.pdf", got.AttachmentURL)
}

func TestExtractHTML(t *testing.T) {
	t.Parallel()

	html := `<p>RT Alice</p><p>簡報通知</p><p>內文</p><p><a href="http://x/report.pdf">report.pdf</a></p>`
	got := NewExtractor(testKeywords).Extract(html, nil)
	assert.Equal(t, "Alice", got.Author)
	assert.Equal(t, "簡報通知", got.Subject)
	assert.Equal(t, "內文", got.Body)
	assert.Equal(t, "report.pdf", got.AttachmentName)
	assert.Equal(t, "http://x/report.pdf", got.AttachmentURL)
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	e := NewExtractor(testKeywords)
	text := "<div>RT Eve<br>monitoring alert<br>disk full</div>"
	first := e.Extract(text, []string{"https://x/log.pdf"})
	second := e.Extract(text, []string{"https://x/log.pdf"})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extract not deterministic: %#v vs %#v", first, second)
	}
}

func TestFlattenMarkdown(t *testing.T) {
	t.Parallel()

	in := "# Title\n\n**RT Alice**\n\n- item one\n\n> quoted\n\n[report.pdf](http://x/report.pdf)\n\n[http://x/y](http://x/y)\n\nfile\\_name\\.txt"
	want := "Title\n\nRT Alice\n\nitem one\n\nquoted\n\nreport.pdf (http://x/report.pdf)\n\nhttp://x/y\n\nfile_name.txt"
	assert.Equal(t, want, flattenMarkdown(in))
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\nb &\n", stripTags("<p>a<br>b &amp;</p>"))
}

func TestNewExtractorNormalizesKeywords(t *testing.T) {
	t.Parallel()

	e := NewExtractor([]string{" Report ", "", "  "})
	assert.Equal(t, []string{"report"}, e.keywords)
	assert.True(t, e.isSubject("Quarterly REPORT"))
}
