package notice

import (
	"html"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	markdownLinkPattern     = regexp.MustCompile(`!?\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	markdownHeadingPattern  = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	markdownListPattern     = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+`)
	markdownQuotePattern    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	markdownRulePattern     = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	markdownEmphasisPattern = regexp.MustCompile(`\*\*|__|~~`)
	markdownEscapePattern   = regexp.MustCompile("\\\\([!-/:-@\\[-`{-~])")
	htmlTagPattern          = regexp.MustCompile(`<[^>]*>`)
)

// HTMLToText renders HTML notification text as plain lines. Links keep their
// target as "label (href)" so file references survive the conversion.
func HTMLToText(raw string) string {
	markdown, err := htmltomarkdown.ConvertString(raw)
	if err != nil {
		return stripTags(raw)
	}
	return flattenMarkdown(markdown)
}

func flattenMarkdown(markdown string) string {
	text := markdownLinkPattern.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := markdownLinkPattern.FindStringSubmatch(match)
		label := strings.TrimSpace(parts[1])
		href := strings.TrimSpace(parts[2])
		if label == "" || label == href {
			return href
		}
		return label + " (" + href + ")"
	})
	text = markdownRulePattern.ReplaceAllString(text, "")
	text = markdownHeadingPattern.ReplaceAllString(text, "")
	text = markdownQuotePattern.ReplaceAllString(text, "")
	text = markdownListPattern.ReplaceAllString(text, "")
	text = markdownEmphasisPattern.ReplaceAllString(text, "")
	text = markdownEscapePattern.ReplaceAllString(text, "$1")
	return html.UnescapeString(text)
}

func stripTags(raw string) string {
	text := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n", "</div>", "\n").Replace(raw)
	return html.UnescapeString(htmlTagPattern.ReplaceAllString(text, ""))
}
