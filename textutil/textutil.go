// Package textutil converts HTML bodies to plain text and normalizes
// whitespace. Both decode paths funnel body text through it.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	reHead     = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	reStyle    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reScript   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	reXMLDecl  = regexp.MustCompile(`(?i)<\?xml[^>]*\?>|<!DOCTYPE[^>]*>`)
	reBlockTag = regexp.MustCompile(`(?i)<(?:br[^>]*|/p|/div|/tr|/li|/h[1-6])>`)
	reHTMLTag  = regexp.MustCompile(`<[^>]*>`)

	// Outlook HTML leaks CSS selector blocks as bare text when its
	// style sections are truncated.
	reCSSBlock = regexp.MustCompile(`(?m)^[^<>{}]{0,200}\{[^{}]*\}\s*$`)

	reManyNewlines = regexp.MustCompile(`\n{3,}`)
)

// StripHTML converts an HTML fragment to plain text. Head, style,
// script, comment, and XML-declaration blocks are removed outright,
// block-level tags become newlines, and the remainder is tokenized so
// only text content survives. Inputs that defeat the tokenizer fall
// back to a blunt tag-stripping pass.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	cleaned := reHead.ReplaceAllString(s, "")
	cleaned = reStyle.ReplaceAllString(cleaned, "")
	cleaned = reScript.ReplaceAllString(cleaned, "")
	cleaned = reComment.ReplaceAllString(cleaned, "")
	cleaned = reXMLDecl.ReplaceAllString(cleaned, "")
	cleaned = reCSSBlock.ReplaceAllString(cleaned, "")
	cleaned = reBlockTag.ReplaceAllString(cleaned, "\n")

	text := tokenText(cleaned)
	if text == "" && strings.TrimSpace(cleaned) != "" {
		text = reHTMLTag.ReplaceAllString(cleaned, " ")
	}
	return NormalizeText(text)
}

// tokenText walks the HTML token stream and keeps text content,
// skipping anything nested under style or script elements the regex
// pass missed (unclosed tags).
func tokenText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "style" || tag == "script" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "style" || tag == "script") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// NormalizeText unifies line endings to \n, collapses runs of three or
// more newlines to two, and trims surrounding whitespace. It is applied
// to every body value regardless of which decode path produced it.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reManyNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
