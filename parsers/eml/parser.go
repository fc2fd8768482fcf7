// Package eml parses plain MIME text messages with the forgiving
// heuristics real-world drafts need: line-anchored header extraction,
// comma splitting outside quoted display names, first-text/plain
// multipart scanning, and quoted-printable plus charset decoding.
//
// Parse is total. Strict RFC parsing is deliberately avoided: the
// input is whatever a mail client left on disk, including messages a
// conforming parser would reject outright.
package eml

import (
	"encoding/base64"
	"io"
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Address is one parsed recipient.
type Address struct {
	Name  string
	Email string
}

// Message is the parsed result. Fields that cannot be extracted stay
// empty.
type Message struct {
	Subject string
	Body    string
	To      []Address
	Cc      []Address
	Bcc     []Address
}

var (
	reSubject     = regexp.MustCompile(`(?mi)^subject:[ \t]*(.*)`)
	reTo          = regexp.MustCompile(`(?mi)^to:[ \t]*(.*)`)
	reCc          = regexp.MustCompile(`(?mi)^cc:[ \t]*(.*)`)
	reBcc         = regexp.MustCompile(`(?mi)^bcc:[ \t]*(.*)`)
	reContentType = regexp.MustCompile(`(?mi)^content-type:[ \t]*(.*)`)
	reTransferEnc = regexp.MustCompile(`(?mi)^content-transfer-encoding:[ \t]*(.*)`)
	reCharset     = regexp.MustCompile(`(?i)charset="?([A-Za-z0-9._\-]+)"?`)

	reAngleAddr = regexp.MustCompile(`^\s*"?([^"<]*)"?\s*<([^<>\s]+@[^<>\s]+)>`)
	reBareAddr  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	reTextPlain = regexp.MustCompile(`(?i)text/plain`)
)

// Parse decodes a MIME text message. Bcc is read from the raw text as
// well: transports strip it from delivered mail, but local drafts keep
// it.
func Parse(data []byte) *Message {
	text := string(data)
	return &Message{
		Subject: decodeWord(findField(reSubject, text)),
		Body:    extractBody(text),
		To:      addressList(findField(reTo, text)),
		Cc:      addressList(findField(reCc, text)),
		Bcc:     addressList(findField(reBcc, text)),
	}
}

// findField returns the value of the first line matching the field
// pattern.
func findField(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// addressList parses a header value into recipients, dropping entries
// without a recognizable address.
func addressList(value string) []Address {
	var out []Address
	for _, part := range splitAddressList(value) {
		if addr, ok := parseAddress(part); ok {
			out = append(out, addr)
		}
	}
	return out
}

// splitAddressList splits on commas that sit outside quoted display
// names, tracked by quote parity.
func splitAddressList(value string) []string {
	var parts []string
	start, quotes := 0, 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '"':
			quotes++
		case ',':
			if quotes%2 == 0 {
				parts = append(parts, value[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, value[start:])
}

// parseAddress extracts one recipient from a list entry, preferring
// the "Name <addr>" form over a bare address match.
func parseAddress(part string) (Address, bool) {
	if m := reAngleAddr.FindStringSubmatch(part); m != nil {
		return Address{Name: strings.TrimSpace(m[1]), Email: m[2]}, true
	}
	if addr := reBareAddr.FindString(part); addr != "" {
		return Address{Email: addr}, true
	}
	return Address{}, false
}

// extractBody returns the decoded body: the text past the header
// block, or the first text/plain part of a multipart message.
func extractBody(text string) string {
	idx, sep := headerEnd(text)
	if idx < 0 {
		return ""
	}
	headers := text[:idx]
	ctype := findField(reContentType, headers)
	if strings.Contains(strings.ToLower(ctype), "multipart") {
		return multipartText(text)
	}
	return decodePart(text[idx+sep:], findField(reTransferEnc, headers), charsetOf(ctype))
}

// multipartText pulls the first text/plain part out of a multipart
// message. The part's own headers carry its transfer encoding and
// charset; its content runs to the next boundary marker or the end of
// the text.
func multipartText(text string) string {
	loc := reTextPlain.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[0]:]
	idx, sep := headerEnd(rest)
	if idx < 0 {
		return ""
	}
	partHeaders := rest[:idx]
	content := rest[idx+sep:]
	if end := boundaryIndex(content); end >= 0 {
		content = content[:end]
	}
	return decodePart(content, findField(reTransferEnc, partHeaders), charsetOf(partHeaders))
}

// headerEnd locates the blank line separating headers from body and
// returns its index and separator width, or -1 when there is none.
func headerEnd(text string) (int, int) {
	crlf := strings.Index(text, "\r\n\r\n")
	lf := strings.Index(text, "\n\n")
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	case lf >= 0:
		return lf, 2
	}
	return -1, 0
}

// boundaryIndex returns the index of the next boundary marker in a
// part body, or -1.
func boundaryIndex(content string) int {
	crlf := strings.Index(content, "\r\n--")
	lf := strings.Index(content, "\n--")
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf
	case lf >= 0:
		return lf
	}
	return -1
}

// decodePart reverses the content-transfer-encoding, then decodes the
// declared charset.
func decodePart(content, enc, charset string) string {
	switch {
	case strings.EqualFold(enc, "quoted-printable"):
		content = decodeQuotedPrintable(content)
	case strings.EqualFold(enc, "base64"):
		if decoded, err := base64.StdEncoding.DecodeString(strings.Map(dropWhitespace, content)); err == nil {
			content = string(decoded)
		}
	}
	return decodeCharset(content, charset)
}

// decodeQuotedPrintable reverses quoted-printable encoding by hand.
// mime/quotedprintable rejects the malformed escapes real drafts
// contain; this decoder keeps a bad escape literal instead.
func decodeQuotedPrintable(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '=' {
			out.WriteByte(s[i])
			i++
			continue
		}
		switch {
		case strings.HasPrefix(s[i:], "=\r\n"):
			i += 3
		case strings.HasPrefix(s[i:], "=\n"):
			i += 2
		case i+2 < len(s):
			hi, lo := unhex(s[i+1]), unhex(s[i+2])
			if hi >= 0 && lo >= 0 {
				out.WriteByte(byte(hi<<4 | lo))
				i += 3
			} else {
				out.WriteByte('=')
				i++
			}
		default:
			out.WriteByte('=')
			i++
		}
	}
	return out.String()
}

// charsetOf extracts the charset parameter from a content-type value
// or header block.
func charsetOf(s string) string {
	if m := reCharset.FindStringSubmatch(s); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// decodeCharset decodes content under the declared charset label using
// the WHATWG encoding index. UTF-8 and us-ascii pass through; any
// failure falls back to the undecoded string so a bad label cannot
// destroy the body.
func decodeCharset(content, charset string) string {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return content
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return content
	}
	decoded, err := io.ReadAll(transform.NewReader(strings.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return content
	}
	return string(decoded)
}

// decodeWord reverses RFC 2047 encoded words in header values, which
// drafts use for non-ASCII subjects.
func decodeWord(s string) string {
	if !strings.Contains(s, "=?") {
		return s
	}
	dec := mime.WordDecoder{CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	}}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

func dropWhitespace(r rune) rune {
	switch r {
	case ' ', '\t', '\r', '\n':
		return -1
	}
	return r
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
