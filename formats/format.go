// Package formats defines the Format interface and a registry for
// pluggable message container formats. To add a format, create a
// package that implements Format and calls Register from its init
// function. The registry auto-detects formats by content (magic bytes)
// first and falls back to file extension matching.
package formats

import (
	"path/filepath"
	"strings"

	"github.com/ekayaprod/mailto/message"
)

// Result is a single output file produced by decoding a container.
type Result struct {
	Name     string
	Data     []byte
	Category string // "body", "html", or "recipients"
}

// Format handles detection and decoding of a specific container format.
type Format interface {
	// Name returns a human-readable format name.
	Name() string

	// Extensions returns file extensions this format handles,
	// including the leading dot (e.g. ".msg", ".mbox").
	Extensions() []string

	// Match returns true if data begins with recognized magic bytes
	// or structure.
	Match(data []byte) bool

	// Decode processes raw container data and returns the extracted
	// results.
	Decode(data []byte) ([]Result, error)
}

var registry []Format

// Register adds a format to the global registry. Call this from an
// init function in your format package.
func Register(f Format) {
	registry = append(registry, f)
}

// Detect identifies the correct format for a file. It checks content
// (magic bytes) first, then falls back to extension matching.
func Detect(filename string, data []byte) Format {
	for _, f := range registry {
		if f.Match(data) {
			return f
		}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f
			}
		}
	}
	return nil
}

// All returns every registered format.
func All() []Format {
	return registry
}

// Render converts a decoded record into extraction results. The HTML
// body is rewritten with inlined images so it is viewable offline.
// Pass a non-nil cache map to share fetched images across records.
func Render(rec message.Record, prefix string, cache map[string]string) []Result {
	var out []Result
	if rec.Body != "" {
		out = append(out, Result{
			Name:     prefixed(prefix, "body.txt"),
			Data:     []byte(rec.Body),
			Category: "body",
		})
	}
	if rec.BodyHTML != "" {
		out = append(out, Result{
			Name:     prefixed(prefix, "body.html"),
			Data:     InlineExternalImages([]byte(rec.BodyHTML), cache),
			Category: "html",
		})
	}
	if len(rec.Recipients) > 0 {
		var b strings.Builder
		for _, r := range rec.Recipients {
			b.WriteString(r.Type.String())
			b.WriteString(": ")
			if r.Name != "" {
				b.WriteString(r.Name)
				b.WriteString(" ")
			}
			b.WriteString("<")
			b.WriteString(r.Email)
			b.WriteString(">\n")
		}
		out = append(out, Result{
			Name:     prefixed(prefix, "recipients.txt"),
			Data:     []byte(b.String()),
			Category: "recipients",
		})
	}
	return out
}

// prefixed prepends a prefix to a filename with an underscore separator.
func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// SanitizeFilename replaces characters that are unsafe in file paths
// and strips control characters to prevent header injection.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	for _, c := range []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, c, "_")
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}
