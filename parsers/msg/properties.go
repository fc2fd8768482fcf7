// properties.go decodes property streams: the id/tag encoding carried
// in stream names, the UTF-16 versus 8-bit contest for string values,
// and the fixed-width value conversions.

package msg

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ekayaprod/mailto/parsers/cfb"
)

// parseStreamName extracts the property id and type tag from a stream
// name. The last eight characters are hex: four id digits followed by
// four tag digits. ok is false for names that do not follow the
// pattern; such entries are skipped, never fatal.
func parseStreamName(name string) (id, tag int, ok bool) {
	if !strings.HasPrefix(name, propStreamPrefix) || len(name) < len(propStreamPrefix)+8 {
		return 0, 0, false
	}
	suffix := name[len(name)-8:]
	idv, err := strconv.ParseUint(suffix[:4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	tagv, err := strconv.ParseUint(suffix[4:], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return int(idv), int(tagv), true
}

// decodeString resolves the UTF-16 versus 8-bit ambiguity for one
// string value. Real producers write code-page bytes into streams
// tagged Unicode and the reverse, so the tag is a hint rather than the
// truth: the 8-bit reading wins only when the tag agrees with it, it
// scores strictly higher on printability, and it clears the confidence
// threshold. A winning 8-bit reading much shorter than the UTF-16 one
// is still rejected as a stray fragment.
func decodeString(raw []byte, tag int, opt Options) string {
	wide := cfb.DecodeText(raw, cfb.UTF16LE)
	if tag != TypeString8 {
		return cleanString(wide)
	}
	narrow := cfb.DecodeText(raw, cfb.CodePage)
	if ns := printableScore(narrow); ns <= printableScore(wide) || ns < opt.PrintableThreshold {
		return cleanString(wide)
	}
	if utf8.RuneCountInString(narrow) < opt.ShortStringMin &&
		utf8.RuneCountInString(wide) > utf8.RuneCountInString(narrow) {
		return cleanString(wide)
	}
	return cleanString(narrow)
}

// printableScore is the fraction of runes that are printable ASCII,
// Latin-1 supplement text, or common whitespace.
func printableScore(s string) float64 {
	if s == "" {
		return 0
	}
	total, good := 0, 0
	for _, r := range s {
		total++
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			good++
		case r >= 0x20 && r < 0x7F:
			good++
		case r >= 0xA0 && r <= 0xFF:
			good++
		}
	}
	return float64(good) / float64(total)
}

// cleanString strips NUL bytes left over from UTF-16 padding and trims
// surrounding whitespace.
func cleanString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// replaces reports whether candidate should displace existing when both
// carry the same property id. Text-tagged streams win over non-text
// ones; otherwise the first seen stays.
func replaces(existing, candidate Property) bool {
	return candidate.IsText() && !existing.IsText()
}

// int32Value reads the first four bytes as an unsigned little-endian
// integer, or 0 when the value is shorter.
func int32Value(raw []byte) int {
	if len(raw) < 4 {
		return 0
	}
	return int(binary.LittleEndian.Uint32(raw))
}

// boolValue is true when any nonzero byte is present.
func boolValue(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return true
		}
	}
	return false
}

// timeValue converts a FILETIME value, 100-nanosecond ticks since
// 1601-01-01, to a time.Time in UTC. Short buffers and values before
// the Unix epoch come back as the zero time.
func timeValue(raw []byte) time.Time {
	if len(raw) < 8 {
		return time.Time{}
	}
	ticks := binary.LittleEndian.Uint64(raw)
	if ticks < filetimeEpochDiff {
		return time.Time{}
	}
	ms := (ticks - filetimeEpochDiff) / 10000
	return time.UnixMilli(int64(ms)).UTC()
}
