// rtf.go recovers message bodies from PR_RTF_COMPRESSED streams: LZFu
// decompression per MS-OXRTFCP, then extraction of the original HTML
// from Outlook's \fromhtml1 encapsulation (MS-OXRTFEX).

package msg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

// Compression signatures from the compressed RTF header.
const (
	rtfCompressed   = 0x75465A4C // "LZFu"
	rtfUncompressed = 0x414C454D // "MELA"
)

const (
	rtfDictSize = 4096
	rtfInitLen  = 207
	maxRTFSize  = 64 << 20 // cap on crafted rawSize header values
)

// rtfInitDict is the fixed seed that occupies the first 207 bytes of
// the circular dictionary before decompression begins. The write cursor
// starts right behind it.
var rtfInitDict = []byte(
	"{\\rtf1\\ansi\\mac\\deff0\\deftab720{\\fonttbl;}" +
		"{\\f0\\fnil \\froman \\fswiss \\fmodern \\fscript " +
		"\\fdecor MS Sans SerifSymbolArialTimes New Roman" +
		"Courier{\\colortbl\\red0\\green0\\blue0\r\n\\par " +
		"\\pard\\plain\\f0\\fs20\\b\\i\\u\\tab\\tx")

// ErrBadRTF is returned for a malformed compressed RTF stream.
var ErrBadRTF = errors.New("malformed compressed RTF stream")

// DecompressRTF expands a PR_RTF_COMPRESSED value into raw RTF. Both
// the LZFu-compressed and the raw MELA layouts are handled. The header
// CRC is not verified: too many producers write junk there for a
// mismatch to mean anything.
func DecompressRTF(data []byte) ([]byte, error) {
	if len(data) < 16 {
		return nil, ErrBadRTF
	}
	rawSize := int(binary.LittleEndian.Uint32(data[4:8]))
	if rawSize < 0 || rawSize > maxRTFSize {
		rawSize = maxRTFSize
	}
	switch binary.LittleEndian.Uint32(data[8:12]) {
	case rtfUncompressed:
		end := 16 + rawSize
		if end > len(data) {
			end = len(data)
		}
		return append([]byte(nil), data[16:end]...), nil
	case rtfCompressed:
		return decompressLZFu(data[16:], rawSize), nil
	}
	return nil, ErrBadRTF
}

// decompressLZFu runs the LZ77 variant from MS-OXRTFCP: a 4096-byte
// circular dictionary seeded with a fixed RTF prologue, control bytes
// read LSB first, set bits marking two-byte dictionary references with
// a 12-bit offset and 4-bit length, clear bits marking literals. A
// reference whose offset equals the write cursor terminates the stream.
func decompressLZFu(input []byte, rawSize int) []byte {
	dict := make([]byte, rtfDictSize)
	copy(dict, rtfInitDict)
	wpos := rtfInitLen

	out := make([]byte, 0, rawSize)
	emit := func(b byte) {
		out = append(out, b)
		dict[wpos] = b
		wpos = (wpos + 1) % rtfDictSize
	}

	pos := 0
	for pos < len(input) && len(out) < rawSize {
		control := input[pos]
		pos++
		for bit := 0; bit < 8 && pos < len(input) && len(out) < rawSize; bit++ {
			if control&(1<<bit) == 0 {
				emit(input[pos])
				pos++
				continue
			}
			if pos+1 >= len(input) {
				return out
			}
			hi, lo := int(input[pos]), int(input[pos+1])
			pos += 2
			off := hi<<4 | lo>>4
			if off == wpos {
				return out
			}
			for n := (lo & 0x0F) + 2; n > 0 && len(out) < rawSize; n-- {
				emit(dict[off%rtfDictSize])
				off++
			}
		}
	}
	return out
}

// EncapsulatedHTML pulls the original HTML markup out of RTF produced
// by Outlook's \fromhtml1 encapsulation. The markup itself travels in
// {\*\htmltag} groups; the plain text between them is visible content
// unless wrapped in an \htmlrtf ... \htmlrtf0 region, which holds
// RTF-only formatting. Returns "" when the RTF is not encapsulated.
func EncapsulatedHTML(rtf []byte) string {
	if !bytes.Contains(rtf, []byte(`\fromhtml`)) {
		return ""
	}

	var out bytes.Buffer
	inRTF := false   // inside \htmlrtf ... \htmlrtf0
	tagSeen := false // past the RTF preamble

	n := len(rtf)
	for i := 0; i < n; {
		if hasAt(rtf, i, `{\*\htmltag`) {
			j := i + len(`{\*\htmltag`)
			for j < n && isDigit(rtf[j]) {
				j++
			}
			if j < n && rtf[j] == ' ' {
				j++
			}
			end := groupEnd(rtf, i)
			if k := end - 1; k > j {
				writeUnescaped(&out, rtf[j:k])
			}
			i = end
			tagSeen = true
			continue
		}

		if hasAt(rtf, i, `\htmlrtf`) {
			j := i + len(`\htmlrtf`)
			if j >= n || !isAlpha(rtf[j]) {
				// A zero parameter closes the region, anything else
				// opens one.
				inRTF = j >= n || rtf[j] != '0'
				for j < n && isDigit(rtf[j]) {
					j++
				}
				if j < n && rtf[j] == ' ' {
					j++
				}
				i = j
				continue
			}
		}

		if inRTF {
			if rtf[i] == '\\' {
				_, i = controlWord(rtf, i)
			} else {
				i++
			}
			continue
		}

		switch c := rtf[i]; {
		case c == '{' || c == '}' || c == '\r' || c == '\n':
			i++
		case c == '\\' && !tagSeen:
			// Preamble control words carry no content.
			_, i = controlWord(rtf, i)
		case c == '\\':
			i = writeEscape(&out, rtf, i)
		case tagSeen:
			out.WriteByte(c)
			i++
		default:
			i++
		}
	}
	return strings.TrimSpace(out.String())
}

// writeUnescaped copies htmltag group content, decoding RTF escapes and
// dropping bare line breaks, which RTF treats as insignificant.
func writeUnescaped(out *bytes.Buffer, frag []byte) {
	for i := 0; i < len(frag); {
		switch c := frag[i]; c {
		case '\\':
			i = writeEscape(out, frag, i)
		case '\r', '\n':
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
}

// writeEscape decodes one backslash escape starting at i and returns
// the index past it. Control words without an HTML rendering are
// skipped.
func writeEscape(out *bytes.Buffer, data []byte, i int) int {
	n := len(data)
	if i+1 >= n {
		return n
	}
	switch data[i+1] {
	case '\\', '{', '}':
		out.WriteByte(data[i+1])
		return i + 2
	case '~':
		out.WriteString("&nbsp;")
		return i + 2
	case '_':
		out.WriteString("&#8209;")
		return i + 2
	case '-', '\r', '\n':
		return i + 2
	case '\'':
		if i+3 < n {
			hi, lo := unhex(data[i+2]), unhex(data[i+3])
			if hi >= 0 && lo >= 0 {
				out.WriteByte(byte(hi<<4 | lo))
			}
			return i + 4
		}
		return n
	}
	word, j := controlWord(data, i)
	switch word {
	case "par", "line":
		out.WriteString("\r\n")
	case "tab":
		out.WriteByte('\t')
	}
	return j
}

// controlWord reads the alphabetic control word at i, which points at
// the backslash, and returns it together with the index past its
// optional numeric parameter and delimiter space. Control symbols come
// back as an empty word.
func controlWord(data []byte, i int) (string, int) {
	j := i + 1
	start := j
	for j < len(data) && isAlpha(data[j]) {
		j++
	}
	if j == start {
		return "", j + 1
	}
	word := string(data[start:j])
	if j < len(data) && data[j] == '-' {
		j++
	}
	for j < len(data) && isDigit(data[j]) {
		j++
	}
	if j < len(data) && data[j] == ' ' {
		j++
	}
	return word, j
}

// groupEnd returns the index just past the brace group opening at i.
func groupEnd(data []byte, i int) int {
	depth := 0
	for ; i < len(data); i++ {
		switch data[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(data)
}

func hasAt(data []byte, i int, s string) bool {
	return i+len(s) <= len(data) && string(data[i:i+len(s)]) == s
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
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
