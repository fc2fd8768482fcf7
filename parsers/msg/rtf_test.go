package msg

import (
	"bytes"
	"errors"
	"testing"
)

// compressedHeader prepends the 16-byte header for a payload of the
// given type and declared uncompressed size.
func compressedHeader(payload []byte, compType uint32, rawSize int) []byte {
	data := make([]byte, 16+len(payload))
	putU32(data, 0, uint32(len(payload)+12))
	putU32(data, 4, uint32(rawSize))
	putU32(data, 8, compType)
	copy(data[16:], payload)
	return data
}

func TestDecompressRTFLiterals(t *testing.T) {
	// Control byte 0x00: eight literal tokens follow.
	payload := []byte{0x00, 'h', 'e', 'l', 'l', 'o', ' ', 'w', 'o'}
	out, err := DecompressRTF(compressedHeader(payload, rtfCompressed, 8))
	if err != nil {
		t.Fatalf("DecompressRTF: %v", err)
	}
	if string(out) != "hello wo" {
		t.Errorf("out = %q, want %q", out, "hello wo")
	}
}

func TestDecompressRTFDictionaryReference(t *testing.T) {
	// Control 0x01: one reference token, offset 0 length 4, which reads
	// the start of the seeded dictionary.
	payload := []byte{0x01, 0x00, 0x02}
	out, err := DecompressRTF(compressedHeader(payload, rtfCompressed, 4))
	if err != nil {
		t.Fatalf("DecompressRTF: %v", err)
	}
	if string(out) != `{\rt` {
		t.Errorf("out = %q, want %q", out, `{\rt`)
	}
}

func TestDecompressRTFEndMarker(t *testing.T) {
	// A reference whose offset equals the write cursor (207 at start)
	// terminates the stream.
	payload := []byte{0x01, 0x0C, 0xF0}
	out, err := DecompressRTF(compressedHeader(payload, rtfCompressed, 100))
	if err != nil {
		t.Fatalf("DecompressRTF: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestDecompressRTFUncompressed(t *testing.T) {
	raw := []byte(`{\rtf1 plain}`)
	out, err := DecompressRTF(compressedHeader(raw, rtfUncompressed, len(raw)))
	if err != nil {
		t.Fatalf("DecompressRTF: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Errorf("out = %q, want %q", out, raw)
	}
}

func TestDecompressRTFMalformed(t *testing.T) {
	if _, err := DecompressRTF([]byte{1, 2, 3}); !errors.Is(err, ErrBadRTF) {
		t.Errorf("short input: err = %v, want ErrBadRTF", err)
	}
	bad := compressedHeader([]byte("x"), 0xDEADBEEF, 1)
	if _, err := DecompressRTF(bad); !errors.Is(err, ErrBadRTF) {
		t.Errorf("unknown type: err = %v, want ErrBadRTF", err)
	}
}

func TestEncapsulatedHTML(t *testing.T) {
	tests := []struct {
		name string
		rtf  string
		want string
	}{
		{
			"plain rtf",
			`{\rtf1\ansi \par hello}`,
			"",
		},
		{
			"simple tags",
			`{\rtf1\ansi\fromhtml1 {\*\htmltag64 <p>}Hi{\*\htmltag72 </p>}}`,
			"<p>Hi</p>",
		},
		{
			"htmlrtf region suppressed",
			`{\rtf1\fromhtml1 {\*\htmltag64 <b>}\htmlrtf \par IGNORED\htmlrtf0 Bold{\*\htmltag72 </b>}}`,
			"<b>Bold</b>",
		},
		{
			"hex escape in tag",
			`{\rtf1\fromhtml1 {\*\htmltag84 <a href\'3d"x">}link{\*\htmltag92 </a>}}`,
			`<a href="x">link</a>`,
		},
		{
			"escaped braces in text",
			`{\rtf1\fromhtml1 {\*\htmltag64 <p>}a \{x\} b{\*\htmltag72 </p>}}`,
			"<p>a {x} b</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncapsulatedHTML([]byte(tt.rtf)); got != tt.want {
				t.Errorf("EncapsulatedHTML = %q, want %q", got, tt.want)
			}
		})
	}
}
