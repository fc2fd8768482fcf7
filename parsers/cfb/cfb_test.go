package cfb

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

// testFile assembles a synthetic container: a 512-byte header followed
// by numSectors 512-byte sectors. Callers fill sectors through the
// returned helpers.
func testFile(numSectors int) []byte {
	buf := make([]byte, headerSize+numSectors*512)
	copy(buf, signature)
	putU16(buf, 24, 0x003E) // minor version
	putU16(buf, 26, 3)      // major version
	putU16(buf, 28, 0xFFFE) // byte order
	putU16(buf, 30, 9)      // sector shift: 512
	putU16(buf, 32, 6)      // mini sector shift: 64
	putU32(buf, 56, miniCutoff)
	putU32(buf, 60, sectEndOfChain) // no mini-FAT unless a test sets one
	putU32(buf, 68, sectEndOfChain) // no DIFAT chain
	for i := 0; i < difatInline; i++ {
		putU32(buf, 76+i*4, sectFree)
	}
	return buf
}

func putU16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func putU32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }

// sector returns the writable slice for sector n.
func sector(buf []byte, n int) []byte {
	off := headerSize + n*512
	return buf[off : off+512]
}

// fillFree initializes a FAT or mini-FAT sector to all free entries.
func fillFree(sect []byte) {
	for off := 0; off+4 <= len(sect); off += 4 {
		binary.LittleEndian.PutUint32(sect[off:], sectFree)
	}
}

// putDirEntry writes a 128-byte directory entry into slot of a
// directory sector.
func putDirEntry(sect []byte, slot int, name string, kind byte, left, right, child, start uint32, size uint64) {
	e := sect[slot*dirEntrySize : (slot+1)*dirEntrySize]
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		if i >= 31 {
			break
		}
		binary.LittleEndian.PutUint16(e[i*2:], u)
	}
	binary.LittleEndian.PutUint16(e[64:], uint16(len(units)*2+2))
	e[66] = kind
	binary.LittleEndian.PutUint32(e[68:], left)
	binary.LittleEndian.PutUint32(e[72:], right)
	binary.LittleEndian.PutUint32(e[76:], child)
	binary.LittleEndian.PutUint32(e[116:], start)
	binary.LittleEndian.PutUint64(e[120:], size)
}

func utf16Bytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

// miniContainer builds a container with one stream held in the mini
// stream: sector 0 FAT, sector 1 directory, sector 2 mini-FAT,
// sector 3 mini stream data.
func miniContainer(streamName string, payload []byte) []byte {
	buf := testFile(4)
	putU32(buf, 44, 1) // one FAT sector
	putU32(buf, 48, 1) // directory at sector 1
	putU32(buf, 60, 2) // mini-FAT at sector 2
	putU32(buf, 64, 1)
	putU32(buf, 76, 0) // DIFAT[0]: FAT lives in sector 0

	// Single-sector chains: directory, mini-FAT, and mini stream each
	// terminate immediately.
	fat := sector(buf, 0)
	fillFree(fat)
	binary.LittleEndian.PutUint32(fat[0:], sectFAT)
	binary.LittleEndian.PutUint32(fat[4:], sectEndOfChain)
	binary.LittleEndian.PutUint32(fat[8:], sectEndOfChain)
	binary.LittleEndian.PutUint32(fat[12:], sectEndOfChain)

	dir := sector(buf, 1)
	putDirEntry(dir, 0, "Root Entry", KindRoot, NoStream, NoStream, 1, 3, uint64(len(payload)))
	putDirEntry(dir, 1, streamName, KindStream, NoStream, NoStream, NoStream, 0, uint64(len(payload)))

	miniFAT := sector(buf, 2)
	fillFree(miniFAT)
	// payload fits a handful of 64-byte mini sectors
	n := (len(payload) + 63) / 64
	for i := 0; i < n-1; i++ {
		binary.LittleEndian.PutUint32(miniFAT[i*4:], uint32(i+1))
	}
	if n > 0 {
		binary.LittleEndian.PutUint32(miniFAT[(n-1)*4:], sectEndOfChain)
	}

	copy(sector(buf, 3), payload)
	return buf
}

func TestNewReaderRejectsSmallBuffers(t *testing.T) {
	if _, err := NewReader(make([]byte, 100)); err != ErrTooSmall {
		t.Fatalf("want ErrTooSmall, got %v", err)
	}
}

func TestNewReaderRejectsWrongMagic(t *testing.T) {
	buf := make([]byte, 600)
	if _, err := NewReader(buf); err != ErrInvalidSignature {
		t.Fatalf("want ErrInvalidSignature, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	if Matches([]byte{0x00, 0x01}) {
		t.Fatal("short buffer must not match")
	}
	if !Matches([]byte{0xD0, 0xCF, 0x11, 0xE0}) {
		t.Fatal("magic prefix must match")
	}
}

func TestReadStreamMini(t *testing.T) {
	payload := utf16Bytes("Hello")
	buf := miniContainer("__substg1.0_0037001F", payload)

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(r.Entries()) != 2 {
		t.Fatalf("want 2 entries, got %d", len(r.Entries()))
	}
	e := &r.Entries()[1]
	if e.Name != "__substg1.0_0037001F" {
		t.Fatalf("entry name = %q", e.Name)
	}
	got := r.ReadStream(e)
	if !bytes.Equal(got, payload) {
		t.Fatalf("stream = %x, want %x", got, payload)
	}
}

func TestReadStreamMultiMiniSector(t *testing.T) {
	// 100 bytes spans two 64-byte mini sectors.
	payload := bytes.Repeat([]byte{0xAB}, 100)
	buf := miniContainer("__substg1.0_10000102", payload)

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got := r.ReadStream(&r.Entries()[1])
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
}

func TestReadStreamFATPath(t *testing.T) {
	// A stream at the mini cutoff goes through the regular FAT chain:
	// sectors 2..11 hold 4096 payload bytes.
	buf := testFile(12)
	putU32(buf, 44, 1)
	putU32(buf, 48, 1)
	putU32(buf, 76, 0)

	fat := sector(buf, 0)
	fillFree(fat)
	binary.LittleEndian.PutUint32(fat[0:], sectFAT)
	binary.LittleEndian.PutUint32(fat[4:], sectEndOfChain)
	for s := 2; s < 11; s++ {
		binary.LittleEndian.PutUint32(fat[s*4:], uint32(s+1))
	}
	binary.LittleEndian.PutUint32(fat[11*4:], sectEndOfChain)

	payload := bytes.Repeat([]byte("abcd"), 1024)
	for i := 0; i < 8; i++ {
		copy(sector(buf, 2+i), payload[i*512:(i+1)*512])
	}

	dir := sector(buf, 1)
	putDirEntry(dir, 0, "Root Entry", KindRoot, NoStream, NoStream, 1, sectEndOfChain, 0)
	putDirEntry(dir, 1, "big", KindStream, NoStream, NoStream, NoStream, 2, uint64(len(payload)))

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got := r.ReadStream(&r.Entries()[1])
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
}

func TestReadStreamCyclicChainTerminates(t *testing.T) {
	buf := testFile(4)
	putU32(buf, 44, 1)
	putU32(buf, 48, 1)
	putU32(buf, 76, 0)

	fat := sector(buf, 0)
	fillFree(fat)
	binary.LittleEndian.PutUint32(fat[0:], sectFAT)
	binary.LittleEndian.PutUint32(fat[4:], sectEndOfChain)
	// sectors 2 and 3 point at each other forever
	binary.LittleEndian.PutUint32(fat[8:], 3)
	binary.LittleEndian.PutUint32(fat[12:], 2)

	dir := sector(buf, 1)
	putDirEntry(dir, 0, "Root Entry", KindRoot, NoStream, NoStream, 1, sectEndOfChain, 0)
	putDirEntry(dir, 1, "loop", KindStream, NoStream, NoStream, NoStream, 2, 1<<20)

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got := r.ReadStream(&r.Entries()[1])
	// Bounded by the FAT length: the walk must stop, and it can never
	// produce more data than the table allows.
	if len(got) > (len(r.fat)+1)*512 {
		t.Fatalf("cyclic chain produced %d bytes", len(got))
	}
}

func TestReadStreamNeverExceedsDeclaredSize(t *testing.T) {
	payload := utf16Bytes("Hello")
	buf := miniContainer("s", payload)
	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	e := r.Entries()[1]
	e.Size = 4 // shorter than the chain provides
	got := r.ReadStream(&e)
	if len(got) != 4 {
		t.Fatalf("got %d bytes, want 4", len(got))
	}
}

func TestDirectoryDropsInvalidEntries(t *testing.T) {
	buf := miniContainer("ok", []byte{1})
	dir := sector(buf, 1)
	// Slot 2: unknown kind. Slot 3: zero name length.
	putDirEntry(dir, 2, "bad-kind", 9, NoStream, NoStream, NoStream, 0, 0)
	putDirEntry(dir, 3, "x", KindStream, NoStream, NoStream, NoStream, 0, 0)
	binary.LittleEndian.PutUint16(dir[3*dirEntrySize+64:], 0)

	r, err := NewReader(buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(r.Entries()) != 2 {
		t.Fatalf("want 2 kept entries, got %d", len(r.Entries()))
	}
}

func TestCursorBounds(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	if _, err := c.ReadU32(0); err != ErrOutOfBounds {
		t.Fatalf("ReadU32 near end: want ErrOutOfBounds, got %v", err)
	}
	if _, err := c.ReadU16(2); err != ErrOutOfBounds {
		t.Fatalf("ReadU16 at len-1: want ErrOutOfBounds, got %v", err)
	}
	v, err := c.ReadU16(0)
	if err != nil || v != 0x0201 {
		t.Fatalf("ReadU16(0) = %x, %v", v, err)
	}
	if _, err := c.Slice(1, 5); err != ErrOutOfBounds {
		t.Fatalf("Slice past end: want ErrOutOfBounds, got %v", err)
	}
}

func TestDecodeTextLossy(t *testing.T) {
	// Odd-length UTF-16 input drops the dangling byte instead of failing.
	got := DecodeText([]byte{0x48, 0x00, 0x69, 0x00, 0xFF}, UTF16LE)
	if got != "Hi" {
		t.Fatalf("lossy UTF-16 = %q", got)
	}
	// Windows-1252 maps every byte somewhere printable or replaces it.
	if got := DecodeText([]byte{0x48, 0x69, 0x94}, CodePage); got[:2] != "Hi" {
		t.Fatalf("codepage decode = %q", got)
	}
}
