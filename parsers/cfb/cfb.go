// Package cfb reads Compound File Binary (OLE2 structured storage)
// containers: the sector-based format legacy desktop mail clients use
// for saved and draft messages.
//
// It parses the header, the FAT and mini-FAT allocation tables, the
// DIFAT chain, and the directory tree, and reconstitutes named streams
// from their sector chains. The reader is strictly read-only and works
// over an in-memory buffer; corrupt chains degrade to short or empty
// streams instead of failing the whole parse.
package cfb

import "errors"

// Sector sentinels from the allocation tables.
const (
	sectDIFAT      = 0xFFFFFFFC // sector holds DIFAT entries
	sectFAT        = 0xFFFFFFFD // sector holds FAT entries
	sectEndOfChain = 0xFFFFFFFE // terminates a sector chain
	sectFree       = 0xFFFFFFFF // unallocated

	// NoStream marks an absent sibling or child reference in a
	// directory entry.
	NoStream = 0xFFFFFFFF
)

// Directory entry kinds. Entries of any other kind are dropped during
// the directory scan.
const (
	KindStorage = 1
	KindStream  = 2
	KindRoot    = 5
)

const (
	// MinSize is the smallest buffer that can hold a compound file
	// header. Shorter buffers are rejected before any field is read.
	MinSize = 512

	headerSize   = 512
	dirEntrySize = 128
	miniCutoff   = 4096 // streams below this live in the mini stream
	difatInline  = 109  // DIFAT entries embedded in the header
)

var (
	// ErrInvalidSignature is returned when the buffer does not start
	// with the compound file magic number.
	ErrInvalidSignature = errors.New("not a compound file")
	// ErrTooSmall is returned when the buffer is below the minimum
	// container size.
	ErrTooSmall = errors.New("buffer too small for a compound file")
	// ErrOutOfBounds is returned when a read would pass the end of
	// the buffer.
	ErrOutOfBounds = errors.New("read past end of buffer")
)

var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Matches reports whether data begins with the compound file magic
// number. Only the first four bytes are compared, mirroring the
// dispatch sniff; the full eight-byte signature is checked by NewReader.
func Matches(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == signature[0] && data[1] == signature[1] &&
		data[2] == signature[2] && data[3] == signature[3]
}

// Header holds the fields of the 512-byte container header that drive
// table construction and stream reads.
type Header struct {
	SectorSize         int
	MiniSectorSize     int
	NumFATSectors      int
	FirstDirSector     uint32
	FirstMiniFATSector uint32
	NumMiniFATSectors  int
	FirstDIFATSector   uint32
	NumDIFATSectors    int
}

// Entry is one directory node. Left, Right, and Child reference other
// entries by integer id (scan order), forming a binary tree of siblings
// rooted at each storage's Child pointer. The table is immutable after
// the directory scan, so ids never dangle into freed memory; they may
// still point at dropped slots in corrupt files, which walkers tolerate
// with a visited set.
type Entry struct {
	ID          int
	Name        string
	Kind        int
	Left        uint32
	Right       uint32
	Child       uint32
	StartSector uint32
	Size        uint64
}

// Reader parses a compound file buffer once and serves stream reads
// from the resulting tables. All state is private to the buffer it was
// built from; a Reader is not safe for concurrent use.
type Reader struct {
	cur     *Cursor
	header  Header
	fat     []uint32
	miniFAT []uint32
	entries []Entry

	miniStream []byte
	miniLoaded bool
}

// NewReader validates the header and builds the FAT, mini-FAT, and
// directory tables. It fails only for a structurally unreadable header:
// ErrTooSmall below the minimum size, ErrInvalidSignature on a magic
// mismatch. Corruption past the header degrades per stream instead.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < MinSize {
		return nil, ErrTooSmall
	}
	for i, b := range signature {
		if data[i] != b {
			return nil, ErrInvalidSignature
		}
	}

	r := &Reader{cur: NewCursor(data)}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	r.buildFAT()
	r.buildMiniFAT()
	r.readDirectory()
	return r, nil
}

// Header returns the parsed container header.
func (r *Reader) Header() Header {
	return r.header
}

// Entries returns the kept directory entries in scan order. The slice
// is owned by the Reader and must not be mutated.
func (r *Reader) Entries() []Entry {
	return r.entries
}

// Entry returns the directory entry with the given id, or nil when the
// id is out of range.
func (r *Reader) Entry(id uint32) *Entry {
	if id == NoStream || int(id) >= len(r.entries) {
		return nil
	}
	return &r.entries[id]
}

// Root returns the root storage entry, or nil when the directory holds
// none.
func (r *Reader) Root() *Entry {
	for i := range r.entries {
		if r.entries[i].Kind == KindRoot {
			return &r.entries[i]
		}
	}
	return nil
}

// FATLen and MiniFATLen expose table sizes for diagnostics.
func (r *Reader) FATLen() int     { return len(r.fat) }
func (r *Reader) MiniFATLen() int { return len(r.miniFAT) }

func (r *Reader) readHeader() error {
	sectorShift, err := r.cur.ReadU16(30)
	if err != nil {
		return err
	}
	miniShift, _ := r.cur.ReadU16(32)
	numFAT, _ := r.cur.ReadU32(44)
	firstDir, _ := r.cur.ReadU32(48)
	firstMiniFAT, _ := r.cur.ReadU32(60)
	numMiniFAT, _ := r.cur.ReadU32(64)
	firstDIFAT, _ := r.cur.ReadU32(68)
	numDIFAT, _ := r.cur.ReadU32(72)

	// Shifts are capped so sector arithmetic cannot overflow; a
	// nonsense shift makes every sector read fall out of bounds and
	// the decode degrades to empty streams.
	if sectorShift > 24 {
		sectorShift = 24
	}
	if miniShift > 24 {
		miniShift = 24
	}
	r.header = Header{
		SectorSize:         1 << sectorShift,
		MiniSectorSize:     1 << miniShift,
		NumFATSectors:      int(numFAT),
		FirstDirSector:     firstDir,
		FirstMiniFATSector: firstMiniFAT,
		NumMiniFATSectors:  int(numMiniFAT),
		FirstDIFATSector:   firstDIFAT,
		NumDIFATSectors:    int(numDIFAT),
	}
	return nil
}

// sectorData returns the raw bytes of a sector, or nil when the index
// is a sentinel or the sector lies past the buffer end. Sector data
// starts after the fixed 512-byte header region.
func (r *Reader) sectorData(sect uint32) []byte {
	if sect >= sectDIFAT {
		return nil
	}
	off := headerSize + int(sect)*r.header.SectorSize
	if off < 0 || off+r.header.SectorSize > r.cur.Len() {
		return nil
	}
	return r.cur.data[off : off+r.header.SectorSize]
}

// buildFAT collects FAT sector locations from the header's inline DIFAT
// table and, when declared, the DIFAT sector chain, then concatenates
// the contents of every FAT sector into one allocation table. Regions
// past the buffer end are skipped, not fatal.
func (r *Reader) buildFAT() {
	locs := make([]uint32, 0, difatInline)
	for i := 0; i < difatInline; i++ {
		v, err := r.cur.ReadU32(76 + i*4)
		if err != nil || v == sectEndOfChain || v == sectFree {
			break
		}
		locs = append(locs, v)
	}

	// Each DIFAT sector holds sectorSize/4 - 1 FAT locations plus the
	// next DIFAT sector in its final slot.
	perSector := r.header.SectorSize/4 - 1
	sect := r.header.FirstDIFATSector
	for i := 0; i < r.header.NumDIFATSectors && perSector > 0; i++ {
		data := r.sectorData(sect)
		if data == nil {
			break
		}
		for j := 0; j < perSector; j++ {
			v := u32at(data, j*4)
			if v == sectEndOfChain || v == sectFree {
				break
			}
			locs = append(locs, v)
		}
		sect = u32at(data, perSector*4)
		if sect == sectEndOfChain || sect == sectFree {
			break
		}
	}

	for _, loc := range locs {
		data := r.sectorData(loc)
		if data == nil {
			continue
		}
		for off := 0; off+4 <= len(data); off += 4 {
			r.fat = append(r.fat, u32at(data, off))
		}
	}
}

// buildMiniFAT walks the FAT chain from the header's mini-FAT start
// sector, bounded by the declared sector count. A start sentinel means
// the file has no mini stream and the table stays empty.
func (r *Reader) buildMiniFAT() {
	sect := r.header.FirstMiniFATSector
	if sect >= sectDIFAT {
		return
	}
	for i := 0; i < r.header.NumMiniFATSectors; i++ {
		data := r.sectorData(sect)
		if data == nil {
			break
		}
		for off := 0; off+4 <= len(data); off += 4 {
			r.miniFAT = append(r.miniFAT, u32at(data, off))
		}
		if int(sect) >= len(r.fat) {
			break
		}
		sect = r.fat[sect]
		if sect >= sectDIFAT {
			break
		}
	}
}

// readDirectory walks the FAT chain from the first directory sector,
// parsing 128-byte entries. An entry is kept only when its kind is
// storage, stream, or root and its name length is in (0, 64]; kept
// entries receive sequential ids in scan order.
func (r *Reader) readDirectory() {
	sect := r.header.FirstDirSector
	maxSteps := len(r.fat) + 1
	for steps := 0; steps < maxSteps && sect < sectDIFAT; steps++ {
		data := r.sectorData(sect)
		if data == nil {
			break
		}
		for off := 0; off+dirEntrySize <= len(data); off += dirEntrySize {
			if e, ok := parseDirEntry(data[off : off+dirEntrySize]); ok {
				e.ID = len(r.entries)
				r.entries = append(r.entries, e)
			}
		}
		if int(sect) >= len(r.fat) {
			break
		}
		sect = r.fat[sect]
	}
}

// parseDirEntry decodes one raw 128-byte directory slot. ok is false
// for free slots, unknown kinds, and out-of-range name lengths.
func parseDirEntry(raw []byte) (Entry, bool) {
	nameLen := int(u16at(raw, 64))
	kind := int(raw[66])
	if nameLen == 0 || nameLen > 64 {
		return Entry{}, false
	}
	if kind != KindStorage && kind != KindStream && kind != KindRoot {
		return Entry{}, false
	}
	// The stored length counts the UTF-16 terminator.
	n := nameLen - 2
	if n < 0 {
		n = 0
	}
	return Entry{
		Name:        DecodeText(raw[0:n], UTF16LE),
		Kind:        kind,
		Left:        u32at(raw, 68),
		Right:       u32at(raw, 72),
		Child:       u32at(raw, 76),
		StartSector: u32at(raw, 116),
		Size:        u64at(raw, 120),
	}, true
}

// ReadStream reconstitutes the byte content of a stream entry. Streams
// below the mini cutoff live in the mini stream and are copied in
// mini-sector slices; everything else is copied sector by sector from
// the container. Both walks stop at the end-of-chain sentinel and are
// bounded by the stream size and the allocation table length, so a
// cyclic chain in a corrupt file terminates with partial data.
func (r *Reader) ReadStream(e *Entry) []byte {
	if e == nil || e.Size == 0 {
		return nil
	}
	// The copy amount is capped by the buffer, but the mini-vs-FAT
	// decision follows the declared size.
	size := e.Size
	if size > uint64(r.cur.Len()) {
		size = uint64(r.cur.Len())
	}
	if e.Kind != KindRoot && e.Size < miniCutoff {
		return r.readMiniChain(e.StartSector, int(size))
	}
	return r.readChain(e.StartSector, int(size))
}

func (r *Reader) readChain(start uint32, size int) []byte {
	out := make([]byte, 0, size)
	sect := start
	for steps := 0; steps <= len(r.fat) && len(out) < size; steps++ {
		data := r.sectorData(sect)
		if data == nil {
			break
		}
		n := size - len(out)
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n]...)
		if int(sect) >= len(r.fat) {
			break
		}
		sect = r.fat[sect]
		if sect == sectEndOfChain {
			break
		}
	}
	return out
}

// miniStreamData materializes the root storage's stream, which backs
// every mini-allocated stream. Loaded once per Reader.
func (r *Reader) miniStreamData() []byte {
	if !r.miniLoaded {
		r.miniLoaded = true
		if root := r.Root(); root != nil && root.Size > 0 {
			size := root.Size
			if size > uint64(r.cur.Len()) {
				size = uint64(r.cur.Len())
			}
			r.miniStream = r.readChain(root.StartSector, int(size))
		}
	}
	return r.miniStream
}

func (r *Reader) readMiniChain(start uint32, size int) []byte {
	mini := r.miniStreamData()
	out := make([]byte, 0, size)
	sect := start
	for steps := 0; steps <= len(r.miniFAT) && len(out) < size; steps++ {
		if sect >= sectDIFAT {
			break
		}
		off := int(sect) * r.header.MiniSectorSize
		if off < 0 || off >= len(mini) {
			break
		}
		end := off + r.header.MiniSectorSize
		if end > len(mini) {
			end = len(mini)
		}
		chunk := mini[off:end]
		n := size - len(out)
		if n > len(chunk) {
			n = len(chunk)
		}
		out = append(out, chunk[:n]...)
		if int(sect) >= len(r.miniFAT) {
			break
		}
		sect = r.miniFAT[sect]
	}
	return out
}

func u16at(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func u32at(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func u64at(b []byte, off int) uint64 {
	return uint64(u32at(b, off)) | uint64(u32at(b, off+4))<<32
}
