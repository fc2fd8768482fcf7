// Inspect is a low-level diagnostic tool that dumps the sector tables
// and directory tree of a compound file, with decoded samples for MAPI
// property streams.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ekayaprod/mailto/parsers/cfb"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: inspect <file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	r, err := cfb.NewReader(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := r.Header()
	fmt.Printf("Compound file: %s (%d bytes)\n\n", os.Args[1], len(data))
	fmt.Printf("Sector size:      %d\n", h.SectorSize)
	fmt.Printf("Mini sector size: %d\n", h.MiniSectorSize)
	fmt.Printf("FAT entries:      %d\n", r.FATLen())
	fmt.Printf("Mini-FAT entries: %d\n", r.MiniFATLen())
	fmt.Printf("Directory start:  sector %d\n", h.FirstDirSector)
	fmt.Printf("Entries:          %d\n\n", len(r.Entries()))

	entries := r.Entries()
	for i := range entries {
		dumpEntry(r, &entries[i])
	}
}

// dumpEntry prints one directory entry with its sibling links and, for
// MAPI property streams, the decoded property id, type, and a sample
// value.
func dumpEntry(r *cfb.Reader, e *cfb.Entry) {
	fmt.Printf("[%3d] %-8s %-36q size=%-8d start=%d\n",
		e.ID, kindStr(e.Kind), e.Name, e.Size, e.StartSector)
	if e.Left != cfb.NoStream || e.Right != cfb.NoStream || e.Child != cfb.NoStream {
		fmt.Printf("      links: left=%s right=%s child=%s\n",
			linkStr(e.Left), linkStr(e.Right), linkStr(e.Child))
	}
	if id, tag, ok := propertyTag(e.Name); ok {
		fmt.Printf("      prop 0x%04X %-28s %-12s", id, pName(id), tName(tag))
		printSample(r, e, tag)
		fmt.Println()
	}
}

// propertyTag extracts the property id and type tag from a stream name
// of the form __substg1.0_XXXXTTTT.
func propertyTag(name string) (int, int, bool) {
	const prefix = "__substg1.0_"
	if !strings.HasPrefix(name, prefix) || len(name) != len(prefix)+8 {
		return 0, 0, false
	}
	id, err1 := strconv.ParseUint(name[len(name)-8:len(name)-4], 16, 16)
	tag, err2 := strconv.ParseUint(name[len(name)-4:], 16, 16)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int(id), int(tag), true
}

// printSample prints a short decoded value for common property types.
func printSample(r *cfb.Reader, e *cfb.Entry, tag int) {
	raw := r.ReadStream(e)
	if len(raw) == 0 {
		return
	}
	switch tag {
	case 0x001F:
		fmt.Printf("  %q", clip(cfb.DecodeText(raw, cfb.UTF16LE)))
	case 0x001E:
		fmt.Printf("  %q", clip(cfb.DecodeText(raw, cfb.CodePage)))
	case 0x0003:
		if len(raw) >= 4 {
			v := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
			fmt.Printf("  val=%d", v)
		}
	case 0x000B:
		fmt.Printf("  val=%v", raw[0] != 0)
	case 0x0102:
		fmt.Printf("  %d bytes", len(raw))
	}
}

// clip strips null bytes and truncates long sample strings.
func clip(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// kindStr returns a label for a directory entry kind.
func kindStr(kind int) string {
	switch kind {
	case cfb.KindStorage:
		return "storage"
	case cfb.KindStream:
		return "stream"
	case cfb.KindRoot:
		return "root"
	default:
		return fmt.Sprintf("kind=%d", kind)
	}
}

// linkStr formats a sibling reference, using "-" for the no-stream
// sentinel.
func linkStr(id uint32) string {
	if id == cfb.NoStream {
		return "-"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// pName returns the symbolic name of a MAPI property ID.
func pName(pid int) string {
	m := map[int]string{
		0x001A: "PR_MESSAGE_CLASS", 0x0037: "PR_SUBJECT",
		0x0039: "PR_CLIENT_SUBMIT_TIME", 0x003D: "PR_SUBJECT_PREFIX",
		0x0042: "PR_SENT_REPRESENTING_NAME", 0x0065: "PR_SENT_REPRESENTING_EMAIL",
		0x0C15: "PR_RECIPIENT_TYPE", 0x0C1A: "PR_SENDER_NAME",
		0x0C1F: "PR_SENDER_EMAIL_ADDRESS", 0x0E03: "PR_DISPLAY_CC",
		0x0E04: "PR_DISPLAY_TO", 0x0E06: "PR_MESSAGE_DELIVERY_TIME",
		0x0E07: "PR_MESSAGE_FLAGS", 0x0E08: "PR_MESSAGE_SIZE",
		0x1000: "PR_BODY", 0x1009: "PR_RTF_COMPRESSED", 0x1013: "PR_BODY_HTML",
		0x1035: "PR_INTERNET_MESSAGE_ID", 0x3001: "PR_DISPLAY_NAME",
		0x3003: "PR_EMAIL_ADDRESS", 0x3007: "PR_CREATION_TIME",
		0x3008: "PR_LAST_MODIFICATION_TIME", 0x3702: "PR_ATTACH_ENCODING",
		0x3703: "PR_ATTACH_EXTENSION", 0x3704: "PR_ATTACH_FILENAME",
		0x3707: "PR_ATTACH_LONG_FILENAME", 0x370E: "PR_ATTACH_MIME_TAG",
		0x39FE: "PR_SMTP_ADDRESS",
	}
	if n, ok := m[pid]; ok {
		return n
	}
	return ""
}

// tName returns the symbolic name of a MAPI property type.
func tName(t int) string {
	m := map[int]string{
		0x0002: "PT_SHORT", 0x0003: "PT_LONG", 0x000B: "PT_BOOLEAN",
		0x001E: "PT_STRING8", 0x001F: "PT_UNICODE", 0x0040: "PT_SYSTIME",
		0x0048: "PT_CLSID", 0x0102: "PT_BINARY", 0x000D: "PT_OBJECT",
	}
	if n, ok := m[t]; ok {
		return n
	}
	return fmt.Sprintf("0x%04X", t)
}
