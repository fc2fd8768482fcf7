// Package mbox registers Unix mbox archives with the formats registry
// on import. Every message in the archive is decoded independently and
// its results carry a message-number prefix.
package mbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/ekayaprod/mailto/formats"
	"github.com/ekayaprod/mailto/message"
)

func init() {
	formats.Register(&format{})
}

type format struct{}

func (f *format) Name() string {
	return "mbox archive"
}

func (f *format) Extensions() []string {
	return []string{".mbox"}
}

// Match looks for the "From " postmark that opens every mbox file.
func (f *format) Match(data []byte) bool {
	return bytes.HasPrefix(data, []byte("From "))
}

// Decode splits the archive and runs each message through the regular
// dispatcher. A read error mid-archive returns the results recovered
// so far together with the error.
func (f *format) Decode(data []byte) ([]formats.Result, error) {
	r := mboxlib.NewReader(bytes.NewReader(data))
	cache := make(map[string]string)
	var out []formats.Result
	for n := 1; ; n++ {
		mr, err := r.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("mbox message %d: %w", n, err)
		}
		raw, err := io.ReadAll(mr)
		if err != nil {
			return out, fmt.Errorf("mbox message %d: %w", n, err)
		}
		rec := message.Decode(raw)
		out = append(out, formats.Render(rec, fmt.Sprintf("message_%04d", n), cache)...)
	}
}
