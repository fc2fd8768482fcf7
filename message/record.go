// Package message turns raw email-container bytes into a normalized
// record. The container format is sniffed once up front: a compound
// file signature selects the binary path, anything else the MIME text
// path, and the binary path backfills missing subject and body fields
// from the MIME parser for hybrid files.
package message

import "time"

// RecipientType classifies a recipient.
type RecipientType int

const (
	To RecipientType = iota + 1
	Cc
	Bcc
)

func (t RecipientType) String() string {
	switch t {
	case To:
		return "To"
	case Cc:
		return "Cc"
	case Bcc:
		return "Bcc"
	}
	return "Unknown"
}

// Recipient is one classified recipient.
type Recipient struct {
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Type  RecipientType `json:"recipientType"`
}

// Source names the container path that produced a record.
type Source string

const (
	SourceCompound Source = "compound"
	SourceMIME     Source = "mime"
)

// Record is the normalized decode result. It is created once per
// decode call, owned entirely by the caller, and shares no state with
// the decoder.
type Record struct {
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	BodyHTML   string      `json:"bodyHTML,omitempty"`
	Date       time.Time   `json:"date,omitzero"`
	Recipients []Recipient `json:"recipients"`
	Source     Source      `json:"source"`
}
