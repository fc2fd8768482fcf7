// types.go defines the decoded message model and property accessors.

package msg

import "time"

// Property is one MAPI property pulled from a container stream.
type Property struct {
	ID  int
	Tag int
	Raw []byte

	// Text holds the decoded value for string-typed properties.
	Text string
}

// Recipient is one entry from the container's recipient table.
type Recipient struct {
	Name  string
	Email string

	// Class is the PR_RECIPIENT_TYPE value (ClassTo, ClassCc,
	// ClassBcc). Entries without one default to ClassTo.
	Class int
}

// Message is a decoded MSG file.
type Message struct {
	Subject    string
	Body       string
	BodyHTML   string
	BodyRTF    string
	Date       time.Time
	Recipients []Recipient

	// Properties holds every message-level property that was kept,
	// keyed by property ID.
	Properties map[int]Property
}

// Property returns the message-level property with the given ID.
func (m *Message) Property(id int) (Property, bool) {
	p, ok := m.Properties[id]
	return p, ok
}

// PropertyString returns the decoded text of a string-typed property,
// or "" if the property is absent or not textual.
func (m *Message) PropertyString(id int) string {
	p, ok := m.Properties[id]
	if !ok {
		return ""
	}
	return p.Text
}

// PropertyInt returns the property's value read as an unsigned 32-bit
// little-endian integer, or 0 when absent or too short.
func (m *Message) PropertyInt(id int) int {
	p, ok := m.Properties[id]
	if !ok {
		return 0
	}
	return int32Value(p.Raw)
}

// PropertyBool reports whether the property holds any nonzero byte.
func (m *Message) PropertyBool(id int) bool {
	p, ok := m.Properties[id]
	if !ok {
		return false
	}
	return boolValue(p.Raw)
}

// PropertyTime returns the property's FILETIME value, or the zero time.
func (m *Message) PropertyTime(id int) time.Time {
	p, ok := m.Properties[id]
	if !ok {
		return time.Time{}
	}
	return timeValue(p.Raw)
}

// IsText reports whether the property carries a string type tag.
func (p Property) IsText() bool {
	return p.Tag == TypeUnicode || p.Tag == TypeString8
}
