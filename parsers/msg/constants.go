// Package msg decodes Outlook MSG messages stored as compound files.
//
// A MSG file is an OLE2 container whose streams carry MAPI properties:
// each property stream's name encodes a 16-bit property id and a 16-bit
// type tag, and per-recipient sub-storages hold the recipient table.
// The decoder resolves the text-encoding ambiguity real producers leave
// behind (UTF-16 versus 8-bit code page streams), applies body-property
// precedence, and reconciles recipient classes against the legacy
// display-To/display-Cc summary fields.
package msg

// Stream and storage name markers inside the container.
const (
	propStreamPrefix   = "__substg1.0_"
	recipStoragePrefix = "__recip"
)

// MAPI property IDs used during decoding.
const (
	PropSubject       = 0x0037 // PR_SUBJECT
	PropClientSubmit  = 0x0039 // PR_CLIENT_SUBMIT_TIME
	PropMessageTime   = 0x0E06 // PR_MESSAGE_DELIVERY_TIME
	PropDisplayCc     = 0x0E03 // PR_DISPLAY_CC
	PropDisplayTo     = 0x0E04 // PR_DISPLAY_TO
	PropRecipientType = 0x0C15 // PR_RECIPIENT_TYPE
	PropBody          = 0x1000 // PR_BODY
	PropRTFCompressed = 0x1009 // PR_RTF_COMPRESSED
	PropBodyHTML      = 0x1013 // PR_BODY_HTML
	PropDisplayName   = 0x3001 // PR_DISPLAY_NAME
	PropEmailAddress  = 0x3003 // PR_EMAIL_ADDRESS
	PropSMTPAddress   = 0x39FE // PR_SMTP_ADDRESS
)

// MAPI property type tags.
const (
	TypeInt32   = 0x0003 // PT_LONG
	TypeBoolean = 0x000B // PT_BOOLEAN
	TypeString8 = 0x001E // PT_STRING8
	TypeUnicode = 0x001F // PT_UNICODE
	TypeSystime = 0x0040 // PT_SYSTIME
	TypeBinary  = 0x0102 // PT_BINARY
)

// Recipient classes from PR_RECIPIENT_TYPE.
const (
	ClassTo  = 1
	ClassCc  = 2
	ClassBcc = 3
)

// filetimeEpochDiff is the tick count between 1601-01-01 and
// 1970-01-01 in 100-nanosecond units.
const filetimeEpochDiff = 116444736000000000
