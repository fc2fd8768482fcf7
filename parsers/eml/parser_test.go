package eml

import (
	"strings"
	"testing"
)

func TestParseQuotedPrintable(t *testing.T) {
	raw := "Subject: Hi\r\nTo: a@x.com\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\nLine1=0D=0ALine2"
	m := Parse([]byte(raw))
	if m.Subject != "Hi" {
		t.Errorf("Subject = %q, want %q", m.Subject, "Hi")
	}
	if len(m.To) != 1 || m.To[0].Email != "a@x.com" {
		t.Fatalf("To = %+v, want one a@x.com entry", m.To)
	}
	if m.Body != "Line1\r\nLine2" {
		t.Errorf("Body = %q, want %q", m.Body, "Line1\r\nLine2")
	}
}

func TestParseMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: sender@example.com",
		"To: Team <team@example.com>",
		"Subject: Weekly report",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=iso-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"R=E9sum=E9 attached.",
		"--b1",
		"Content-Type: text/html",
		"",
		"<p>R&eacute;sum&eacute; attached.</p>",
		"--b1--",
		"",
	}, "\r\n")
	m := Parse([]byte(raw))
	if m.Subject != "Weekly report" {
		t.Errorf("Subject = %q, want %q", m.Subject, "Weekly report")
	}
	if len(m.To) != 1 || m.To[0] != (Address{Name: "Team", Email: "team@example.com"}) {
		t.Fatalf("To = %+v, want the Team entry", m.To)
	}
	if m.Body != "Résumé attached." {
		t.Errorf("Body = %q, want %q", m.Body, "Résumé attached.")
	}
}

func TestParseQuotedCommaInDisplayName(t *testing.T) {
	raw := "To: \"Smith, John\" <js@x.com>, b@y.com\r\n\r\nhi"
	m := Parse([]byte(raw))
	if len(m.To) != 2 {
		t.Fatalf("got %d To entries, want 2: %+v", len(m.To), m.To)
	}
	if m.To[0] != (Address{Name: "Smith, John", Email: "js@x.com"}) {
		t.Errorf("To[0] = %+v", m.To[0])
	}
	if m.To[1].Email != "b@y.com" {
		t.Errorf("To[1] = %+v, want b@y.com", m.To[1])
	}
}

func TestParseBcc(t *testing.T) {
	raw := "Subject: s\r\nBcc: hidden@x.com\r\n\r\nbody"
	m := Parse([]byte(raw))
	if len(m.Bcc) != 1 || m.Bcc[0].Email != "hidden@x.com" {
		t.Errorf("Bcc = %+v, want hidden@x.com", m.Bcc)
	}
}

func TestParseCcList(t *testing.T) {
	raw := "Cc: one@x.com, Two <two@y.com>; not-an-address\r\n\r\n."
	m := Parse([]byte(raw))
	if len(m.Cc) != 2 {
		t.Fatalf("got %d Cc entries, want 2: %+v", len(m.Cc), m.Cc)
	}
	if m.Cc[0].Email != "one@x.com" || m.Cc[1].Email != "two@y.com" {
		t.Errorf("Cc = %+v", m.Cc)
	}
}

func TestParseBase64Body(t *testing.T) {
	raw := "Content-Transfer-Encoding: base64\r\n\r\nSGVsbG8g\r\nd29ybGQ="
	m := Parse([]byte(raw))
	if m.Body != "Hello world" {
		t.Errorf("Body = %q, want %q", m.Body, "Hello world")
	}
}

func TestParseUnknownCharsetFallsBack(t *testing.T) {
	raw := "Content-Type: text/plain; charset=x-klingon\r\n\r\nplain text"
	m := Parse([]byte(raw))
	if m.Body != "plain text" {
		t.Errorf("Body = %q, want %q", m.Body, "plain text")
	}
}

func TestParseEncodedWordSubject(t *testing.T) {
	raw := "Subject: =?iso-8859-1?Q?Caf=E9?=\r\n\r\n."
	m := Parse([]byte(raw))
	if m.Subject != "Café" {
		t.Errorf("Subject = %q, want %q", m.Subject, "Café")
	}
}

func TestParseNoBlankLineNoBody(t *testing.T) {
	m := Parse([]byte("Subject: only headers"))
	if m.Body != "" {
		t.Errorf("Body = %q, want empty", m.Body)
	}
	if m.Subject != "only headers" {
		t.Errorf("Subject = %q", m.Subject)
	}
}

func TestSplitAddressList(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"a@x.com", []string{"a@x.com"}},
		{"a@x.com,b@y.com", []string{"a@x.com", "b@y.com"}},
		{`"Doe, Jane" <j@x.com>,k@y.com`, []string{`"Doe, Jane" <j@x.com>`, "k@y.com"}},
		{"", []string{""}},
	}
	for _, tt := range tests {
		got := splitAddressList(tt.value)
		if len(got) != len(tt.want) {
			t.Errorf("splitAddressList(%q) = %q, want %q", tt.value, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAddressList(%q)[%d] = %q, want %q", tt.value, i, got[i], tt.want[i])
			}
		}
	}
}

func TestDecodeQuotedPrintable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a=20b", "a b"},
		{"soft=\r\nbreak", "softbreak"},
		{"soft=\nbreak", "softbreak"},
		{"bad=ZZescape", "bad=ZZescape"},
		{"trailing=", "trailing="},
	}
	for _, tt := range tests {
		if got := decodeQuotedPrintable(tt.in); got != tt.want {
			t.Errorf("decodeQuotedPrintable(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
