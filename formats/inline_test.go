package formats

import (
	"bytes"
	"net"
	"testing"
)

func TestBlockedHost(t *testing.T) {
	cases := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"printer.local", true},
		{"metadata.google.internal", true},
		{"db.prod.internal", true},
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"169.254.169.254", true},
		{"example.com", false},
		{"93.184.216.34", false},
	}
	for _, tc := range cases {
		if got := blockedHost(tc.host); got != tc.want {
			t.Errorf("blockedHost(%q) = %v, want %v", tc.host, got, tc.want)
		}
	}
}

func TestBlockedIP(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"::1", true},
		{"fe80::1", true},
		{"0.0.0.0", true},
		{"192.168.1.10", true},
		{"8.8.8.8", false},
		{"2606:4700::1111", false},
	}
	for _, tc := range cases {
		if got := blockedIP(net.ParseIP(tc.ip)); got != tc.want {
			t.Errorf("blockedIP(%q) = %v, want %v", tc.ip, got, tc.want)
		}
	}
}

func TestInlineLeavesNonHTTPAlone(t *testing.T) {
	html := []byte(`<img src="cid:part1"> <img src="data:image/png;base64,AA==">`)
	if got := InlineExternalImages(html, nil); !bytes.Equal(got, html) {
		t.Errorf("InlineExternalImages rewrote non-http sources: %s", got)
	}
}

func TestInlineUsesCache(t *testing.T) {
	cache := map[string]string{
		"https://img.example.com/a.png": "data:image/png;base64,QUJD",
	}
	html := []byte(`<img src="https://img.example.com/a.png">`)
	want := []byte(`<img src="data:image/png;base64,QUJD">`)
	if got := InlineExternalImages(html, cache); !bytes.Equal(got, want) {
		t.Errorf("InlineExternalImages = %s, want %s", got, want)
	}
}

func TestInlineFailedFetchKeepsOriginal(t *testing.T) {
	// A cached empty value marks a fetch that already failed.
	cache := map[string]string{"http://img.example.com/b.png": ""}
	html := []byte(`<img src="http://img.example.com/b.png">`)
	if got := InlineExternalImages(html, cache); !bytes.Equal(got, html) {
		t.Errorf("InlineExternalImages = %s, want original", got)
	}
}

func TestImageMIME(t *testing.T) {
	cases := []struct {
		ct   string
		want string
	}{
		{"image/png", "image/png"},
		{"image/JPEG; charset=binary", "image/jpeg"},
		{"image/svg+xml", "image/svg+xml"},
		{"image/x-unknown", "image/png"},
	}
	for _, tc := range cases {
		if got := imageMIME(tc.ct); got != tc.want {
			t.Errorf("imageMIME(%q) = %q, want %q", tc.ct, got, tc.want)
		}
	}
}
