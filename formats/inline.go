// inline.go rewrites external image references in exported HTML to
// data URIs. All fetches go through a dialer that resolves DNS itself
// and rejects private, loopback, and link-local targets before
// connecting.

package formats

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var reImgSrc = regexp.MustCompile(`(<img\b[^>]*?\bsrc=")([^"]+)(")`)

// maxInlineImage caps a single fetched image at 5 MB.
const maxInlineImage = 5 << 20

// guardedDial resolves the host and connects to a vetted IP directly,
// so a hostname cannot re-resolve to a private address between the
// check and the dial.
func guardedDial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if blockedHost(host) {
		return nil, errors.New("blocked host")
	}

	resolveCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ips, err := (&net.Resolver{}).LookupIPAddr(resolveCtx, host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if blockedIP(ip.IP) {
			return nil, errors.New("blocked IP")
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	for _, ip := range ips {
		conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.IP.String(), port))
		if err == nil {
			return conn, nil
		}
	}
	return nil, errors.New("all addresses failed")
}

var inlineClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		DialContext:           guardedDial,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return errors.New("too many redirects")
		}
		// The dialer re-checks the resolved IP on every hop.
		if blockedHost(req.URL.Hostname()) {
			return errors.New("redirect to blocked host")
		}
		return nil
	},
}

// InlineExternalImages replaces <img src="http(s)://..."> references in
// html with data URIs holding the fetched bytes. Images that fail to
// download stay as-is; only http and https URLs are touched. Each
// unique URL is fetched once; pass a non-nil cache map to share
// results across calls.
func InlineExternalImages(html []byte, cache map[string]string) []byte {
	if cache == nil {
		cache = make(map[string]string)
	}
	return reImgSrc.ReplaceAllFunc(html, func(match []byte) []byte {
		parts := reImgSrc.FindSubmatch(match)
		if len(parts) < 4 {
			return match
		}
		rawURL := string(parts[2])
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			return match
		}
		uri, seen := cache[rawURL]
		if !seen {
			uri = fetchDataURI(rawURL)
			cache[rawURL] = uri
		}
		if uri == "" {
			return match
		}
		out := append([]byte{}, parts[1]...)
		out = append(out, uri...)
		return append(out, parts[3]...)
	})
}

// fetchDataURI downloads one image and encodes it as a data URI.
// Blocked, non-image, and failed fetches all come back empty.
func fetchDataURI(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ""
	}
	if blockedHost(parsed.Hostname()) {
		return ""
	}
	resp, err := inlineClient.Get(rawURL)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineImage))
	if err != nil || len(data) == 0 {
		return ""
	}
	return "data:" + imageMIME(ct) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// blockedHost reports hostnames that must never be fetched, without a
// DNS lookup.
func blockedHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || lower == "metadata.google.internal" ||
		strings.HasSuffix(lower, ".local") || strings.HasSuffix(lower, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return blockedIP(ip)
	}
	return false
}

// blockedIP reports addresses in ranges that must never be fetched.
func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// imageMIME normalizes a Content-Type header to a standard image type.
func imageMIME(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "png"):
		return "image/png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "image/jpeg"
	case strings.Contains(ct, "gif"):
		return "image/gif"
	case strings.Contains(ct, "webp"):
		return "image/webp"
	case strings.Contains(ct, "svg"):
		return "image/svg+xml"
	case strings.Contains(ct, "bmp"):
		return "image/bmp"
	default:
		return "image/png"
	}
}
