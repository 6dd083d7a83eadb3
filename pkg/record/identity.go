package record

import (
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Identity returns the ContentIdentity of an image URL: scheme and host
// lower-cased, default port dropped, path cleaned, query and fragment removed.
// Two references with the same identity are the same image.
func Identity(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}

	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	p = path.Clean(p)

	return scheme + "://" + host + p
}

// Checksum returns the hex BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
