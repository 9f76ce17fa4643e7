package catalog

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"bookmarks/internal/models"
)

// CanonicalizeURL normalizes a submitted http(s) URL into the form that is
// stored and deduplicated: scheme and host are lowercased, the default port
// is stripped, an empty path becomes "/" and the fragment is dropped. The
// path and query string are kept verbatim.
//
//	HTTPS://Example.COM:443?b=1&a=2#top -> https://example.com/?b=1&a=2
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	scheme = strings.ToLower(scheme)

	// Fragment is never part of the canonical form.
	rest, _, _ = strings.Cut(rest, "#")

	rest, query, hasQuery := strings.Cut(rest, "?")

	host, path := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		host, path = rest[:i], rest[i:]
	}
	host = strings.ToLower(host)

	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}

	if path == "" {
		path = "/"
	}

	canonical := scheme + "://" + host + path
	if hasQuery && query != "" {
		canonical += "?" + query
	}
	return canonical
}

// ValidateURL checks a raw submitted URL and returns its canonical form.
func ValidateURL(raw string) (string, *ServiceError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", NewValidationError(map[string]string{"url": "This field is required."})
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", NewInvalidURLError("URL must start with http:// or https://")
	}

	canonical := CanonicalizeURL(raw)

	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" || u.Hostname() == "" {
		return "", NewInvalidURLError("Enter a valid URL.")
	}

	if utf8.RuneCountInString(canonical) > models.MaxURLLength {
		return "", NewValidationError(map[string]string{
			"url": maxLengthMessage(models.MaxURLLength),
		})
	}

	return canonical, nil
}
