package media

import (
	"net/url"
	"strings"
)

// ExtractStableKey derives the bucket-relative storage key from a media URL.
//
// The provider's URL shape is https://<host>/<bucket>/<bucket-maybe-repeated>/<key...>,
// sometimes URL-encoded and sometimes carrying signing query parameters.
// markers are the substrings identifying the bucket path segment. When no
// marker is found the last two path segments serve as a heuristic
// approximation; an empty input yields ("", false).
func ExtractStableKey(raw string, markers []string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	// bare keys pass through unchanged
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return trimmed, true
	}

	// PathUnescape, not QueryUnescape: a literal + in a stored key must
	// survive decoding unchanged.
	decoded := trimmed
	if unescaped, err := url.PathUnescape(trimmed); err == nil {
		decoded = unescaped
	}

	// strip the query, whether literal or still percent-encoded
	decoded = strings.SplitN(decoded, "?", 2)[0]
	decoded = strings.SplitN(decoded, "%3F", 2)[0]

	parts := strings.Split(decoded, "/")

	bucketIndex := -1
	for i, part := range parts {
		if matchesMarker(part, markers) {
			bucketIndex = i
			break
		}
	}

	if bucketIndex >= 0 {
		start := bucketIndex + 1
		// the provider sometimes repeats the bucket segment in the path
		if start < len(parts) && matchesMarker(parts[start], markers) {
			start++
		}
		if start < len(parts) {
			return strings.Join(parts[start:], "/"), true
		}
	}

	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], "/"), true
	}
	return "", false
}

func matchesMarker(part string, markers []string) bool {
	for _, marker := range markers {
		if marker != "" && strings.Contains(part, marker) {
			return true
		}
	}
	return false
}
