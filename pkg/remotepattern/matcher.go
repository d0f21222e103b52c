package remotepattern

import (
	"net/url"
	"strconv"
	"strings"
)

// IsAllowed reports whether at least one pattern admits rawURL. Malformed URLs and an
// empty pattern list both deny. Safe for concurrent use: patterns are never mutated.
func IsAllowed(rawURL string, patterns []Pattern) bool {
	return firstMatch(rawURL, patterns) != -1
}

// returns index of a matching pattern or -1
func firstMatch(rawURL string, patterns []Pattern) int {
	if len(patterns) == 0 {
		return -1
	}

	c, ok := parseCandidate(rawURL)
	if !ok {
		return -1
	}

	for idx, pattern := range patterns {
		if pattern.matches(c) {
			return idx
		}
	}

	return -1
}

// the parts of an image URL that patterns are matched against, normalized
type candidate struct {
	scheme string
	host   string
	port   int
	path   string // escaped form
	search string // "" or "?<raw query>"
}

func parseCandidate(rawURL string) (candidate, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Opaque != "" {
		return candidate{}, false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return candidate{}, false
	}

	scheme := strings.ToLower(u.Scheme)

	port, ok := effectivePort(scheme, u.Port())
	if !ok {
		return candidate{}, false
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	if hasAmbiguousSegment(path) {
		return candidate{}, false
	}

	search := ""
	if u.RawQuery != "" || u.ForceQuery {
		search = "?" + u.RawQuery
	}

	return candidate{
		scheme: scheme,
		host:   host,
		port:   port,
		path:   path,
		search: search,
	}, true
}

func effectivePort(scheme string, port string) (int, bool) {
	if port == "" {
		switch scheme {
		case "http":
			return 80, true
		case "https":
			return 443, true
		default: // no pattern will accept the scheme anyway
			return anyPort, true
		}
	}

	num, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, false
	}

	return int(num), true
}

// a segment that decodes to "." or "..", or hides a separator ("%2F", "%5C", "\"), could
// escape a path prefix once the fetcher decodes and normalizes it
func hasAmbiguousSegment(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return true
		}

		if decoded == "." || decoded == ".." || strings.ContainsAny(decoded, `/\`) {
			return true
		}
	}

	return false
}
