// Remote image source allowlist: which URLs the image optimizer may fetch
package remotepattern

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingScheme = errors.New("protocol missing")
	ErrInvalidScheme = errors.New("protocol must be http or https")
	ErrInvalidHost   = errors.New("invalid hostname")
	ErrInvalidPort   = errors.New("invalid port")
	ErrInvalidPath   = errors.New("invalid pathname")
	ErrInvalidSearch = errors.New("invalid search")
)

// AllowRule is one remote image source as it appears in configuration. Field names on the
// wire follow the framework's "images.remotePatterns" entries. Empty Port, PathPrefix and
// Search match anything.
type AllowRule struct {
	Scheme     string `json:"protocol" yaml:"protocol"`
	Host       string `json:"hostname" yaml:"hostname"`
	Port       string `json:"port,omitempty" yaml:"port,omitempty"`
	PathPrefix string `json:"pathname,omitempty" yaml:"pathname,omitempty"`
	Search     string `json:"search,omitempty" yaml:"search,omitempty"`
}

func (a AllowRule) String() string {
	port := ""
	if a.Port != "" {
		port = ":" + a.Port
	}

	return fmt.Sprintf("%s://%s%s%s%s", a.Scheme, a.Host, port, a.PathPrefix, a.Search)
}

// Compile validates the rule and turns it into a Pattern. Invalid rules are configuration
// errors and must be caught at load time, never treated as matching anything.
func Compile(rule AllowRule) (Pattern, error) {
	scheme, err := parseScheme(rule.Scheme)
	if err != nil {
		return Pattern{}, err
	}

	host, err := parseHost(rule.Host)
	if err != nil {
		return Pattern{}, err
	}

	port, err := parsePort(rule.Port)
	if err != nil {
		return Pattern{}, err
	}

	path, err := parsePath(rule.PathPrefix)
	if err != nil {
		return Pattern{}, err
	}

	if rule.Search != "" && !strings.HasPrefix(rule.Search, "?") {
		return Pattern{}, fmt.Errorf("%w: %q must start with '?'", ErrInvalidSearch, rule.Search)
	}

	return Pattern{
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   path,
		Search: rule.Search,
		rule:   rule,
	}, nil
}

func parseScheme(scheme string) (string, error) {
	switch strings.ToLower(scheme) {
	case "":
		return "", ErrMissingScheme
	case "http":
		return "http", nil
	case "https":
		return "https", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScheme, scheme)
	}
}

func parseHost(host string) (HostPattern, error) {
	name := strings.ToLower(host)
	if name == "" {
		return HostPattern{}, fmt.Errorf("%w: hostname missing", ErrInvalidHost)
	}

	if strings.ContainsAny(name, "/@?#: \t") {
		return HostPattern{}, fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}

	kind := HostExact
	if suffix, isWildcard := strings.CutPrefix(name, "*."); isWildcard {
		kind = HostLabelWildcard
		name = suffix
	}

	// covers bare "*", "**.example.com" and wildcards outside the leftmost label
	if strings.Contains(name, "*") {
		return HostPattern{}, fmt.Errorf("%w: %q: only a single leading '*.' label is supported", ErrInvalidHost, host)
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return HostPattern{}, fmt.Errorf("%w: %q has an empty label", ErrInvalidHost, host)
		}
	}

	return HostPattern{Kind: kind, Name: name}, nil
}

func parsePort(port string) (int, error) {
	if port == "" {
		return anyPort, nil
	}

	num, err := strconv.ParseUint(port, 10, 16)
	if err != nil || num == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, port)
	}

	return int(num), nil
}

func parsePath(pathname string) (PathPattern, error) {
	if pathname == "" {
		return PathPattern{Kind: PathNone}, nil
	}

	if !strings.HasPrefix(pathname, "/") {
		return PathPattern{}, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPath, pathname)
	}

	pattern := func() PathPattern {
		if literal, found := strings.CutSuffix(pathname, "/**"); found {
			return PathPattern{Kind: PathRecursiveWildcard, Literal: literal}
		}

		if literal, found := strings.CutSuffix(pathname, "/*"); found {
			return PathPattern{Kind: PathSingleSegmentWildcard, Literal: literal}
		}

		return PathPattern{Kind: PathExactPrefix, Literal: pathname}
	}()

	if strings.Contains(pattern.Literal, "*") {
		return PathPattern{}, fmt.Errorf("%w: %q: wildcards are only allowed as trailing '/*' or '/**'", ErrInvalidPath, pathname)
	}

	return pattern, nil
}
