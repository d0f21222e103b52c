package remotepattern

import (
	"strings"
)

const anyPort = 0

type HostKind int

const (
	HostExact         HostKind = iota // "example.com"
	HostLabelWildcard                 // "*.example.com", exactly one leftmost label
)

// HostPattern.Name is lowercase. For HostLabelWildcard it holds the part after "*."
type HostPattern struct {
	Kind HostKind
	Name string
}

func (h HostPattern) matches(host string) bool {
	switch h.Kind {
	case HostExact:
		return host == h.Name
	case HostLabelWildcard:
		label, rest, found := strings.Cut(host, ".")
		return found && label != "" && rest == h.Name
	default:
		return false
	}
}

type PathKind int

const (
	PathNone                  PathKind = iota // any path
	PathExactPrefix                           // "/images"
	PathSingleSegmentWildcard                 // "/images/*"
	PathRecursiveWildcard                     // "/images/**"
)

// PathPattern.Literal has the wildcard suffix ("/*" or "/**") stripped
type PathPattern struct {
	Kind    PathKind
	Literal string
}

func (p PathPattern) matches(path string) bool {
	switch p.Kind {
	case PathNone:
		return true
	case PathExactPrefix:
		return strings.HasPrefix(path, p.Literal)
	case PathRecursiveWildcard:
		// "/a/**" admits "/a" itself but never "/ab"
		return p.Literal == "" || path == p.Literal || strings.HasPrefix(path, p.Literal+"/")
	case PathSingleSegmentWildcard:
		segment, found := strings.CutPrefix(path, p.Literal+"/")
		return found && segment != "" && !strings.Contains(segment, "/")
	default:
		return false
	}
}

// Pattern is a compiled AllowRule. Build with Compile().
type Pattern struct {
	Scheme string
	Host   HostPattern
	Port   int // anyPort (0) matches every port
	Path   PathPattern
	Search string

	rule AllowRule
}

func (p Pattern) Rule() AllowRule {
	return p.rule
}

func (p Pattern) matches(c candidate) bool {
	return c.scheme == p.Scheme &&
		p.Host.matches(c.host) &&
		(p.Port == anyPort || c.port == p.Port) &&
		p.Path.matches(c.path) &&
		(p.Search == "" || c.search == p.Search)
}
