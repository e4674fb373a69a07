package svn

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchResult classifies a path against the inclusion patterns.
type MatchResult int

const (
	// Excluded paths are dropped from the output.
	Excluded MatchResult = iota
	// IncludedAsDirectory paths are not included themselves but may be
	// ancestors of included paths; they survive as bare directories.
	IncludedAsDirectory
	// IncludedFull paths are included with properties and content.
	IncludedFull
)

func (m MatchResult) String() string {
	switch m {
	case Excluded:
		return "excluded"
	case IncludedAsDirectory:
		return "directory-only"
	case IncludedFull:
		return "full"
	}
	return fmt.Sprintf("MatchResult(%d)", int(m))
}

// PathMatcher classifies paths against a set of inclusion patterns. Each
// pattern is split on '/' and compiled into one anchored regexp per path
// segment; a segment pattern can never match across a '/'. Immutable after
// construction.
type PathMatcher struct {
	includes [][]*regexp.Regexp
}

// NewPathMatcher compiles the given patterns. With no patterns, filtering
// is inactive and every path classifies as IncludedFull.
func NewPathMatcher(includes []string) (*PathMatcher, error) {
	m := &PathMatcher{}
	for _, include := range includes {
		include = strings.Trim(include, "/")
		var segments []*regexp.Regexp
		for _, part := range strings.Split(include, "/") {
			re, err := regexp.Compile(`\A(?:` + part + `)\z`)
			if err != nil {
				return nil, fmt.Errorf("include pattern %q: %w", include, err)
			}
			segments = append(segments, re)
		}
		m.includes = append(m.includes, segments)
	}
	return m, nil
}

// Active reports whether any inclusion patterns were configured.
func (m *PathMatcher) Active() bool {
	return len(m.includes) > 0
}

// Match classifies a path. Segments are matched against each pattern in
// lock-step:
//
//   - every pattern segment matched and the path at least as deep: IncludedFull
//   - path exhausted first with all its segments matched: IncludedAsDirectory
//   - any segment mismatch: no match for that pattern
//
// The best result across all patterns wins (Full > Directory > Excluded).
func (m *PathMatcher) Match(path string) MatchResult {
	if !m.Active() {
		return IncludedFull
	}
	var parts []string
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	result := Excluded
	for _, include := range m.includes {
		matched := true
		for i, part := range parts {
			if i >= len(include) {
				break
			}
			if !include[i].MatchString(part) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		if len(parts) >= len(include) {
			return IncludedFull
		}
		// Matched as far as it goes: an ancestor of something matchable.
		result = IncludedAsDirectory
	}
	return result
}
