package registry

import "strings"

// maxWildcardSegments is the deepest a wildcard channel pattern may reach,
// per pubnub-core/src/data/channel/wildcard_spec.rs ("up to three levels
// deep", i.e. at most two dots before the trailing ".*").
const maxWildcardSegments = 3

// validWildcard reports whether name is either an ordinary channel name
// (no wildcard at all) or a well-formed wildcard pattern: it must not start
// with a dot, every asterisk must be the very last character and
// immediately preceded by a dot, and it may carry at most two dots. A bare
// trailing "*" with no preceding dot is explicitly rejected — the source
// requires ".*", never a naked "*", to avoid silently wildcarding a
// channel the caller meant literally.
func validWildcard(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	wasDot := false
	wasAsterisk := false
	dots := 0
	for _, c := range name {
		if wasAsterisk {
			return false
		}
		wasAsterisk = false
		if wasDot {
			if c == '*' {
				wasAsterisk = true
			}
		} else if c == '*' {
			return false
		}
		isDot := c == '.'
		if isDot {
			dots++
			if dots >= maxWildcardSegments {
				return false
			}
		}
		wasDot = isDot
	}
	return !wasDot
}

// wildcardDepth reports the number of literal segments preceding a
// trailing wildcard ("a.b.*" has depth 2), or 0 for an ordinary channel
// name with no wildcard.
func wildcardDepth(name string) int {
	if !strings.HasSuffix(name, ".*") {
		return 0
	}
	return strings.Count(strings.TrimSuffix(name, ".*"), ".") + 1
}
