package etag

import "strings"

const (
	wildcard   = "*"
	weakPrefix = "W/"
)

// MatchList is the ordered list of entity-tags (or the single wildcard "*")
// found in an If-None-Match header value.
type MatchList []string

// ParseMatchList extracts every "*" and every quoted, optionally weak,
// entity-tag from an If-None-Match value, left to right.
// Anything that does not have that shape is skipped.
func ParseMatchList(header string) MatchList {
	var list MatchList
	for i := 0; i < len(header); {
		switch {
		case header[i] == '*':
			list = append(list, wildcard)
			i++
			continue
		case strings.HasPrefix(header[i:], `W/"`):
			if end := strings.IndexByte(header[i+3:], '"'); end >= 0 {
				next := i + 3 + end + 1
				list = append(list, header[i:next])
				i = next
				continue
			}
		case header[i] == '"':
			if end := strings.IndexByte(header[i+1:], '"'); end >= 0 {
				next := i + 1 + end + 1
				list = append(list, header[i:next])
				i = next
				continue
			}
		}
		i++
	}
	return list
}

// Wildcard reports whether the list starts with "*".
func (m MatchList) Wildcard() bool {
	return len(m) > 0 && m[0] == wildcard
}

// Matches reports whether any entity-tag in m weakly matches etag.
func (m MatchList) Matches(etag string) bool {
	for _, tag := range m {
		if WeakEqual(tag, etag) {
			return true
		}
	}
	return false
}

// WeakEqual compares two entity-tags using the weak comparison function
// of RFC 7232, section 2.3.2: the W/ marker is ignored on both sides.
func WeakEqual(a, b string) bool {
	return strings.TrimPrefix(a, weakPrefix) == strings.TrimPrefix(b, weakPrefix)
}

// CheckIfNoneMatch reports whether a request carrying the given If-None-Match
// value already holds the representation tagged etag, i.e. whether the
// response should be 304 Not Modified.
//
// A leading "*" matches any tagged response. Malformed values never match.
func CheckIfNoneMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}

	list := ParseMatchList(ifNoneMatch)
	if etag == "" || len(list) == 0 {
		return false
	}

	if list.Wildcard() {
		return true
	}
	return list.Matches(etag)
}
