package querycache

import "strings"

// keySep separates key segments. Segments are escaped so a parameter
// value containing the separator cannot collide with another key.
const keySep = "|"

// Key builds a cache key from a resource name and its query parameters.
// Prefix(resource) matches every key built for that resource.
func Key(resource string, parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, escape(resource))
	for _, p := range parts {
		segs = append(segs, escape(p))
	}
	return strings.Join(segs, keySep)
}

// Prefix returns the match prefix for all keys of a resource.
func Prefix(resource string) string {
	return escape(resource) + keySep
}

func escape(s string) string {
	return strings.ReplaceAll(s, keySep, "%7C")
}
