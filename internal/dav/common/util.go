package common

import "strings"

// TrimQuotes strips the quoting around an entity tag header value.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// SafeSegment rejects path segments that could escape the collection.
func SafeSegment(s string) bool {
	return s != "" && !strings.Contains(s, "/") && !strings.Contains(s, "\\") && !strings.Contains(s, "..")
}

// SafeCollectionName is SafeSegment plus a guard against names that collide
// with routing keywords.
func SafeCollectionName(s string) bool {
	if !SafeSegment(s) {
		return false
	}
	switch s {
	case "addressbooks", "principals":
		return false
	}
	return true
}
