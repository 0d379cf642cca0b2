package carddav

import (
	"strings"
)

// splitResourcePath decomposes a request path (or a multiget href, which may
// be a full URL) into its owner, collection, and trailing segments.
//
// patterns:
//
//	addressbooks/{owner}/            -> home
//	addressbooks/{owner}/{ab}/       -> collection
//	addressbooks/{owner}/{ab}/{uid}  -> resource
func splitResourcePath(urlPath, basePath string) (owner, collection string, rest []string) {
	// Accept both absolute and full-URL hrefs
	if !strings.HasPrefix(urlPath, "/") {
		if idx := strings.Index(urlPath, "://"); idx >= 0 {
			if slash := strings.Index(urlPath[idx+3:], "/"); slash >= 0 {
				urlPath = urlPath[idx+3+slash:]
			}
		}
	}
	pp := strings.TrimPrefix(urlPath, basePath)
	pp = strings.TrimPrefix(pp, "/")
	parts := strings.Split(pp, "/")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 || parts[0] != "addressbooks" {
		return "", "", nil
	}
	if len(parts) == 2 {
		return parts[1], "", nil
	}
	if len(parts) >= 3 {
		return parts[1], parts[2], parts[3:]
	}
	return "", "", nil
}

// uidFromFilename strips the representation suffix; clients are inconsistent
// about including it, so both forms resolve to the same resource.
func uidFromFilename(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
