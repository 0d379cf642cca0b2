package common

import "strings"

func JoinURL(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		b.WriteString("/")
		b.WriteString(p)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func PrincipalURL(basePath, uid string) string {
	return JoinURL(basePath, "principals", "users", uid)
}

func AddressbookHome(basePath, uid string) string {
	return JoinURL(basePath, "addressbooks", uid) + "/"
}

func AddressbookPath(basePath, ownerUID, abURI string) string {
	return JoinURL(basePath, "addressbooks", ownerUID, abURI) + "/"
}

func ContactPath(basePath, ownerUID, abURI, uid string) string {
	return JoinURL(basePath, "addressbooks", ownerUID, abURI, uid+".vcf")
}
