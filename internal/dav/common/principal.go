package common

import (
	"context"

	"github.com/ebalder/contactdav/internal/auth"
)

func MustPrincipal(ctx context.Context) *auth.Principal {
	pr, _ := auth.PrincipalFrom(ctx)
	return pr
}

func CurrentUserPrincipalHref(ctx context.Context, basePath string) string {
	pr, ok := auth.PrincipalFrom(ctx)
	if !ok || pr == nil {
		return JoinURL(basePath, "principals")
	}
	return PrincipalURL(basePath, pr.UserID)
}
