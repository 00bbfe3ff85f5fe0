package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/pkg/authz"
)

// Principal is the caller as asserted by the authenticating proxy in front
// of the directory.
type Principal struct {
	RoleSlug string
}

type principalContextKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func currentPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalContextKey{})
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// withPrincipalFromHeader reads the role header. A missing header leaves the
// request anonymous.
func withPrincipalFromHeader(header string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := strings.ToLower(strings.TrimSpace(r.Header.Get(header)))
		if role == "" {
			role = authz.RoleAnonymous
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), Principal{RoleSlug: role})))
	})
}
