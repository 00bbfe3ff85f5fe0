package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/pkg/authz"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
	"github.com/sirupsen/logrus"
)

// loadAuthorizer uses the configured model and policy files when both are
// set, and the built-in viewer/admin policy otherwise.
func loadAuthorizer(opts configuration.AuthzOptions) (*authz.Authorizer, error) {
	mode, err := authz.ParseMode(opts.Mode, opts.AllowDisabled)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.ModelPath) != "" && strings.TrimSpace(opts.PolicyPath) != "" {
		return authz.NewAuthorizer(opts.ModelPath, opts.PolicyPath, mode)
	}
	return authz.NewDefaultAuthorizer(mode)
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		object, action, shouldCheck := authzRequirementForRoute(r.Method, path)
		if !shouldCheck {
			next.ServeHTTP(w, r)
			return
		}

		roleSlug := authz.RoleAnonymous
		if p, ok := currentPrincipal(r.Context()); ok {
			roleSlug = p.RoleSlug
		}
		subject := authz.SubjectFromRoleSlug(roleSlug)

		allowed, enforced, err := a.Authorize(subject, authz.DomainDirectory, object, action)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if !allowed {
			fields := logrus.Fields{"subject": subject, "object": object, "action": action, "enforced": enforced}
			logRequest(r, logrus.WarnLevel, "authz denied", fields)
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authzRequirementForRoute maps a directory API route to the casbin object
// and action it needs. Reads need read, everything else admin.
func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	rest, found := strings.CutPrefix(path, "/directory/api/")
	if !found {
		return "", "", false
	}
	resource, _, _ := strings.Cut(rest, ":")

	switch resource {
	case "designations":
		object = authz.ObjectDesignations
	case "org-nodes", "organization":
		object = authz.ObjectOrganization
	case "contacts":
		object = authz.ObjectContacts
	default:
		return "", "", false
	}

	switch method {
	case http.MethodGet, http.MethodHead:
		return object, authz.ActionRead, true
	default:
		return object, authz.ActionAdmin, true
	}
}
