package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jacksonlee411/contact-directory/pkg/authz"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
)

func TestAuthzRequirementForRoute(t *testing.T) {
	cases := []struct {
		method, path string
		object       string
		action       string
		ok           bool
	}{
		{http.MethodGet, "/directory/api/designations", authz.ObjectDesignations, authz.ActionRead, true},
		{http.MethodPost, "/directory/api/designations:update", authz.ObjectDesignations, authz.ActionAdmin, true},
		{http.MethodGet, "/directory/api/org-nodes", authz.ObjectOrganization, authz.ActionRead, true},
		{http.MethodGet, "/directory/api/organization:tree", authz.ObjectOrganization, authz.ActionRead, true},
		{http.MethodPost, "/directory/api/contacts:delete", authz.ObjectContacts, authz.ActionAdmin, true},
		{http.MethodGet, "/directory/api/unknown", "", "", false},
		{http.MethodGet, "/health", "", "", false},
	}
	for _, tc := range cases {
		object, action, ok := authzRequirementForRoute(tc.method, tc.path)
		if object != tc.object || action != tc.action || ok != tc.ok {
			t.Fatalf("%s %s: got (%q,%q,%v)", tc.method, tc.path, object, action, ok)
		}
	}
}

type authorizerFunc func(subject, domain, object, action string) (bool, bool, error)

func (f authorizerFunc) Authorize(subject, domain, object, action string) (bool, bool, error) {
	return f(subject, domain, object, action)
}

func TestWithAuthz_ShadowModeLetsRequestThrough(t *testing.T) {
	a, err := authz.NewDefaultAuthorizer(authz.ModeShadow)
	if err != nil {
		t.Fatal(err)
	}
	called := false
	h := withPrincipalFromHeader("X-Directory-Role", withAuthz(nil, a, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/directory/api/contacts", nil)
	req.Header.Set("X-Directory-Role", "viewer")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called || rec.Code != http.StatusNoContent {
		t.Fatalf("called=%v status=%d", called, rec.Code)
	}
}

func TestWithAuthz_AuthorizerError(t *testing.T) {
	a := authorizerFunc(func(string, string, string, string) (bool, bool, error) {
		return false, true, errors.New("boom")
	})
	h := withAuthz(nil, a, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next should not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory/api/contacts", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestWithAuthz_PassesSubjectAndDomain(t *testing.T) {
	var gotSubject, gotDomain string
	a := authorizerFunc(func(subject, domain, _, _ string) (bool, bool, error) {
		gotSubject, gotDomain = subject, domain
		return true, true, nil
	})
	h := withPrincipalFromHeader("X-Role", withAuthz(nil, a, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/directory/api/designations", nil)
	req.Header.Set("X-Role", " Admin ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if gotSubject != authz.SubjectFromRoleSlug("admin") || gotDomain != authz.DomainDirectory {
		t.Fatalf("subject=%q domain=%q", gotSubject, gotDomain)
	}
}

func TestLoadAuthorizer_RejectsDisabledWithoutUnsafe(t *testing.T) {
	if _, err := loadAuthorizer(configuration.AuthzOptions{Mode: "disabled"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := loadAuthorizer(configuration.AuthzOptions{Mode: "disabled", AllowDisabled: true}); err != nil {
		t.Fatal(err)
	}
}
