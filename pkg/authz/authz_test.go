package authz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testModel = `
[request_definition]
r = sub, dom, obj, act
[policy_definition]
p = sub, dom, obj, act
[policy_effect]
e = some(where (p.eft == allow))
[matchers]
m = r.sub == p.sub && r.dom == p.dom && r.obj == p.obj && r.act == p.act
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("", false)
	require.NoError(t, err)
	require.Equal(t, ModeEnforce, m)

	m, err = ParseMode(" Shadow ", false)
	require.NoError(t, err)
	require.Equal(t, ModeShadow, m)

	_, err = ParseMode("nope", false)
	require.Error(t, err)
}

func TestParseMode_DisabledRequiresUnsafe(t *testing.T) {
	_, err := ParseMode("disabled", false)
	require.Error(t, err)

	m, err := ParseMode("disabled", true)
	require.NoError(t, err)
	require.Equal(t, ModeDisabled, m)
}

func TestNewDefaultAuthorizer(t *testing.T) {
	a, err := NewDefaultAuthorizer(ModeEnforce)
	require.NoError(t, err)
	cases := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{RoleViewer, ObjectDesignations, ActionRead, true},
		{RoleViewer, ObjectContacts, ActionAdmin, false},
		{RoleAdmin, ObjectOrganization, ActionAdmin, true},
		{RoleAdmin, ObjectContacts, ActionRead, true},
		{RoleAnonymous, ObjectContacts, ActionRead, false},
	}
	for _, tc := range cases {
		allowed, enforced, err := a.Authorize(SubjectFromRoleSlug(tc.role), DomainDirectory, tc.object, tc.action)
		require.NoError(t, err)
		require.True(t, enforced, "%s %s %s", tc.role, tc.object, tc.action)
		require.Equal(t, tc.want, allowed, "%s %s %s", tc.role, tc.object, tc.action)
	}
	require.Equal(t, ModeEnforce, a.Mode())
}

func TestNewAuthorizer_AndAuthorize(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.conf")
	policy := filepath.Join(dir, "policy.csv")
	writeFile(t, model, testModel)
	writeFile(t, policy, "p, role:admin, directory, directory.contacts, read\n")

	a, err := NewAuthorizer(model, policy, ModeEnforce)
	require.NoError(t, err)

	allowed, enforced, err := a.Authorize("role:admin", "directory", "directory.contacts", "read")
	require.NoError(t, err)
	require.True(t, enforced)
	require.True(t, allowed)

	allowed, enforced, err = a.Authorize("role:admin", "directory", "directory.contacts", "admin")
	require.NoError(t, err)
	require.True(t, enforced)
	require.False(t, allowed)

	aShadow, err := NewAuthorizer(model, policy, ModeShadow)
	require.NoError(t, err)
	allowed, enforced, err = aShadow.Authorize("role:admin", "directory", "directory.contacts", "admin")
	require.NoError(t, err)
	require.False(t, enforced)
	require.False(t, allowed)

	aDisabled, err := NewAuthorizer(model, policy, ModeDisabled)
	require.NoError(t, err)
	allowed, enforced, err = aDisabled.Authorize("role:admin", "directory", "directory.contacts", "admin")
	require.NoError(t, err)
	require.False(t, enforced)
	require.True(t, allowed)
}

func TestNewAuthorizer_Error(t *testing.T) {
	dir := t.TempDir()
	invalidModel := filepath.Join(dir, "invalid.conf")
	writeFile(t, invalidModel, "nope")
	_, err := NewAuthorizer(invalidModel, "nope-policy.csv", ModeEnforce)
	require.Error(t, err)

	model := filepath.Join(dir, "model.conf")
	policyDir := filepath.Join(dir, "policy-dir")
	writeFile(t, model, testModel)
	require.NoError(t, os.MkdirAll(policyDir, 0o755))
	_, err = NewAuthorizer(model, policyDir, ModeEnforce)
	require.Error(t, err)
}

func TestNewAuthorizer_LoadPolicyError(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.conf")
	writeFile(t, model, testModel)

	_, err := NewAuthorizer(model, filepath.Join(dir, "missing-policy.csv"), ModeEnforce)
	require.Error(t, err)
}

func TestSubjectFromRoleSlug(t *testing.T) {
	require.Equal(t, "role:anonymous", SubjectFromRoleSlug(""))
	require.Equal(t, "role:admin", SubjectFromRoleSlug(" Admin "))
}

func TestAuthorize_UnknownMode(t *testing.T) {
	a := &Authorizer{mode: Mode("nope")}
	_, _, err := a.Authorize("role:x", "d", "o", "a")
	require.Error(t, err)
}

func TestAuthorize_EnforceError(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.conf")
	policy := filepath.Join(dir, "policy.csv")
	writeFile(t, model, `
[request_definition]
r = sub, dom, obj, act
[policy_definition]
p = sub, dom, obj, act
[policy_effect]
e = some(where (p.eft == allow))
[matchers]
m = r.sub ==
`)
	writeFile(t, policy, "p, role:admin, directory, directory.contacts, read\n")

	aShadow, err := NewAuthorizer(model, policy, ModeShadow)
	require.NoError(t, err)
	allowed, enforced, err := aShadow.Authorize("role:admin", "directory", "directory.contacts", "read")
	require.Error(t, err)
	require.False(t, allowed)
	require.False(t, enforced)

	aEnforce, err := NewAuthorizer(model, policy, ModeEnforce)
	require.NoError(t, err)
	allowed, enforced, err = aEnforce.Authorize("role:admin", "directory", "directory.contacts", "read")
	require.Error(t, err)
	require.False(t, allowed)
	require.True(t, enforced)
}
