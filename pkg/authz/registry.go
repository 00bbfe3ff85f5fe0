package authz

const (
	RoleAdmin     = "admin"
	RoleViewer    = "viewer"
	RoleAnonymous = "anonymous"
)

const (
	ActionRead  = "read"
	ActionAdmin = "admin"
)

const DomainDirectory = "directory"

const (
	ObjectDesignations = "directory.designations"
	ObjectOrganization = "directory.organization"
	ObjectContacts     = "directory.contacts"
)
