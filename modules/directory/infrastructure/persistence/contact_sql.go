package persistence

import (
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
)

// contactRow is the flattened contacts + person_details + building_details
// join.
type contactRow struct {
	ID, Type, FullName                                    string
	DepartmentID, InstituteID, SubdivisionID, UnitID      string
	OfficeNo1, OfficeNo2, WhatsappNo, FaxNo1, FaxNo2      string
	OfficialEmail, OfficeAddress, Description, PictureURL string
	Title, DesignationID, Mobile1, Mobile2, PersonalEmail string
	PersonStatus, BuildingStatus                          string
}

func (r *contactRow) dest() []any {
	return []any{
		&r.ID, &r.Type, &r.FullName,
		&r.DepartmentID, &r.InstituteID, &r.SubdivisionID, &r.UnitID,
		&r.OfficeNo1, &r.OfficeNo2, &r.WhatsappNo, &r.FaxNo1, &r.FaxNo2,
		&r.OfficialEmail, &r.OfficeAddress, &r.Description, &r.PictureURL,
		&r.Title, &r.DesignationID, &r.Mobile1, &r.Mobile2, &r.PersonalEmail,
		&r.PersonStatus, &r.BuildingStatus,
	}
}

func (r contactRow) contact() types.Contact {
	c := types.Contact{
		ID:                r.ID,
		FullName:          r.FullName,
		DepartmentID:      r.DepartmentID,
		InstituteID:       r.InstituteID,
		SubdivisionID:     r.SubdivisionID,
		UnitID:            r.UnitID,
		OfficeNo1:         r.OfficeNo1,
		OfficeNo2:         r.OfficeNo2,
		WhatsappNo:        r.WhatsappNo,
		FaxNo1:            r.FaxNo1,
		FaxNo2:            r.FaxNo2,
		OfficialEmail:     r.OfficialEmail,
		OfficeAddress:     r.OfficeAddress,
		Description:       r.Description,
		ProfilePictureURL: r.PictureURL,
	}
	if types.ContactType(r.Type) == types.ContactTypePerson {
		c.Details = types.PersonDetails{
			Title:         types.PersonTitle(r.Title),
			DesignationID: r.DesignationID,
			MobileNo1:     r.Mobile1,
			MobileNo2:     r.Mobile2,
			PersonalEmail: r.PersonalEmail,
			Status:        types.PersonStatus(r.PersonStatus),
		}
	} else {
		c.Details = types.BuildingDetails{Status: types.BuildingStatus(r.BuildingStatus)}
	}
	return c
}

// contactSelect lists the contactRow columns followed by created_at and
// updated_at.
func contactSelect(castText string) string {
	ref := func(col string) string { return "COALESCE(" + col + castText + ", '')" }
	cols := []string{
		"c.id" + castText, "c.type", "c.full_name",
		ref("c.department_id"), ref("c.institute_id"), ref("c.subdivision_id"), ref("c.unit_id"),
		"c.office_no_1", "c.office_no_2", "c.whatsapp_no", "c.fax_no_1", "c.fax_no_2",
		"c.official_email", "c.office_address", "c.description", "c.profile_picture_url",
		"COALESCE(p.title, '')", ref("p.designation_id"), "COALESCE(p.mobile_no_1, '')",
		"COALESCE(p.mobile_no_2, '')", "COALESCE(p.personal_email, '')",
		"COALESCE(p.status, '')", "COALESCE(b.status, '')",
		"c.created_at", "c.updated_at",
	}
	return "SELECT " + strings.Join(cols, ", ") + `
FROM contacts c
LEFT JOIN person_details p ON p.contact_id = c.id
LEFT JOIN building_details b ON b.contact_id = c.id`
}

func contactWhere(f ports.ContactFilter, ph placeholder, castUUID string) (string, []any) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, strings.Replace(expr, "?", ph(len(args)), 1))
	}
	if f.Type != "" {
		add("c.type = ?", string(f.Type))
	}
	if f.DepartmentID != "" {
		add("c.department_id = ?"+castUUID, f.DepartmentID)
	}
	if f.InstituteID != "" {
		add("c.institute_id = ?"+castUUID, f.InstituteID)
	}
	if f.SubdivisionID != "" {
		add("c.subdivision_id = ?"+castUUID, f.SubdivisionID)
	}
	if f.UnitID != "" {
		add("c.unit_id = ?"+castUUID, f.UnitID)
	}
	if f.DesignationID != "" {
		add("p.designation_id = ?"+castUUID, f.DesignationID)
	}
	if f.Status != "" {
		add("COALESCE(p.status, b.status) = ?", f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// contactColumns are the writable contacts columns, in contactArgs order.
var contactColumns = []string{
	"type", "full_name", "department_id", "institute_id", "subdivision_id", "unit_id",
	"office_no_1", "office_no_2", "whatsapp_no", "fax_no_1", "fax_no_2",
	"official_email", "office_address", "description", "profile_picture_url",
}

func isReferenceColumn(col string) bool { return strings.HasSuffix(col, "_id") }

func contactArgs(c types.Contact) []any {
	return []any{
		string(c.Type()), strings.TrimSpace(c.FullName),
		c.DepartmentID, c.InstituteID, c.SubdivisionID, c.UnitID,
		c.OfficeNo1, c.OfficeNo2, c.WhatsappNo, c.FaxNo1, c.FaxNo2,
		c.OfficialEmail, c.OfficeAddress, c.Description, c.ProfilePictureURL,
	}
}

// contactValueExpr turns "" into NULL for optional references.
func contactValueExpr(col string, ph string, castUUID string) string {
	if isReferenceColumn(col) {
		return "NULLIF(" + ph + ", '')" + castUUID
	}
	return ph
}
