package services

import (
	"context"
	"sort"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

const contacts = "contacts"

type ContactService interface {
	List(ctx context.Context, q ContactQuery) ([]ContactView, error)
	Get(ctx context.Context, id string) (ContactView, error)
	Create(ctx context.Context, req ContactRequest) (ContactView, error)
	Update(ctx context.Context, req ContactRequest) (ContactView, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (ContactStats, error)
}

// ContactRequest is the write form of a contact. Exactly one of Person and
// Building is used, picked by Type.
type ContactRequest struct {
	ID                string                 `json:"id,omitempty"`
	Type              string                 `json:"type" validate:"required,oneof=person building"`
	FullName          string                 `json:"full_name" validate:"required,max=200"`
	DepartmentID      string                 `json:"department_id,omitempty"`
	InstituteID       string                 `json:"institute_id,omitempty"`
	SubdivisionID     string                 `json:"subdivision_id,omitempty"`
	UnitID            string                 `json:"unit_id,omitempty"`
	OfficeNo1         string                 `json:"office_no_1,omitempty" validate:"max=32"`
	OfficeNo2         string                 `json:"office_no_2,omitempty" validate:"max=32"`
	WhatsappNo        string                 `json:"whatsapp_no,omitempty" validate:"max=32"`
	FaxNo1            string                 `json:"fax_no_1,omitempty" validate:"max=32"`
	FaxNo2            string                 `json:"fax_no_2,omitempty" validate:"max=32"`
	OfficialEmail     string                 `json:"official_email,omitempty" validate:"omitempty,email"`
	OfficeAddress     string                 `json:"office_address,omitempty" validate:"max=500"`
	Description       string                 `json:"description,omitempty" validate:"max=2000"`
	ProfilePictureURL string                 `json:"profile_picture_url,omitempty" validate:"omitempty,url"`
	Person            *types.PersonDetails   `json:"person,omitempty"`
	Building          *types.BuildingDetails `json:"building,omitempty"`
}

func (r *ContactRequest) normalize() {
	for _, f := range []*string{
		&r.ID, &r.Type, &r.FullName, &r.DepartmentID, &r.InstituteID, &r.SubdivisionID, &r.UnitID,
		&r.OfficeNo1, &r.OfficeNo2, &r.WhatsappNo, &r.FaxNo1, &r.FaxNo2,
		&r.OfficialEmail, &r.OfficeAddress, &r.Description, &r.ProfilePictureURL,
	} {
		*f = strings.TrimSpace(*f)
	}
	r.Type = strings.ToLower(r.Type)
	switch types.ContactType(r.Type) {
	case types.ContactTypePerson:
		r.Building = nil
		if r.Person != nil {
			r.Person.DesignationID = strings.TrimSpace(r.Person.DesignationID)
		}
	case types.ContactTypeBuilding:
		r.Person = nil
	}
}

func (r ContactRequest) contact() (types.Contact, error) {
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
		ProfilePictureURL: r.ProfilePictureURL,
	}
	switch types.ContactType(r.Type) {
	case types.ContactTypePerson:
		if r.Person == nil {
			return types.Contact{}, &hierarchy.ValidationError{Field: "person", Message: "is required"}
		}
		c.Details = *r.Person
	case types.ContactTypeBuilding:
		if r.Building == nil {
			return types.Contact{}, &hierarchy.ValidationError{Field: "building", Message: "is required"}
		}
		c.Details = *r.Building
	}
	return c, nil
}

type ContactQuery struct {
	Type          string
	DepartmentID  string
	InstituteID   string
	SubdivisionID string
	UnitID        string
	DesignationID string
	Status        string
	// Search matches name, email, office numbers and department/institute
	// names, case-insensitively.
	Search string
	// Sort is name (default), department or updated.
	Sort string
	Desc bool
	// Filter is an optional CEL expression over contact.
	Filter string
}

type ContactNames struct {
	Department  string `json:"department,omitempty"`
	Institute   string `json:"institute,omitempty"`
	Subdivision string `json:"subdivision,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Designation string `json:"designation,omitempty"`
}

type ContactView struct {
	Contact types.Contact `json:"contact"`
	Names   ContactNames  `json:"names"`
}

func (v ContactView) celFields() map[string]string {
	c := v.Contact
	fields := map[string]string{
		"id":             c.ID,
		"type":           string(c.Type()),
		"full_name":      c.FullName,
		"official_email": c.OfficialEmail,
		"office_no":      c.OfficeNo1,
		"department":     v.Names.Department,
		"institute":      v.Names.Institute,
		"subdivision":    v.Names.Subdivision,
		"unit":           v.Names.Unit,
		"designation":    v.Names.Designation,
		"status":         "",
		"title":          "",
	}
	if c.Details != nil {
		fields["status"] = c.Details.StatusValue()
	}
	if p, ok := c.Person(); ok {
		fields["title"] = string(p.Title)
	}
	return fields
}

type ContactStats struct {
	Total          int `json:"total"`
	People         int `json:"people"`
	Buildings      int `json:"buildings"`
	Departments    int `json:"departments"`
	OnDuty         int `json:"on_duty"`
	OffDuty        int `json:"off_duty"`
	Retired        int `json:"retired"`
	Operational    int `json:"operational"`
	NonOperational int `json:"non_operational"`
}

type contactService struct {
	records  ports.RecordStore
	contacts ports.ContactStore
	filter   *contactFilter
	metrics  *Metrics
}

func NewContactService(records ports.RecordStore, contactStore ports.ContactStore, metrics *Metrics) (ContactService, error) {
	filter, err := newContactFilter()
	if err != nil {
		return nil, err
	}
	return &contactService{records: records, contacts: contactStore, filter: filter, metrics: metrics}, nil
}

// nameIndex maps record ids to names for every collection a contact can
// reference.
type nameIndex map[types.Collection]map[string]string

func (s *contactService) names(ctx context.Context) (nameIndex, error) {
	idx := make(nameIndex, len(types.Collections))
	for _, c := range types.Collections {
		recs, err := s.records.Query(ctx, c, ports.Filter{})
		if err != nil {
			return nil, storeFailure("list "+string(c), err)
		}
		m := make(map[string]string, len(recs))
		for _, r := range recs {
			m[r.ID] = r.Name
		}
		idx[c] = m
	}
	return idx, nil
}

func (idx nameIndex) view(c types.Contact) ContactView {
	v := ContactView{Contact: c, Names: ContactNames{
		Department:  idx[types.CollectionDepartments][c.DepartmentID],
		Institute:   idx[types.CollectionInstitutes][c.InstituteID],
		Subdivision: idx[types.CollectionSubdivisions][c.SubdivisionID],
		Unit:        idx[types.CollectionUnits][c.UnitID],
	}}
	if p, ok := c.Person(); ok {
		v.Names.Designation = idx[types.CollectionDesignations][p.DesignationID]
	}
	return v
}

func matchesSearch(v ContactView, term string) bool {
	if term == "" {
		return true
	}
	c := v.Contact
	for _, field := range []string{c.FullName, c.OfficialEmail, c.OfficeNo1, c.OfficeNo2, v.Names.Department, v.Names.Institute} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortContacts(views []ContactView, mode string, desc bool) error {
	var less func(a, b ContactView) bool
	byName := func(a, b ContactView) bool {
		an, bn := strings.ToLower(a.Contact.FullName), strings.ToLower(b.Contact.FullName)
		if an != bn {
			return an < bn
		}
		return a.Contact.ID < b.Contact.ID
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "name":
		less = byName
	case "department":
		less = func(a, b ContactView) bool {
			ad, bd := strings.ToLower(a.Names.Department), strings.ToLower(b.Names.Department)
			if ad != bd {
				return ad < bd
			}
			return byName(a, b)
		}
	case "updated":
		less = func(a, b ContactView) bool {
			if !a.Contact.UpdatedAt.Equal(b.Contact.UpdatedAt) {
				return a.Contact.UpdatedAt.Before(b.Contact.UpdatedAt)
			}
			return byName(a, b)
		}
	default:
		return &hierarchy.ValidationError{Field: "sort", Message: "must be one of: name department updated"}
	}
	sort.SliceStable(views, func(i, j int) bool {
		if desc {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})
	return nil
}

func (s *contactService) List(ctx context.Context, q ContactQuery) ([]ContactView, error) {
	expr := strings.TrimSpace(q.Filter)
	if expr != "" {
		if err := s.filter.Compile(expr); err != nil {
			return nil, err
		}
	}
	if q.Type != "" && q.Type != string(types.ContactTypePerson) && q.Type != string(types.ContactTypeBuilding) {
		return nil, &hierarchy.ValidationError{Field: "type", Message: "must be one of: person building"}
	}

	list, err := s.contacts.List(ctx, ports.ContactFilter{
		Type:          types.ContactType(q.Type),
		DepartmentID:  strings.TrimSpace(q.DepartmentID),
		InstituteID:   strings.TrimSpace(q.InstituteID),
		SubdivisionID: strings.TrimSpace(q.SubdivisionID),
		UnitID:        strings.TrimSpace(q.UnitID),
		DesignationID: strings.TrimSpace(q.DesignationID),
		Status:        strings.TrimSpace(q.Status),
	})
	if err != nil {
		return nil, storeFailure("list contacts", err)
	}
	idx, err := s.names(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]ContactView, 0, len(list))
	for _, c := range list {
		v := idx.view(c)
		if !matchesSearch(v, term) {
			continue
		}
		if expr != "" {
			ok, err := s.filter.Match(expr, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, v)
	}
	if err := sortContacts(out, q.Sort, q.Desc); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *contactService) Get(ctx context.Context, id string) (ContactView, error) {
	c, err := s.contacts.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return ContactView{}, storeFailure("get contact", err)
	}
	idx, err := s.names(ctx)
	if err != nil {
		return ContactView{}, err
	}
	return idx.view(c), nil
}

// checkReferences reports the first referenced organization node or
// designation that does not exist.
func (s *contactService) checkReferences(ctx context.Context, c types.Contact) error {
	refs := []struct {
		collection types.Collection
		id         string
	}{
		{types.CollectionDepartments, c.DepartmentID},
		{types.CollectionInstitutes, c.InstituteID},
		{types.CollectionSubdivisions, c.SubdivisionID},
		{types.CollectionUnits, c.UnitID},
	}
	if p, ok := c.Person(); ok {
		refs = append(refs, struct {
			collection types.Collection
			id         string
		}{types.CollectionDesignations, p.DesignationID})
	}
	for _, ref := range refs {
		if ref.id == "" {
			continue
		}
		n, err := s.records.Count(ctx, ref.collection, ports.Filter{ID: ref.id})
		if err != nil {
			return storeFailure("check "+string(ref.collection), err)
		}
		if n == 0 {
			return &hierarchy.NotFoundError{Collection: string(ref.collection), ID: ref.id}
		}
	}
	return nil
}

func (s *contactService) prepare(ctx context.Context, req ContactRequest) (types.Contact, error) {
	req.normalize()
	if err := validateStruct(req); err != nil {
		return types.Contact{}, err
	}
	c, err := req.contact()
	if err != nil {
		return types.Contact{}, err
	}
	if err := s.checkReferences(ctx, c); err != nil {
		return types.Contact{}, err
	}
	return c, nil
}

func (s *contactService) Create(ctx context.Context, req ContactRequest) (out ContactView, err error) {
	defer func() {
		logMutation(ctx, "create", contacts, out.Contact.ID, err)
		s.metrics.recordMutation(contacts, "create", err)
	}()

	req.ID = ""
	c, err := s.prepare(ctx, req)
	if err != nil {
		return ContactView{}, err
	}
	created, err := s.contacts.Create(ctx, c)
	if err != nil {
		return ContactView{}, storeFailure("create contact", err)
	}
	return s.Get(ctx, created.ID)
}

func (s *contactService) Update(ctx context.Context, req ContactRequest) (out ContactView, err error) {
	defer func() {
		logMutation(ctx, "update", contacts, req.ID, err)
		s.metrics.recordMutation(contacts, "update", err)
	}()

	if strings.TrimSpace(req.ID) == "" {
		return ContactView{}, &hierarchy.ValidationError{Field: "id", Message: "is required"}
	}
	c, err := s.prepare(ctx, req)
	if err != nil {
		return ContactView{}, err
	}
	updated, err := s.contacts.Update(ctx, c)
	if err != nil {
		return ContactView{}, storeFailure("update contact", err)
	}
	return s.Get(ctx, updated.ID)
}

func (s *contactService) Delete(ctx context.Context, id string) (err error) {
	id = strings.TrimSpace(id)
	defer func() {
		logMutation(ctx, "delete", contacts, id, err)
		s.metrics.recordMutation(contacts, "delete", err)
	}()

	if err := s.contacts.Delete(ctx, id); err != nil {
		return storeFailure("delete contact", err)
	}
	return nil
}

func (s *contactService) Stats(ctx context.Context) (ContactStats, error) {
	list, err := s.contacts.List(ctx, ports.ContactFilter{})
	if err != nil {
		return ContactStats{}, storeFailure("list contacts", err)
	}

	var st ContactStats
	departments := make(map[string]struct{})
	for _, c := range list {
		st.Total++
		if c.DepartmentID != "" {
			departments[c.DepartmentID] = struct{}{}
		}
		if p, ok := c.Person(); ok {
			st.People++
			switch p.Status {
			case types.PersonOnDuty:
				st.OnDuty++
			case types.PersonOffDuty:
				st.OffDuty++
			case types.PersonRetired:
				st.Retired++
			}
			continue
		}
		if b, ok := c.Building(); ok {
			st.Buildings++
			switch b.Status {
			case types.BuildingOperational:
				st.Operational++
			case types.BuildingNonOperational:
				st.NonOperational++
			}
		}
	}
	st.Departments = len(departments)
	return st, nil
}
