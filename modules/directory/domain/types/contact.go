package types

import (
	"encoding/json"
	"errors"
	"time"
)

type ContactType string

const (
	ContactTypePerson   ContactType = "person"
	ContactTypeBuilding ContactType = "building"
)

type PersonTitle string

const (
	TitleMr   PersonTitle = "Mr"
	TitleMrs  PersonTitle = "Mrs"
	TitleMiss PersonTitle = "Miss"
	TitleMs   PersonTitle = "Ms"
	TitleDr   PersonTitle = "Dr"
	TitleProf PersonTitle = "Prof"
	TitleEng  PersonTitle = "Eng"
)

type PersonStatus string

const (
	PersonOnDuty  PersonStatus = "on_duty"
	PersonOffDuty PersonStatus = "off_duty"
	PersonRetired PersonStatus = "retired"
)

type BuildingStatus string

const (
	BuildingOperational    BuildingStatus = "operational"
	BuildingNonOperational BuildingStatus = "non_operational"
)

// ContactDetails is either PersonDetails or BuildingDetails.
type ContactDetails interface {
	ContactType() ContactType
	StatusValue() string
}

type PersonDetails struct {
	Title         PersonTitle  `json:"title" validate:"required,oneof=Mr Mrs Miss Ms Dr Prof Eng"`
	DesignationID string       `json:"designation_id,omitempty"`
	MobileNo1     string       `json:"mobile_no_1,omitempty" validate:"max=32"`
	MobileNo2     string       `json:"mobile_no_2,omitempty" validate:"max=32"`
	PersonalEmail string       `json:"personal_email,omitempty" validate:"omitempty,email"`
	Status        PersonStatus `json:"status" validate:"required,oneof=on_duty off_duty retired"`
}

func (PersonDetails) ContactType() ContactType { return ContactTypePerson }
func (d PersonDetails) StatusValue() string    { return string(d.Status) }

type BuildingDetails struct {
	Status BuildingStatus `json:"status" validate:"required,oneof=operational non_operational"`
}

func (BuildingDetails) ContactType() ContactType { return ContactTypeBuilding }
func (d BuildingDetails) StatusValue() string    { return string(d.Status) }

// Contact is a directory entry. Its organization references are
// denormalized and need not form a strict chain.
type Contact struct {
	ID                string
	FullName          string
	DepartmentID      string
	InstituteID       string
	SubdivisionID     string
	UnitID            string
	OfficeNo1         string
	OfficeNo2         string
	WhatsappNo        string
	FaxNo1            string
	FaxNo2            string
	OfficialEmail     string
	OfficeAddress     string
	Description       string
	ProfilePictureURL string
	Details           ContactDetails
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c Contact) Type() ContactType {
	if c.Details == nil {
		return ""
	}
	return c.Details.ContactType()
}

// Person returns the person details, if the contact is a person.
func (c Contact) Person() (PersonDetails, bool) {
	switch d := c.Details.(type) {
	case PersonDetails:
		return d, true
	case *PersonDetails:
		if d != nil {
			return *d, true
		}
	}
	return PersonDetails{}, false
}

func (c Contact) Building() (BuildingDetails, bool) {
	switch d := c.Details.(type) {
	case BuildingDetails:
		return d, true
	case *BuildingDetails:
		if d != nil {
			return *d, true
		}
	}
	return BuildingDetails{}, false
}

type contactJSON struct {
	ID                string           `json:"id"`
	Type              ContactType      `json:"type"`
	FullName          string           `json:"full_name"`
	DepartmentID      string           `json:"department_id,omitempty"`
	InstituteID       string           `json:"institute_id,omitempty"`
	SubdivisionID     string           `json:"subdivision_id,omitempty"`
	UnitID            string           `json:"unit_id,omitempty"`
	OfficeNo1         string           `json:"office_no_1,omitempty"`
	OfficeNo2         string           `json:"office_no_2,omitempty"`
	WhatsappNo        string           `json:"whatsapp_no,omitempty"`
	FaxNo1            string           `json:"fax_no_1,omitempty"`
	FaxNo2            string           `json:"fax_no_2,omitempty"`
	OfficialEmail     string           `json:"official_email,omitempty"`
	OfficeAddress     string           `json:"office_address,omitempty"`
	Description       string           `json:"description,omitempty"`
	ProfilePictureURL string           `json:"profile_picture_url,omitempty"`
	Person            *PersonDetails   `json:"person,omitempty"`
	Building          *BuildingDetails `json:"building,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (c Contact) MarshalJSON() ([]byte, error) {
	out := contactJSON{
		ID:                c.ID,
		Type:              c.Type(),
		FullName:          c.FullName,
		DepartmentID:      c.DepartmentID,
		InstituteID:       c.InstituteID,
		SubdivisionID:     c.SubdivisionID,
		UnitID:            c.UnitID,
		OfficeNo1:         c.OfficeNo1,
		OfficeNo2:         c.OfficeNo2,
		WhatsappNo:        c.WhatsappNo,
		FaxNo1:            c.FaxNo1,
		FaxNo2:            c.FaxNo2,
		OfficialEmail:     c.OfficialEmail,
		OfficeAddress:     c.OfficeAddress,
		Description:       c.Description,
		ProfilePictureURL: c.ProfilePictureURL,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if p, ok := c.Person(); ok {
		out.Person = &p
	}
	if b, ok := c.Building(); ok {
		out.Building = &b
	}
	return json.Marshal(out)
}

func (c *Contact) UnmarshalJSON(b []byte) error {
	var in contactJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = Contact{
		ID:                in.ID,
		FullName:          in.FullName,
		DepartmentID:      in.DepartmentID,
		InstituteID:       in.InstituteID,
		SubdivisionID:     in.SubdivisionID,
		UnitID:            in.UnitID,
		OfficeNo1:         in.OfficeNo1,
		OfficeNo2:         in.OfficeNo2,
		WhatsappNo:        in.WhatsappNo,
		FaxNo1:            in.FaxNo1,
		FaxNo2:            in.FaxNo2,
		OfficialEmail:     in.OfficialEmail,
		OfficeAddress:     in.OfficeAddress,
		Description:       in.Description,
		ProfilePictureURL: in.ProfilePictureURL,
		CreatedAt:         in.CreatedAt,
		UpdatedAt:         in.UpdatedAt,
	}
	switch in.Type {
	case ContactTypePerson:
		if in.Person == nil {
			return errors.New("contact: person details required")
		}
		c.Details = *in.Person
	case ContactTypeBuilding:
		if in.Building == nil {
			in.Building = &BuildingDetails{}
		}
		c.Details = *in.Building
	default:
		return errors.New("contact: type must be person or building")
	}
	return nil
}
