package types

import (
	"strings"
	"time"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

// Collection names one ordered record table.
type Collection string

const (
	CollectionDesignations Collection = "designations"
	CollectionDepartments  Collection = "departments"
	CollectionInstitutes   Collection = "institutes"
	CollectionSubdivisions Collection = "subdivisions"
	CollectionUnits        Collection = "units"
)

var Collections = []Collection{
	CollectionDesignations,
	CollectionDepartments,
	CollectionInstitutes,
	CollectionSubdivisions,
	CollectionUnits,
}

// ParentColumn is the column scoping sibling order. Departments have none.
func (c Collection) ParentColumn() string {
	switch c {
	case CollectionDesignations:
		return "parent_id"
	case CollectionInstitutes:
		return "department_id"
	case CollectionSubdivisions:
		return "institute_id"
	case CollectionUnits:
		return "subdivision_id"
	default:
		return ""
	}
}

func (c Collection) Valid() bool {
	for _, v := range Collections {
		if v == c {
			return true
		}
	}
	return false
}

// OrgLevel is one of the four fixed organization levels.
type OrgLevel string

const (
	OrgLevelDepartment  OrgLevel = "department"
	OrgLevelInstitute   OrgLevel = "institute"
	OrgLevelSubdivision OrgLevel = "subdivision"
	OrgLevelUnit        OrgLevel = "unit"
)

var OrgLevels = []OrgLevel{OrgLevelDepartment, OrgLevelInstitute, OrgLevelSubdivision, OrgLevelUnit}

func ParseOrgLevel(raw string) (OrgLevel, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, l := range OrgLevels {
		if string(l) == raw {
			return l, true
		}
	}
	return "", false
}

// Depth is 0 for departments and 3 for units.
func (l OrgLevel) Depth() int {
	for i, v := range OrgLevels {
		if v == l {
			return i
		}
	}
	return -1
}

func (l OrgLevel) Collection() Collection {
	switch l {
	case OrgLevelDepartment:
		return CollectionDepartments
	case OrgLevelInstitute:
		return CollectionInstitutes
	case OrgLevelSubdivision:
		return CollectionSubdivisions
	case OrgLevelUnit:
		return CollectionUnits
	default:
		return ""
	}
}

func (l OrgLevel) Parent() (OrgLevel, bool) {
	d := l.Depth()
	if d <= 0 {
		return "", false
	}
	return OrgLevels[d-1], true
}

func (l OrgLevel) Child() (OrgLevel, bool) {
	d := l.Depth()
	if d < 0 || d == len(OrgLevels)-1 {
		return "", false
	}
	return OrgLevels[d+1], true
}

type Designation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	Level     int       `json:"level"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func DesignationFromRecord(r hierarchy.Record) Designation {
	return Designation{
		ID:        r.ID,
		Name:      r.Name,
		ParentID:  r.ParentID,
		Level:     r.Level,
		Order:     r.Order,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// OrgNode is a department, institute, subdivision or unit. ParentID holds the
// department_id, institute_id or subdivision_id respectively.
type OrgNode struct {
	ID        string    `json:"id"`
	Level     OrgLevel  `json:"level"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func OrgNodeFromRecord(level OrgLevel, r hierarchy.Record) OrgNode {
	return OrgNode{
		ID:        r.ID,
		Level:     level,
		Name:      r.Name,
		ParentID:  r.ParentID,
		Order:     r.Order,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
