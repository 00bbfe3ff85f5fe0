package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SeedNode is one named entry of a seed file. Children nest designations
// under designations, and for the organization walk department, institute,
// subdivision and unit in that order.
type SeedNode struct {
	Name     string     `yaml:"name"`
	Order    int        `yaml:"order,omitempty"`
	Children []SeedNode `yaml:"children,omitempty"`
}

type SeedFile struct {
	Designations []SeedNode `yaml:"designations"`
	Departments  []SeedNode `yaml:"departments"`
}

type SeedResult struct {
	Designations int `json:"designations"`
	OrgNodes     int `json:"org_nodes"`
	Skipped      int `json:"skipped"`
}

func ParseSeed(r io.Reader) (SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, nil
		}
		return SeedFile{}, &hierarchy.ValidationError{Field: "seed", Message: err.Error()}
	}
	if err := checkSeedDepth(f.Departments, 0); err != nil {
		return SeedFile{}, err
	}
	return f, nil
}

func checkSeedDepth(nodes []SeedNode, depth int) error {
	for _, n := range nodes {
		if depth >= len(types.OrgLevels) {
			return &hierarchy.ValidationError{Field: "seed", Message: "organization nests at most " + string(types.OrgLevelUnit) + " deep: " + n.Name}
		}
		if err := checkSeedDepth(n.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Seeder loads a seed file through the services, so every write goes
// through the same validation and ordering as the API. Entries that already
// exist under the same parent are reused, making a rerun a no-op.
type Seeder struct {
	designations DesignationService
	organization OrganizationService
}

func NewSeeder(designations DesignationService, organization OrganizationService) *Seeder {
	return &Seeder{designations: designations, organization: organization}
}

func (s *Seeder) Seed(ctx context.Context, f SeedFile) (SeedResult, error) {
	var res SeedResult
	existing, err := s.designations.List(ctx)
	if err != nil {
		return res, err
	}
	known := make(map[string]string, len(existing))
	for _, d := range existing {
		known[seedKey(d.ParentID, d.Name)] = d.ID
	}
	if err := s.seedDesignations(ctx, f.Designations, "", known, &res); err != nil {
		return res, err
	}
	if err := s.seedOrg(ctx, f.Departments, 0, OrgSelection{}, &res); err != nil {
		return res, err
	}
	logWithFields(ctx, logrus.InfoLevel, "seed applied", logrus.Fields{
		"designations": res.Designations,
		"org_nodes":    res.OrgNodes,
		"skipped":      res.Skipped,
	})
	return res, nil
}

func seedKey(parentID, name string) string {
	return parentID + "\x00" + strings.ToLower(strings.TrimSpace(name))
}

func (s *Seeder) seedDesignations(ctx context.Context, nodes []SeedNode, parentID string, known map[string]string, res *SeedResult) error {
	for _, n := range nodes {
		id, ok := known[seedKey(parentID, n.Name)]
		if ok {
			res.Skipped++
		} else {
			d, err := s.designations.Create(ctx, CreateDesignationRequest{Name: n.Name, ParentID: parentID, Order: n.Order, ConfirmReorder: true})
			if err != nil {
				return err
			}
			id = d.ID
			known[seedKey(parentID, d.Name)] = id
			res.Designations++
		}
		if err := s.seedDesignations(ctx, n.Children, id, known, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedOrg(ctx context.Context, nodes []SeedNode, depth int, sel OrgSelection, res *SeedResult) error {
	if len(nodes) == 0 {
		return nil
	}
	if depth >= len(types.OrgLevels) {
		return &hierarchy.ValidationError{Field: "seed", Message: "organization nests at most " + string(types.OrgLevelUnit) + " deep: " + nodes[0].Name}
	}
	level := types.OrgLevels[depth]
	parentID := ""
	if parent, ok := level.Parent(); ok {
		parentID = sel.at(parent)
	}
	existing, err := s.organization.List(ctx, level, parentID)
	if err != nil {
		return err
	}
	known := make(map[string]string, len(existing))
	for _, n := range existing {
		if n.ParentID == parentID {
			known[seedKey(parentID, n.Name)] = n.ID
		}
	}

	for _, n := range nodes {
		id, ok := known[seedKey(parentID, n.Name)]
		if ok {
			res.Skipped++
		} else {
			node, err := s.organization.Create(ctx, CreateOrgNodeRequest{
				Level:          string(level),
				Name:           n.Name,
				OrgSelection:   sel,
				Order:          n.Order,
				ConfirmReorder: true,
			})
			if err != nil {
				return err
			}
			id = node.ID
			known[seedKey(parentID, node.Name)] = id
			res.OrgNodes++
		}

		next := sel
		switch level {
		case types.OrgLevelDepartment:
			next.DepartmentID = id
		case types.OrgLevelInstitute:
			next.InstituteID = id
		case types.OrgLevelSubdivision:
			next.SubdivisionID = id
		}
		if err := s.seedOrg(ctx, n.Children, depth+1, next, res); err != nil {
			return err
		}
	}
	return nil
}
