package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/stretchr/testify/require"
)

func mustOrgNode(t *testing.T, svc OrganizationService, level types.OrgLevel, name string, sel OrgSelection) types.OrgNode {
	t.Helper()
	n, err := svc.Create(context.Background(), CreateOrgNodeRequest{Level: string(level), Name: name, OrgSelection: sel})
	require.NoError(t, err)
	return n
}

func TestOrganizationService_ReorderInstitutesNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})
	livestock := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Livestock", OrgSelection{DepartmentID: agri.ID})
	require.Equal(t, 1, crops.Order)
	require.Equal(t, 2, livestock.Order)

	_, err := f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level: "institute",
		ID:    livestock.ID,
		Order: intPtr(1),
	})
	conflict, ok := errors.AsType[*hierarchy.OrderConflictError](err)
	require.True(t, ok)
	require.Equal(t, crops.ID, conflict.SiblingID)
	require.Equal(t, "Crops", conflict.SiblingName)
	require.Equal(t, 1, conflict.Order)

	got, err := f.organization.Get(ctx, types.OrgLevelInstitute, livestock.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Order)

	got, err = f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level:          "institute",
		ID:             livestock.ID,
		Order:          intPtr(1),
		ConfirmReorder: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, got.Order)

	got, err = f.organization.Get(ctx, types.OrgLevelInstitute, crops.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Order)
}

func TestOrganizationService_CreateValidatesParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	health := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Health", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})

	_, err := f.organization.Create(ctx, CreateOrgNodeRequest{Level: "subdivision", Name: "Seeds"})
	verr, ok := errors.AsType[*hierarchy.ValidationError](err)
	require.True(t, ok)
	require.Equal(t, "institute_id", verr.Field)

	_, err = f.organization.Create(ctx, CreateOrgNodeRequest{Level: "institute", Name: "X", OrgSelection: OrgSelection{DepartmentID: "missing"}})
	nf, ok := errors.AsType[*hierarchy.NotFoundError](err)
	require.True(t, ok)
	require.Equal(t, "parent", nf.Collection)

	_, err = f.organization.Create(ctx, CreateOrgNodeRequest{
		Level:        "subdivision",
		Name:         "Seeds",
		OrgSelection: OrgSelection{DepartmentID: health.ID, InstituteID: crops.ID},
	})
	ierr, ok := errors.AsType[*hierarchy.InconsistentHierarchyError](err)
	require.True(t, ok)
	require.Equal(t, crops.ID, ierr.ID)
	require.Equal(t, health.ID, ierr.Expected)

	seeds, err := f.organization.Create(ctx, CreateOrgNodeRequest{
		Level:        "subdivision",
		Name:         "Seeds",
		OrgSelection: OrgSelection{DepartmentID: agri.ID, InstituteID: crops.ID},
	})
	require.NoError(t, err)
	require.Equal(t, crops.ID, seeds.ParentID)
	require.Equal(t, types.OrgLevelSubdivision, seeds.Level)

	_, err = f.organization.Create(ctx, CreateOrgNodeRequest{Level: "region", Name: "X"})
	_, ok = errors.AsType[*hierarchy.ValidationError](err)
	require.True(t, ok)
}

func TestOrganizationService_MoveToAnotherDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	health := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Health", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})
	livestock := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Livestock", OrgSelection{DepartmentID: agri.ID})
	clinic := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Clinic", OrgSelection{DepartmentID: health.ID})

	moved, err := f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level:        "institute",
		ID:           crops.ID,
		OrgSelection: OrgSelection{DepartmentID: health.ID},
	})
	require.NoError(t, err)
	require.Equal(t, health.ID, moved.ParentID)
	require.Equal(t, 2, moved.Order)

	// the old scope keeps its gap
	got, err := f.organization.Get(ctx, types.OrgLevelInstitute, livestock.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Order)

	_, err = f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level:        "institute",
		ID:           livestock.ID,
		OrgSelection: OrgSelection{DepartmentID: health.ID},
		Order:        intPtr(1),
	})
	conflict, ok := errors.AsType[*hierarchy.OrderConflictError](err)
	require.True(t, ok)
	require.Equal(t, clinic.ID, conflict.SiblingID)

	moved, err = f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level:          "institute",
		ID:             livestock.ID,
		OrgSelection:   OrgSelection{DepartmentID: health.ID},
		Order:          intPtr(1),
		ConfirmReorder: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, moved.Order)

	list, err := f.organization.List(ctx, types.OrgLevelInstitute, health.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, n := range list {
		names = append(names, n.Name)
	}
	require.Equal(t, []string{"Livestock", "Clinic", "Crops"}, names)
}

func TestOrganizationService_DeleteBlockedByChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})

	err := f.organization.Delete(ctx, types.OrgLevelDepartment, agri.ID)
	hc, ok := errors.AsType[*hierarchy.HasChildrenError](err)
	require.True(t, ok)
	require.Equal(t, 1, hc.Children)

	require.NoError(t, f.organization.Delete(ctx, types.OrgLevelInstitute, crops.ID))
	require.NoError(t, f.organization.Delete(ctx, types.OrgLevelDepartment, agri.ID))

	err = f.organization.Delete(ctx, types.OrgLevelDepartment, agri.ID)
	_, ok = errors.AsType[*hierarchy.NotFoundError](err)
	require.True(t, ok)
}

func TestOrganizationService_Tree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Health", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})
	seeds := mustOrgNode(t, f.organization, types.OrgLevelSubdivision, "Seeds", OrgSelection{DepartmentID: agri.ID, InstituteID: crops.ID})
	lab := mustOrgNode(t, f.organization, types.OrgLevelUnit, "Seed Lab", OrgSelection{DepartmentID: agri.ID, InstituteID: crops.ID, SubdivisionID: seeds.ID})

	view, err := f.organization.Tree(ctx, TreeQuery{})
	require.NoError(t, err)
	require.Equal(t, 5, view.Total)
	require.Len(t, view.Roots, 2)

	var kinds []string
	hierarchy.Walk(view.Roots, func(n *hierarchy.Node, depth int) bool {
		require.Equal(t, depth, n.Level)
		kinds = append(kinds, n.Kind)
		return true
	})
	require.Equal(t, []string{"department", "institute", "subdivision", "unit", "department"}, kinds)

	view, err = f.organization.Tree(ctx, TreeQuery{Search: "lab"})
	require.NoError(t, err)
	require.Equal(t, 4, view.Visible)
	require.ElementsMatch(t, []string{agri.ID, crops.ID, seeds.ID}, view.Expanded)
	require.NotContains(t, view.Expanded, lab.ID)

	_, err = f.organization.Tree(ctx, TreeQuery{Sort: "staff"})
	_, ok := errors.AsType[*hierarchy.ValidationError](err)
	require.True(t, ok)
}

func TestOrganizationService_SkippedLevelIsCheckedAgainstStoredParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agri := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Agriculture", OrgSelection{})
	health := mustOrgNode(t, f.organization, types.OrgLevelDepartment, "Health", OrgSelection{})
	crops := mustOrgNode(t, f.organization, types.OrgLevelInstitute, "Crops", OrgSelection{DepartmentID: agri.ID})
	seeds := mustOrgNode(t, f.organization, types.OrgLevelSubdivision, "Seeds", OrgSelection{DepartmentID: agri.ID, InstituteID: crops.ID})

	_, err := f.organization.Create(ctx, CreateOrgNodeRequest{
		Level:        "unit",
		Name:         "Seed Lab",
		OrgSelection: OrgSelection{DepartmentID: health.ID, SubdivisionID: seeds.ID},
	})
	ierr, ok := errors.AsType[*hierarchy.InconsistentHierarchyError](err)
	require.True(t, ok, "err=%v", err)
	require.Equal(t, crops.ID, ierr.ID)
	require.Equal(t, agri.ID, ierr.ParentID)
	require.Equal(t, health.ID, ierr.Expected)

	units, err := f.organization.List(ctx, types.OrgLevelUnit, seeds.ID)
	require.NoError(t, err)
	require.Empty(t, units)

	lab, err := f.organization.Create(ctx, CreateOrgNodeRequest{
		Level:        "unit",
		Name:         "Seed Lab",
		OrgSelection: OrgSelection{SubdivisionID: seeds.ID},
	})
	require.NoError(t, err)
	require.Equal(t, seeds.ID, lab.ParentID)

	lab, err = f.organization.Create(ctx, CreateOrgNodeRequest{
		Level:        "unit",
		Name:         "Soil Lab",
		OrgSelection: OrgSelection{DepartmentID: agri.ID, SubdivisionID: seeds.ID},
	})
	require.NoError(t, err)
	require.Equal(t, seeds.ID, lab.ParentID)

	// an update keeping the stored subdivision is checked the same way
	_, err = f.organization.Update(ctx, UpdateOrgNodeRequest{
		Level:        "unit",
		ID:           lab.ID,
		OrgSelection: OrgSelection{DepartmentID: health.ID},
	})
	_, ok = errors.AsType[*hierarchy.InconsistentHierarchyError](err)
	require.True(t, ok, "err=%v", err)
}
