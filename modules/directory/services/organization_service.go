package services

import (
	"context"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

type OrganizationService interface {
	List(ctx context.Context, level types.OrgLevel, parentID string) ([]types.OrgNode, error)
	Get(ctx context.Context, level types.OrgLevel, id string) (types.OrgNode, error)
	Create(ctx context.Context, req CreateOrgNodeRequest) (types.OrgNode, error)
	Update(ctx context.Context, req UpdateOrgNodeRequest) (types.OrgNode, error)
	Delete(ctx context.Context, level types.OrgLevel, id string) error
	Tree(ctx context.Context, q TreeQuery) (TreeView, error)
}

// OrgSelection is the set of upper levels picked in an edit form. Each
// selected node must belong to the one selected above it.
type OrgSelection struct {
	DepartmentID  string `json:"department_id,omitempty"`
	InstituteID   string `json:"institute_id,omitempty"`
	SubdivisionID string `json:"subdivision_id,omitempty"`
}

func (s OrgSelection) at(level types.OrgLevel) string {
	switch level {
	case types.OrgLevelDepartment:
		return strings.TrimSpace(s.DepartmentID)
	case types.OrgLevelInstitute:
		return strings.TrimSpace(s.InstituteID)
	case types.OrgLevelSubdivision:
		return strings.TrimSpace(s.SubdivisionID)
	default:
		return ""
	}
}

type CreateOrgNodeRequest struct {
	Level string `json:"level" validate:"required,oneof=department institute subdivision unit"`
	Name  string `json:"name" validate:"required,max=200"`
	OrgSelection
	Order          int  `json:"order" validate:"gte=0"`
	ConfirmReorder bool `json:"confirm_reorder"`
}

// UpdateOrgNodeRequest changes only what is set. An empty selection for the
// parent level keeps the current parent.
type UpdateOrgNodeRequest struct {
	Level string  `json:"level" validate:"required,oneof=department institute subdivision unit"`
	ID    string  `json:"id" validate:"required"`
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	OrgSelection
	Order          *int `json:"order,omitempty"`
	ConfirmReorder bool `json:"confirm_reorder"`
}

type organizationService struct {
	records ports.RecordStore
	metrics *Metrics
}

func NewOrganizationService(records ports.RecordStore, metrics *Metrics) OrganizationService {
	return &organizationService{records: records, metrics: metrics}
}

func parseLevel(raw string) (types.OrgLevel, error) {
	level, ok := types.ParseOrgLevel(raw)
	if !ok {
		return "", &hierarchy.ValidationError{Field: "level", Message: "must be one of: department institute subdivision unit"}
	}
	return level, nil
}

func (s *organizationService) find(ctx context.Context, level types.OrgLevel, id string) (hierarchy.Record, bool, error) {
	recs, err := s.records.Query(ctx, level.Collection(), ports.Filter{ID: id})
	if err != nil {
		return hierarchy.Record{}, false, storeFailure("get "+string(level), err)
	}
	if len(recs) == 0 {
		return hierarchy.Record{}, false, nil
	}
	return recs[0], true, nil
}

func (s *organizationService) List(ctx context.Context, level types.OrgLevel, parentID string) ([]types.OrgNode, error) {
	if level.Collection() == "" {
		return nil, &hierarchy.ValidationError{Field: "level", Message: "unknown level"}
	}
	filter := ports.Filter{}
	if parentID = strings.TrimSpace(parentID); parentID != "" {
		filter = ports.ByParent(parentID)
	}
	recs, err := s.records.Query(ctx, level.Collection(), filter)
	if err != nil {
		return nil, storeFailure("list "+string(level), err)
	}
	out := make([]types.OrgNode, 0, len(recs))
	for _, r := range recs {
		out = append(out, types.OrgNodeFromRecord(level, r))
	}
	return out, nil
}

func (s *organizationService) Get(ctx context.Context, level types.OrgLevel, id string) (types.OrgNode, error) {
	if level.Collection() == "" {
		return types.OrgNode{}, &hierarchy.ValidationError{Field: "level", Message: "unknown level"}
	}
	id = strings.TrimSpace(id)
	rec, ok, err := s.find(ctx, level, id)
	if err != nil {
		return types.OrgNode{}, err
	}
	if !ok {
		return types.OrgNode{}, &hierarchy.NotFoundError{Collection: string(level.Collection()), ID: id}
	}
	return types.OrgNodeFromRecord(level, rec), nil
}

// resolveParent picks the parent for a node at level from sel, falling back
// to current, and checks the upper levels form one chain. A blank upper level
// is filled from the stored parent of the level below it, so a selection that
// skips a level is still checked against the levels above.
func (s *organizationService) resolveParent(ctx context.Context, level types.OrgLevel, sel OrgSelection, current string) (string, error) {
	parentLevel, ok := level.Parent()
	if !ok {
		return "", nil
	}
	parentID := sel.at(parentLevel)
	if parentID == "" {
		parentID = current
	}
	if parentID == "" {
		return "", &hierarchy.ValidationError{Field: string(parentLevel) + "_id", Message: "is required"}
	}

	links := make([]hierarchy.ChainLink, parentLevel.Depth()+1)
	implied := parentID
	for d := parentLevel.Depth(); d >= 0; d-- {
		l := types.OrgLevels[d]
		id := sel.at(l)
		if l == parentLevel {
			id = parentID
		}
		if id == "" {
			id = implied
		}
		if id == "" {
			links[d] = hierarchy.ChainLink{Level: string(l)}
			continue
		}
		rec, found, err := s.find(ctx, l, id)
		if err != nil {
			return "", err
		}
		if !found {
			if l == parentLevel {
				return "", &hierarchy.NotFoundError{Collection: "parent", ID: id}
			}
			return "", &hierarchy.NotFoundError{Collection: string(l.Collection()), ID: id}
		}
		links[d] = hierarchy.ChainLink{Level: string(l), ID: rec.ID, ParentID: rec.ParentID}
		implied = rec.ParentID
	}
	if err := hierarchy.ValidateChain(links); err != nil {
		return "", err
	}
	return parentID, nil
}

func (s *organizationService) Create(ctx context.Context, req CreateOrgNodeRequest) (out types.OrgNode, err error) {
	collection := strings.TrimSpace(req.Level)
	defer func() {
		logMutation(ctx, "create", collection, out.ID, err)
		s.metrics.recordMutation(collection, "create", err)
	}()

	req.Name = strings.TrimSpace(req.Name)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if err := validateStruct(req); err != nil {
		return types.OrgNode{}, err
	}
	level, err := parseLevel(req.Level)
	if err != nil {
		return types.OrgNode{}, err
	}
	collection = string(level.Collection())

	parentID, err := s.resolveParent(ctx, level, req.OrgSelection, "")
	if err != nil {
		return types.OrgNode{}, err
	}
	siblings, err := s.records.Query(ctx, level.Collection(), ports.ByParent(parentID))
	if err != nil {
		return types.OrgNode{}, storeFailure("list siblings", err)
	}

	rec := hierarchy.Record{Name: req.Name, ParentID: parentID}
	batch, err := planCreate(siblings, rec, orderRequest{Requested: &req.Order, Confirm: req.ConfirmReorder})
	if err != nil {
		return types.OrgNode{}, err
	}
	inserted, err := s.records.ApplyBatch(ctx, level.Collection(), batch)
	if err != nil {
		return types.OrgNode{}, storeFailure("create "+string(level), err)
	}
	s.metrics.recordShifts(collection, len(batch.Updates))
	return types.OrgNodeFromRecord(level, inserted), nil
}

func (s *organizationService) Update(ctx context.Context, req UpdateOrgNodeRequest) (out types.OrgNode, err error) {
	collection := strings.TrimSpace(req.Level)
	defer func() {
		logMutation(ctx, "update", collection, req.ID, err)
		s.metrics.recordMutation(collection, "update", err)
	}()

	req.ID = strings.TrimSpace(req.ID)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return types.OrgNode{}, &hierarchy.ValidationError{Field: "name", Message: "is required"}
		}
		req.Name = &name
	}
	if err := validateStruct(req); err != nil {
		return types.OrgNode{}, err
	}
	level, err := parseLevel(req.Level)
	if err != nil {
		return types.OrgNode{}, err
	}
	collection = string(level.Collection())

	cur, found, err := s.find(ctx, level, req.ID)
	if err != nil {
		return types.OrgNode{}, err
	}
	if !found {
		return types.OrgNode{}, &hierarchy.NotFoundError{Collection: collection, ID: req.ID}
	}

	parentID, err := s.resolveParent(ctx, level, req.OrgSelection, cur.ParentID)
	if err != nil {
		return types.OrgNode{}, err
	}
	scopeChanged := parentID != cur.ParentID
	patch := ports.Patch{Name: req.Name}
	if scopeChanged {
		patch.ParentID = &parentID
	}

	siblings, err := s.records.Query(ctx, level.Collection(), ports.ByParent(parentID))
	if err != nil {
		return types.OrgNode{}, storeFailure("list siblings", err)
	}
	if scopeChanged {
		siblings = withoutRecord(siblings, cur.ID)
	}
	batch, err := planUpdate(cur, siblings, scopeChanged, patch, orderRequest{Requested: req.Order, Confirm: req.ConfirmReorder})
	if err != nil {
		return types.OrgNode{}, err
	}
	if len(batch.Updates) > 0 {
		if _, err := s.records.ApplyBatch(ctx, level.Collection(), batch); err != nil {
			return types.OrgNode{}, storeFailure("update "+string(level), err)
		}
		s.metrics.recordShifts(collection, shiftCount(batch, cur.ID))
	}
	return s.Get(ctx, level, cur.ID)
}

func (s *organizationService) Delete(ctx context.Context, level types.OrgLevel, id string) (err error) {
	id = strings.TrimSpace(id)
	collection := string(level.Collection())
	defer func() {
		logMutation(ctx, "delete", collection, id, err)
		s.metrics.recordMutation(collection, "delete", err)
	}()

	if _, err := s.Get(ctx, level, id); err != nil {
		return err
	}
	if child, ok := level.Child(); ok {
		n, err := s.records.Count(ctx, child.Collection(), ports.ByParent(id))
		if err != nil {
			return storeFailure("count "+string(child.Collection()), err)
		}
		if n > 0 {
			return &hierarchy.HasChildrenError{ID: id, Children: n}
		}
	}
	if err := s.records.Delete(ctx, level.Collection(), id); err != nil {
		return storeFailure("delete "+string(level), err)
	}
	return nil
}

// BuildOrganizationTree joins the four levels into one forest. Kind holds the
// level name and Level its depth.
func BuildOrganizationTree(departments, institutes, subdivisions, units []hierarchy.Record) []*hierarchy.Node {
	levels := [][]hierarchy.Record{departments, institutes, subdivisions, units}
	all := make([]hierarchy.Record, 0, len(departments)+len(institutes)+len(subdivisions)+len(units))
	for depth, recs := range levels {
		for _, r := range recs {
			r.Kind = string(types.OrgLevels[depth])
			r.Level = depth
			if depth == 0 {
				r.ParentID = ""
			}
			all = append(all, r)
		}
	}
	return hierarchy.BuildTree(all)
}

func (s *organizationService) Tree(ctx context.Context, q TreeQuery) (TreeView, error) {
	sortMode, err := parseTreeSort(q.Sort)
	if err != nil {
		return TreeView{}, err
	}
	if sortMode == TreeSortStaff {
		return TreeView{}, &hierarchy.ValidationError{Field: "sort", Message: "must be one of: order name updated"}
	}

	levels := make([][]hierarchy.Record, len(types.OrgLevels))
	for i, l := range types.OrgLevels {
		recs, err := s.records.Query(ctx, l.Collection(), ports.Filter{})
		if err != nil {
			return TreeView{}, storeFailure("list "+string(l.Collection()), err)
		}
		levels[i] = recs
	}

	roots := BuildOrganizationTree(levels[0], levels[1], levels[2], levels[3])
	hierarchy.SortTree(roots, treeLess(sortMode, nil))
	return buildTreeView(roots, q), nil
}
