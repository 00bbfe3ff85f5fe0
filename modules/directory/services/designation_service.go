package services

import (
	"context"
	"sort"
	"strings"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

type DesignationService interface {
	List(ctx context.Context) ([]types.Designation, error)
	Get(ctx context.Context, id string) (types.Designation, error)
	Create(ctx context.Context, req CreateDesignationRequest) (types.Designation, error)
	Update(ctx context.Context, req UpdateDesignationRequest) (types.Designation, error)
	Delete(ctx context.Context, id string) error
	Tree(ctx context.Context, q TreeQuery) (TreeView, error)
	AvailableParents(ctx context.Context, id string) ([]types.Designation, error)
	Suggest(ctx context.Context, term string, limit int) ([]DesignationOption, error)
	StaffCounts(ctx context.Context) map[string]int
}

type CreateDesignationRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	ParentID       string `json:"parent_id"`
	Order          int    `json:"order" validate:"gte=0"`
	ConfirmReorder bool   `json:"confirm_reorder"`
}

// UpdateDesignationRequest changes only the fields that are set. A ParentID
// pointing at "" moves the designation to the root.
type UpdateDesignationRequest struct {
	ID             string  `json:"id" validate:"required"`
	Name           *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ParentID       *string `json:"parent_id,omitempty"`
	Order          *int    `json:"order,omitempty"`
	ConfirmReorder bool    `json:"confirm_reorder"`
}

type DesignationOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Distance int    `json:"distance"`
}

type designationService struct {
	records  ports.RecordStore
	contacts ports.ContactStore
	metrics  *Metrics
}

func NewDesignationService(records ports.RecordStore, contacts ports.ContactStore, metrics *Metrics) DesignationService {
	return &designationService{records: records, contacts: contacts, metrics: metrics}
}

const designations = string(types.CollectionDesignations)

func (s *designationService) all(ctx context.Context) ([]hierarchy.Record, error) {
	recs, err := s.records.Query(ctx, types.CollectionDesignations, ports.Filter{})
	if err != nil {
		return nil, storeFailure("list designations", err)
	}
	return recs, nil
}

func toDesignations(recs []hierarchy.Record) []types.Designation {
	out := make([]types.Designation, 0, len(recs))
	for _, r := range recs {
		out = append(out, types.DesignationFromRecord(r))
	}
	return out
}

func findRecord(recs []hierarchy.Record, id string) (hierarchy.Record, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return hierarchy.Record{}, false
}

func childrenOf(recs []hierarchy.Record, parentID string) []hierarchy.Record {
	out := make([]hierarchy.Record, 0)
	for _, r := range recs {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out
}

func (s *designationService) List(ctx context.Context) ([]types.Designation, error) {
	recs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return toDesignations(recs), nil
}

func (s *designationService) Get(ctx context.Context, id string) (types.Designation, error) {
	recs, err := s.records.Query(ctx, types.CollectionDesignations, ports.Filter{ID: strings.TrimSpace(id)})
	if err != nil {
		return types.Designation{}, storeFailure("get designation", err)
	}
	if len(recs) == 0 {
		return types.Designation{}, &hierarchy.NotFoundError{Collection: designations, ID: id}
	}
	return types.DesignationFromRecord(recs[0]), nil
}

func (s *designationService) Create(ctx context.Context, req CreateDesignationRequest) (out types.Designation, err error) {
	defer func() {
		logMutation(ctx, "create", designations, out.ID, err)
		s.metrics.recordMutation(designations, "create", err)
	}()

	req.Name = strings.TrimSpace(req.Name)
	req.ParentID = strings.TrimSpace(req.ParentID)
	if err := validateStruct(req); err != nil {
		return types.Designation{}, err
	}

	recs, err := s.all(ctx)
	if err != nil {
		return types.Designation{}, err
	}
	level := 0
	if req.ParentID != "" {
		parent, ok := findRecord(recs, req.ParentID)
		if !ok {
			return types.Designation{}, &hierarchy.NotFoundError{Collection: "parent", ID: req.ParentID}
		}
		level = parent.Level + 1
	}

	rec := hierarchy.Record{Name: req.Name, ParentID: req.ParentID, Level: level}
	batch, err := planCreate(childrenOf(recs, req.ParentID), rec, orderRequest{Requested: &req.Order, Confirm: req.ConfirmReorder})
	if err != nil {
		return types.Designation{}, err
	}
	inserted, err := s.records.ApplyBatch(ctx, types.CollectionDesignations, batch)
	if err != nil {
		return types.Designation{}, storeFailure("create designation", err)
	}
	s.metrics.recordShifts(designations, len(batch.Updates))
	return types.DesignationFromRecord(inserted), nil
}

// levelUpdates recomputes the level of every descendant of id once id sits at
// level. Only records whose level actually changes are returned.
func levelUpdates(recs []hierarchy.Record, id string, level int) []ports.RecordUpdate {
	byParent := make(map[string][]hierarchy.Record, len(recs))
	for _, r := range recs {
		byParent[r.ParentID] = append(byParent[r.ParentID], r)
	}

	var updates []ports.RecordUpdate
	seen := map[string]struct{}{id: {}}
	type item struct {
		id    string
		level int
	}
	queue := []item{{id: id, level: level}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range byParent[cur.id] {
			if _, ok := seen[child.ID]; ok {
				continue
			}
			seen[child.ID] = struct{}{}
			want := cur.level + 1
			if child.Level != want {
				lvl := want
				updates = append(updates, ports.RecordUpdate{ID: child.ID, Patch: ports.Patch{Level: &lvl}})
			}
			queue = append(queue, item{id: child.ID, level: want})
		}
	}
	return updates
}

func (s *designationService) Update(ctx context.Context, req UpdateDesignationRequest) (out types.Designation, err error) {
	defer func() {
		logMutation(ctx, "update", designations, req.ID, err)
		s.metrics.recordMutation(designations, "update", err)
	}()

	req.ID = strings.TrimSpace(req.ID)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return types.Designation{}, &hierarchy.ValidationError{Field: "name", Message: "is required"}
		}
		req.Name = &name
	}
	if err := validateStruct(req); err != nil {
		return types.Designation{}, err
	}

	recs, err := s.all(ctx)
	if err != nil {
		return types.Designation{}, err
	}
	cur, ok := findRecord(recs, req.ID)
	if !ok {
		return types.Designation{}, &hierarchy.NotFoundError{Collection: designations, ID: req.ID}
	}

	patch := ports.Patch{Name: req.Name}
	parentID := cur.ParentID
	if req.ParentID != nil {
		parentID = strings.TrimSpace(*req.ParentID)
	}
	scopeChanged := parentID != cur.ParentID

	var levels []ports.RecordUpdate
	if scopeChanged {
		if err := hierarchy.ValidateParentAssignment(cur.ID, parentID, recs); err != nil {
			return types.Designation{}, err
		}
		level := 0
		if parent, ok := findRecord(recs, parentID); ok {
			level = parent.Level + 1
		}
		patch.ParentID = &parentID
		if level != cur.Level {
			patch.Level = &level
		}
		levels = levelUpdates(recs, cur.ID, level)
	}

	siblings := childrenOf(recs, parentID)
	if scopeChanged {
		siblings = withoutRecord(siblings, cur.ID)
	}
	batch, err := planUpdate(cur, siblings, scopeChanged, patch, orderRequest{Requested: req.Order, Confirm: req.ConfirmReorder})
	if err != nil {
		return types.Designation{}, err
	}
	batch.Updates = append(batch.Updates, levels...)
	if len(batch.Updates) > 0 {
		if _, err := s.records.ApplyBatch(ctx, types.CollectionDesignations, batch); err != nil {
			return types.Designation{}, storeFailure("update designation", err)
		}
		s.metrics.recordShifts(designations, shiftCount(batch, cur.ID))
	}
	return s.Get(ctx, cur.ID)
}

func withoutRecord(recs []hierarchy.Record, id string) []hierarchy.Record {
	out := make([]hierarchy.Record, 0, len(recs))
	for _, r := range recs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func (s *designationService) Delete(ctx context.Context, id string) (err error) {
	id = strings.TrimSpace(id)
	defer func() {
		logMutation(ctx, "delete", designations, id, err)
		s.metrics.recordMutation(designations, "delete", err)
	}()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	children, err := s.records.Count(ctx, types.CollectionDesignations, ports.ByParent(id))
	if err != nil {
		return storeFailure("count designation children", err)
	}
	if children > 0 {
		return &hierarchy.HasChildrenError{ID: id, Children: children}
	}
	refs, err := s.contacts.CountByDesignation(ctx, id)
	if err != nil {
		return storeFailure("count designation references", err)
	}
	if refs > 0 {
		return &hierarchy.ReferencedBySubjectError{ID: id, References: refs}
	}
	if err := s.records.Delete(ctx, types.CollectionDesignations, id); err != nil {
		return storeFailure("delete designation", err)
	}
	return nil
}

// StaffCounts is best effort: a failing contact store yields an empty map.
func (s *designationService) StaffCounts(ctx context.Context) map[string]int {
	counts, err := s.contacts.StaffCounts(ctx)
	if err != nil {
		logWithFields(ctx, logrus.WarnLevel, "staff counts unavailable", logrus.Fields{"error": err.Error()})
		s.metrics.recordDegraded("staff_counts")
		return map[string]int{}
	}
	return counts
}

func (s *designationService) Tree(ctx context.Context, q TreeQuery) (TreeView, error) {
	sortMode, err := parseTreeSort(q.Sort)
	if err != nil {
		return TreeView{}, err
	}
	recs, err := s.all(ctx)
	if err != nil {
		return TreeView{}, err
	}

	counts := s.StaffCounts(ctx)
	roots := hierarchy.BuildTree(recs)
	hierarchy.SortTree(roots, treeLess(sortMode, counts))
	view := buildTreeView(roots, q)
	view.StaffCounts = counts
	return view, nil
}

// AvailableParents lists the designations id may be moved under: everything
// except id and its descendants. An empty id returns every designation.
func (s *designationService) AvailableParents(ctx context.Context, id string) ([]types.Designation, error) {
	recs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	excluded := map[string]struct{}{}
	if id != "" {
		if _, ok := findRecord(recs, id); !ok {
			return nil, &hierarchy.NotFoundError{Collection: designations, ID: id}
		}
		excluded[id] = struct{}{}
		for _, d := range hierarchy.Descendants(id, recs) {
			excluded[d] = struct{}{}
		}
	}

	out := make([]types.Designation, 0, len(recs))
	for _, r := range recs {
		if _, skip := excluded[r.ID]; !skip {
			out = append(out, types.DesignationFromRecord(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Suggest ranks designations by fuzzy match against term, closest first.
func (s *designationService) Suggest(ctx context.Context, term string, limit int) ([]DesignationOption, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}
	recs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	out := make([]DesignationOption, 0, limit)
	if term == "" {
		sort.SliceStable(recs, func(i, j int) bool { return strings.ToLower(recs[i].Name) < strings.ToLower(recs[j].Name) })
		for _, r := range recs {
			if len(out) == limit {
				break
			}
			out = append(out, DesignationOption{ID: r.ID, Name: r.Name, Level: r.Level})
		}
		return out, nil
	}

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Sort(ranks)
	for _, rank := range ranks {
		if len(out) == limit {
			break
		}
		r := recs[rank.OriginalIndex]
		out = append(out, DesignationOption{ID: r.ID, Name: r.Name, Level: r.Level, Distance: rank.Distance})
	}
	return out, nil
}
