package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/jacksonlee411/contact-directory/pkg/uuidv7"
)

// RecordMemoryStore keeps records in process. A batch is applied under one
// lock against a copy, so a failing batch leaves nothing behind.
type RecordMemoryStore struct {
	mu   sync.RWMutex
	data map[types.Collection]map[string]hierarchy.Record
	ids  uuidv7.Generator
	now  func() time.Time
}

func NewRecordMemoryStore() *RecordMemoryStore {
	return &RecordMemoryStore{
		data: make(map[types.Collection]map[string]hierarchy.Record),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordMemoryStore) table(collection types.Collection) map[string]hierarchy.Record {
	t, ok := s.data[collection]
	if !ok {
		t = make(map[string]hierarchy.Record)
		s.data[collection] = t
	}
	return t
}

func matches(r hierarchy.Record, f ports.Filter) bool {
	if f.ID != "" && r.ID != f.ID {
		return false
	}
	if f.ParentID != nil && r.ParentID != *f.ParentID {
		return false
	}
	return true
}

func sortRecords(out []hierarchy.Record, orderBy []ports.OrderBy) {
	byName := len(orderBy) > 0 && orderBy[0] == ports.OrderByName
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if byName && a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.ParentID != b.ParentID {
			return a.ParentID < b.ParentID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func (s *RecordMemoryStore) Query(_ context.Context, collection types.Collection, filter ports.Filter, orderBy ...ports.OrderBy) ([]hierarchy.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hierarchy.Record, 0)
	for _, r := range s.data[collection] {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	sortRecords(out, orderBy)
	return out, nil
}

func (s *RecordMemoryStore) Count(_ context.Context, collection types.Collection, filter ports.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.data[collection] {
		if matches(r, filter) {
			n++
		}
	}
	return n, nil
}

func (s *RecordMemoryStore) Insert(ctx context.Context, collection types.Collection, rec hierarchy.Record) (hierarchy.Record, error) {
	return s.ApplyBatch(ctx, collection, ports.Batch{Insert: &rec})
}

func (s *RecordMemoryStore) Update(ctx context.Context, collection types.Collection, id string, patch ports.Patch) error {
	_, err := s.ApplyBatch(ctx, collection, ports.Batch{Updates: []ports.RecordUpdate{{ID: id, Patch: patch}}})
	return err
}

func (s *RecordMemoryStore) Delete(_ context.Context, collection types.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collection)
	if _, ok := t[id]; !ok {
		return &hierarchy.NotFoundError{Collection: string(collection), ID: id}
	}
	delete(t, id)
	return nil
}

func applyPatch(r hierarchy.Record, p ports.Patch, now time.Time) hierarchy.Record {
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.ParentID != nil {
		r.ParentID = *p.ParentID
	}
	if p.Level != nil {
		r.Level = *p.Level
	}
	if p.Order != nil {
		r.Order = *p.Order
	}
	r.UpdatedAt = now
	return r
}

func (s *RecordMemoryStore) ApplyBatch(_ context.Context, collection types.Collection, batch ports.Batch) (hierarchy.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	staged := make(map[string]hierarchy.Record, len(s.data[collection])+1)
	for id, r := range s.data[collection] {
		staged[id] = r
	}

	var inserted hierarchy.Record
	if batch.Insert != nil {
		rec := *batch.Insert
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.ID == "" {
			id, err := s.ids.NewString()
			if err != nil {
				return hierarchy.Record{}, &hierarchy.StoreError{Op: "insert", Err: err}
			}
			rec.ID = id
		}
		if _, exists := staged[rec.ID]; exists {
			return hierarchy.Record{}, &hierarchy.ValidationError{Field: "id", Message: "already exists"}
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		staged[rec.ID] = rec
		inserted = rec
	}

	for _, u := range batch.Updates {
		r, ok := staged[u.ID]
		if !ok {
			return hierarchy.Record{}, &hierarchy.NotFoundError{Collection: string(collection), ID: u.ID}
		}
		staged[u.ID] = applyPatch(r, u.Patch, now)
	}

	if err := checkSiblingOrders(staged); err != nil {
		return hierarchy.Record{}, err
	}

	s.data[collection] = staged
	return inserted, nil
}

// checkSiblingOrders mirrors the unique (parent, order) constraint of the SQL
// schemas.
func checkSiblingOrders(records map[string]hierarchy.Record) error {
	type key struct {
		parent string
		order  int
	}
	seen := make(map[key]hierarchy.Record, len(records))
	for _, r := range records {
		k := key{parent: r.ParentID, order: r.Order}
		if other, dup := seen[k]; dup {
			return &hierarchy.OrderConflictError{Order: r.Order, SiblingID: other.ID, SiblingName: other.Name}
		}
		seen[k] = r
	}
	return nil
}
