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

type ContactMemoryStore struct {
	mu       sync.RWMutex
	contacts map[string]types.Contact
	ids      uuidv7.Generator
	now      func() time.Time
}

func NewContactMemoryStore() *ContactMemoryStore {
	return &ContactMemoryStore{
		contacts: make(map[string]types.Contact),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func designationOf(c types.Contact) string {
	if p, ok := c.Person(); ok {
		return p.DesignationID
	}
	return ""
}

func contactMatches(c types.Contact, f ports.ContactFilter) bool {
	switch {
	case f.Type != "" && c.Type() != f.Type:
		return false
	case f.DepartmentID != "" && c.DepartmentID != f.DepartmentID:
		return false
	case f.InstituteID != "" && c.InstituteID != f.InstituteID:
		return false
	case f.SubdivisionID != "" && c.SubdivisionID != f.SubdivisionID:
		return false
	case f.UnitID != "" && c.UnitID != f.UnitID:
		return false
	case f.DesignationID != "" && designationOf(c) != f.DesignationID:
		return false
	case f.Status != "" && (c.Details == nil || c.Details.StatusValue() != f.Status):
		return false
	}
	return true
}

func (s *ContactMemoryStore) List(_ context.Context, filter ports.ContactFilter) ([]types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Contact, 0)
	for _, c := range s.contacts {
		if contactMatches(c, filter) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *ContactMemoryStore) Get(_ context.Context, id string) (types.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
	}
	return c, nil
}

func (s *ContactMemoryStore) Create(_ context.Context, c types.Contact) (types.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		id, err := s.ids.NewString()
		if err != nil {
			return types.Contact{}, &hierarchy.StoreError{Op: "create contact", Err: err}
		}
		c.ID = id
	}
	if _, exists := s.contacts[c.ID]; exists {
		return types.Contact{}, &hierarchy.ValidationError{Field: "id", Message: "already exists"}
	}
	c.FullName = strings.TrimSpace(c.FullName)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.contacts[c.ID] = c
	return c, nil
}

func (s *ContactMemoryStore) Update(_ context.Context, c types.Contact) (types.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.contacts[c.ID]
	if !ok {
		return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: c.ID}
	}
	c.FullName = strings.TrimSpace(c.FullName)
	c.CreatedAt = prev.CreatedAt
	c.UpdatedAt = s.now()
	s.contacts[c.ID] = c
	return c, nil
}

func (s *ContactMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[id]; !ok {
		return &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
	}
	delete(s.contacts, id)
	return nil
}

func (s *ContactMemoryStore) CountByDesignation(_ context.Context, designationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.contacts {
		if designationID != "" && designationOf(c) == designationID {
			n++
		}
	}
	return n, nil
}

func (s *ContactMemoryStore) StaffCounts(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for _, c := range s.contacts {
		if id := designationOf(c); id != "" {
			out[id]++
		}
	}
	return out, nil
}
