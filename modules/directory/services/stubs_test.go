package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/modules/directory/infrastructure/persistence"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

var errBoom = errors.New("boom")

// recordStoreStub delegates to inner unless a function field is set.
type recordStoreStub struct {
	inner ports.RecordStore

	queryFn func(ctx context.Context, c types.Collection, f ports.Filter) ([]hierarchy.Record, error)
	countFn func(ctx context.Context, c types.Collection, f ports.Filter) (int, error)
	batchFn func(ctx context.Context, c types.Collection, b ports.Batch) (hierarchy.Record, error)
}

func (s recordStoreStub) Query(ctx context.Context, c types.Collection, f ports.Filter, orderBy ...ports.OrderBy) ([]hierarchy.Record, error) {
	if s.queryFn != nil {
		return s.queryFn(ctx, c, f)
	}
	return s.inner.Query(ctx, c, f, orderBy...)
}

func (s recordStoreStub) Insert(ctx context.Context, c types.Collection, rec hierarchy.Record) (hierarchy.Record, error) {
	return s.inner.Insert(ctx, c, rec)
}

func (s recordStoreStub) Update(ctx context.Context, c types.Collection, id string, p ports.Patch) error {
	return s.inner.Update(ctx, c, id, p)
}

func (s recordStoreStub) Delete(ctx context.Context, c types.Collection, id string) error {
	return s.inner.Delete(ctx, c, id)
}

func (s recordStoreStub) Count(ctx context.Context, c types.Collection, f ports.Filter) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx, c, f)
	}
	return s.inner.Count(ctx, c, f)
}

func (s recordStoreStub) ApplyBatch(ctx context.Context, c types.Collection, b ports.Batch) (hierarchy.Record, error) {
	if s.batchFn != nil {
		return s.batchFn(ctx, c, b)
	}
	return s.inner.ApplyBatch(ctx, c, b)
}

type contactStoreStub struct {
	ports.ContactStore

	staffCountsFn func(ctx context.Context) (map[string]int, error)
	countByDesFn  func(ctx context.Context, id string) (int, error)
}

func (s contactStoreStub) StaffCounts(ctx context.Context) (map[string]int, error) {
	if s.staffCountsFn != nil {
		return s.staffCountsFn(ctx)
	}
	return s.ContactStore.StaffCounts(ctx)
}

func (s contactStoreStub) CountByDesignation(ctx context.Context, id string) (int, error) {
	if s.countByDesFn != nil {
		return s.countByDesFn(ctx, id)
	}
	return s.ContactStore.CountByDesignation(ctx, id)
}

type fixture struct {
	records      *persistence.RecordMemoryStore
	contacts     *persistence.ContactMemoryStore
	designations DesignationService
	organization OrganizationService
	contactSvc   ContactService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	records := persistence.NewRecordMemoryStore()
	contactStore := persistence.NewContactMemoryStore()
	contactSvc, err := NewContactService(records, contactStore, nil)
	if err != nil {
		t.Fatal(err)
	}
	return fixture{
		records:      records,
		contacts:     contactStore,
		designations: NewDesignationService(records, contactStore, nil),
		organization: NewOrganizationService(records, nil),
		contactSvc:   contactSvc,
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
