package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func siblingsABC() []hierarchy.Record {
	return []hierarchy.Record{
		{ID: "a", Name: "A", Order: 1},
		{ID: "b", Name: "B", Order: 2},
		{ID: "c", Name: "C", Order: 4},
	}
}

func orderOfUpdate(b ports.Batch, id string) (int, bool) {
	for _, u := range b.Updates {
		if u.ID == id && u.Patch.Order != nil {
			return *u.Patch.Order, true
		}
	}
	return 0, false
}

func TestPlanCreate(t *testing.T) {
	b, err := planCreate(siblingsABC(), hierarchy.Record{Name: "N"}, orderRequest{Requested: intPtr(0)})
	require.NoError(t, err)
	require.Equal(t, 3, b.Insert.Order)
	require.Empty(t, b.Updates)

	b, err = planCreate(siblingsABC(), hierarchy.Record{Name: "N"}, orderRequest{Requested: intPtr(3)})
	require.NoError(t, err)
	require.Equal(t, 3, b.Insert.Order)
	require.Empty(t, b.Updates)

	_, err = planCreate(siblingsABC(), hierarchy.Record{Name: "N"}, orderRequest{Requested: intPtr(2)})
	conflict, ok := errors.AsType[*hierarchy.OrderConflictError](err)
	require.True(t, ok)
	require.Equal(t, "b", conflict.SiblingID)

	b, err = planCreate(siblingsABC(), hierarchy.Record{Name: "N"}, orderRequest{Requested: intPtr(2), Confirm: true})
	require.NoError(t, err)
	require.Equal(t, 2, b.Insert.Order)
	require.Len(t, b.Updates, 2)
	got, _ := orderOfUpdate(b, "b")
	require.Equal(t, 3, got)
	got, _ = orderOfUpdate(b, "c")
	require.Equal(t, 5, got)
	_, moved := orderOfUpdate(b, "a")
	require.False(t, moved)
}

func TestPlanUpdate(t *testing.T) {
	cur := siblingsABC()[2]
	name := "C2"

	b, err := planUpdate(cur, siblingsABC(), false, ports.Patch{Name: &name}, orderRequest{})
	require.NoError(t, err)
	require.Len(t, b.Updates, 1)
	require.Nil(t, b.Updates[0].Patch.Order)

	b, err = planUpdate(cur, siblingsABC(), false, ports.Patch{}, orderRequest{Requested: intPtr(4)})
	require.NoError(t, err)
	require.Empty(t, b.Updates)

	_, err = planUpdate(cur, siblingsABC(), false, ports.Patch{}, orderRequest{Requested: intPtr(-2)})
	_, ok := errors.AsType[*hierarchy.ValidationError](err)
	require.True(t, ok)

	b, err = planUpdate(cur, siblingsABC(), false, ports.Patch{Name: &name}, orderRequest{Requested: intPtr(1), Confirm: true})
	require.NoError(t, err)
	self := b.Updates[len(b.Updates)-1]
	require.Equal(t, "c", self.ID)
	require.Equal(t, 1, *self.Patch.Order)
	require.Equal(t, "C2", *self.Patch.Name)
	require.Equal(t, 2, shiftCount(b, "c"))

	parent := "p"
	moving := hierarchy.Record{ID: "x", Name: "X", ParentID: "q", Order: 1}
	b, err = planUpdate(moving, siblingsABC(), true, ports.Patch{ParentID: &parent}, orderRequest{})
	require.NoError(t, err)
	got, _ := orderOfUpdate(b, "x")
	require.Equal(t, 3, got)
	require.Equal(t, 0, shiftCount(b, "x"))
}

func TestStoreFailure(t *testing.T) {
	require.NoError(t, storeFailure("op", nil))

	nf := &hierarchy.NotFoundError{Collection: "units", ID: "u"}
	require.Same(t, nf, storeFailure("op", nf))

	err := storeFailure("list units", errBoom)
	serr, ok := errors.AsType[*hierarchy.StoreError](err)
	require.True(t, ok)
	require.Equal(t, "list units", serr.Op)
}

func TestMetrics_CountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	f := newFixture(t)
	svc := NewDesignationService(f.records, f.contacts, m)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateDesignationRequest{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateDesignationRequest{Name: "B", Order: 1})
	require.Error(t, err)
	_, err = svc.Create(ctx, CreateDesignationRequest{Name: "B", Order: 1, ConfirmReorder: true})
	require.NoError(t, err)

	require.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues(designations, "create", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues(designations, "create", "conflict")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues(designations)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reorderShifts.WithLabelValues(designations)))

	var nilMetrics *Metrics
	nilMetrics.recordMutation(designations, "create", nil)
	nilMetrics.recordDegraded(string(types.CollectionDesignations))
}
