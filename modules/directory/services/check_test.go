package services

import (
	"context"
	"testing"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrity_ReportsCorruptData(t *testing.T) {
	data := map[types.Collection][]hierarchy.Record{
		types.CollectionDesignations: {
			{ID: "root", Name: "Root", Order: 1},
			{ID: "twin", Name: "Twin", Order: 1},
			{ID: "child", Name: "Child", ParentID: "root", Level: 3, Order: 1},
			{ID: "loop-a", Name: "A", ParentID: "loop-b", Level: 1, Order: 1},
			{ID: "loop-b", Name: "B", ParentID: "loop-a", Level: 1, Order: 1},
			{ID: "orphan", Name: "Orphan", ParentID: "gone", Level: 1, Order: 2},
		},
		types.CollectionDepartments: {
			{ID: "d1", Name: "Agriculture", Order: 1},
		},
		types.CollectionInstitutes: {
			{ID: "i1", Name: "Crops", ParentID: "d1", Order: 1},
			{ID: "i2", Name: "Lost", ParentID: "d9", Order: 1},
		},
	}
	store := recordStoreStub{queryFn: func(_ context.Context, c types.Collection, _ ports.Filter) ([]hierarchy.Record, error) {
		return data[c], nil
	}}

	issues, err := CheckIntegrity(context.Background(), store)
	require.NoError(t, err)

	got := map[string]IssueKind{}
	for _, i := range issues {
		got[string(i.Collection)+"/"+i.ID] = i.Kind
	}
	require.Equal(t, map[string]IssueKind{
		"designations/twin":   IssueDuplicateOrder,
		"designations/child":  IssueLevelMismatch,
		"designations/loop-a": IssueCycle,
		"designations/loop-b": IssueCycle,
		"designations/orphan": IssueDanglingParent,
		"institutes/i2":       IssueDanglingParent,
	}, got)
}

func TestCheckIntegrity_StoreFailure(t *testing.T) {
	store := recordStoreStub{queryFn: func(context.Context, types.Collection, ports.Filter) ([]hierarchy.Record, error) {
		return nil, errBoom
	}}
	_, err := CheckIntegrity(context.Background(), store)
	require.ErrorIs(t, err, errBoom)
}
