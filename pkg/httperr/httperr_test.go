package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/stretchr/testify/require"
)

func TestBadRequest(t *testing.T) {
	err := NewBadRequest("bad")
	require.EqualError(t, err, "bad")
	require.True(t, IsBadRequest(err))
	require.False(t, IsBadRequest(errors.New("other")))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{NewBadRequest("x"), http.StatusBadRequest, CodeBadRequest},
		{&hierarchy.ValidationError{Field: "name"}, http.StatusUnprocessableEntity, CodeValidation},
		{&hierarchy.CircularReferenceError{}, http.StatusUnprocessableEntity, CodeCircularReference},
		{&hierarchy.InconsistentHierarchyError{}, http.StatusUnprocessableEntity, CodeInconsistentHierarchy},
		{fmt.Errorf("wrap: %w", &hierarchy.OrderConflictError{Order: 1}), http.StatusConflict, CodeOrderConflict},
		{&hierarchy.HasChildrenError{}, http.StatusConflict, CodeHasChildren},
		{&hierarchy.ReferencedBySubjectError{}, http.StatusConflict, CodeReferenced},
		{&hierarchy.NotFoundError{}, http.StatusNotFound, CodeNotFound},
		{&hierarchy.StoreError{Op: "query", Err: errors.New("down")}, http.StatusServiceUnavailable, CodeStore},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		status, code := Classify(tc.err)
		require.Equal(t, tc.status, status, "%v", tc.err)
		require.Equal(t, tc.code, code, "%v", tc.err)
	}

	status, code := Classify(nil)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, code)
}
