package routing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

func TestWriteError_AcceptJSONCharset(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Accept", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()

	WriteError(rec, req, RouteClassUI, http.StatusNotFound, "not_found", "not found")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
}

func TestWriteError_UIEscapesMessage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, RouteClassUI, http.StatusNotFound, "not_found", "<b>gone</b>")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content-type=%q", rec.Header().Get("Content-Type"))
	}
	if strings.Contains(rec.Body.String(), "<b>") {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestTraceIDFromRequest(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		traceparent string
		want        string
	}{
		{name: "empty", traceparent: "", want: ""},
		{name: "malformed segments", traceparent: "00-abc-01", want: ""},
		{name: "invalid chars", traceparent: "00-0123456789abcdef0123456789abcdeg-0123456789abcdef-01", want: ""},
		{name: "all zero trace", traceparent: "00-00000000000000000000000000000000-0123456789abcdef-01", want: ""},
		{name: "valid", traceparent: "00-ABCDEFABCDEFABCDEFABCDEFABCDEFAB-0123456789abcdef-01", want: "abcdefabcdefabcdefabcdefabcdefab"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.traceparent != "" {
				req.Header.Set("traceparent", tc.traceparent)
			}
			if got := TraceID(req); got != tc.want {
				t.Fatalf("TraceID()=%q want %q", got, tc.want)
			}
		})
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var body ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return body
}

func TestWriteServiceError_OrderConflictDetails(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/directory/api/org-nodes:update", nil)
	req.Header.Set("traceparent", "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01")
	rec := httptest.NewRecorder()

	WriteServiceError(rec, req, RouteClassInternalAPI, &hierarchy.OrderConflictError{Order: 1, SiblingID: "i1", SiblingName: "Crops"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body.Code != "ORDER_CONFLICT" {
		t.Fatalf("code=%q", body.Code)
	}
	if body.TraceID != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("trace_id=%q", body.TraceID)
	}
	if body.Details["sibling_name"] != "Crops" || body.Details["sibling_id"] != "i1" || body.Details["order"] != float64(1) {
		t.Fatalf("details=%v", body.Details)
	}
}

func TestWriteServiceError_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{name: "validation", err: &hierarchy.ValidationError{Field: "name", Message: "is required"}, status: http.StatusUnprocessableEntity, code: "VALIDATION_FAILED", message: "validation: name: is required"},
		{name: "cycle", err: &hierarchy.CircularReferenceError{NodeID: "a", ParentID: "c"}, status: http.StatusUnprocessableEntity, code: "CIRCULAR_REFERENCE"},
		{name: "not found", err: &hierarchy.NotFoundError{Collection: "units", ID: "u"}, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "children", err: &hierarchy.HasChildrenError{ID: "d", Children: 2}, status: http.StatusConflict, code: "HAS_CHILDREN_CANNOT_DELETE"},
		{name: "store", err: &hierarchy.StoreError{Op: "list", Err: errors.New("dial tcp: refused")}, status: http.StatusServiceUnavailable, code: "STORE_ERROR", message: "service unavailable"},
		{name: "unknown", err: errors.New("secret detail"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR", message: "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/directory/api/contacts", nil)
			rec := httptest.NewRecorder()
			WriteServiceError(rec, req, RouteClassInternalAPI, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status=%d want %d", rec.Code, tc.status)
			}
			body := decodeEnvelope(t, rec)
			if body.Code != tc.code {
				t.Fatalf("code=%q want %q", body.Code, tc.code)
			}
			if tc.message != "" && body.Message != tc.message {
				t.Fatalf("message=%q want %q", body.Message, tc.message)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "x"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"id":"x"}` {
		t.Fatalf("body=%q", rec.Body.String())
	}
}
