package routing

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/jacksonlee411/contact-directory/pkg/httperr"
)

type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	TraceID string            `json:"trace_id"`
	Meta    ErrorEnvelopeMeta `json:"meta"`
	Details map[string]any    `json:"details,omitempty"`
}

type ErrorEnvelopeMeta struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

func WriteError(w http.ResponseWriter, r *http.Request, rc RouteClass, status int, code string, message string) {
	writeEnvelope(w, r, rc, status, code, message, nil)
}

// WriteServiceError classifies err and writes its envelope. Order conflicts
// carry the sibling holding the order so the caller can confirm and retry
// with confirm_reorder.
func WriteServiceError(w http.ResponseWriter, r *http.Request, rc RouteClass, err error) {
	status, code := httperr.Classify(err)
	message := err.Error()
	var details map[string]any

	if conflict, ok := errors.AsType[*hierarchy.OrderConflictError](err); ok {
		details = map[string]any{
			"order":        conflict.Order,
			"sibling_id":   conflict.SiblingID,
			"sibling_name": conflict.SiblingName,
		}
	}
	if verr, ok := errors.AsType[*hierarchy.ValidationError](err); ok && verr.Field != "" {
		details = map[string]any{"field": verr.Field}
	}
	if status >= http.StatusInternalServerError {
		// store and internal failures keep their cause out of the response
		message = strings.ToLower(http.StatusText(status))
	}
	writeEnvelope(w, r, rc, status, code, message, details)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, rc RouteClass, status int, code string, message string, details map[string]any) {
	if isJSONOnly(rc) || wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(ErrorEnvelope{
			Code:    code,
			Message: message,
			TraceID: traceIDFromRequest(r),
			Meta: ErrorEnvelopeMeta{
				Path:   r.URL.Path,
				Method: r.Method,
			},
			Details: details,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!doctype html><html><body>"))
	_, _ = w.Write([]byte(html.EscapeString(message)))
	_, _ = w.Write([]byte("</body></html>"))
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "application/json" || accept == "application/json; charset=utf-8"
}

func isJSONOnly(rc RouteClass) bool {
	return rc == RouteClassInternalAPI || rc == RouteClassOps
}

func traceIDFromRequest(r *http.Request) string {
	traceparent := strings.TrimSpace(r.Header.Get("traceparent"))
	if traceparent == "" {
		return ""
	}
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return ""
	}
	traceID := strings.ToLower(parts[1])
	if len(traceID) != 32 || traceID == "00000000000000000000000000000000" {
		return ""
	}
	for _, ch := range traceID {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return ""
		}
	}
	return traceID
}

// TraceID exposes the request's W3C trace id for log correlation.
func TraceID(r *http.Request) string { return traceIDFromRequest(r) }
