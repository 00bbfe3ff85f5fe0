package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/pkg/httperr"
	"github.com/sirupsen/logrus"
)

const maxRequestBody = 1 << 20

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := httperr.Classify(err)
	if status >= http.StatusInternalServerError {
		logRequest(r, logrus.ErrorLevel, "directory request failed", logrus.Fields{"code": code, "error": err.Error()})
	}
	routing.WriteServiceError(w, r, routing.RouteClassInternalAPI, err)
}

func writeOK(w http.ResponseWriter, v any) {
	routing.WriteJSON(w, http.StatusOK, v)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, httperr.NewBadRequest(name + " must be an integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

type idRequest struct {
	ID string `json:"id"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items)}
}
