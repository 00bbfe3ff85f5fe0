package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

type orgNodeDeleteRequest struct {
	Level string `json:"level"`
	ID    string `json:"id"`
}

func parseLevelParam(raw string) (types.OrgLevel, error) {
	level, ok := types.ParseOrgLevel(raw)
	if !ok {
		return "", &hierarchy.ValidationError{Field: "level", Message: "must be one of: department institute subdivision unit"}
	}
	return level, nil
}

// handleOrgNodesList serves the cascading selects: institutes of a
// department, subdivisions of an institute and so on.
func handleOrgNodesList(w http.ResponseWriter, r *http.Request, svc services.OrganizationService) {
	level, err := parseLevelParam(r.URL.Query().Get("level"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := svc.List(r.Context(), level, r.URL.Query().Get("parent_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, newListResponse(items))
}

func handleOrgNodesCreate(w http.ResponseWriter, r *http.Request, svc services.OrganizationService) {
	var req services.CreateOrgNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, n)
}

func handleOrgNodesUpdate(w http.ResponseWriter, r *http.Request, svc services.OrganizationService) {
	var req services.UpdateOrgNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := svc.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, n)
}

func handleOrgNodesDelete(w http.ResponseWriter, r *http.Request, svc services.OrganizationService) {
	var req orgNodeDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	level, err := parseLevelParam(req.Level)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := svc.Delete(r.Context(), level, req.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, map[string]string{"level": string(level), "id": strings.TrimSpace(req.ID)})
}

func handleOrganizationTree(w http.ResponseWriter, r *http.Request, svc services.OrganizationService) {
	view, err := svc.Tree(r.Context(), treeQueryFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, view)
}
