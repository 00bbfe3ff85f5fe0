package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/modules/directory/services"
)

func handleDesignationsList(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	items, err := svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, newListResponse(items))
}

func handleDesignationsCreate(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	var req services.CreateDesignationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, d)
}

func handleDesignationsUpdate(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	var req services.UpdateDesignationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := svc.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, d)
}

func handleDesignationsDelete(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := svc.Delete(r.Context(), req.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, map[string]string{"id": strings.TrimSpace(req.ID)})
}

func treeQueryFrom(r *http.Request) services.TreeQuery {
	q := r.URL.Query()
	return services.TreeQuery{
		Search:    strings.TrimSpace(q.Get("q")),
		Sort:      q.Get("sort"),
		ExpandAll: q.Get("expand") == "all",
		ExpandTo:  q.Get("expand_to"),
	}
}

func handleDesignationsTree(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	view, err := svc.Tree(r.Context(), treeQueryFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, view)
}

func handleDesignationsOptions(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	opts, err := svc.Suggest(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, newListResponse(opts))
}

func handleDesignationsParents(w http.ResponseWriter, r *http.Request, svc services.DesignationService) {
	items, err := svc.AvailableParents(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, newListResponse(items))
}
