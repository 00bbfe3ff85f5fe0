package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/modules/directory/services"
)

func contactQueryFrom(r *http.Request) services.ContactQuery {
	q := r.URL.Query()
	return services.ContactQuery{
		Type:          q.Get("type"),
		DepartmentID:  q.Get("department_id"),
		InstituteID:   q.Get("institute_id"),
		SubdivisionID: q.Get("subdivision_id"),
		UnitID:        q.Get("unit_id"),
		DesignationID: q.Get("designation_id"),
		Status:        q.Get("status"),
		Search:        q.Get("q"),
		Sort:          q.Get("sort"),
		Desc:          queryBool(r, "desc"),
		Filter:        q.Get("filter"),
	}
}

func handleContactsList(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
	items, err := svc.List(r.Context(), contactQueryFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, newListResponse(items))
}

func handleContactsGet(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
	v, err := svc.Get(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, v)
}

func handleContactsCreate(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
	var req services.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	routing.WriteJSON(w, http.StatusCreated, v)
}

func handleContactsUpdate(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
	var req services.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := svc.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, v)
}

func handleContactsDelete(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
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

func handleContactsStats(w http.ResponseWriter, r *http.Request, svc services.ContactService) {
	st, err := svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeOK(w, st)
}
