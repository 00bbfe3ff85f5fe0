package server

import (
	"errors"
	"net/http"

	"github.com/jacksonlee411/contact-directory/internal/routing"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/services"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const entrypointServer = "server"

type HandlerOptions struct {
	Config     *configuration.Configuration
	Records    ports.RecordStore
	Contacts   ports.ContactStore
	Authorizer authorizer
	Logger     *logrus.Logger
	// Registry receives the directory metrics and backs /metrics. A nil
	// registry gets a fresh one.
	Registry *prometheus.Registry
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("server: configuration is required")
	}
	if opts.Records == nil || opts.Contacts == nil {
		return nil, errors.New("server: stores are required")
	}
	cfg := opts.Config

	allowlist, err := routing.LoadAllowlist(cfg.AllowlistPath)
	if err != nil {
		return nil, err
	}
	classifier, err := routing.NewClassifier(allowlist, entrypointServer)
	if err != nil {
		return nil, err
	}

	a := opts.Authorizer
	if a == nil {
		loaded, err := loadAuthorizer(cfg.Authz)
		if err != nil {
			return nil, err
		}
		a = loaded
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := services.NewMetrics(registry)

	designations := services.NewDesignationService(opts.Records, opts.Contacts, metrics)
	organization := services.NewOrganizationService(opts.Records, metrics)
	contacts, err := services.NewContactService(opts.Records, opts.Contacts, metrics)
	if err != nil {
		return nil, err
	}

	router := routing.NewRouter(classifier)
	ops := routing.RouteClassOps
	api := routing.RouteClassInternalAPI

	router.HandleFunc(ops, http.MethodGet, "/health", func(w http.ResponseWriter, _ *http.Request) {
		routing.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		router.Handle(ops, http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	router.HandleFunc(api, http.MethodGet, "/directory/api/designations", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsList(w, r, designations)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/designations", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsCreate(w, r, designations)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/designations:update", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsUpdate(w, r, designations)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/designations:delete", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsDelete(w, r, designations)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/designations:tree", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsTree(w, r, designations)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/designations:options", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsOptions(w, r, designations)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/designations:parents", func(w http.ResponseWriter, r *http.Request) {
		handleDesignationsParents(w, r, designations)
	})

	router.HandleFunc(api, http.MethodGet, "/directory/api/org-nodes", func(w http.ResponseWriter, r *http.Request) {
		handleOrgNodesList(w, r, organization)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/org-nodes", func(w http.ResponseWriter, r *http.Request) {
		handleOrgNodesCreate(w, r, organization)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/org-nodes:update", func(w http.ResponseWriter, r *http.Request) {
		handleOrgNodesUpdate(w, r, organization)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/org-nodes:delete", func(w http.ResponseWriter, r *http.Request) {
		handleOrgNodesDelete(w, r, organization)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/organization:tree", func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationTree(w, r, organization)
	})

	router.HandleFunc(api, http.MethodGet, "/directory/api/contacts", func(w http.ResponseWriter, r *http.Request) {
		handleContactsList(w, r, contacts)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/contacts", func(w http.ResponseWriter, r *http.Request) {
		handleContactsCreate(w, r, contacts)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/contacts:get", func(w http.ResponseWriter, r *http.Request) {
		handleContactsGet(w, r, contacts)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/contacts:update", func(w http.ResponseWriter, r *http.Request) {
		handleContactsUpdate(w, r, contacts)
	})
	router.HandleFunc(api, http.MethodPost, "/directory/api/contacts:delete", func(w http.ResponseWriter, r *http.Request) {
		handleContactsDelete(w, r, contacts)
	})
	router.HandleFunc(api, http.MethodGet, "/directory/api/contacts:stats", func(w http.ResponseWriter, r *http.Request) {
		handleContactsStats(w, r, contacts)
	})

	roleHeader := cfg.RoleHeader
	if roleHeader == "" {
		roleHeader = "X-Directory-Role"
	}

	var h http.Handler = router
	h = withAuthz(classifier, a, h)
	h = withPrincipalFromHeader(roleHeader, h)
	h = withRequestLogger(opts.Logger, h)
	return h, nil
}
