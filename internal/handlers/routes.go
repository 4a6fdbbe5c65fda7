package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the create and resolve routes.
func RegisterRoutes(api huma.API, h *RedirectHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-redirect",
		Method:        http.MethodPost,
		Path:          "/{id}",
		Summary:       "Create redirect",
		Description:   "Creates a redirect for the id unless a live one already exists.",
		Tags:          []string{"Redirects"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateRedirect)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-redirect",
		Method:      http.MethodGet,
		Path:        "/{id}",
		Summary:     "Resolve redirect",
		Description: "Redirects to the target stored for the id and records a RedirectRequest metric.",
		Tags:        []string{"Redirects"},
		Errors:      []int{http.StatusNotFound},
	}, h.ResolveRedirect)
}
