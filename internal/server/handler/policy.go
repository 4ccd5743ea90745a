package handler

import "net/http"

// PolicyLister lists the registered hedging policies.
type PolicyLister interface {
	List() []string
}

// PolicyHandler serves GET /api/policies.
type PolicyHandler struct {
	policies PolicyLister
}

// NewPolicyHandler creates a PolicyHandler.
func NewPolicyHandler(p PolicyLister) *PolicyHandler {
	return &PolicyHandler{policies: p}
}

// List returns all registered policy names.
// GET /api/policies
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.policies.List()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"policies": names})
}
