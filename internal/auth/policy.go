package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request. Provisioning is
// admin-only; recording inspections, tests, and stock movements needs a
// technician; everything else under the API reads as viewer.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case strings.HasPrefix(path, "/api/v1/provisioning/"):
		return RoleAdmin, true
	case path == "/api/v1/inspections":
		if method == http.MethodPost {
			return RoleTechnician, true
		}
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/inspections/"):
		return RoleViewer, true
	case strings.HasPrefix(path, "/api/v1/cylinders/") && method == http.MethodPost:
		return RoleTechnician, true
	case path == "/api/v1/stock/consume" || path == "/api/v1/stock/replenish":
		return RoleTechnician, true
	case path == "/api/v1/stock":
		return RoleViewer, true
	case path == "/api/v1/alerts":
		return RoleViewer, true
	case path == "/api/v1/units" || strings.HasPrefix(path, "/api/v1/units/"):
		return RoleViewer, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return RoleViewer, true
		}
		return RoleTechnician, true
	}
	return "", false
}
