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

// IsExempt returns true when a request should skip auth.
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

// RequiredRole resolves the required role for the request. The close-order
// workflow and exports are restricted to inspection responsibles; repair
// completion belongs to repair responsibles; lookups are open to any staff.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/v1/inspection/close"):
		return RoleInspectionResponsible, true
	case strings.HasPrefix(path, "/api/v1/inspection/orders") && strings.HasSuffix(path, "/report"):
		return RoleInspectionResponsible, true
	case strings.HasPrefix(path, "/api/v1/seismographs/") && strings.HasSuffix(path, "/repaired"):
		return RoleRepairResponsible, true
	case strings.HasPrefix(path, "/api/v1/seismographs/"):
		return RoleNetworkOperator, true
	case path == "/api/v1/reason-types" || path == "/api/v1/status-codes":
		return RoleNetworkOperator, true
	}
	return "", false
}
