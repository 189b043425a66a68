package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP method and chi route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// Routes whose last path segment is a verb rather than a resource.
var routeOverrides = map[string]ActionResource{
	"POST /student/apply-job/{id}":                       {Action: "apply", Resource: "job"},
	"POST /student/withdraw-application/{id}":            {Action: "withdraw", Resource: "application"},
	"PUT /student/complete-profile":                      {Action: "update", Resource: "profile"},
	"PUT /company/jobs/{jobId}/candidates":               {Action: "shortlist", Resource: "candidates"},
	"PUT /company/jobs/{jobId}/candidates/{candidateId}": {Action: "shortlist", Resource: "candidates"},
}

// ParseRoute returns action and resource for a route pattern such as "/company/jobs/{jobId}".
// Action is a verb from the method (create, update, delete, get). Resource is the last static
// segment with dashes turned into underscores. A few verb-shaped routes have fixed mappings.
func ParseRoute(method, pattern string) ActionResource {
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: patternToResource(pattern)}
}

func patternToResource(pattern string) string {
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" || strings.HasPrefix(s, "{") || s == "*" {
			continue
		}
		return strings.ReplaceAll(s, "-", "_")
	}
	return "unknown"
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
