package audit

import "testing"

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method, pattern string
		want            ActionResource
	}{
		{"POST", "/company/jobs", ActionResource{"create", "jobs"}},
		{"PUT", "/company/jobs/{jobId}", ActionResource{"update", "jobs"}},
		{"DELETE", "/company/jobs/{jobId}", ActionResource{"delete", "jobs"}},
		{"PUT", "/company/profile", ActionResource{"update", "profile"}},
		{"PUT", "/company/change-password", ActionResource{"update", "change_password"}},
		{"GET", "/company/jobs/{jobId}/shortlisted", ActionResource{"get", "shortlisted"}},
		{"POST", "/student/apply-job/{id}", ActionResource{"apply", "job"}},
		{"POST", "/student/withdraw-application/{id}", ActionResource{"withdraw", "application"}},
		{"PUT", "/student/complete-profile", ActionResource{"update", "profile"}},
		{"PUT", "/company/jobs/{jobId}/candidates", ActionResource{"shortlist", "candidates"}},
		{"PUT", "/company/jobs/{jobId}/candidates/{candidateId}", ActionResource{"shortlist", "candidates"}},
		{"OPTIONS", "/{id}", ActionResource{"options", "unknown"}},
		{"PATCH", "", ActionResource{"update", "unknown"}},
	}
	for _, tc := range testCases {
		got := ParseRoute(tc.method, tc.pattern)
		if got != tc.want {
			t.Errorf("ParseRoute(%q, %q) = %+v, want %+v", tc.method, tc.pattern, got, tc.want)
		}
	}
}
