// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	"placement-portal/backend/internal/audit"
	companyhandler "placement-portal/backend/internal/company/handler"
	identityhandler "placement-portal/backend/internal/identity/handler"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/httpx"
	"placement-portal/backend/internal/security"
	"placement-portal/backend/internal/server/middleware"
	studenthandler "placement-portal/backend/internal/student/handler"
)

// Deps holds everything the router mounts. Audit and Health may be nil; CORSOrigin empty disables CORS.
type Deps struct {
	Tokens    *security.TokenProvider
	Students  repository.StudentStore
	Companies repository.CompanyStore

	Auth    *identityhandler.AuthHandler
	Student *studenthandler.StudentHandler
	Company *companyhandler.CompanyHandler
	Health  http.Handler

	Audit      audit.AuditLogger
	CORSOrigin string

	// TrustedProxies are the peers whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []netip.Prefix
}

// NewRouter returns the portal HTTP API.
//
// Route groups:
//   - /auth          role-inferred session flows (public)
//   - /student       student session flows (public) and profile/jobs (RequireRole[*Student])
//   - /company       company session flows (public) and profile/jobs (RequireRole[*Company])
//   - /health        readiness
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ClientIP(deps.TrustedProxies))
	if deps.CORSOrigin != "" {
		r.Use(middleware.CORS(deps.CORSOrigin))
	}
	r.Use(middleware.Telemetry)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, apperr.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusMethodNotAllowed, httpx.ErrorBody{
			StatusCode: http.StatusMethodNotAllowed,
			Message:    "Method not allowed",
		})
	})

	if deps.Health != nil {
		r.Method(http.MethodGet, "/health", deps.Health)
	}

	auth := deps.Auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", auth.Login)
		r.Post("/register", auth.Register)
		r.Post("/logout", auth.Logout)
		r.Post("/refresh-token", auth.Refresh)
		r.Get("/me", auth.Me)
		r.Get("/auth-me", auth.AuthStatus)
	})

	r.Route("/student", func(r chi.Router) {
		sessionRoutes(r, auth, domain.RoleStudent)
		r.Post("/reset-password", auth.ResetPassword(domain.RoleStudent))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole[*domain.Student](deps.Tokens, deps.Students))
			r.Use(middleware.Audit(deps.Audit))
			h := deps.Student
			r.Get("/profile", h.Profile)
			r.Put("/complete-profile", h.CompleteProfile)
			r.Put("/password", auth.ChangePassword)
			r.Get("/jobs", h.EligibleJobs)
			r.Post("/apply-job/{id}", h.Apply)
			r.Post("/withdraw-application/{id}", h.Withdraw)
			r.Get("/applied-jobs", h.AppliedJobs)
			r.Get("/shortlisted-jobs", h.ShortlistedJobs)
		})
	})

	r.Route("/company", func(r chi.Router) {
		sessionRoutes(r, auth, domain.RoleCompany)
		r.Put("/reset-password", auth.ResetPassword(domain.RoleCompany))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole[*domain.Company](deps.Tokens, deps.Companies))
			r.Use(middleware.Audit(deps.Audit))
			h := deps.Company
			r.Get("/profile", h.Profile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/change-password", auth.ChangePassword)
			r.Get("/jobs", h.Jobs)
			r.Post("/jobs", h.CreateJob)
			r.Put("/jobs/{jobId}", h.UpdateJob)
			r.Delete("/jobs/{jobId}", h.DeleteJob)
			r.Get("/jobs/{jobId}/candidates", h.Candidates)
			r.Put("/jobs/{jobId}/candidates", h.Shortlist)
			// Older clients address a candidate in the path; the body still carries the full list.
			r.Put("/jobs/{jobId}/candidates/{candidateId}", h.Shortlist)
			r.Get("/jobs/{jobId}/shortlisted", h.Shortlisted)
		})
	})
	return r
}

// sessionRoutes mounts the public session flows shared by both roles.
func sessionRoutes(r chi.Router, auth *identityhandler.AuthHandler, role domain.Role) {
	r.Post("/register", auth.RegisterAs(role))
	r.Post("/login", auth.LoginAs(role))
	r.Post("/logout", auth.LogoutAs(role))
	r.Post("/refresh-token", auth.RefreshAs(role))
	r.Post("/forgot-password", auth.ForgotPassword(role))
}
