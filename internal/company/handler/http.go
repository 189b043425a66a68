// Package handler exposes the gated /company routes over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"placement-portal/backend/internal/account/domain"
	companyservice "placement-portal/backend/internal/company/service"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/httpx"
	"placement-portal/backend/internal/server/middleware"
)

type shortlistRequest struct {
	Students []string `json:"students"`
}

// CompanyHandler serves the routes behind RequireRole[*domain.Company].
type CompanyHandler struct {
	companies *companyservice.CompanyService
}

func NewCompanyHandler(companies *companyservice.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

func company(w http.ResponseWriter, r *http.Request) (*domain.Company, bool) {
	c, ok := middleware.AccountFrom[*domain.Company](r.Context())
	if !ok || c == nil {
		httpx.WriteError(w, r, apperr.Unauthenticated())
		return nil, false
	}
	return c, true
}

// Profile handles GET /company/profile.
func (h *CompanyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	httpx.WriteData(w, http.StatusOK, "Company profile fetched successfully", c.View())
}

// UpdateProfile handles PUT /company/profile.
func (h *CompanyHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	var in companyservice.ProfileUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	updated, err := h.companies.UpdateProfile(r.Context(), c, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Profile updated successfully", updated.View())
}

// Jobs handles GET /company/jobs.
func (h *CompanyHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	jobs, err := h.companies.Jobs(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Jobs fetched successfully", jobs)
}

// CreateJob handles POST /company/jobs.
func (h *CompanyHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	var in companyservice.JobInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	j, err := h.companies.CreateJob(r.Context(), c, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusCreated, "Job created successfully", j)
}

// UpdateJob handles PUT /company/jobs/{jobId}.
func (h *CompanyHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	var in companyservice.JobInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	j, err := h.companies.UpdateJob(r.Context(), c, chi.URLParam(r, "jobId"), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Job updated successfully", j)
}

// DeleteJob handles DELETE /company/jobs/{jobId}.
func (h *CompanyHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	if err := h.companies.DeleteJob(r.Context(), c, chi.URLParam(r, "jobId")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Job deleted successfully", nil)
}

// Candidates handles GET /company/jobs/{jobId}/candidates.
func (h *CompanyHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	cands, err := h.companies.Candidates(r.Context(), c, chi.URLParam(r, "jobId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Candidates fetched successfully", cands)
}

// Shortlist handles PUT /company/jobs/{jobId}/candidates and its {candidateId} form.
func (h *CompanyHandler) Shortlist(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	var req shortlistRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	short, err := h.companies.Shortlist(r.Context(), c, chi.URLParam(r, "jobId"), req.Students)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Candidates shortlisted successfully", short)
}

// Shortlisted handles GET /company/jobs/{jobId}/shortlisted.
func (h *CompanyHandler) Shortlisted(w http.ResponseWriter, r *http.Request) {
	c, ok := company(w, r)
	if !ok {
		return
	}
	short, err := h.companies.Shortlisted(r.Context(), c, chi.URLParam(r, "jobId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Shortlisted candidates fetched successfully", short)
}
