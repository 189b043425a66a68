// Package handler exposes the gated /student routes over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/platform/apperr"
	"placement-portal/backend/internal/platform/httpx"
	"placement-portal/backend/internal/server/middleware"
	studentservice "placement-portal/backend/internal/student/service"
)

// StudentHandler serves the routes behind RequireRole[*domain.Student].
type StudentHandler struct {
	students *studentservice.StudentService
}

func NewStudentHandler(students *studentservice.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// student returns the account set by the gate. Routes without the gate fail closed.
func student(w http.ResponseWriter, r *http.Request) (*domain.Student, bool) {
	st, ok := middleware.AccountFrom[*domain.Student](r.Context())
	if !ok || st == nil {
		httpx.WriteError(w, r, apperr.Unauthenticated())
		return nil, false
	}
	return st, true
}

// Profile handles GET /student/profile.
func (h *StudentHandler) Profile(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	httpx.WriteData(w, http.StatusOK, "Student profile fetched successfully", st.View())
}

// CompleteProfile handles PUT /student/complete-profile.
func (h *StudentHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	var in studentservice.ProfileInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	updated, err := h.students.CompleteProfile(r.Context(), st, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Profile completed successfully", updated.View())
}

// EligibleJobs handles GET /student/jobs.
func (h *StudentHandler) EligibleJobs(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	jobs, err := h.students.EligibleJobs(r.Context(), st)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Eligible jobs fetched successfully", jobs)
}

// Apply handles POST /student/apply-job/{id}.
func (h *StudentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	if err := h.students.Apply(r.Context(), st, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Applied for job successfully", nil)
}

// Withdraw handles POST /student/withdraw-application/{id}.
func (h *StudentHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	if err := h.students.Withdraw(r.Context(), st, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Application withdrawn successfully", nil)
}

// AppliedJobs handles GET /student/applied-jobs.
func (h *StudentHandler) AppliedJobs(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	jobs, err := h.students.AppliedJobs(r.Context(), st)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Applied jobs fetched successfully", jobs)
}

// ShortlistedJobs handles GET /student/shortlisted-jobs.
func (h *StudentHandler) ShortlistedJobs(w http.ResponseWriter, r *http.Request) {
	st, ok := student(w, r)
	if !ok {
		return
	}
	jobs, err := h.students.ShortlistedJobs(r.Context(), st)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, "Shortlisted jobs fetched successfully", jobs)
}
