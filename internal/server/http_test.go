package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement-portal/backend/internal/account/repository"
	companyhandler "placement-portal/backend/internal/company/handler"
	companyservice "placement-portal/backend/internal/company/service"
	healthhandler "placement-portal/backend/internal/health/handler"
	identityhandler "placement-portal/backend/internal/identity/handler"
	identityservice "placement-portal/backend/internal/identity/service"
	jobrepo "placement-portal/backend/internal/job/repository"
	"placement-portal/backend/internal/policy/engine"
	"placement-portal/backend/internal/security"
	"placement-portal/backend/internal/server/middleware"
	studenthandler "placement-portal/backend/internal/student/handler"
	studentservice "placement-portal/backend/internal/student/service"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	tokens  *security.TokenProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	students := repository.NewStudentMemoryStore()
	companies := repository.NewCompanyMemoryStore()
	jobs := jobrepo.NewMemoryRepository()
	tokens := security.NewTestTokenProvider()
	eval, err := engine.NewOPAEvaluator(context.Background(), "")
	require.NoError(t, err)

	auth := identityservice.NewAuthService(students, companies, security.NewHasher(4), tokens,
		identityservice.WithClientIP(middleware.ClientIPFrom))
	cookies := identityhandler.CookiePolicy{SameSite: http.SameSiteLaxMode, AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}

	router := NewRouter(Deps{
		Tokens:     tokens,
		Students:   students,
		Companies:  companies,
		Auth:       identityhandler.NewAuthHandler(auth, cookies, true),
		Student:    studenthandler.NewStudentHandler(studentservice.NewStudentService(students, companies, jobs, eval, nil)),
		Company:    companyhandler.NewCompanyHandler(companyservice.NewCompanyService(companies, students, jobs, nil)),
		Health:     healthhandler.NewChecker(nil, eval),
		CORSOrigin: "http://localhost:5173",
	})
	return &testAPI{t: t, handler: router, tokens: tokens}
}

// do sends a JSON request with the given cookies and returns the recorder.
func (a *testAPI) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return env
}

// sessionCookies returns the accessToken and refreshToken cookies set by rec.
func sessionCookies(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case middleware.AccessCookie:
			access = c
		case middleware.RefreshCookie:
			refresh = c
		}
	}
	require.NotNil(t, access, "accessToken cookie not set")
	require.NotNil(t, refresh, "refreshToken cookie not set")
	return access, refresh
}

func (a *testAPI) register(path, name, email, password string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, path, map[string]string{"name": name, "email": email, "password": password})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testAPI) login(email, password string) (access, refresh *http.Cookie) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookies(a.t, rec)
}

func TestScenario_RegisterLoginRefreshReplay(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "A", "email": "a@x.com", "password": "secret1", "role": "student",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Student logged in successfully", env.Message)
	var session struct {
		Role string                 `json:"role"`
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "student", session.Role)
	assert.Equal(t, "a@x.com", session.User["email"])
	assert.NotContains(t, session.User, "password")
	assert.NotContains(t, rec.Body.String(), "secret1")

	access, refresh := sessionCookies(t, rec)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, "/", access.Path)

	rec = api.do(http.MethodPost, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, rotated := sessionCookies(t, rec)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	// Replaying the rotated-out token fails with the generic envelope.
	rec = api.do(http.MethodPost, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env = decode(t, rec)
	assert.Equal(t, http.StatusUnauthorized, env.StatusCode)
	assert.Equal(t, "Please authenticate", env.Message)
}

func TestLogin_RoleRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	api.register("/student/register", "Asha", "asha@x.com", "secret1")
	api.register("/company/register", "Acme", "hr@acme.com", "secret2")

	for _, tc := range []struct{ email, password, role string }{
		{"asha@x.com", "secret1", "student"},
		{"hr@acme.com", "secret2", "company"},
	} {
		access, _ := api.login(tc.email, tc.password)
		claims, err := api.tokens.ValidateAccess(access.Value)
		require.NoError(t, err)
		assert.Equal(t, tc.role, claims.Role)

		rec := api.do(http.MethodGet, "/auth/me", nil, access)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"`+tc.role+`"`)
	}
}

func TestLogin_InvalidCredentialsAreGeneric(t *testing.T) {
	api := newTestAPI(t)
	api.register("/student/register", "Asha", "asha@x.com", "secret1")

	wrongPassword := api.do(http.MethodPost, "/auth/login", map[string]string{"email": "asha@x.com", "password": "nope"})
	unknownEmail := api.do(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, decode(t, wrongPassword).Message, decode(t, unknownEmail).Message)
}

func TestGate_CompanyTokenOnStudentRoute(t *testing.T) {
	api := newTestAPI(t)
	api.register("/company/register", "Acme", "hr@acme.com", "secret2")
	access, _ := api.login("hr@acme.com", "secret2")

	rec := api.do(http.MethodGet, "/student/profile", nil, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusForbidden, decode(t, rec).StatusCode)

	rec = api.do(http.MethodGet, "/student/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGate_BearerHeader(t *testing.T) {
	api := newTestAPI(t)
	api.register("/student/register", "Asha", "asha@x.com", "secret1")
	access, _ := api.login("asha@x.com", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/student/profile", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_Idempotent(t *testing.T) {
	api := newTestAPI(t)
	api.register("/student/register", "Asha", "asha@x.com", "secret1")
	access, refresh := api.login("asha@x.com", "secret1")

	first := api.do(http.MethodPost, "/auth/logout", nil, access, refresh)
	second := api.do(http.MethodPost, "/auth/logout", nil, access, refresh)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	for _, c := range first.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, "cookie %s should be cleared", c.Name)
	}

	rec := api.do(http.MethodPost, "/auth/refresh-token", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh after logout must fail")
}

func TestAuthStatus(t *testing.T) {
	api := newTestAPI(t)
	api.register("/student/register", "Asha", "asha@x.com", "secret1")
	access, _ := api.login("asha@x.com", "secret1")

	rec := api.do(http.MethodGet, "/auth/auth-me", nil, access)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())
	rec = api.do(http.MethodGet, "/auth/auth-me", nil)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestPasswordResetFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register("/company/register", "Acme", "hr@acme.com", "secret2")

	rec := api.do(http.MethodPost, "/company/forgot-password", map[string]string{"email": "hr@acme.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ticket struct {
		ResetToken string `json:"resetToken"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &ticket))
	require.NotEmpty(t, ticket.ResetToken)

	rec = api.do(http.MethodPut, "/company/reset-password", map[string]string{"token": ticket.ResetToken, "newPassword": "newsecret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPut, "/company/reset-password", map[string]string{"token": ticket.ResetToken, "newPassword": "again1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	api.login("hr@acme.com", "newsecret")
}

func TestPortalFlow_JobApplicationAndShortlist(t *testing.T) {
	api := newTestAPI(t)
	api.register("/company/register", "Acme", "hr@acme.com", "secret2")
	api.register("/student/register", "Asha", "asha@x.com", "secret1")
	companyAccess, _ := api.login("hr@acme.com", "secret2")
	studentAccess, _ := api.login("asha@x.com", "secret1")

	rec := api.do(http.MethodGet, "/student/jobs", nil, studentAccess)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "eligible jobs need a complete profile")

	rec = api.do(http.MethodPut, "/student/complete-profile", map[string]interface{}{
		"name": "Asha", "rollNo": "IIT2023001", "degree": "btech", "cgpi": 8.4, "tenthMarks": 91,
		"twelfthMarks": 89, "graduatingYear": 2027, "branch": "it", "phone": "9999999999",
	}, studentAccess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/company/jobs", map[string]interface{}{
		"type": "full-time", "ctc": 18, "eligibleBranches": []string{"it", "ece"},
		"lastDate": time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"), "role": "SDE",
		"location": "Pune", "eligibleBatch": 2027, "minimumCgpa": 7.5,
	}, companyAccess)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &job))

	rec = api.do(http.MethodGet, "/student/jobs", nil, studentAccess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), job.ID)
	assert.Contains(t, rec.Body.String(), `"name":"Acme"`)

	rec = api.do(http.MethodPost, "/student/apply-job/"+job.ID, nil, studentAccess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, "/student/apply-job/"+job.ID, nil, studentAccess)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/company/jobs/"+job.ID+"/candidates", nil, companyAccess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asha@x.com")

	claims, err := api.tokens.ValidateAccess(studentAccess.Value)
	require.NoError(t, err)
	rec = api.do(http.MethodPut, "/company/jobs/"+job.ID+"/candidates",
		map[string][]string{"students": {claims.AccountID()}}, companyAccess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/student/shortlisted-jobs", nil, studentAccess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), job.ID)

	rec = api.do(http.MethodPut, "/company/jobs/"+job.ID+"/candidates/"+claims.AccountID(),
		map[string][]string{"students": {}}, companyAccess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodGet, "/student/shortlisted-jobs", nil, studentAccess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), job.ID)

	rec = api.do(http.MethodPut, "/company/jobs/"+job.ID+"/candidates/"+claims.AccountID(),
		map[string][]string{"students": {claims.AccountID()}}, companyAccess)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodDelete, "/company/jobs/"+job.ID, nil, companyAccess)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodPost, "/student/apply-job/"+job.ID, nil, studentAccess)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanyJobs_CommaSeparatedBranches(t *testing.T) {
	api := newTestAPI(t)
	api.register("/company/register", "Acme", "hr@acme.com", "secret2")
	access, _ := api.login("hr@acme.com", "secret2")

	body := map[string]interface{}{
		"type": "internship", "ctc": "6.5", "eligibleBranches": "it,ece",
		"lastDate": time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"), "role": "SDE Intern",
		"location": "Pune", "eligibleBatch": "2027", "minimumCgpa": 7,
	}
	rec := api.do(http.MethodPost, "/company/jobs", body, access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID               string   `json:"id"`
		EligibleBranches []string `json:"eligibleBranches"`
		EligibleBatch    int      `json:"eligibleBatch"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &job))
	assert.Equal(t, []string{"it", "ece"}, job.EligibleBranches)
	assert.Equal(t, 2027, job.EligibleBatch)

	body["eligibleBranches"] = "ece, it-bi"
	rec = api.do(http.MethodPut, "/company/jobs/"+job.ID, body, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &job))
	assert.Equal(t, []string{"ece", "it-bi"}, job.EligibleBranches)
}

func TestRouter_NotFoundAndHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode(t, rec).StatusCode)

	rec = api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":`))
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "x", "extra": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
