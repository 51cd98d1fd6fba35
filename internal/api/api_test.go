package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/dicri/internal/auth"
	"github.com/erazemk/dicri/internal/db"
	"github.com/erazemk/dicri/internal/model"
	"github.com/erazemk/dicri/internal/store"
	"github.com/erazemk/dicri/internal/workflow"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password"
)

type testServer struct {
	*httptest.Server
	tech  string
	other string
	coord string
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, Options{LoginPerMinute: 600, LoginBurst: 100})
}

func setupTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	opts.JWTSecret = testJWTSecret
	opts.TokenExpiry = time.Hour

	server := httptest.NewServer(NewRouter(workflow.New(database), opts))
	t.Cleanup(server.Close)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	for _, u := range []struct {
		name string
		role model.Role
	}{
		{"tecnico", model.RoleTechnician},
		{"tecnico2", model.RoleTechnician},
		{"coordinador", model.RoleCoordinator},
	} {
		_, err := store.CreateUser(context.Background(), database, u.name, u.name+"@example.org", hash, u.name, u.role)
		require.NoError(t, err)
	}

	ts := &testServer{Server: server}
	ts.tech = ts.login(t, "tecnico")
	ts.other = ts.login(t, "tecnico2")
	ts.coord = ts.login(t, "coordinador")
	return ts
}

func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	return ts.loginWith(t, username, testPassword)
}

func (ts *testServer) loginWith(t *testing.T, username, password string) string {
	t.Helper()
	status, body := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp loginResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// call sends a JSON request and returns the status and raw body.
func (ts *testServer) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(t, req)
}

func (ts *testServer) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func validCase() map[string]any {
	return map[string]any{
		"case_number":   "MP001-2025-100",
		"description":   "Robo a mano armada",
		"location":      "Zona 10",
		"incident_date": "2025-06-12",
		"offense_type":  "Robo",
		"priority":      "Alta",
	}
}

func validEvidence(caseID int64) map[string]any {
	return map[string]any{
		"case_id":      caseID,
		"description":  "Arma blanca",
		"location":     "Sala",
		"type":         "Arma",
		"collected_at": "2025-06-12T14:30:00Z",
	}
}

func (ts *testServer) createCase(t *testing.T) model.Case {
	t.Helper()
	status, body := ts.call(t, http.MethodPost, "/api/cases", ts.tech, validCase())
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[model.Case](t, body)
}

func (ts *testServer) addEvidence(t *testing.T, caseID int64) model.Evidence {
	t.Helper()
	status, body := ts.call(t, http.MethodPost, "/api/evidence", ts.tech, validEvidence(caseID))
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[model.Evidence](t, body)
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	resp := decode[healthResponse](t, body)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, serviceName, resp.Service)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "dicri_login_attempts_total")
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "tecnico", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "tecnico"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "coordinador", "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status)
	resp := decode[map[string]json.RawMessage](t, body)
	user := decode[model.User](t, resp["user"])
	assert.Equal(t, model.RoleCoordinator, user.Role)
	assert.NotContains(t, string(resp["user"]), "password")
}

func TestLoginRateLimited(t *testing.T) {
	ts := setupTestServerWith(t, Options{LoginPerMinute: 1, LoginBurst: 3})

	// setup already spent the whole burst on three logins.
	status, _ := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "tecnico", "password": testPassword,
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestLoginLimiterIsShared(t *testing.T) {
	limiter := NewRateLimiter(1, 4)
	ts := setupTestServerWith(t, Options{LoginLimiter: limiter})

	// setup used three tokens; another endpoint takes the last one.
	require.True(t, limiter.Allow("127.0.0.1"))

	status, _ := ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "tecnico", "password": testPassword,
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestParseDecisionsOrdersMapByID(t *testing.T) {
	decisions, err := parseDecisions([]byte(`{
		"9223372036854775807": {"decision": "Aprobado"},
		"-9223372036854775808": {"decision": "Rechazado", "justification": "dañado"},
		"12": {"decision": "Aprobado"},
		"3": {"decision": "Aprobado"}
	}`))
	require.NoError(t, err)

	ids := make([]int64, 0, len(decisions))
	for _, d := range decisions {
		ids = append(ids, d.EvidenceID)
	}
	assert.Equal(t, []int64{math.MinInt64, 3, 12, math.MaxInt64}, ids)
	assert.Equal(t, "dañado", decisions[0].Justification)

	list, err := parseDecisions([]byte(`[{"evidence_id": 5, "decision": "Aprobado"}, {"evidence_id": 2, "decision": "Aprobado"}]`))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[0].EvidenceID, "lists keep their order")

	_, err = parseDecisions([]byte(`{"abc": {"decision": "Aprobado"}}`))
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.call(t, http.MethodGet, "/api/cases", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.call(t, http.MethodGet, "/api/cases", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := setupTestServer(t)

	status, body := ts.call(t, http.MethodGet, "/api/auth/profile", ts.tech, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"username":"tecnico"`)

	status, _ = ts.call(t, http.MethodPost, "/api/auth/logout", ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodGet, "/api/auth/profile", ts.tech, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChangePassword(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.call(t, http.MethodPut, "/api/auth/password", ts.tech, map[string]string{
		"current_password": "wrong", "new_password": "secreto123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.call(t, http.MethodPut, "/api/auth/password", ts.tech, map[string]string{
		"current_password": testPassword, "new_password": "secreto123",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "tecnico", "password": "secreto123",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestCaseApprovalFlow(t *testing.T) {
	ts := setupTestServer(t)

	c := ts.createCase(t)
	assert.Equal(t, fmt.Sprintf("EXP-%d-001", time.Now().UTC().Year()), c.Code)
	assert.Equal(t, model.CaseDraft, c.State)

	item := ts.addEvidence(t, c.ID)
	assert.Equal(t, "IND-001", item.Code)

	status, _ := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/approve", c.ID), ts.tech, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/approve", c.ID), ts.coord, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := ts.call(t, http.MethodGet, fmt.Sprintf("/api/cases/%d", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[model.Case](t, body)
	assert.Equal(t, model.CaseApproved, got.State)
	require.Len(t, got.Evidence, 1)
	assert.Equal(t, model.ItemApproved, got.Evidence[0].State)

	status, body = ts.call(t, http.MethodGet, fmt.Sprintf("/api/cases/%d/history", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)
	events := decode[[]model.CaseEvent](t, body)
	assert.NotEmpty(t, events)

	// Approved cases are no longer open for submission.
	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", c.ID), ts.tech, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRejectRequiresJustification(t *testing.T) {
	ts := setupTestServer(t)

	c := ts.createCase(t)
	ts.addEvidence(t, c.ID)
	status, _ := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/reject", c.ID), ts.coord,
		map[string]string{"justification": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "justification")

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/reject", c.ID), ts.coord,
		map[string]string{"justification": "Falta cadena de custodia"})
	require.Equal(t, http.StatusOK, status)

	_, body = ts.call(t, http.MethodGet, fmt.Sprintf("/api/cases/%d", c.ID), ts.tech, nil)
	got := decode[model.Case](t, body)
	assert.Equal(t, model.CaseRejected, got.State)
	assert.Equal(t, "Falta cadena de custodia", got.RejectionReason)
}

func TestCreateCaseValidation(t *testing.T) {
	ts := setupTestServer(t)

	fields := validCase()
	delete(fields, "description")
	fields["incident_date"] = "12/06/2025"

	status, body := ts.call(t, http.MethodPost, "/api/cases", ts.tech, fields)
	require.Equal(t, http.StatusBadRequest, status)
	resp := decode[errorBody](t, body)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "incident_date", resp.Fields[0].Field)

	fields["incident_date"] = "2025-06-12"
	status, body = ts.call(t, http.MethodPost, "/api/cases", ts.tech, fields)
	require.Equal(t, http.StatusBadRequest, status)
	resp = decode[errorBody](t, body)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "description", resp.Fields[0].Field)

	status, _ = ts.call(t, http.MethodPost, "/api/cases", ts.coord, validCase())
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSubmitWithoutEvidence(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)

	status, body := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", c.ID), ts.tech, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "cannot submit without evidence")
}

func TestOtherTechnicianCannotSeeCase(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	item := ts.addEvidence(t, c.ID)

	for _, path := range []string{
		fmt.Sprintf("/api/cases/%d", c.ID),
		fmt.Sprintf("/api/cases/%d/evidence", c.ID),
		fmt.Sprintf("/api/evidence/case/%d", c.ID),
		fmt.Sprintf("/api/evidence/%d", item.ID),
	} {
		status, _ := ts.call(t, http.MethodGet, path, ts.other, nil)
		assert.Equal(t, http.StatusNotFound, status, path)

		status, _ = ts.call(t, http.MethodGet, path, ts.coord, nil)
		assert.Equal(t, http.StatusOK, status, path)
	}

	status, body := ts.call(t, http.MethodGet, "/api/cases", ts.other, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Cases      []model.Case  `json:"cases"`
		Pagination workflow.Page `json:"pagination"`
	}](t, body)
	assert.Empty(t, list.Cases)
	assert.Equal(t, 0, list.Pagination.Total)
}

func TestListCasesFilters(t *testing.T) {
	ts := setupTestServer(t)
	first := ts.createCase(t)
	ts.createCase(t)
	ts.addEvidence(t, first.ID)
	status, _ := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", first.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	type listResponse struct {
		Cases      []model.Case  `json:"cases"`
		Pagination workflow.Page `json:"pagination"`
	}

	_, body := ts.call(t, http.MethodGet, "/api/cases?state=todos&limit=1", ts.coord, nil)
	all := decode[listResponse](t, body)
	assert.Len(t, all.Cases, 1)
	assert.Equal(t, 2, all.Pagination.Total)
	assert.Equal(t, 2, all.Pagination.Pages)

	_, body = ts.call(t, http.MethodGet, "/api/cases?state=En+Revision", ts.coord, nil)
	review := decode[listResponse](t, body)
	require.Len(t, review.Cases, 1)
	assert.Equal(t, first.ID, review.Cases[0].ID)

	status, _ = ts.call(t, http.MethodGet, "/api/cases?state=Cerrado", ts.coord, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestReviewAcceptsMapAndList(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	a := ts.addEvidence(t, c.ID)
	b := ts.addEvidence(t, c.ID)
	status, _ := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/submit", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/review", c.ID), ts.coord, map[string]any{
		fmt.Sprint(a.ID): map[string]string{"decision": "Aprobado"},
		fmt.Sprint(b.ID): map[string]string{"decision": "Rechazado", "justification": "Dañado"},
	})
	require.Equal(t, http.StatusOK, status)

	_, body := ts.call(t, http.MethodGet, fmt.Sprintf("/api/cases/%d", c.ID), ts.coord, nil)
	got := decode[model.Case](t, body)
	assert.Equal(t, model.CaseReviewed, got.State)
	require.Len(t, got.Evidence, 2)
	states := map[int64]model.ItemState{}
	for _, ev := range got.Evidence {
		states[ev.ID] = ev.State
	}
	assert.Equal(t, model.ItemApproved, states[a.ID])
	assert.Equal(t, model.ItemRejected, states[b.ID])

	status, body = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/review", c.ID), ts.coord, []map[string]any{
		{"evidence_id": a.ID, "decision": "Rechazado"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "justification")

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/review", c.ID), ts.coord, "nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeactivateCase(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	item := ts.addEvidence(t, c.ID)

	status, _ := ts.call(t, http.MethodPut, fmt.Sprintf("/api/cases/%d/deactivate", c.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodGet, fmt.Sprintf("/api/evidence/%d", item.ID), ts.coord, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEvidenceUpdateAndSoftDelete(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	item := ts.addEvidence(t, c.ID)

	update := validEvidence(c.ID)
	update["color"] = "Negro"
	status, body := ts.call(t, http.MethodPut, fmt.Sprintf("/api/evidence/%d", item.ID), ts.tech, update)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Negro", decode[model.Evidence](t, body).Color)

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/evidence/%d", item.ID), ts.other, update)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.call(t, http.MethodDelete, fmt.Sprintf("/api/evidence/%d/soft", item.ID), ts.tech, nil)
	require.Equal(t, http.StatusOK, status)

	// Soft delete is idempotent.
	status, _ = ts.call(t, http.MethodDelete, fmt.Sprintf("/api/evidence/%d/soft", item.ID), ts.tech, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = ts.call(t, http.MethodPost, "/api/evidence", ts.tech, map[string]any{"description": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "case_id")
}

func TestEvidencePhoto(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	item := ts.addEvidence(t, c.ID)
	photoPath := fmt.Sprintf("/api/evidence/%d/photo", item.ID)

	req, err := http.NewRequest(http.MethodGet, ts.URL+photoPath, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.tech)
	status, _ := ts.do(t, req)
	assert.Equal(t, http.StatusNotFound, status)

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := range 40 {
		for y := range 20 {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("photo", "indicio.png")
	require.NoError(t, err)
	_, err = part.Write(pngData.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err = http.NewRequest(http.MethodPut, ts.URL+photoPath, &form)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.tech)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, body := ts.do(t, req)
	require.Equal(t, http.StatusOK, status, string(body))

	req, err = http.NewRequest(http.MethodGet, ts.URL+photoPath, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.coord)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
}

func TestReports(t *testing.T) {
	ts := setupTestServer(t)
	c := ts.createCase(t)
	ts.addEvidence(t, c.ID)

	status, body := ts.call(t, http.MethodGet, "/api/reports/statistics", ts.coord, nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[model.Statistics](t, body)
	assert.Equal(t, 1, stats.TotalEvidence)

	status, body = ts.call(t, http.MethodGet, "/api/reports/statistics", ts.other, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, decode[model.Statistics](t, body).TotalEvidence)

	status, body = ts.call(t, http.MethodGet, "/api/reports/evidence-by-type", ts.tech, nil)
	require.Equal(t, http.StatusOK, status)
	types := decode[[]model.LabelCount](t, body)
	require.Len(t, types, 1)
	assert.Equal(t, "Arma", types[0].Label)

	status, body = ts.call(t, http.MethodGet, "/api/reports/recent", ts.tech, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Case](t, body), 1)

	status, _ = ts.call(t, http.MethodGet, "/api/reports/recent?limit=0", ts.tech, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.call(t, http.MethodGet, "/api/reports/cases-by-month?from=2020-01-01&to=2099-12-31", ts.tech, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.call(t, http.MethodGet, "/api/reports/cases-by-month?from=yesterday", ts.tech, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserAdministration(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.call(t, http.MethodGet, "/api/users", ts.tech, nil)
	assert.Equal(t, http.StatusForbidden, status)

	newUser := map[string]string{
		"username": "perito",
		"email":    "perito@example.org",
		"name":     "Perito Nuevo",
		"password": "secreto123",
		"role":     string(model.RoleTechnician),
	}
	status, body := ts.call(t, http.MethodPost, "/api/users", ts.coord, newUser)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[model.User](t, body)

	status, _ = ts.call(t, http.MethodPost, "/api/users", ts.coord, newUser)
	assert.Equal(t, http.StatusConflict, status)

	newUser["username"], newUser["role"] = "otro", "admin"
	status, _ = ts.call(t, http.MethodPost, "/api/users", ts.coord, newUser)
	assert.Equal(t, http.StatusBadRequest, status)

	token := ts.loginWith(t, "perito", "secreto123")

	status, _ = ts.call(t, http.MethodPut, fmt.Sprintf("/api/users/%d/deactivate", created.ID), ts.coord, nil)
	require.Equal(t, http.StatusOK, status)

	// Deactivation takes effect on tokens already issued.
	status, _ = ts.call(t, http.MethodGet, "/api/cases", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "perito", "password": "secreto123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}
