package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/tracker"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	trk := tracker.New(store, store)
	server := httptest.NewServer(api.NewRouter(api.NewHandler(trk), testSecret))
	t.Cleanup(server.Close)
	return server
}

func token(t *testing.T, identity tracker.Identity) string {
	t.Helper()
	signed, err := api.SignToken(testSecret, identity, time.Hour)
	require.NoError(t, err)
	return signed
}

var (
	employee = tracker.Identity{UserID: "emp-1", Role: tracker.RoleEmployee, ManagerID: "mgr-1"}
	manager  = tracker.Identity{UserID: "mgr-1", Role: tracker.RoleManager}
)

// do issues an authenticated request and decodes the JSON body.
func do(t *testing.T, server *httptest.Server, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, payload)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuth_MissingOrBadToken(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, server, http.MethodGet, "/api/attendance/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["error"])

	status, _ = do(t, server, http.MethodGet, "/api/attendance/status", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Token signed with a different secret
	forged, err := api.SignToken([]byte("other-secret"), employee, time.Hour)
	require.NoError(t, err)
	status, _ = do(t, server, http.MethodGet, "/api/attendance/status", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthz_Public(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// CLOCK ENDPOINTS
// =============================================================================

func TestClockIn_ThenStatus(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, employee)

	status, body := do(t, server, http.MethodPost, "/api/attendance/clock-in", bearer, nil)
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	assert.Equal(t, "emp-1", body["user_id"])
	assert.Equal(t, "pending", body["approval_status"])
	assert.NotEmpty(t, body["shift_start"])

	status, body = do(t, server, http.MethodGet, "/api/attendance/status", bearer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "working", body["status"])
	assert.NotEmpty(t, body["current_worked_hours"])
}

func TestClockIn_Twice_StateConflict(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, employee)

	status, _ := do(t, server, http.MethodPost, "/api/attendance/clock-in", bearer, nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, server, http.MethodPost, "/api/attendance/clock-in", bearer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "state_conflict", body["code"])
	assert.Equal(t, "You have already clocked in for this date.", body["error"])
}

func TestClockOut_WithoutClockIn(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, server, http.MethodPost, "/api/attendance/clock-out", token(t, employee), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "No attendance entry found for this date. Please clock in first.", body["error"])
}

// =============================================================================
// LEAVE ENDPOINTS
// =============================================================================

func TestLogVacation_HappyPath(t *testing.T) {
	server := newTestServer(t)
	bearer := token(t, employee)
	today := time.Now().UTC().Format(time.DateOnly)

	status, body := do(t, server, http.MethodPost, "/api/attendance/log-vacation", bearer,
		map[string]string{"date": today, "hours": "8"})
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	assert.Equal(t, "8", body["vacation_hours"])
	assert.Equal(t, "8", body["total_hours"])

	// Re-logging the same day adjusts the existing record
	status, body = do(t, server, http.MethodPost, "/api/attendance/log-vacation", bearer,
		map[string]string{"date": today, "hours": "4"})
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, "4", body["vacation_hours"])

	status, body = do(t, server, http.MethodGet, "/api/attendance/balance", bearer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "4", body["vacation_used_hours"])
	assert.Equal(t, "156", body["vacation_remaining_hours"])
}

func TestLogVacation_ValidationFailure(t *testing.T) {
	server := newTestServer(t)
	today := time.Now().UTC().Format(time.DateOnly)

	status, body := do(t, server, http.MethodPost, "/api/attendance/log-vacation", token(t, employee),
		map[string]string{"date": today, "hours": "4.1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_failed", body["code"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "details: %v", body["details"])
	assert.Contains(t, details, "hours")
}

func TestLogVacation_BadHours(t *testing.T) {
	server := newTestServer(t)
	today := time.Now().UTC().Format(time.DateOnly)

	status, _ := do(t, server, http.MethodPost, "/api/attendance/log-vacation", token(t, employee),
		map[string]string{"date": today, "hours": "eight"})
	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// APPROVAL ENDPOINTS
// =============================================================================

func loggedVacationID(t *testing.T, server *httptest.Server) string {
	t.Helper()
	today := time.Now().UTC().Format(time.DateOnly)
	status, body := do(t, server, http.MethodPost, "/api/attendance/log-vacation", token(t, employee),
		map[string]string{"date": today, "hours": "8"})
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	id, ok := body["id"].(string)
	require.True(t, ok)
	return id
}

func TestApprove_ByManager(t *testing.T) {
	server := newTestServer(t)
	id := loggedVacationID(t, server)

	status, body := do(t, server, http.MethodPost, "/api/attendance/"+id+"/approve", token(t, manager),
		map[string]string{"comments": "ok"})
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, "approved", body["approval_status"])
	assert.Equal(t, "mgr-1", body["approved_by"])
}

func TestApprove_ByEmployee_Forbidden(t *testing.T) {
	server := newTestServer(t)
	id := loggedVacationID(t, server)

	status, _ := do(t, server, http.MethodPost, "/api/attendance/"+id+"/approve", token(t, employee), nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestReject_RestoresBalance(t *testing.T) {
	server := newTestServer(t)
	id := loggedVacationID(t, server)

	status, body := do(t, server, http.MethodPost, "/api/attendance/"+id+"/reject", token(t, manager),
		map[string]string{"comments": "not scheduled"})
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, "rejected", body["approval_status"])

	status, body = do(t, server, http.MethodGet, "/api/attendance/balance", token(t, employee), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", body["vacation_used_hours"])
}

func TestApprove_UnknownID_NotFound(t *testing.T) {
	server := newTestServer(t)

	status, _ := do(t, server, http.MethodPost, "/api/attendance/nope/approve", token(t, manager), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// =============================================================================
// READ ENDPOINTS
// =============================================================================

func TestDeleteRecord(t *testing.T) {
	server := newTestServer(t)
	id := loggedVacationID(t, server)

	status, body := do(t, server, http.MethodDelete, "/api/attendance/"+id, token(t, employee), nil)
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, "deleted", body["status"])

	status, body = do(t, server, http.MethodGet, "/api/attendance/balance", token(t, employee), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", body["vacation_used_hours"])
}

func TestRules(t *testing.T) {
	server := newTestServer(t)

	status, body := do(t, server, http.MethodGet, "/api/attendance/rules", token(t, employee), nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body)
}

func TestHistory_BadLimit(t *testing.T) {
	server := newTestServer(t)

	status, _ := do(t, server, http.MethodGet, "/api/attendance/history?limit=abc", token(t, employee), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
