package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"ridesharing/internal/app"
	"ridesharing/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alertHeader  = "X-ridesharingApp-alert"
	paramsHeader = "X-ridesharingApp-params"
	errorHeader  = "X-ridesharingApp-error"
)

// setupApp builds the full application on an in-memory SQLite database.
func setupApp(t *testing.T) *app.App {
	return setupAppWith(t, nil)
}

// setupAppWith is setupApp with extra configuration keys.
func setupAppWith(t *testing.T, settings map[string]interface{}) *app.App {
	t.Helper()
	v := config.New()
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("PAGE_SIZE", 2)
	for k, val := range settings {
		v.Set(k, val)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

// login registers a member and returns a bearer token for it.
func login(t *testing.T, a *app.App, name string) (string, int64) {
	t.Helper()
	resp := do(t, a, "", http.MethodPost, "/api/register", map[string]string{
		"login":    name,
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var member map[string]interface{}
	decode(t, resp, &member)

	resp = do(t, a, "", http.MethodPost, "/api/authenticate", map[string]string{
		"login":    name,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	require.NotEmpty(t, body["id_token"])
	return body["id_token"], int64(member["id"].(float64))
}

func do(t *testing.T, a *app.App, token, method, path string, body interface{}) *http.Response {
	t.Helper()
	return doWithType(t, a, token, method, path, "application/json", body)
}

func doWithType(t *testing.T, a *app.App, token, method, path, contentType string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func problemKey(t *testing.T, resp *http.Response) string {
	t.Helper()
	var problem map[string]interface{}
	decode(t, resp, &problem)
	key, _ := problem["errorKey"].(string)
	return key
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestAuthRegisterAndAuthenticate(t *testing.T) {
	a := setupApp(t)

	resp := do(t, a, "", http.MethodPost, "/api/register", map[string]string{
		"login":    "TestUser",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ridesharingApp.member.created", resp.Header.Get(alertHeader))
	var member map[string]interface{}
	decode(t, resp, &member)
	assert.Equal(t, "testuser", member["login"])
	assert.NotContains(t, member, "password")

	// Duplicate registration (login)
	resp = do(t, a, "", http.MethodPost, "/api/register", map[string]string{
		"login":    "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error.loginexists", resp.Header.Get(errorHeader))
	resp.Body.Close()

	resp = do(t, a, "", http.MethodPost, "/api/authenticate", map[string]string{
		"login":    "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.NotEmpty(t, body["id_token"])

	principal, err := a.Auth.ValidateToken(body["id_token"])
	assert.NoError(t, err)
	assert.Equal(t, "testuser", principal.Login)

	resp = do(t, a, "", http.MethodPost, "/api/authenticate", map[string]string{
		"login":    "testuser",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, "", http.MethodPost, "/api/authenticate", map[string]string{"login": "testuser"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", problemKey(t, resp))
}

func TestEndpointsWithoutAuth(t *testing.T) {
	a := setupApp(t)

	resp := do(t, a, "", http.MethodGet, "/api/rides", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, "", http.MethodPost, "/api/rides", map[string]string{"startLocation": "Lyon"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, "not-a-token", http.MethodGet, "/api/ratings", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRideLifecycle(t *testing.T) {
	a := setupApp(t)
	token, memberID := login(t, a, "driver")

	newRide := map[string]interface{}{
		"startLocation": "Lyon",
		"endLocation":   "Paris",
		"startTime":     "2024-07-01T08:00:00Z",
		"recurring":     true,
		"member":        map[string]int64{"id": memberID},
	}
	resp := do(t, a, token, http.MethodPost, "/api/rides", newRide)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ridesharingApp.ride.created", resp.Header.Get(alertHeader))
	var created map[string]interface{}
	decode(t, resp, &created)
	id := int64(created["id"].(float64))
	assert.Equal(t, fmt.Sprintf("/api/rides/%d", id), resp.Header.Get("Location"))
	assert.Equal(t, fmt.Sprint(id), resp.Header.Get(paramsHeader))

	// GET returns the identical projection
	resp = do(t, a, token, http.MethodGet, fmt.Sprintf("/api/rides/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched map[string]interface{}
	decode(t, resp, &fetched)
	assert.Equal(t, created, fetched)

	// PUT guards
	update := map[string]interface{}{
		"id":            id + 1,
		"startLocation": "Lyon",
		"endLocation":   "Nice",
		"startTime":     "2024-07-01T08:00:00Z",
	}
	resp = do(t, a, token, http.MethodPut, fmt.Sprintf("/api/rides/%d", id), update)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error.idinvalid", resp.Header.Get(errorHeader))
	resp.Body.Close()

	delete(update, "id")
	resp = do(t, a, token, http.MethodPut, fmt.Sprintf("/api/rides/%d", id), update)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "idnull", problemKey(t, resp))

	update["id"] = 999
	resp = do(t, a, token, http.MethodPut, "/api/rides/999", update)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "idnotfound", problemKey(t, resp))

	// PUT overwrites every field, including the ones left out
	update["id"] = id
	resp = do(t, a, token, http.MethodPut, fmt.Sprintf("/api/rides/%d", id), update)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ridesharingApp.ride.updated", resp.Header.Get(alertHeader))
	var updated map[string]interface{}
	decode(t, resp, &updated)
	assert.Equal(t, "Nice", updated["endLocation"])
	assert.NotContains(t, updated, "recurring")
	assert.NotContains(t, updated, "member")

	// PATCH only touches the supplied fields
	resp = doWithType(t, a, token, http.MethodPatch, fmt.Sprintf("/api/rides/%d", id), "application/merge-patch+json",
		map[string]interface{}{"id": id, "endLocation": "Marseille"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched map[string]interface{}
	decode(t, resp, &patched)
	assert.Equal(t, "Marseille", patched["endLocation"])
	assert.Equal(t, "Lyon", patched["startLocation"])
	assert.Equal(t, updated["startTime"], patched["startTime"])

	resp = doWithType(t, a, token, http.MethodPatch, fmt.Sprintf("/api/rides/%d", id), "text/plain",
		map[string]interface{}{"id": id})
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, token, http.MethodPatch, "/api/rides/999", map[string]interface{}{"id": 999, "endLocation": "Nice"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// DELETE then GET 404, DELETE again still 204
	resp = do(t, a, token, http.MethodDelete, fmt.Sprintf("/api/rides/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "ridesharingApp.ride.deleted", resp.Header.Get(alertHeader))
	resp.Body.Close()

	resp = do(t, a, token, http.MethodGet, fmt.Sprintf("/api/rides/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "idnotfound", problemKey(t, resp))

	resp = do(t, a, token, http.MethodDelete, fmt.Sprintf("/api/rides/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateWithIDFails(t *testing.T) {
	a := setupApp(t)
	token, _ := login(t, a, "rider")

	resp := do(t, a, token, http.MethodPost, "/api/messages", map[string]interface{}{
		"id":        1,
		"content":   "hello",
		"timestamp": "2024-07-01T08:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error.idexists", resp.Header.Get(errorHeader))
	assert.Equal(t, "message", resp.Header.Get(paramsHeader))
	resp.Body.Close()

	resp = do(t, a, token, http.MethodGet, "/api/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var messages []map[string]interface{}
	decode(t, resp, &messages)
	assert.Empty(t, messages)
}

func TestRatingScoreValidation(t *testing.T) {
	a := setupApp(t)
	token, _ := login(t, a, "rater")

	for _, score := range []int{0, 6} {
		resp := do(t, a, token, http.MethodPost, "/api/ratings", map[string]interface{}{"score": score})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "score %d", score)
		var problem map[string]interface{}
		decode(t, resp, &problem)
		assert.Equal(t, "validation", problem["errorKey"])
		assert.Contains(t, problem["fieldErrors"], "score")
	}
	for _, score := range []int{1, 5} {
		resp := do(t, a, token, http.MethodPost, "/api/ratings", map[string]interface{}{"score": score})
		assert.Equal(t, http.StatusCreated, resp.StatusCode, "score %d", score)
		resp.Body.Close()
	}
}

func TestRideRequestPagination(t *testing.T) {
	a := setupApp(t)
	token, _ := login(t, a, "dispatcher")

	for i := 0; i < 5; i++ {
		resp := do(t, a, token, http.MethodPost, "/api/ride-requests", map[string]interface{}{
			"status":      fmt.Sprintf("PENDING-%d", i),
			"requestTime": fmt.Sprintf("2024-07-01T0%d:00:00Z", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := do(t, a, token, http.MethodGet, "/api/ride-requests?page=1&size=2&sort=requestTime,desc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("X-Total-Count"))
	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="next"`, `rel="prev"`, `rel="last"`, `rel="first"`} {
		assert.Contains(t, link, rel)
	}
	assert.Contains(t, link, "page=2")
	var page []map[string]interface{}
	decode(t, resp, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "PENDING-2", page[0]["status"])
	assert.Equal(t, "PENDING-1", page[1]["status"])

	// Default page size comes from configuration
	resp = do(t, a, token, http.MethodGet, "/api/ride-requests", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &page)
	assert.Len(t, page, 2)

	// Non-paginated entities return everything
	resp = do(t, a, token, http.MethodGet, "/api/members?sort=login,asc", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Total-Count"))
	var members []map[string]interface{}
	decode(t, resp, &members)
	assert.Len(t, members, 1)
}

func TestListRejectsBadRequests(t *testing.T) {
	a := setupApp(t)
	token, _ := login(t, a, "curious")

	resp := do(t, a, token, http.MethodGet, "/api/rides?sort=password,asc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "sortinvalid", problemKey(t, resp))

	resp = do(t, a, token, http.MethodGet, "/api/rides/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "idinvalid", problemKey(t, resp))

	resp = do(t, a, token, http.MethodGet, "/api/messages?mine=true", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ownerunsupported", problemKey(t, resp))

	req := httptest.NewRequest(http.MethodPost, "/api/rides", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bodyinvalid", problemKey(t, resp))
}

func TestMineFiltersByOwner(t *testing.T) {
	a := setupApp(t)
	aliceToken, aliceID := login(t, a, "alice")
	_, bobID := login(t, a, "bob")

	for _, owner := range []int64{aliceID, bobID, aliceID} {
		resp := do(t, a, aliceToken, http.MethodPost, "/api/rides", map[string]interface{}{
			"startLocation": "A",
			"endLocation":   "B",
			"startTime":     "2024-07-01T08:00:00Z",
			"member":        map[string]int64{"id": owner},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := do(t, a, aliceToken, http.MethodGet, "/api/rides?mine=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rides []map[string]interface{}
	decode(t, resp, &rides)
	require.Len(t, rides, 2)
	for _, r := range rides {
		assert.Equal(t, float64(aliceID), r["member"].(map[string]interface{})["id"])
	}

	resp = do(t, a, aliceToken, http.MethodGet, "/api/rides", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &rides)
	assert.Len(t, rides, 3)
}

func TestRegisterInvalidatesMemberCache(t *testing.T) {
	mr := miniredis.RunT(t)
	a := setupAppWith(t, map[string]interface{}{
		"AUTH_ENABLED": false,
		"REDIS_ADDR":   mr.Addr(),
	})

	var members []map[string]interface{}
	resp := do(t, a, "", http.MethodGet, "/api/members", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	decode(t, resp, &members)
	assert.Empty(t, members)

	resp = do(t, a, "", http.MethodGet, "/api/members", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	resp.Body.Close()

	resp = do(t, a, "", http.MethodPost, "/api/register", map[string]string{
		"login":    "newcomer",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, "", http.MethodGet, "/api/members", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	decode(t, resp, &members)
	assert.Len(t, members, 1)

	// Authentication and failed registrations do not invalidate
	resp = do(t, a, "", http.MethodPost, "/api/authenticate", map[string]string{
		"login":    "newcomer",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = do(t, a, "", http.MethodPost, "/api/register", map[string]string{
		"login":    "newcomer",
		"password": "password123",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, a, "", http.MethodGet, "/api/members", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	resp.Body.Close()
}
