package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrowworks/trustmeter/internal/cache"
	"github.com/escrowworks/trustmeter/internal/database"
	"github.com/escrowworks/trustmeter/internal/monitoring"
	"github.com/escrowworks/trustmeter/internal/ratelimit"
	"github.com/escrowworks/trustmeter/internal/security"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := database.NewRepository(db)
	service := database.NewProjectService(repo)

	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLogger()

	redisClient, err := ratelimit.NewRedisClient("", "", 0)
	require.NoError(t, err)

	deps := &serverDeps{
		db:      db,
		service: service,
		metrics: metrics,
		logger:  logger,
		cache:   cache.NewCache(time.Minute),
		limiter: ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
			IPLimitPerMin:   10000,
			BurstMultiplier: 2,
		}, metrics),
		security: security.NewSecurityMiddleware(security.DefaultSecurityConfig()),
	}

	return setupRouter(deps)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "metrics")
}

func TestScoreEndpoint(t *testing.T) {
	r := newTestServer(t)

	payload := `{
		"deliverableDetails": "` + strings.Repeat("d", 250) + `",
		"acceptanceCriteriaDetails": "` + strings.Repeat("a", 160) + `",
		"totalAmount": 100000,
		"fundsDeposited": 100000
	}`

	w := doJSON(t, r, "POST", "/score", payload)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	mScore := body["mScore"].(map[string]interface{})
	sScore := body["sScore"].(map[string]interface{})

	// 15 for deliverables, 15 for acceptance criteria, no scope given
	assert.Equal(t, float64(30), mScore["details"].(map[string]interface{})["contractClarity"])
	assert.Equal(t, float64(40), sScore["details"].(map[string]interface{})["escrowStatus"])
	assert.Len(t, mScore["recommendations"], 1)
	assert.Len(t, sScore["recommendations"], 1)

	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Endpoint-Limit"))
}

func TestScoreEndpoint_InvalidJSON(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, "POST", "/score", `{"totalAmount": "not a number"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreEndpoint_CachesIdenticalRequests(t *testing.T) {
	r := newTestServer(t)

	payload := `{"totalAmount": 5000}`

	first := doJSON(t, r, "POST", "/score", payload)
	second := doJSON(t, r, "POST", "/score", payload)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestProjectLifecycle(t *testing.T) {
	r := newTestServer(t)

	created := doJSON(t, r, "POST", "/projects", `{
		"name": "Storefront build",
		"record": {
			"deliverableDetails": "`+strings.Repeat("d", 250)+`",
			"totalAmount": 100000,
			"fundsDeposited": 100000
		}
	}`)
	require.Equal(t, http.StatusCreated, created.Code)

	var createBody struct {
		Project struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createBody))
	require.NotEmpty(t, createBody.Project.ID)
	id := createBody.Project.ID

	got := doJSON(t, r, "GET", "/projects/"+id, "")
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), "Storefront build")

	list := doJSON(t, r, "GET", "/projects", "")
	assert.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"count":1`)

	scored := doJSON(t, r, "POST", "/projects/"+id+"/score", "")
	require.Equal(t, http.StatusOK, scored.Code)
	assert.Contains(t, scored.Body.String(), `"projectId":"`+id+`"`)

	history := doJSON(t, r, "GET", "/projects/"+id+"/scores", "")
	assert.Equal(t, http.StatusOK, history.Code)
	assert.Contains(t, history.Body.String(), `"count":1`)

	rankings := doJSON(t, r, "GET", "/rankings", "")
	assert.Equal(t, http.StatusOK, rankings.Code)
	assert.Contains(t, rankings.Body.String(), id)

	updated := doJSON(t, r, "PUT", "/projects/"+id, `{"name": "Storefront v2", "record": {"totalAmount": 120000}}`)
	assert.Equal(t, http.StatusOK, updated.Code)
	assert.Contains(t, updated.Body.String(), "Storefront v2")

	deleted := doJSON(t, r, "DELETE", "/projects/"+id, "")
	assert.Equal(t, http.StatusOK, deleted.Code)

	missing := doJSON(t, r, "GET", "/projects/"+id, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCreateProject_Validation(t *testing.T) {
	r := newTestServer(t)

	noName := doJSON(t, r, "POST", "/projects", `{"record": {"totalAmount": 1}}`)
	assert.Equal(t, http.StatusBadRequest, noName.Code)

	blankName := doJSON(t, r, "POST", "/projects", `{"name": "   ", "record": {}}`)
	assert.Equal(t, http.StatusBadRequest, blankName.Code)
}

func TestScoreProject_NotFound(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, "POST", "/projects/no-such-id/score", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "project not found", body["message"])
}

func TestStatsEndpoints(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/metrics", "/cache/stats", "/ratelimit/stats", "/pools/database"} {
		w := doJSON(t, r, "GET", path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, "GET", "/health", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRateLimitHeadersApplied(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, "GET", "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestUnsupportedContentTypeRejected(t *testing.T) {
	r := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/score", strings.NewReader("<record/>"))
	req.Header.Set("Content-Type", "application/xml")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
