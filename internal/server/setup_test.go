package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prism/internal/config"
	"prism/internal/logger"
	"prism/internal/metrics"
	"prism/internal/testutil"
	"prism/internal/validator"
)

const testMetricsKey = "metrics-secret"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
}

func testConfig() *config.Config {
	cfg := config.Get()
	cfg.MetricsAPIKey = testMetricsKey
	cfg.CORSAllowedOrigins = []string{"https://app.example"}
	cfg.MaxLoginAttempts = 3
	cfg.LoginLockoutDur = time.Minute
	return cfg
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := testConfig()
	router := New(cfg, NewServices(db, cfg), Options{Metrics: metrics.New()})
	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// mustStatus fails the test unless rec carries the wanted status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// field digs a nested object out of a parsed response.
func field(t *testing.T, m map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := m[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object under %q, got %v", key, m[key])
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return field(t, parseJSON(t, rec), "error")["code"].(string)
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, testutil.TestPassword)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	mustStatus(t, rec, http.StatusCreated)

	result := parseJSON(t, rec)
	tokens := field(t, result, "tokens")
	return tokens["access"].(string), tokens["refresh"].(string), field(t, result, "user")["id"].(string)
}

// create POSTs body to path and returns the created object under key.
func (app *testApp) create(t *testing.T, token, path, key, body string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", path, body, token)
	mustStatus(t, rec, http.StatusCreated)
	return field(t, parseJSON(t, rec), key)
}
