package integration

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"persacc/internal/config"
	"persacc/internal/database"
	"persacc/internal/events"
	"persacc/internal/logger"
	"persacc/internal/server"
	"persacc/internal/validator"
)

const testAPIKey = "integration-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Events *events.Recorder
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp migrates a fresh SQLite file with the embedded migrations and
// builds the router on top of it.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	}
	manager, err := database.NewManager(cfg)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	if err := manager.RunMigrations(); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	recorder := &events.Recorder{}
	svc := server.NewServices(manager.DB(), config.DefaultLedger(), recorder)
	router := server.NewRouter(svc, server.Options{APIKey: testAPIKey})

	return &testApp{DB: manager.DB(), Router: router, Events: recorder}
}

// request makes an authenticated HTTP request to the test router.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
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

// categoryID looks up a seeded category by name.
func (app *testApp) categoryID(t *testing.T, name string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/categories?include_inactive=true", "")
	if rec.Code != 200 {
		t.Fatalf("list categories failed: %d %s", rec.Code, rec.Body.String())
	}
	for _, raw := range parseJSON(t, rec)["categories"].([]interface{}) {
		cat := raw.(map[string]interface{})
		if cat["name"] == name {
			return cat["id"].(string)
		}
	}
	t.Fatalf("category %q not seeded", name)
	return ""
}

// postMovement records a movement and fails the test unless it is created.
func (app *testApp) postMovement(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", "/api/v1/movements", body)
	if rec.Code != 201 {
		t.Fatalf("create movement failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["movement"].(map[string]interface{})
}

// assertAmount compares a JSON decimal string numerically.
func assertAmount(t *testing.T, obj map[string]interface{}, field, want string) {
	t.Helper()
	raw, ok := obj[field].(string)
	if !ok {
		t.Fatalf("field %s missing or not a string: %v", field, obj[field])
	}
	got, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("field %s: %v", field, err)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", field, got, want)
	}
}

func movementBody(realDate, movementType, categoryID, concept, amount string, extra ...string) string {
	fields := []string{
		fmt.Sprintf(`"real_date":%q`, realDate),
		fmt.Sprintf(`"movement_type":%q`, movementType),
		fmt.Sprintf(`"category_id":%q`, categoryID),
		fmt.Sprintf(`"concept":%q`, concept),
		fmt.Sprintf(`"amount":%q`, amount),
	}
	return "{" + strings.Join(append(fields, extra...), ",") + "}"
}
