package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func (app *testApp) pipeline(apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/pipeline/valuations", nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestValuationFlow_CalculateAndHistory(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "value@test.com", "password123")
	item := app.createEntry(t, token, `{
		"kind":"item","title":"Laptop","category":"electronics","condition":"good",
		"original_price":"2000.00","acquisition_date":"2022-01-10"}`)
	base := "/api/v1/entries/" + item["id"].(string) + "/valuations"

	// Latest calculates on first access.
	rec := app.request("GET", base+"/latest", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest failed: %d %s", rec.Code, rec.Body.String())
	}
	first := parseJSON(t, rec)["valuation"].(map[string]interface{})
	value := decimal.RequireFromString(first["current_value"].(string))
	if !value.IsPositive() || value.GreaterThan(decimal.NewFromInt(2000)) {
		t.Errorf("unexpected current value %s", value)
	}
	if first["depreciation_rate"] != "0.25" || first["methodology"] == "" {
		t.Errorf("unexpected valuation %v", first)
	}

	rec = app.request("POST", base, "", token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("calculate failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", base, "", token)
	if got := parseJSON(t, rec)["total_items"]; got != float64(2) {
		t.Errorf("expected 2 history records, got %v", got)
	}
}

func TestValuationFlow_NotApplicable(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "na@test.com", "password123")
	person := app.createEntry(t, token, `{"kind":"person","title":"Mentor"}`)
	unpriced := app.createEntry(t, token, `{"kind":"item","title":"Pebble"}`)

	for _, e := range []map[string]interface{}{person, unpriced} {
		rec := app.request("POST", "/api/v1/entries/"+e["id"].(string)+"/valuations", "", token)
		if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALUATION_NOT_APPLICABLE" {
			t.Errorf("%v: expected VALUATION_NOT_APPLICABLE, got %d %s", e["title"], rec.Code, rec.Body.String())
		}
	}
}

func TestValuationFlow_RulesAndPipeline(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "rules@test.com", "password123")
	app.createEntry(t, token, `{"kind":"item","title":"Sofa","category":"furniture","original_price":"800","acquisition_date":"2021-03-01"}`)
	app.createEntry(t, token, `{"kind":"item","title":"Bike","category":"vehicles","original_price":"500","acquisition_date":"2023-05-01"}`)

	rec := app.request("GET", "/api/v1/depreciation-rules/resolve?category=furniture", "", token)
	rule := parseJSON(t, rec)["rule"].(map[string]interface{})
	if rule["source"] != "builtin" || rule["annual_rate"] != "0.1" {
		t.Errorf("unexpected furniture rule %v", rule)
	}

	rec = app.request("GET", "/api/v1/depreciation-rules/resolve?category=stamps", "", token)
	if rule := parseJSON(t, rec)["rule"].(map[string]interface{}); rule["source"] != "default" {
		t.Errorf("expected default rule for stamps, got %v", rule)
	}

	if rec := app.pipeline(""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without API key, got %d", rec.Code)
	}

	rec = app.pipeline(testPipelineKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("pipeline failed: %d %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)
	if summary["evaluated"] != float64(2) || summary["appended"] != float64(2) || summary["failed"] != float64(0) {
		t.Errorf("unexpected summary %v", summary)
	}
}
