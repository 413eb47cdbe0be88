package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/hardscape-estimator/internal/recorder"
	"github.com/iwvelando/hardscape-estimator/pkg/constants"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const testSettings = `
logging:
  level: info
company:
  burdenPercent: 0
  overhead:
    method: per_billable_hour
    fixedExpenses:
      - name: Rent
        monthlyAmount: 5000
      - name: Insurance
        monthlyAmount: 1800
      - name: Vehicles
        monthlyAmount: 1700
    expectedBillableHours: 200
    utilizationPercent: 80
  pricing:
    mode: markup
    markup:
      labor: 35
      materials: 30
      subs: 15
      equipment: 20
    contingencyPercent: 5
    includeOverheadInCost: true
    totalRounding: nearest_1
  tax:
    enabled: false
estimates:
  - name: Patio
    active: true
    costs:
      materials: 1000
      laborHours: 10
      laborCostRaw: 500
      subs: 0
      equipment: 0
      logistics: 50
  - name: Idle
    active: false
    costs:
      materials: 10
`

func newTestHandler(t *testing.T, rec recorder.Recorder) http.Handler {
	t.Helper()
	return NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test", rec)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func uploadSettings(t *testing.T, handler http.Handler, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "settings.yaml")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleEstimateSuccess(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(nil, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	rr := uploadSettings(t, newTestHandler(t, rec), []byte(testSettings))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	require.Equal(t, []string{"Patio"}, resp.Estimates)
	require.Len(t, resp.Quotes, 1)
	require.InDelta(t, 2879, resp.Quotes[0].Result.Subtotal, 1e-9)
	require.InDelta(t, 531.25, resp.Quotes[0].Result.OverheadRecovered, 1e-9)
	require.InDelta(t, 53.125, resp.Quotes[0].Result.Breakdown.OverheadRate, 1e-9)
	require.Contains(t, resp.CSV, "Patio,markup")
	require.NotEmpty(t, resp.Duration)
	require.NotNil(t, resp.Config)
	require.NotEmpty(t, resp.ConfigYAML)
	require.NotEmpty(t, resp.RunID)

	records, err := rec.Quotes(context.Background(), resp.RunID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.InDelta(t, 2879, records[0].Total, 1e-9)
}

func TestHandleEstimateMissingFile(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/estimate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	newTestHandler(t, nil).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "missing configuration file")
}

func TestHandleEstimateTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 128, "test", nil)
	rr := uploadSettings(t, handler, []byte(testSettings))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestJSONEndpointsRejectOversizeBodies(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 64, "test", nil)
	payload := map[string]interface{}{"padding": strings.Repeat("x", 512)}

	for _, path := range []string{
		"/api/editor/estimate",
		"/api/editor/export",
		"/api/price",
		"/api/labor/rate",
		"/api/overhead/rate",
		"/api/rounding",
	} {
		t.Run(path, func(t *testing.T) {
			rr := postJSON(t, handler, path, payload)
			require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
			require.Contains(t, rr.Body.String(), "exceeds limit of 64 bytes")
		})
	}
}

func TestJSONEndpointsRejectMalformedBodies(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/price", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	newTestHandler(t, nil).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "failed to decode request")
}

func TestHandleEstimateInvalidYAML(t *testing.T) {
	rr := uploadSettings(t, newTestHandler(t, nil), []byte("company: [unclosed"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleEstimateUnknownPricingMode(t *testing.T) {
	settings := strings.Replace(testSettings, "mode: markup", "mode: cost_plus", 1)
	rr := uploadSettings(t, newTestHandler(t, nil), []byte(settings))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "unknown pricing mode")
}

func TestHandleEstimateMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/estimate", nil)
	rr := httptest.NewRecorder()
	newTestHandler(t, nil).ServeHTTP(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleEstimateEditorSuccess(t *testing.T) {
	var settings map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(testSettings), &settings))

	rr := postJSON(t, newTestHandler(t, nil), "/api/editor/estimate", map[string]interface{}{"config": settings})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 1)
	require.InDelta(t, 2879, resp.Quotes[0].Result.Total, 1e-9)
	require.Contains(t, resp.ConfigYAML, "company:")
}

func TestHandleEstimateEditorWarnings(t *testing.T) {
	settings := map[string]interface{}{
		"company": map[string]interface{}{
			"overhead": map[string]interface{}{"method": "per_truck"},
			"pricing":  map[string]interface{}{"mode": "markup", "totalRounding": 5},
		},
		"estimates": []interface{}{
			map[string]interface{}{
				"name":   "Steps",
				"active": true,
				"costs":  map[string]interface{}{"materials": 101},
			},
		},
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/editor/estimate", settings)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Quotes, 1)
	require.InDelta(t, 100, resp.Quotes[0].Result.Total, 1e-9)
	require.NotEmpty(t, resp.Warnings)
	require.Contains(t, strings.Join(resp.Warnings, "\n"), "per_truck")
}

func TestHandleEstimateEditorRejectsNonObjectConfig(t *testing.T) {
	rr := postJSON(t, newTestHandler(t, nil), "/api/editor/estimate", map[string]interface{}{"config": "nope"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleConfigExport(t *testing.T) {
	payload := map[string]interface{}{
		"estimates": []interface{}{map[string]interface{}{"name": "Patio"}},
		"crew":      []interface{}{map[string]interface{}{"name": "Lead"}},
		"company":   map[string]interface{}{"burdenPercent": 20},
		"output":    map[string]interface{}{"format": "pretty"},
		"logging":   map[string]interface{}{"level": "debug"},
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/editor/export", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	out := resp["configYaml"]

	order := []string{"logging:", "output:", "company:", "crew:", "estimates:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.Greater(t, idx, last, "key %s out of order in:\n%s", key, out)
		last = idx
	}
}

func TestHandleVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	NewHandler(nil, 0, "  ", nil).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"version":"dev"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)
	rr := uploadSettings(t, handler, []byte(testSettings))
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, `estimator_quotes_priced_total{mode="markup"} 1`)
	require.Contains(t, body, `estimator_http_requests_total{method="POST",route="/api/estimate",status="200"} 1`)
}

func TestHandlePrice(t *testing.T) {
	payload := map[string]interface{}{
		"costs": map[string]interface{}{
			"materials": 1000, "laborHours": 10, "laborCostRaw": 500, "logistics": 50,
		},
		"overhead": map[string]interface{}{
			"method":                "per_billable_hour",
			"fixedExpenses":         []interface{}{map[string]interface{}{"name": "All", "monthlyAmount": 8500}},
			"expectedBillableHours": 200,
			"utilizationPercent":    80,
		},
		"pricing": map[string]interface{}{
			"mode":                  "markup",
			"markup":                map[string]interface{}{"labor": 35, "materials": 30, "subs": 15, "equipment": 20},
			"contingencyPercent":    5,
			"includeOverheadInCost": true,
			"totalRounding":         "nearest_1",
		},
		"tax": map[string]interface{}{
			"enabled": true, "ratePercent": 7, "appliesTo": map[string]interface{}{"materials": true}, "rounding": "cent",
		},
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/price", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result estimate.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.InDelta(t, 2879, result.Subtotal, 1e-9)
	require.InDelta(t, 70, result.Tax, 1e-9)
	require.InDelta(t, 2949, result.Total, 1e-9)
	require.Equal(t, estimate.ModeMarkup, result.Breakdown.Mode)
	require.InDelta(t, 1000, result.Breakdown.TaxableBasis, 1e-9)
}

func TestHandlePriceRejectsNegativeCosts(t *testing.T) {
	payload := map[string]interface{}{
		"costs": map[string]interface{}{"materials": -5},
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/price", payload)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "costs.materials must be >= 0")
}

func TestHandlePriceUnknownMode(t *testing.T) {
	payload := map[string]interface{}{
		"pricing": map[string]interface{}{"mode": "cost_plus"},
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/price", payload)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleLaborRate(t *testing.T) {
	tests := []struct {
		name          string
		payload       map[string]interface{}
		wantLoaded    float64
		wantEffective float64
	}{
		{
			name: "hourly with global burden",
			payload: map[string]interface{}{
				"worker":              map[string]interface{}{"name": "Lead", "employmentType": "hourly", "hourlyRate": 20},
				"globalBurdenPercent": 25,
			},
			wantLoaded:    25,
			wantEffective: 25,
		},
		{
			name: "salary with default hours",
			payload: map[string]interface{}{
				"worker":              map[string]interface{}{"name": "Manager", "employmentType": "salary", "salaryAnnual": 52000},
				"globalBurdenPercent": 20,
			},
			wantLoaded:    30,
			wantEffective: 20,
		},
		{
			name: "subcontractor ignores global burden",
			payload: map[string]interface{}{
				"worker":              map[string]interface{}{"name": "Sub", "employmentType": "subcontract", "subcontractRate": 60},
				"globalBurdenPercent": 30,
			},
			wantLoaded:    60,
			wantEffective: 0,
		},
		{
			name: "override wins",
			payload: map[string]interface{}{
				"worker": map[string]interface{}{
					"name": "Sub", "employmentType": "subcontract", "subcontractRate": 60, "burdenOverride": 10,
				},
				"globalBurdenPercent": 30,
			},
			wantLoaded:    66,
			wantEffective: 10,
		},
	}

	handler := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/api/labor/rate", tt.payload)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp laborRateResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.InDelta(t, tt.wantLoaded, resp.LoadedRate, 1e-9)
			require.InDelta(t, tt.wantEffective, resp.EffectiveBurdenPercent, 1e-9)
		})
	}
}

func TestHandleOverheadRate(t *testing.T) {
	payload := map[string]interface{}{
		"method": "per_billable_hour",
		"fixedExpenses": []interface{}{
			map[string]interface{}{"name": "Rent", "monthlyAmount": 5000},
			map[string]interface{}{"name": "Insurance", "monthlyAmount": 3500},
		},
		"expectedBillableHours": 200,
		"utilizationPercent":    80,
	}

	rr := postJSON(t, newTestHandler(t, nil), "/api/overhead/rate", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp overheadRateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.InDelta(t, 53.125, resp.Rate, 1e-9)
	require.InDelta(t, 8500, resp.FixedTotal, 1e-9)
	require.InDelta(t, 160, resp.EffectiveHours, 1e-9)
}

func TestHandleRounding(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		want     float64
		wantRule string
	}{
		{name: "token", payload: `{"amount": 2877.5, "rule": "nearest_5"}`, want: 2880, wantRule: "nearest_5"},
		{name: "number", payload: `{"amount": 12.4, "rule": 10}`, want: 10, wantRule: "nearest_10"},
		{name: "none", payload: `{"amount": 12.4, "rule": "none"}`, want: 12.4, wantRule: "none"},
		{name: "garbage passes through", payload: `{"amount": 12.4, "rule": "nearest_abc"}`, want: 12.4, wantRule: "none"},
	}

	handler := newTestHandler(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/rounding", strings.NewReader(tt.payload))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp roundingResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.InDelta(t, tt.want, resp.Amount, 1e-9)
			require.Equal(t, tt.wantRule, resp.Rule)
		})
	}
}
