package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/rebalancer/internal/modules/features"
	"github.com/aristath/rebalancer/internal/modules/prediction"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/redistribution"
	testingpkg "github.com/aristath/rebalancer/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeWeighted predicts close/100
func closeWeighted() prediction.Model {
	coefs := make([]float64, len(features.Names))
	coefs[3] = 0.01
	return prediction.NewLinearModel("close-weighted", 0, coefs)
}

func testTable() *features.StaticTable {
	return features.NewStaticTable(
		features.Vector{Token: "A", Close: 5},
		features.Vector{Token: "B", Close: -10},
		features.Vector{Token: "C", Close: 2},
	)
}

func setupRouter(lookup features.Lookup, model prediction.Model) *chi.Mux {
	logger := zerolog.Nop()
	service := rebalancing.NewService(lookup, model, redistribution.Balanced, nil, logger)
	handler := NewHandler(service, lookup, logger)

	r := chi.NewRouter()
	handler.RegisterRootRoutes(r)
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestHandleRebalance(t *testing.T) {
	r := setupRouter(testTable(), closeWeighted())

	for _, path := range []string{"/rebalance", "/api/rebalance"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, r, http.MethodPost, path, `{"allocation": {"C": 0.2, "A": 0.5, "B": 0.3}, "strategy": "Balanced"}`)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp RebalanceResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

			require.Len(t, resp.Predictions, 3)
			assert.Equal(t, "C", resp.Predictions[0].Token)
			assert.Equal(t, "A", resp.Predictions[1].Token)
			assert.Equal(t, "B", resp.Predictions[2].Token)
			assert.InDelta(t, 0.02, resp.Predictions[0].Return7d, 1e-12)

			assert.Equal(t, map[string]float64{"A": 0.53, "B": 0, "C": 0.47}, resp.NewAllocation)
			assert.Equal(t, redistribution.Balanced, resp.Strategy)
			assert.Equal(t, "close-weighted", resp.Model)
			assert.NotEmpty(t, resp.RunID)
		})
	}
}

func TestHandleRebalance_DefaultStrategy(t *testing.T) {
	r := setupRouter(testTable(), closeWeighted())

	w := do(t, r, http.MethodPost, "/rebalance", `{"allocation": {"A": 1, "C": 0}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RebalanceResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, redistribution.Balanced, resp.Strategy)
}

func TestHandleRebalance_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		model   prediction.Model
		body    string
		status  int
		message string
	}{
		{"malformed body", closeWeighted(), `{not json`, http.StatusBadRequest, "Invalid request body"},
		{"strategy not a string", closeWeighted(), `{"allocation": {"A": 1}, "strategy": 5}`, http.StatusBadRequest, "Invalid request body"},
		{"body not an object", closeWeighted(), `[1, 2]`, http.StatusBadRequest, "Invalid request body"},
		{"weight not a number", closeWeighted(), `{"allocation": {"A": "half"}}`, http.StatusBadRequest, "invalid allocation input"},
		{"missing allocation", closeWeighted(), `{"strategy": "Growth"}`, http.StatusBadRequest, "invalid allocation input"},
		{"empty allocation", closeWeighted(), `{"allocation": {}}`, http.StatusBadRequest, "invalid allocation input"},
		{"allocation not an object", closeWeighted(), `{"allocation": ["A"]}`, http.StatusBadRequest, "invalid allocation input"},
		{"duplicate token", closeWeighted(), `{"allocation": {"A": 0.5, "A": 0.5}}`, http.StatusBadRequest, "duplicate token in allocation: A"},
		{"invalid strategy", closeWeighted(), `{"allocation": {"A": 1}, "strategy": "YOLO"}`, http.StatusBadRequest, `invalid strategy: "YOLO"`},
		{"unknown token", closeWeighted(), `{"allocation": {"A": 0.5, "XYZ": 0.5}}`, http.StatusNotFound, "No features found for token: XYZ"},
		{"model unavailable", nil, `{"allocation": {"A": 1}}`, http.StatusServiceUnavailable, "return model not loaded"},
		{"model failure", prediction.NewLinearModel("short", 0, []float64{1}), `{"allocation": {"A": 1}}`, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(testTable(), tc.model)
			w := do(t, r, http.MethodPost, "/api/rebalance", tc.body)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.message, decodeError(t, w))
		})
	}
}

func TestHandleGetStrategies(t *testing.T) {
	r := setupRouter(testTable(), closeWeighted())

	for _, path := range []string{"/strategies", "/api/strategies"} {
		w := do(t, r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp StrategiesResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Strategies, 3)
		assert.Equal(t, redistribution.Preservation, resp.Strategies[0].Name)
		assert.Equal(t, redistribution.Balanced, resp.Default)
	}
}

func TestHandleFeatures_ReadOnly(t *testing.T) {
	r := setupRouter(features.DefaultTable(), closeWeighted())

	w := do(t, r, http.MethodGet, "/api/features", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Features []features.Vector `json:"features"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Equal(t, 3, list.Count)

	w = do(t, r, http.MethodGet, "/api/features/CAKE", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v features.Vector
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "CAKE", v.Token)

	w = do(t, r, http.MethodGet, "/api/features/DOGE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No features found for token: DOGE", decodeError(t, w))

	w = do(t, r, http.MethodPut, "/api/features/CAKE", `{"candles": []}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func risingCandles(n int) []features.Candle {
	candles := make([]features.Candle, n)
	for i := range candles {
		c := float64(i + 1)
		candles[i] = features.Candle{Open: c, High: c * 1.1, Low: c * 0.9, Close: c, Volume: 1000}
	}
	return candles
}

func TestHandleUpdateFeatures(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "features")
	defer cleanup()

	repo := features.NewRepository(db.Conn(), zerolog.Nop())
	r := setupRouter(repo, closeWeighted())

	body, err := json.Marshal(UpdateFeaturesRequest{Candles: risingCandles(40)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/features/ETH", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var v features.Vector
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, "ETH", v.Token)
	assert.Equal(t, 40.0, v.Close)

	// Stored features are now usable for rebalancing
	w = do(t, r, http.MethodPost, "/rebalance", `{"allocation": {"ETH": 1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp RebalanceResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, map[string]float64{"ETH": 1}, resp.NewAllocation)

	w = do(t, r, http.MethodPut, "/api/features/ETH", `{"candles": [{"open": 1, "high": 1, "low": 1, "close": 1, "volume": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/features/ETH", `{bad`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
