package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanhq/gatewayrouter/pkg/gateway"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(gateway.Default(), nil, nil)
}

func TestRoute_HappyPath(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(routeRequest{Task: string(types.TaskChat), InputTokens: 200})
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Route(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var decision types.RoutingDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.NotEmpty(t, decision.ModelID)
}

func TestRoute_UnknownTaskReturns422(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(routeRequest{Task: "not-a-real-task", InputTokens: 200})
	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Route(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTokenize_TextPayload(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(tokenizeRequest{ModelID: "cloud-openai:gpt-4o", Text: "hello world"})
	req := httptest.NewRequest(http.MethodPost, "/v1/tokenize", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.Tokenize(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var count types.TokenCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &count))
	assert.Greater(t, count.InputTokens, 0)
	assert.Equal(t, types.MethodOpenAIBPE, count.Method)
}

func TestEstimateCost(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(costEstimateRequest{ModelID: "cloud-openai:gpt-4o", InputTokens: 1000, OutputTokens: 500})
	req := httptest.NewRequest(http.MethodPost, "/v1/cost/estimate", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.EstimateCost(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var estimate types.CostEstimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &estimate))
	assert.Greater(t, estimate.TotalCost, 0.0)
}

func TestBudgetSummary(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/budget/summary", nil)
	w := httptest.NewRecorder()

	h.BudgetSummary(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRecordLatency(t *testing.T) {
	h := newTestHandler(t)

	body, _ := json.Marshal(latencyRequest{ModelID: "local-mlx:llama-3.2-8b", ObservedMS: 42})
	req := httptest.NewRequest(http.MethodPost, "/v1/latency", bytes.NewReader(body))
	w := httptest.NewRecorder()

	h.RecordLatency(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	h := newTestHandler(t)
	h.maxBodySize = 4

	req := httptest.NewRequest(http.MethodPost, "/v1/route", bytes.NewReader([]byte(`{"task":"chat"}`)))
	w := httptest.NewRecorder()

	var dst routeRequest
	ok := h.decodeJSON(w, req, &dst)
	assert.False(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
