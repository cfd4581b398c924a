// Package api provides HTTP handlers exposing the gateway router's
// caller-facing operations: route, tokenize, cost estimation, budget
// summary, and latency feedback (SPEC_FULL.md §6).
package api

import (
	"io"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/trace"

	"github.com/normanhq/gatewayrouter/internal/observability"
	"github.com/normanhq/gatewayrouter/internal/router"
	"github.com/normanhq/gatewayrouter/pkg/gateway"
	"github.com/normanhq/gatewayrouter/pkg/gwerrors"
	"github.com/normanhq/gatewayrouter/pkg/types"
)

// DefaultMaxBodySize bounds request bodies accepted by this API; routing
// requests carry no file uploads, so 1MB comfortably covers even large
// flattened conversations.
const DefaultMaxBodySize = 1024 * 1024

// Handler serves the gateway router's HTTP API over a single *gateway.Gateway.
// Logging goes through observability.Logger so that request-path log output
// gets the same secret/PII redaction as the rest of the service, and every
// POST /v1/route call is wrapped in a tracing span.
type Handler struct {
	gw          *gateway.Gateway
	logger      *observability.Logger
	tracer      trace.Tracer
	maxBodySize int64
}

// NewHandler creates a Handler. A nil logger builds a default JSON logger
// with redaction enabled; a nil tracer falls back to the disabled (no-op)
// tracer from observability.InitTracing.
func NewHandler(gw *gateway.Gateway, logger *observability.Logger, tracer trace.Tracer) *Handler {
	if logger == nil {
		logger = observability.NewLogger(observability.LoggerConfig{
			Level:      slog.LevelInfo,
			JSONFormat: true,
		}, observability.NewRedactor())
	}
	if tracer == nil {
		tracer = observability.InitTracing(observability.TracingConfig{Enabled: false}).Tracer()
	}
	return &Handler{gw: gw, logger: logger, tracer: tracer, maxBodySize: DefaultMaxBodySize}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	limited := io.LimitReader(r.Body, h.maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if int64(len(body)) > h.maxBodySize {
		h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.RedactedError("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeRouterError maps a *gwerrors.RouterError to an HTTP status per
// spec.md §7: UnknownTask and ContextOverflow are request-level failures
// (422); NoFallback and InvalidCapability indicate a broken deployment
// (500), since both are meant to be caught at construction time.
func (h *Handler) writeRouterError(w http.ResponseWriter, err error) {
	rerr, ok := err.(*gwerrors.RouterError)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch rerr.Kind {
	case gwerrors.KindUnknownTask, gwerrors.KindContextOverflow:
		h.writeError(w, http.StatusUnprocessableEntity, rerr.Error())
	default:
		h.logger.RedactedError("router misconfiguration", "kind", rerr.Kind, "error", rerr.Error())
		h.writeError(w, http.StatusInternalServerError, rerr.Error())
	}
}

// routeRequest is the wire shape of POST /v1/route.
type routeRequest struct {
	Task                 string   `json:"task"`
	InputTokens          int      `json:"input_tokens"`
	ExpectedOutputTokens int      `json:"expected_output_tokens,omitempty"`
	RequireLocal         bool     `json:"require_local,omitempty"`
	RequireQuality       *float64 `json:"require_quality,omitempty"`
	MaxCost              *float64 `json:"max_cost,omitempty"`
}

// Route handles POST /v1/route.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	_, span := observability.StartRouteSpan(r.Context(), h.tracer, req.Task, req.InputTokens)
	defer span.End()

	decision, err := h.gw.Route(types.TaskKind(req.Task), req.InputTokens, router.RouteOptions{
		ExpectedOutputTokens: req.ExpectedOutputTokens,
		RequireLocal:         req.RequireLocal,
		RequireQuality:       req.RequireQuality,
		MaxCost:              req.MaxCost,
	})
	if err != nil {
		observability.RecordError(span, err)
		h.writeRouterError(w, err)
		return
	}

	observability.RecordDecision(span, decision.ModelID, decision.EstimatedCost, decision.Fallback)
	h.writeJSON(w, http.StatusOK, decision)
}

// tokenizeRequest is the wire shape of POST /v1/tokenize.
type tokenizeRequest struct {
	ModelID      string                   `json:"model_id"`
	Text         string                   `json:"text,omitempty"`
	Conversation []types.ConversationTurn `json:"conversation,omitempty"`
}

// Tokenize handles POST /v1/tokenize.
func (h *Handler) Tokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var payload types.Payload
	if len(req.Conversation) > 0 {
		payload = types.NewConversationPayload(req.Conversation)
	} else {
		payload = types.NewTextPayload(req.Text)
	}

	count := h.gw.CountTokens(payload, req.ModelID)
	h.writeJSON(w, http.StatusOK, count)
}

// costEstimateRequest is the wire shape of POST /v1/cost/estimate.
type costEstimateRequest struct {
	ModelID      string `json:"model_id"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// EstimateCost handles POST /v1/cost/estimate.
func (h *Handler) EstimateCost(w http.ResponseWriter, r *http.Request) {
	var req costEstimateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	estimate := h.gw.EstimateCost(req.ModelID, req.InputTokens, req.OutputTokens)
	h.writeJSON(w, http.StatusOK, estimate)
}

// BudgetSummary handles GET /v1/budget/summary.
func (h *Handler) BudgetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.gw.Summary())
}

// latencyRequest is the wire shape of POST /v1/latency.
type latencyRequest struct {
	ModelID    string  `json:"model_id"`
	ObservedMS float64 `json:"observed_ms"`
}

// RecordLatency handles POST /v1/latency.
func (h *Handler) RecordLatency(w http.ResponseWriter, r *http.Request) {
	var req latencyRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	h.gw.RecordLatency(req.ModelID, req.ObservedMS)
	w.WriteHeader(http.StatusNoContent)
}
