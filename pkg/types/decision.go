package types

// RoutingDecision is the smart router's output: the chosen model, the
// reasoning behind the choice, and the projected cost/latency. It is
// returned to the caller and doubles as the audit record for the request.
type RoutingDecision struct {
	ModelID             string          `json:"model_key"`
	Model               ModelCapability `json:"-"`
	Reason              string          `json:"reason"`
	EstimatedCost       float64         `json:"estimated_cost"`
	EstimatedLatencyMS  int             `json:"estimated_latency_ms"`

	// RequestID identifies this decision in the audit trail. Populated by
	// the router with a fresh UUID per call.
	RequestID string `json:"request_id,omitempty"`

	// Fallback is true when no candidate survived filtering and the
	// configured fallback model was returned instead.
	Fallback bool `json:"fallback"`
}
