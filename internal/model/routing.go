package model

// Destination is the outcome of routing a free-text query.
type Destination string

const (
	DestCompensation Destination = "compensation"
	DestPolicy       Destination = "policy"
	DestBoth         Destination = "both"
	DestFallback     Destination = "fallback"
)

// RoutingMethod records which routing layer produced a decision.
type RoutingMethod string

const (
	MethodDirectPhrase  RoutingMethod = "direct_phrase"
	MethodKeyword       RoutingMethod = "keyword"
	MethodOracle        RoutingMethod = "oracle"
	MethodErrorFallback RoutingMethod = "error_fallback"
)

// RoutingDecision is the router's answer for one query. It is computed fresh
// per query and never persisted.
type RoutingDecision struct {
	Destination Destination   `json:"destination"`
	Method      RoutingMethod `json:"method"`
	// Score carries the winning keyword score when Method is keyword,
	// zero otherwise.
	Score int `json:"score,omitempty"`
}

// Domain returns the collection domain a single-domain destination maps to.
// Returns ("", false) for both and fallback.
func (d Destination) Domain() (Domain, bool) {
	switch d {
	case DestCompensation:
		return DomainCompensation, true
	case DestPolicy:
		return DomainPolicy, true
	default:
		return "", false
	}
}
