// Package enrichment implements the Enrichment Orchestrator (§4.4): a
// bounded, parallel fan-out over provider roles within a hard deadline,
// assembling a partial-result-tolerant EnrichmentBundle.
package enrichment

import "context"

// Provider is the uniform interface every enrichment source implements,
// per §4.4's { name, fetch(address, ctx) → fragment } contract.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, address string) (interface{}, error)
}

// Classified is the internal result of one provider's fetch, before
// assembly into the bundle.
type Classified struct {
	Provider  string
	Fragment  interface{}
	LatencyMs int64
	Err       error
	Reason    string // one of the FailureReason values, set iff Err != nil
}
