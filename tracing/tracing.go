// Package tracing emits per-step run records to an observability backend.
// Emission is best-effort: a sink that is down must never fail or delay the
// workflow that calls it.
package tracing

// Run types mirror the categories the backend understands.
const (
	RunTypeChain     = "chain"
	RunTypeLLM       = "llm"
	RunTypeRetriever = "retriever"
	RunTypeTool      = "tool"
)

// Tracer records the start and end of one logical unit of work.
//
// StartRun returns an opaque run ID, or "" when the sink is disabled or the
// record could not be sent; EndRun ignores "" run IDs. parentRunID may be ""
// for top-level runs. Neither call returns an error by contract.
type Tracer interface {
	StartRun(runType, name string, inputs map[string]any, parentRunID string) string
	EndRun(runID string, outputs map[string]any, err error)
}

// Noop discards all trace records.
type Noop struct{}

func (Noop) StartRun(runType, name string, inputs map[string]any, parentRunID string) string {
	return ""
}

func (Noop) EndRun(runID string, outputs map[string]any, err error) {}

var _ Tracer = Noop{}
