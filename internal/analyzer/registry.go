// Package analyzer implements the per-format content analyzers.
//
// Each analyzer consumes classified content and produces a structured
// finding plus a suggested action hint. Analyzers are total over their
// inputs: a malformed payload or an absent field becomes an anomaly or
// an empty extraction, never an error. Dispatch is by detected format;
// adding a format means registering a new implementation, the
// orchestrator does not change.
package analyzer

import (
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// Registry builds the format -> analyzer lookup used by the orchestrator.
func Registry(analyzers ...service.Analyzer) map[model.Format]service.Analyzer {
	registry := make(map[model.Format]service.Analyzer, len(analyzers))
	for _, a := range analyzers {
		registry[a.Kind()] = a
	}
	return registry
}
