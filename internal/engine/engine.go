// Package engine turns a workflow snapshot into ranked action and intel items.
//
// Evaluation is two phases: the evaluator registry produces candidate items,
// then the pipeline deduplicates, suppresses, filters dismissals, scores,
// splits by surface, rolls up and sorts them. Both phases are pure functions of
// the snapshot and the supplied clock.
package engine

import (
	"fmt"
	"time"

	"github.com/davidahmann/tradedesk/internal/evaluator"
	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/pkg/types"
	"go.uber.org/zap"
)

type Engine struct {
	Registry evaluator.Registry
	Pipeline *Pipeline
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.Pipeline.Logger = logger
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.Pipeline.Observer = o
	}
}

func WithSuppressionRules(rules []SuppressionRule) Option {
	return func(e *Engine) {
		e.Pipeline.Suppression = rules
	}
}

func WithRollupRules(rules []RollupRule) Option {
	return func(e *Engine) {
		e.Pipeline.Rollups = rules
	}
}

// New builds an engine from a loaded policy.
func New(p policy.Policy, opts ...Option) (*Engine, error) {
	e := &Engine{
		Registry: evaluator.DefaultRegistry(p.Thresholds),
		Pipeline: &Pipeline{
			Weights:     WeightsFromPolicy(p.Weights),
			Suppression: DefaultSuppressionRules(),
			Rollups:     RollupRulesFromPolicy(p.Rollups),
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := ValidateRules(e.Pipeline.Suppression); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}

// Evaluate runs every evaluator and post-processes their output.
func (e *Engine) Evaluate(snapshot types.Snapshot, now time.Time) Result {
	candidates := e.Registry.Run(snapshot, now)
	return e.Pipeline.Run(candidates, snapshot.Dismissals, now)
}
