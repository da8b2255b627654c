package engine

import (
	"time"

	"github.com/davidahmann/tradedesk/pkg/types"
	"go.uber.org/zap"
)

const (
	StageDedup    = "dedup"
	StageSuppress = "suppress"
	StageDismiss  = "dismiss"
	StageScore    = "score"
	StageSplit    = "split"
	StageRollup   = "rollup"
	StageSort     = "sort"
)

// State flows through the pipeline. Items holds candidates until the split
// stage moves them onto Action and Intel.
type State struct {
	Now        time.Time
	Dismissals []types.Dismissal
	Items      []types.DecisionItem
	Action     []types.DecisionItem
	Intel      []types.DecisionItem
}

func (s State) size() int {
	return len(s.Items) + len(s.Action) + len(s.Intel)
}

type Stage struct {
	Name  string
	Apply func(State) State
}

// Observer receives the item count before and after each stage.
type Observer interface {
	ObserveStage(stage string, before, after int)
}

type Result struct {
	ActionItems []types.DecisionItem `json:"action_items"`
	IntelItems  []types.DecisionItem `json:"intel_items"`
}

type Pipeline struct {
	Weights     Weights
	Suppression []SuppressionRule
	Rollups     []RollupRule
	Observer    Observer
	Logger      *zap.Logger
}

// DefaultPipeline uses the built-in weights and rules.
func DefaultPipeline() *Pipeline {
	return &Pipeline{
		Weights:     DefaultWeights(),
		Suppression: DefaultSuppressionRules(),
		Rollups:     DefaultRollupRules(),
	}
}

// Stages returns the post-processing steps in execution order.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Name: StageDedup, Apply: func(s State) State {
			s.Items = Dedup(s.Items)
			return s
		}},
		{Name: StageSuppress, Apply: func(s State) State {
			s.Items = Suppress(s.Items, p.Suppression)
			return s
		}},
		{Name: StageDismiss, Apply: func(s State) State {
			s.Items = FilterDismissed(s.Items, s.Dismissals, s.Now)
			return s
		}},
		{Name: StageScore, Apply: func(s State) State {
			s.Items = p.Weights.ScoreAll(s.Items, s.Now)
			return s
		}},
		{Name: StageSplit, Apply: func(s State) State {
			s.Action, s.Intel = Split(s.Items)
			s.Items = nil
			return s
		}},
		{Name: StageRollup, Apply: func(s State) State {
			s.Action = Rollup(s.Action, p.Rollups, p.Weights, s.Now)
			return s
		}},
		{Name: StageSort, Apply: func(s State) State {
			p.Weights.Sort(s.Action)
			p.Weights.Sort(s.Intel)
			return s
		}},
	}
}

// Run post-processes candidate items. The caller's slice is not modified.
func (p *Pipeline) Run(items []types.DecisionItem, dismissals []types.Dismissal, now time.Time) Result {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	state := State{
		Now:        now,
		Dismissals: dismissals,
		Items:      append([]types.DecisionItem(nil), items...),
	}
	for _, stage := range p.Stages() {
		before := state.size()
		state = stage.Apply(state)
		after := state.size()
		logger.Debug("pipeline stage",
			zap.String("stage", stage.Name),
			zap.Int("before", before),
			zap.Int("after", after),
		)
		if p.Observer != nil {
			p.Observer.ObserveStage(stage.Name, before, after)
		}
	}

	return Result{
		ActionItems: nonNil(state.Action),
		IntelItems:  nonNil(state.Intel),
	}
}

// Split partitions items by surface. Items with an unknown surface go to action.
func Split(items []types.DecisionItem) (action, intel []types.DecisionItem) {
	for _, item := range items {
		if item.Surface == types.SurfaceIntel {
			intel = append(intel, item)
			continue
		}
		action = append(action, item)
	}
	return action, intel
}

func nonNil(items []types.DecisionItem) []types.DecisionItem {
	if items == nil {
		return []types.DecisionItem{}
	}
	return items
}
