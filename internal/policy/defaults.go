package policy

import "github.com/davidahmann/tradedesk/pkg/types"

const (
	DefaultPolicyID      = "tradedesk-default"
	DefaultPolicyVersion = "2026-10-01"
)

// Default returns the built-in decision policy.
func Default() Policy {
	return Policy{
		PolicyID:      DefaultPolicyID,
		PolicyVersion: DefaultPolicyVersion,
		Thresholds:    defaultThresholds(),
		Weights:       defaultWeights(),
		Rollups: []RollupSetting{
			{TitleKey: types.TitleIdeaNotSimulated, MinCount: 3, BonusPerItem: 10, Label: "ideas waiting for simulation"},
			{TitleKey: types.TitleProposalAwaiting, MinCount: 4, BonusPerItem: 10, Breakdown: true, Label: "proposals awaiting decision"},
			{TitleKey: types.TitleThesisStale, MinCount: 5, BonusPerItem: 5, Label: "stale theses"},
			{TitleKey: types.TitleRatingFollowUp, MinCount: 5, BonusPerItem: 5, Label: "rating changes without thesis follow-up"},
		},
	}
}

func defaultThresholds() Thresholds {
	return Thresholds{
		ThesisStale:      Ramp{WarnDays: 90, CriticalDays: 180},
		IdeaUnsimulated:  Ramp{WarnDays: 3, CriticalDays: 14},
		ProposalAwaiting: Ramp{WarnDays: 0, CriticalDays: 3},
		ProposalStalled:  Ramp{WarnDays: 7, CriticalDays: 14},
		ExecutionPending: Ramp{WarnDays: 0, CriticalDays: 2},
		RatingFollowUp:   Ramp{WarnDays: 3, CriticalDays: 10},
	}
}

func defaultWeights() Weights {
	return Weights{
		Tiers: map[string]int64{
			string(types.TierCapital):  3,
			string(types.TierProcess):  2,
			string(types.TierCoverage): 1,
		},
		Severities: map[string]int64{
			string(types.SeverityRed):    3,
			string(types.SeverityOrange): 2,
			string(types.SeverityGray):   1,
		},
		CategoryAge: map[string]int64{
			"capital":  20,
			"process":  10,
			"research": 5,
			"coverage": 1,
		},
		AgeCapDays: 365,
	}
}

// applyDefaults fills weights a policy file leaves out.
func applyDefaults(p *Policy) {
	w := defaultWeights()
	p.Weights.Tiers = mergeWeights(p.Weights.Tiers, w.Tiers)
	p.Weights.Severities = mergeWeights(p.Weights.Severities, w.Severities)
	p.Weights.CategoryAge = mergeWeights(p.Weights.CategoryAge, w.CategoryAge)
	if p.Weights.AgeCapDays == 0 {
		p.Weights.AgeCapDays = w.AgeCapDays
	}
}

func mergeWeights(dst, def map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(def)+len(dst))
	for k, v := range def {
		out[k] = v
	}
	for k, v := range dst {
		out[k] = v
	}
	return out
}
