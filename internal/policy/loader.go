package policy

import (
	"fmt"
	"os"

	"github.com/davidahmann/tradedesk/internal/crypto"
	"gopkg.in/yaml.v3"
)

type LoadedPolicy struct {
	Policy Policy
	Hash   string
	Bytes  []byte
}

// LoadPolicy loads a YAML policy and computes its hash from raw bytes.
func LoadPolicy(path string) (LoadedPolicy, error) {
	// #nosec G304 -- path comes from operator-configured policy path.
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadedPolicy{}, err
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes, defaults and validates policy bytes. Threshold keys
// the file leaves out keep their default; keys it sets win, zero included.
func ParsePolicy(data []byte) (LoadedPolicy, error) {
	p := Policy{Thresholds: defaultThresholds()}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return LoadedPolicy{}, err
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return LoadedPolicy{}, err
	}

	return LoadedPolicy{
		Policy: p,
		Hash:   crypto.DigestWithPrefix(data),
		Bytes:  data,
	}, nil
}

// DefaultLoaded wraps Default with a hash over its YAML encoding.
func DefaultLoaded() LoadedPolicy {
	p := Default()
	data, err := yaml.Marshal(p)
	if err != nil {
		return LoadedPolicy{Policy: p}
	}
	return LoadedPolicy{Policy: p, Hash: crypto.DigestWithPrefix(data), Bytes: data}
}

const maxWeight = 999

func (p Policy) Validate() error {
	if p.PolicyID == "" {
		return fmt.Errorf("policy_id is required")
	}

	ramps := []struct {
		name string
		ramp Ramp
	}{
		{"thesis_stale", p.Thresholds.ThesisStale},
		{"idea_unsimulated", p.Thresholds.IdeaUnsimulated},
		{"proposal_awaiting", p.Thresholds.ProposalAwaiting},
		{"proposal_stalled", p.Thresholds.ProposalStalled},
		{"execution_pending", p.Thresholds.ExecutionPending},
		{"rating_followup", p.Thresholds.RatingFollowUp},
	}
	for _, r := range ramps {
		if r.ramp.WarnDays < 0 {
			return fmt.Errorf("thresholds.%s.warn_days must be >= 0", r.name)
		}
		if r.ramp.CriticalDays < r.ramp.WarnDays {
			return fmt.Errorf("thresholds.%s.critical_days must be >= warn_days", r.name)
		}
	}

	for _, table := range []struct {
		name    string
		weights map[string]int64
	}{
		{"tiers", p.Weights.Tiers},
		{"severities", p.Weights.Severities},
		{"category_age", p.Weights.CategoryAge},
	} {
		for k, v := range table.weights {
			if v < 0 || v > maxWeight {
				return fmt.Errorf("weights.%s.%s must be between 0 and %d", table.name, k, maxWeight)
			}
		}
	}
	if p.Weights.AgeCapDays < 0 {
		return fmt.Errorf("weights.age_cap_days must be >= 0")
	}

	seen := map[string]bool{}
	for i, r := range p.Rollups {
		if r.TitleKey == "" {
			return fmt.Errorf("rollups[%d].title_key is required", i)
		}
		if seen[r.TitleKey] {
			return fmt.Errorf("rollups[%d].title_key %q is duplicated", i, r.TitleKey)
		}
		seen[r.TitleKey] = true
		if r.MinCount < 2 {
			return fmt.Errorf("rollups[%d].min_count must be >= 2", i)
		}
		if r.BonusPerItem < 0 {
			return fmt.Errorf("rollups[%d].bonus_per_item must be >= 0", i)
		}
	}
	return nil
}
