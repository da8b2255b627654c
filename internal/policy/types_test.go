package policy

import (
	"testing"

	"github.com/davidahmann/tradedesk/pkg/types"
)

func TestRampClassify(t *testing.T) {
	r := Ramp{WarnDays: 90, CriticalDays: 180}

	cases := []struct {
		days int
		want types.Severity
		ok   bool
	}{
		{days: 0, ok: false},
		{days: 89, ok: false},
		{days: 90, want: types.SeverityOrange, ok: true},
		{days: 179, want: types.SeverityOrange, ok: true},
		{days: 180, want: types.SeverityRed, ok: true},
		{days: 1000, want: types.SeverityRed, ok: true},
	}
	for _, tc := range cases {
		got, ok := r.Classify(tc.days)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("days=%d: expected (%q, %v), got (%q, %v)", tc.days, tc.want, tc.ok, got, ok)
		}
	}
}

func TestRampClassifyZeroWarn(t *testing.T) {
	r := Ramp{WarnDays: 0, CriticalDays: 3}
	if sev, ok := r.Classify(0); !ok || sev != types.SeverityOrange {
		t.Fatalf("expected orange at day 0, got %q %v", sev, ok)
	}
	if sev, ok := r.Classify(3); !ok || sev != types.SeverityRed {
		t.Fatalf("expected red at day 3, got %q %v", sev, ok)
	}
}
