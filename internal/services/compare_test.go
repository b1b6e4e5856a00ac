package services

import (
	"errors"
	"testing"

	"github.com/tcdsagency/renewals-backend/internal/renewal"
	"github.com/tcdsagency/renewals-backend/internal/repos/testutil"
)

func premium(v float64) *float64 { return &v }

func TestComparisonServiceRun(t *testing.T) {
	svc := NewComparisonService(testutil.Logger(t))

	baseline := &renewal.PolicySnapshot{PolicyNumber: "AUTO-100", TotalPremium: premium(1000)}
	ren := &renewal.PolicySnapshot{PolicyNumber: "AUTO-100", TotalPremium: premium(1300)}

	result, checkRes, summary, err := svc.Run(ren, baseline, nil, nil, "auto", "Progressive")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result == nil || result.CriticalCount != 1 {
		t.Fatalf("30%% premium jump should be critical: %+v", result)
	}
	if checkRes == nil || summary == nil {
		t.Fatalf("check engine should run alongside the comparison")
	}
	if summary.Total != len(checkRes.Findings) {
		t.Fatalf("summary totals should track findings: %d vs %d", summary.Total, len(checkRes.Findings))
	}
}

func TestComparisonServiceCheckFailureNonBlocking(t *testing.T) {
	baseline := &renewal.PolicySnapshot{PolicyNumber: "AUTO-100", TotalPremium: premium(1000)}
	ren := &renewal.PolicySnapshot{PolicyNumber: "AUTO-100", TotalPremium: premium(1300)}

	cases := map[string]checkFunc{
		"panics": func(_, _ *renewal.PolicySnapshot, _ *renewal.ComparisonResult, _, _ string) (*renewal.CheckEngineResult, error) {
			panic("rule table corrupt")
		},
		"errors": func(_, _ *renewal.PolicySnapshot, _ *renewal.ComparisonResult, _, _ string) (*renewal.CheckEngineResult, error) {
			return nil, errors.New("rule evaluation failed")
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewComparisonService(testutil.Logger(t)).(*comparisonService)
			svc.runCheck = fn

			result, checkRes, summary, err := svc.Run(ren, baseline, nil, nil, "auto", "Progressive")
			if err != nil {
				t.Fatalf("check failure must not fail the run: %v", err)
			}
			if result == nil {
				t.Fatalf("comparison result must survive a check failure")
			}
			if checkRes != nil || summary != nil {
				t.Fatalf("check outputs should be nil, got %+v %+v", checkRes, summary)
			}
		})
	}
}

func TestComparisonServiceCompareErrorSurfaces(t *testing.T) {
	svc := NewComparisonService(testutil.Logger(t))
	if _, _, _, err := svc.Run(nil, &renewal.PolicySnapshot{}, nil, nil, "", ""); err == nil {
		t.Fatalf("nil renewal snapshot must fail the run")
	}
}
