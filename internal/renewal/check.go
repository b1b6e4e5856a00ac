package renewal

import (
	"fmt"
	"math"
	"strings"
)

// Check statuses. "flag" means a human should look; "fail" means the
// rule is confident something is wrong.
const (
	CheckPass = "pass"
	CheckFlag = "flag"
	CheckFail = "fail"
)

type CheckFinding struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type CheckEngineResult struct {
	CarrierName    string         `json:"carrierName,omitempty"`
	LineOfBusiness string         `json:"lineOfBusiness,omitempty"`
	Findings       []CheckFinding `json:"findings"`
}

type CheckSummary struct {
	Total      int      `json:"total"`
	Passed     int      `json:"passed"`
	Flagged    int      `json:"flagged"`
	Failed     int      `json:"failed"`
	Highlights []string `json:"highlights,omitempty"`
}

// Carrier-specific tolerance for renewal premium jumps, in percent.
// Observed norms; anything above gets flagged even when the numeric
// diff alone stays under the critical threshold.
var carrierPremiumJumpPct = map[string]float64{
	"progressive": 12,
	"safeco":      10,
	"travelers":   10,
	"allstate":    14,
}

const defaultPremiumJumpPct = 15

// RunCheckEngine applies line-of-business and carrier heuristics over
// the snapshots and the numeric diff. It is advisory: callers wrap it
// in an error boundary and a nil result never blocks the comparison.
func RunCheckEngine(renewalSnap, baselineSnap *PolicySnapshot, result *ComparisonResult, lineOfBusiness, carrierName string) (*CheckEngineResult, error) {
	if renewalSnap == nil || baselineSnap == nil {
		return nil, fmt.Errorf("both snapshots are required")
	}
	if result == nil {
		return nil, fmt.Errorf("comparison result is required")
	}

	lob := NormalizeLOB(lineOfBusiness)
	if lob == "" {
		lob = NormalizeLOB(renewalSnap.LineOfBusiness)
	}
	carrier := strings.TrimSpace(carrierName)
	if carrier == "" {
		carrier = renewalSnap.CarrierName
	}

	out := &CheckEngineResult{
		CarrierName:    carrier,
		LineOfBusiness: lob,
		Findings:       []CheckFinding{},
	}

	out.Findings = append(out.Findings, checkRemovedEndorsements(renewalSnap, baselineSnap))
	out.Findings = append(out.Findings, checkLapsedDiscounts(renewalSnap, baselineSnap))
	out.Findings = append(out.Findings, checkPremiumJump(result, carrier))
	out.Findings = append(out.Findings, checkCoverageGaps(result))
	out.Findings = append(out.Findings, checkTermLength(renewalSnap, baselineSnap))
	if lob == LOBAuto {
		out.Findings = append(out.Findings, checkLiabilityLimits(renewalSnap, baselineSnap))
	}
	if lob == LOBProperty {
		out.Findings = append(out.Findings, checkDwellingInflation(renewalSnap, baselineSnap))
	}

	return out, nil
}

func BuildCheckSummary(res *CheckEngineResult) *CheckSummary {
	if res == nil {
		return nil
	}
	summary := &CheckSummary{Total: len(res.Findings)}
	for _, f := range res.Findings {
		switch f.Status {
		case CheckPass:
			summary.Passed++
		case CheckFlag:
			summary.Flagged++
			summary.Highlights = append(summary.Highlights, f.Description)
		case CheckFail:
			summary.Failed++
			summary.Highlights = append(summary.Highlights, f.Description)
		}
	}
	return summary
}

func checkRemovedEndorsements(renewalSnap, baselineSnap *PolicySnapshot) CheckFinding {
	_, removed := stringSetDiff(baselineSnap.Endorsements, renewalSnap.Endorsements)
	if len(removed) == 0 {
		return CheckFinding{Name: "removed_endorsements", Status: CheckPass,
			Description: "All baseline endorsements carried into the renewal term."}
	}
	return CheckFinding{Name: "removed_endorsements", Status: CheckFail,
		Description: fmt.Sprintf("Endorsements dropped at renewal: %s.", strings.Join(removed, ", "))}
}

func checkLapsedDiscounts(renewalSnap, baselineSnap *PolicySnapshot) CheckFinding {
	_, lapsed := stringSetDiff(baselineSnap.Discounts, renewalSnap.Discounts)
	if len(lapsed) == 0 {
		return CheckFinding{Name: "lapsed_discounts", Status: CheckPass,
			Description: "No discounts lapsed between terms."}
	}
	return CheckFinding{Name: "lapsed_discounts", Status: CheckFlag,
		Description: fmt.Sprintf("Discounts present on the expiring term but missing at renewal: %s.", strings.Join(lapsed, ", "))}
}

func checkPremiumJump(result *ComparisonResult, carrier string) CheckFinding {
	if result.PremiumChangePct == nil {
		return CheckFinding{Name: "premium_jump", Status: CheckPass,
			Description: "Total premium unchanged or not comparable."}
	}
	tolerance := defaultPremiumJumpPct * 1.0
	if v, ok := carrierPremiumJumpPct[strings.ToLower(strings.TrimSpace(carrier))]; ok {
		tolerance = v
	}
	pct := *result.PremiumChangePct
	if pct > tolerance {
		return CheckFinding{Name: "premium_jump", Status: CheckFlag,
			Description: fmt.Sprintf("Premium up %.2f%%, above the %.0f%% norm for this carrier.", pct, tolerance)}
	}
	return CheckFinding{Name: "premium_jump", Status: CheckPass,
		Description: fmt.Sprintf("Premium change %.2f%% within carrier norm.", pct)}
}

func checkCoverageGaps(result *ComparisonResult) CheckFinding {
	var gone []string
	for _, d := range result.Diffs {
		if d.Category == DiffRemoved && strings.HasPrefix(d.Field, "coverages.") {
			gone = append(gone, strings.TrimPrefix(d.Field, "coverages."))
		}
	}
	if len(gone) == 0 {
		return CheckFinding{Name: "coverage_gap", Status: CheckPass,
			Description: "No coverages removed at renewal."}
	}
	return CheckFinding{Name: "coverage_gap", Status: CheckFail,
		Description: fmt.Sprintf("Coverages missing from the renewal term: %s.", strings.Join(gone, ", "))}
}

func checkTermLength(renewalSnap, baselineSnap *PolicySnapshot) CheckFinding {
	oldDays := termDays(baselineSnap)
	newDays := termDays(renewalSnap)
	if oldDays == 0 || newDays == 0 {
		return CheckFinding{Name: "term_length", Status: CheckPass,
			Description: "Term length not comparable across terms."}
	}
	// Carriers shift exact day counts with leap years and month lengths;
	// only a shift of more than two weeks is a real term change.
	if math.Abs(float64(newDays-oldDays)) > 14 {
		return CheckFinding{Name: "term_length", Status: CheckFlag,
			Description: fmt.Sprintf("Term length changed from %d to %d days at renewal.", oldDays, newDays)}
	}
	return CheckFinding{Name: "term_length", Status: CheckPass,
		Description: "Term length unchanged."}
}

func termDays(s *PolicySnapshot) int {
	if s.EffectiveDate == nil || s.ExpirationDate == nil {
		return 0
	}
	d := int(s.ExpirationDate.Sub(*s.EffectiveDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func checkLiabilityLimits(renewalSnap, baselineSnap *PolicySnapshot) CheckFinding {
	oldLimit := liabilityLimit(baselineSnap)
	newLimit := liabilityLimit(renewalSnap)
	if oldLimit == nil || newLimit == nil {
		return CheckFinding{Name: "liability_limit", Status: CheckPass,
			Description: "Liability limit not comparable across terms."}
	}
	if *newLimit < *oldLimit {
		return CheckFinding{Name: "liability_limit", Status: CheckFail,
			Description: fmt.Sprintf("Bodily-injury liability limit dropped from %.0f to %.0f.", *oldLimit, *newLimit)}
	}
	return CheckFinding{Name: "liability_limit", Status: CheckPass,
		Description: "Liability limit held or increased."}
}

func liabilityLimit(s *PolicySnapshot) *float64 {
	for _, c := range s.Coverages {
		t := strings.ToLower(c.Type)
		if strings.Contains(t, "liability") || strings.Contains(t, "bodily") {
			return c.Limit
		}
	}
	return nil
}

func checkDwellingInflation(renewalSnap, baselineSnap *PolicySnapshot) CheckFinding {
	var oldTotal, newTotal float64
	var comparable bool
	for _, p := range baselineSnap.Properties {
		if p.DwellingLimit != nil {
			oldTotal += *p.DwellingLimit
			comparable = true
		}
	}
	for _, p := range renewalSnap.Properties {
		if p.DwellingLimit != nil {
			newTotal += *p.DwellingLimit
		}
	}
	if !comparable || oldTotal == 0 {
		return CheckFinding{Name: "dwelling_inflation_guard", Status: CheckPass,
			Description: "Dwelling limits not comparable across terms."}
	}
	if newTotal < oldTotal || math.Abs(newTotal-oldTotal) < 0.01 {
		return CheckFinding{Name: "dwelling_inflation_guard", Status: CheckFlag,
			Description: "Dwelling limit did not increase at renewal; verify inflation guard applied."}
	}
	return CheckFinding{Name: "dwelling_inflation_guard", Status: CheckPass,
		Description: "Dwelling limit increased with the renewal term."}
}
