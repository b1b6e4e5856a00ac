package renewal

import (
	"encoding/json"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return &d
}

func autoSnapshots(t *testing.T) (*PolicySnapshot, *PolicySnapshot) {
	t.Helper()
	baseline := &PolicySnapshot{
		PolicyNumber:   "AUTO-100",
		CarrierName:    "Progressive",
		LineOfBusiness: "Personal Auto",
		EffectiveDate:  date(t, "2025-01-01"),
		ExpirationDate: date(t, "2025-07-01"),
		TotalPremium:   f64(1000),
		NamedInsureds:  []string{"Pat Doe"},
		Coverages: []Coverage{
			{Type: "bodily_injury_liability", Limit: f64(100000), Premium: f64(400)},
			{Type: "collision", Limit: f64(50000), Deductible: f64(500), Premium: f64(300)},
			{Type: "rental", Limit: f64(1200), Premium: f64(50)},
		},
		Vehicles: []Vehicle{
			{VIN: "1HGCM82633A004352", Year: 2019, Make: "Honda", Model: "Accord"},
		},
	}
	ren := &PolicySnapshot{
		PolicyNumber:   "AUTO-100",
		CarrierName:    "Progressive",
		LineOfBusiness: "Personal Auto",
		EffectiveDate:  date(t, "2025-07-01"),
		ExpirationDate: date(t, "2026-01-01"),
		TotalPremium:   f64(1100),
		NamedInsureds:  []string{"Pat Doe"},
		Coverages: []Coverage{
			{Type: "bodily_injury_liability", Limit: f64(100000), Premium: f64(440)},
			{Type: "collision", Limit: f64(50000), Deductible: f64(1000), Premium: f64(330)},
		},
		Vehicles: []Vehicle{
			{VIN: "1HGCM82633A004352", Year: 2019, Make: "Honda", Model: "Accord"},
		},
	}
	return ren, baseline
}

func TestCompareRequiresBothSnapshots(t *testing.T) {
	if _, err := Compare(nil, &PolicySnapshot{}, nil, nil, ""); err == nil {
		t.Fatalf("expected error for nil renewal snapshot")
	}
	if _, err := Compare(&PolicySnapshot{}, nil, nil, nil, ""); err == nil {
		t.Fatalf("expected error for nil baseline snapshot")
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	ren, baseline := autoSnapshots(t)

	first, err := Compare(ren, baseline, nil, nil, "auto")
	if err != nil {
		t.Fatalf("first compare: %v", err)
	}
	second, err := Compare(ren, baseline, nil, nil, "auto")
	if err != nil {
		t.Fatalf("second compare: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("results differ across runs:\n%s\n%s", a, b)
	}
}

func TestComparePremiumMateriality(t *testing.T) {
	cases := []struct {
		name     string
		old, new float64
		want     string
	}{
		{"below threshold", 1000, 1020, MaterialityInfo},
		{"at material threshold", 1000, 1050, MaterialityMaterial},
		{"decrease counts too", 1000, 900, MaterialityMaterial},
		{"critical jump", 1000, 1300, MaterialityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			baseline := &PolicySnapshot{TotalPremium: f64(tc.old)}
			ren := &PolicySnapshot{TotalPremium: f64(tc.new)}
			res, err := Compare(ren, baseline, nil, nil, "")
			if err != nil {
				t.Fatalf("compare: %v", err)
			}
			if len(res.Diffs) != 1 {
				t.Fatalf("expected one diff, got %d", len(res.Diffs))
			}
			if res.Diffs[0].Materiality != tc.want {
				t.Fatalf("premium %v -> %v: got materiality %q, want %q", tc.old, tc.new, res.Diffs[0].Materiality, tc.want)
			}
			if res.PremiumChangePct == nil {
				t.Fatalf("expected premium change pct")
			}
		})
	}
}

func TestCompareCustomThresholds(t *testing.T) {
	baseline := &PolicySnapshot{TotalPremium: f64(1000)}
	ren := &PolicySnapshot{TotalPremium: f64(1030)}

	thresholds := &Thresholds{PremiumChangePct: 2, CriticalPremiumChangePct: 50}
	res, err := Compare(ren, baseline, thresholds, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Diffs[0].Materiality != MaterialityMaterial {
		t.Fatalf("3%% change with 2%% threshold should be material, got %q", res.Diffs[0].Materiality)
	}
}

func TestCompareOneSidedPremium(t *testing.T) {
	res, err := Compare(&PolicySnapshot{TotalPremium: f64(500)}, &PolicySnapshot{}, nil, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 1 || res.Diffs[0].Category != DiffAdded {
		t.Fatalf("premium only on renewal side should be an added diff, got %+v", res.Diffs)
	}

	res, err = Compare(&PolicySnapshot{}, &PolicySnapshot{TotalPremium: f64(500)}, nil, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 1 || res.Diffs[0].Category != DiffRemoved {
		t.Fatalf("premium only on baseline side should be a removed diff, got %+v", res.Diffs)
	}
	if res.PremiumChangePct != nil {
		t.Fatalf("one-sided premium must not produce a change pct")
	}
}

func TestCompareCoverageRemovalIsCritical(t *testing.T) {
	ren, baseline := autoSnapshots(t)
	res, err := Compare(ren, baseline, nil, nil, "auto")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}

	var found *FieldDiff
	for i := range res.Diffs {
		if res.Diffs[i].Field == "coverages.rental" {
			found = &res.Diffs[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a diff for the dropped rental coverage: %+v", res.Diffs)
	}
	if found.Category != DiffRemoved || found.Materiality != MaterialityCritical {
		t.Fatalf("dropped coverage should be removed/critical, got %s/%s", found.Category, found.Materiality)
	}
	if res.CriticalCount < 1 {
		t.Fatalf("critical count should include the dropped coverage, got %d", res.CriticalCount)
	}
}

func TestCompareDeductibleThreshold(t *testing.T) {
	ren, baseline := autoSnapshots(t)
	res, err := Compare(ren, baseline, nil, nil, "auto")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, d := range res.Diffs {
		if d.Field == "coverages.collision.deductible" {
			if d.Materiality != MaterialityMaterial {
				t.Fatalf("deductible doubled, expected material, got %q", d.Materiality)
			}
			return
		}
	}
	t.Fatalf("expected a collision deductible diff: %+v", res.Diffs)
}

func TestCompareLimitDecreaseFlag(t *testing.T) {
	baseline := &PolicySnapshot{Coverages: []Coverage{{Type: "dwelling", Limit: f64(300000)}}}
	ren := &PolicySnapshot{Coverages: []Coverage{{Type: "dwelling", Limit: f64(250000)}}}

	res, err := Compare(ren, baseline, nil, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Diffs[0].Materiality != MaterialityMaterial {
		t.Fatalf("limit decrease with default thresholds should be material, got %q", res.Diffs[0].Materiality)
	}

	off := false
	res, err = Compare(ren, baseline, &Thresholds{FlagLimitDecrease: &off}, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Diffs[0].Materiality != MaterialityInfo {
		t.Fatalf("limit decrease with flag disabled should be info, got %q", res.Diffs[0].Materiality)
	}
}

func TestCompareVehiclesOnlyForAuto(t *testing.T) {
	baseline := &PolicySnapshot{Vehicles: []Vehicle{{VIN: "VIN-OLD", Year: 2015, Make: "Ford", Model: "Focus"}}}
	ren := &PolicySnapshot{Vehicles: []Vehicle{{VIN: "VIN-NEW", Year: 2024, Make: "Ford", Model: "Escape"}}}

	res, err := Compare(ren, baseline, nil, nil, "auto")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 2 {
		t.Fatalf("auto comparison should diff vehicles, got %+v", res.Diffs)
	}

	res, err = Compare(ren, baseline, nil, nil, "property")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, d := range res.Diffs {
		if d.Field == "vehicles" {
			t.Fatalf("property comparison must skip vehicles: %+v", res.Diffs)
		}
	}
}

func TestCompareCoverageLapseGap(t *testing.T) {
	baseline := &PolicySnapshot{ExpirationDate: date(t, "2025-07-01")}
	ren := &PolicySnapshot{EffectiveDate: date(t, "2025-07-15")}

	res, err := Compare(ren, baseline, nil, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 1 || res.Diffs[0].Field != "effectiveDate" {
		t.Fatalf("expected a coverage-gap diff, got %+v", res.Diffs)
	}
	if res.Diffs[0].Materiality != MaterialityMaterial {
		t.Fatalf("coverage gap should be material")
	}

	// Pin the effective date back to the expiration and the gap vanishes.
	res, err = Compare(ren, baseline, nil, date(t, "2025-07-01"), "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 0 {
		t.Fatalf("pinned effective date should clear the gap, got %+v", res.Diffs)
	}
}

func TestCompareRemovedInsuredIsMaterial(t *testing.T) {
	baseline := &PolicySnapshot{NamedInsureds: []string{"Pat Doe", "Sam Doe"}}
	ren := &PolicySnapshot{NamedInsureds: []string{"Pat Doe"}}

	res, err := Compare(ren, baseline, nil, nil, "")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Diffs) != 1 {
		t.Fatalf("expected one diff, got %+v", res.Diffs)
	}
	d := res.Diffs[0]
	if d.Field != "namedInsureds" || d.Category != DiffRemoved || d.Materiality != MaterialityMaterial {
		t.Fatalf("removed insured should be removed/material, got %+v", d)
	}
}

func TestNormalizeLOB(t *testing.T) {
	cases := map[string]string{
		"Personal Auto":   LOBAuto,
		"PRIVATE VEHICLE": LOBAuto,
		"Homeowners":      LOBProperty,
		"Dwelling Fire":   LOBProperty,
		"umbrella":        "umbrella",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizeLOB(in); got != want {
			t.Fatalf("NormalizeLOB(%q) = %q, want %q", in, got, want)
		}
	}
}
