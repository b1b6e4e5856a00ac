package renewal

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Diff categories. A field present on one side and absent on the other
// is classified, never treated as an error.
const (
	DiffChanged = "changed"
	DiffAdded   = "added"
	DiffRemoved = "removed"
)

// Materiality classifications attached to each diff.
const (
	MaterialityInfo     = "info"
	MaterialityMaterial = "material"
	MaterialityCritical = "critical"
)

// Thresholds control when a numeric change is material. Zero-valued
// fields fall back to engine defaults.
type Thresholds struct {
	// PremiumChangePct flags total-premium movement at or beyond this
	// percentage in either direction.
	PremiumChangePct float64 `json:"premiumChangePct,omitempty"`
	// CriticalPremiumChangePct escalates the flag to critical.
	CriticalPremiumChangePct float64 `json:"criticalPremiumChangePct,omitempty"`
	// DeductibleChangePct flags per-coverage deductible movement.
	DeductibleChangePct float64 `json:"deductibleChangePct,omitempty"`
	// FlagLimitDecrease marks any coverage-limit decrease material.
	FlagLimitDecrease *bool `json:"flagLimitDecrease,omitempty"`
}

func DefaultThresholds() Thresholds {
	flag := true
	return Thresholds{
		PremiumChangePct:         5,
		CriticalPremiumChangePct: 25,
		DeductibleChangePct:      10,
		FlagLimitDecrease:        &flag,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.PremiumChangePct <= 0 {
		t.PremiumChangePct = def.PremiumChangePct
	}
	if t.CriticalPremiumChangePct <= 0 {
		t.CriticalPremiumChangePct = def.CriticalPremiumChangePct
	}
	if t.DeductibleChangePct <= 0 {
		t.DeductibleChangePct = def.DeductibleChangePct
	}
	if t.FlagLimitDecrease == nil {
		t.FlagLimitDecrease = def.FlagLimitDecrease
	}
	return t
}

// FieldDiff is one field-level difference between the two terms.
type FieldDiff struct {
	Field       string   `json:"field"`
	Category    string   `json:"category"`
	OldValue    any      `json:"oldValue,omitempty"`
	NewValue    any      `json:"newValue,omitempty"`
	PctChange   *float64 `json:"pctChange,omitempty"`
	Materiality string   `json:"materiality"`
}

// ComparisonResult is the deterministic output of Compare. Given
// identical snapshots and thresholds it is identical byte for byte, so
// the compare endpoint can be re-run safely.
type ComparisonResult struct {
	PolicyNumber     string      `json:"policyNumber,omitempty"`
	LineOfBusiness   string      `json:"lineOfBusiness,omitempty"`
	Diffs            []FieldDiff `json:"diffs"`
	PremiumChangePct *float64    `json:"premiumChangePct,omitempty"`
	MaterialCount    int         `json:"materialCount"`
	CriticalCount    int         `json:"criticalCount"`
}

// Compare diffs the incoming renewal term against the expiring baseline.
// It is a pure function of its inputs: no clock reads, no randomness,
// and stable ordering of every emitted diff. Partially populated
// snapshots never cause an error; one-sided fields come back as
// added/removed diffs.
func Compare(renewalSnap, baselineSnap *PolicySnapshot, thresholds *Thresholds, renewalEffectiveDate *time.Time, lineOfBusiness string) (*ComparisonResult, error) {
	if renewalSnap == nil || baselineSnap == nil {
		return nil, fmt.Errorf("both renewal and baseline snapshots are required")
	}

	t := Thresholds{}
	if thresholds != nil {
		t = *thresholds
	}
	t = t.withDefaults()

	lob := lineOfBusiness
	if lob == "" {
		lob = renewalSnap.LineOfBusiness
	}
	lob = NormalizeLOB(lob)

	res := &ComparisonResult{
		PolicyNumber:   renewalSnap.PolicyNumber,
		LineOfBusiness: lob,
		Diffs:          []FieldDiff{},
	}

	comparePremium(res, renewalSnap, baselineSnap, t)
	compareTerm(res, renewalSnap, baselineSnap, renewalEffectiveDate)
	compareInsureds(res, renewalSnap, baselineSnap)
	compareCoverages(res, renewalSnap, baselineSnap, t)
	if lob == LOBAuto {
		compareVehicles(res, renewalSnap, baselineSnap)
	}
	if lob == LOBProperty {
		compareProperties(res, renewalSnap, baselineSnap, t)
	}

	for _, d := range res.Diffs {
		switch d.Materiality {
		case MaterialityMaterial:
			res.MaterialCount++
		case MaterialityCritical:
			res.CriticalCount++
		}
	}
	return res, nil
}

func pctChange(oldVal, newVal float64) *float64 {
	if oldVal == 0 {
		return nil
	}
	pct := (newVal - oldVal) / math.Abs(oldVal) * 100
	pct = math.Round(pct*100) / 100
	return &pct
}

func comparePremium(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot, t Thresholds) {
	switch {
	case renewalSnap.TotalPremium == nil && baselineSnap.TotalPremium == nil:
		return
	case baselineSnap.TotalPremium == nil:
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "totalPremium", Category: DiffAdded,
			NewValue: *renewalSnap.TotalPremium, Materiality: MaterialityInfo,
		})
		return
	case renewalSnap.TotalPremium == nil:
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "totalPremium", Category: DiffRemoved,
			OldValue: *baselineSnap.TotalPremium, Materiality: MaterialityInfo,
		})
		return
	}

	oldP, newP := *baselineSnap.TotalPremium, *renewalSnap.TotalPremium
	if oldP == newP {
		return
	}
	pct := pctChange(oldP, newP)
	res.PremiumChangePct = pct

	materiality := MaterialityInfo
	if pct != nil {
		abs := math.Abs(*pct)
		if abs >= t.CriticalPremiumChangePct {
			materiality = MaterialityCritical
		} else if abs >= t.PremiumChangePct {
			materiality = MaterialityMaterial
		}
	}
	res.Diffs = append(res.Diffs, FieldDiff{
		Field: "totalPremium", Category: DiffChanged,
		OldValue: oldP, NewValue: newP, PctChange: pct, Materiality: materiality,
	})
}

func compareTerm(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot, renewalEffectiveDate *time.Time) {
	// The caller may pin the renewal effective date; the snapshot's own
	// date wins only when the caller passes nothing.
	effective := renewalSnap.EffectiveDate
	if renewalEffectiveDate != nil {
		effective = renewalEffectiveDate
	}
	if effective != nil && baselineSnap.ExpirationDate != nil {
		if gap := effective.Sub(*baselineSnap.ExpirationDate); gap > 24*time.Hour {
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "effectiveDate", Category: DiffChanged,
				OldValue:    baselineSnap.ExpirationDate.Format("2006-01-02"),
				NewValue:    effective.Format("2006-01-02"),
				Materiality: MaterialityMaterial,
			})
		}
	}

	oldTerm, newTerm := baselineSnap.TermMonths(), renewalSnap.TermMonths()
	if oldTerm > 0 && newTerm > 0 && oldTerm != newTerm {
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "termMonths", Category: DiffChanged,
			OldValue: oldTerm, NewValue: newTerm, Materiality: MaterialityMaterial,
		})
	}
}

func compareInsureds(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot) {
	added, removed := stringSetDiff(baselineSnap.NamedInsureds, renewalSnap.NamedInsureds)
	for _, name := range added {
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "namedInsureds", Category: DiffAdded, NewValue: name, Materiality: MaterialityInfo,
		})
	}
	for _, name := range removed {
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "namedInsureds", Category: DiffRemoved, OldValue: name, Materiality: MaterialityMaterial,
		})
	}
}

func compareCoverages(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot, t Thresholds) {
	baseline := coverageIndex(baselineSnap.Coverages)
	current := coverageIndex(renewalSnap.Coverages)

	for _, covType := range sortedKeys(current) {
		newCov := current[covType]
		oldCov, existed := baseline[covType]
		field := "coverages." + covType
		if !existed {
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: field, Category: DiffAdded, NewValue: covType, Materiality: MaterialityInfo,
			})
			continue
		}
		diffCoverageLimit(res, field, oldCov, newCov, t)
		diffCoverageDeductible(res, field, oldCov, newCov, t)
		diffCoveragePremium(res, field, oldCov, newCov)
	}

	for _, covType := range sortedKeys(baseline) {
		if _, stillThere := current[covType]; !stillThere {
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "coverages." + covType, Category: DiffRemoved,
				OldValue: covType, Materiality: MaterialityCritical,
			})
		}
	}
}

func diffCoverageLimit(res *ComparisonResult, field string, oldCov, newCov Coverage, t Thresholds) {
	if oldCov.Limit == nil || newCov.Limit == nil || *oldCov.Limit == *newCov.Limit {
		return
	}
	materiality := MaterialityInfo
	if *newCov.Limit < *oldCov.Limit && t.FlagLimitDecrease != nil && *t.FlagLimitDecrease {
		materiality = MaterialityMaterial
	}
	res.Diffs = append(res.Diffs, FieldDiff{
		Field: field + ".limit", Category: DiffChanged,
		OldValue: *oldCov.Limit, NewValue: *newCov.Limit,
		PctChange: pctChange(*oldCov.Limit, *newCov.Limit), Materiality: materiality,
	})
}

func diffCoverageDeductible(res *ComparisonResult, field string, oldCov, newCov Coverage, t Thresholds) {
	if oldCov.Deductible == nil || newCov.Deductible == nil || *oldCov.Deductible == *newCov.Deductible {
		return
	}
	pct := pctChange(*oldCov.Deductible, *newCov.Deductible)
	materiality := MaterialityInfo
	if pct != nil && math.Abs(*pct) >= t.DeductibleChangePct {
		materiality = MaterialityMaterial
	}
	res.Diffs = append(res.Diffs, FieldDiff{
		Field: field + ".deductible", Category: DiffChanged,
		OldValue: *oldCov.Deductible, NewValue: *newCov.Deductible,
		PctChange: pct, Materiality: materiality,
	})
}

func diffCoveragePremium(res *ComparisonResult, field string, oldCov, newCov Coverage) {
	if oldCov.Premium == nil || newCov.Premium == nil || *oldCov.Premium == *newCov.Premium {
		return
	}
	res.Diffs = append(res.Diffs, FieldDiff{
		Field: field + ".premium", Category: DiffChanged,
		OldValue: *oldCov.Premium, NewValue: *newCov.Premium,
		PctChange: pctChange(*oldCov.Premium, *newCov.Premium), Materiality: MaterialityInfo,
	})
}

func compareVehicles(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot) {
	baseline := map[string]Vehicle{}
	for _, v := range baselineSnap.Vehicles {
		baseline[v.VIN] = v
	}
	current := map[string]Vehicle{}
	for _, v := range renewalSnap.Vehicles {
		current[v.VIN] = v
	}

	for _, vin := range sortedKeys(current) {
		if _, existed := baseline[vin]; !existed {
			v := current[vin]
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "vehicles", Category: DiffAdded,
				NewValue:    fmt.Sprintf("%d %s %s (%s)", v.Year, v.Make, v.Model, v.VIN),
				Materiality: MaterialityInfo,
			})
		}
	}
	for _, vin := range sortedKeys(baseline) {
		if _, stillThere := current[vin]; !stillThere {
			v := baseline[vin]
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "vehicles", Category: DiffRemoved,
				OldValue:    fmt.Sprintf("%d %s %s (%s)", v.Year, v.Make, v.Model, v.VIN),
				Materiality: MaterialityMaterial,
			})
		}
	}
}

func compareProperties(res *ComparisonResult, renewalSnap, baselineSnap *PolicySnapshot, t Thresholds) {
	baseline := map[string]Property{}
	for _, p := range baselineSnap.Properties {
		baseline[p.Address] = p
	}
	for _, p := range renewalSnap.Properties {
		old, existed := baseline[p.Address]
		if !existed {
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "properties", Category: DiffAdded, NewValue: p.Address, Materiality: MaterialityInfo,
			})
			continue
		}
		if old.DwellingLimit != nil && p.DwellingLimit != nil && *old.DwellingLimit != *p.DwellingLimit {
			materiality := MaterialityInfo
			if *p.DwellingLimit < *old.DwellingLimit && t.FlagLimitDecrease != nil && *t.FlagLimitDecrease {
				materiality = MaterialityMaterial
			}
			res.Diffs = append(res.Diffs, FieldDiff{
				Field: "properties." + p.Address + ".dwellingLimit", Category: DiffChanged,
				OldValue: *old.DwellingLimit, NewValue: *p.DwellingLimit,
				PctChange: pctChange(*old.DwellingLimit, *p.DwellingLimit), Materiality: materiality,
			})
		}
		delete(baseline, p.Address)
	}
	for _, addr := range sortedKeys(baseline) {
		res.Diffs = append(res.Diffs, FieldDiff{
			Field: "properties", Category: DiffRemoved, OldValue: addr, Materiality: MaterialityMaterial,
		})
	}
}

func coverageIndex(coverages []Coverage) map[string]Coverage {
	out := make(map[string]Coverage, len(coverages))
	for _, c := range coverages {
		out[c.Type] = c
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringSetDiff(oldList, newList []string) (added, removed []string) {
	oldSet := map[string]struct{}{}
	for _, s := range oldList {
		oldSet[s] = struct{}{}
	}
	newSet := map[string]struct{}{}
	for _, s := range newList {
		newSet[s] = struct{}{}
	}
	for _, s := range sortedKeys(newSet) {
		if _, ok := oldSet[s]; !ok {
			added = append(added, s)
		}
	}
	for _, s := range sortedKeys(oldSet) {
		if _, ok := newSet[s]; !ok {
			removed = append(removed, s)
		}
	}
	return added, removed
}
