package renewal

import (
	"strings"
	"time"
)

// Lines of business the engines special-case. Anything else gets the
// generic field comparisons only.
const (
	LOBAuto     = "auto"
	LOBProperty = "property"
)

// NormalizeLOB folds carrier spellings of the line of business into the
// two families the engines know about; unknown values pass through
// lowercased.
func NormalizeLOB(lob string) string {
	s := strings.ToLower(strings.TrimSpace(lob))
	switch {
	case strings.Contains(s, "auto"), strings.Contains(s, "vehicle"):
		return LOBAuto
	case strings.Contains(s, "home"), strings.Contains(s, "property"),
		strings.Contains(s, "dwelling"), strings.Contains(s, "fire"):
		return LOBProperty
	}
	return s
}

// Coverage is one coverage line of a policy term. Pointer fields stay
// nil when the carrier feed omitted them; the comparison engine must
// tolerate that on either side.
type Coverage struct {
	Type       string   `json:"type"`
	Limit      *float64 `json:"limit,omitempty"`
	Deductible *float64 `json:"deductible,omitempty"`
	Premium    *float64 `json:"premium,omitempty"`
}

type Vehicle struct {
	VIN   string `json:"vin"`
	Year  int    `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

type Property struct {
	Address       string   `json:"address"`
	DwellingLimit *float64 `json:"dwellingLimit,omitempty"`
}

// PolicySnapshot is the carrier-agnostic representation of one policy
// as of one point in time. The incoming renewal term and the expiring
// baseline are each captured as a snapshot before comparison.
type PolicySnapshot struct {
	PolicyNumber   string     `json:"policyNumber"`
	CarrierName    string     `json:"carrierName,omitempty"`
	LineOfBusiness string     `json:"lineOfBusiness,omitempty"`
	EffectiveDate  *time.Time `json:"effectiveDate,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	TotalPremium   *float64   `json:"totalPremium,omitempty"`
	NamedInsureds  []string   `json:"namedInsureds,omitempty"`
	Coverages      []Coverage `json:"coverages,omitempty"`
	Vehicles       []Vehicle  `json:"vehicles,omitempty"`
	Properties     []Property `json:"properties,omitempty"`
	Endorsements   []string   `json:"endorsements,omitempty"`
	Discounts      []string   `json:"discounts,omitempty"`
}

// TermMonths derives the term length, or 0 when either date is missing.
func (s *PolicySnapshot) TermMonths() int {
	if s == nil || s.EffectiveDate == nil || s.ExpirationDate == nil {
		return 0
	}
	months := 0
	cursor := *s.EffectiveDate
	for cursor.Before(*s.ExpirationDate) {
		cursor = cursor.AddDate(0, 1, 0)
		months++
	}
	return months
}
