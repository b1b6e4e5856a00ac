package al3

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tcdsagency/renewals-backend/internal/renewal"
)

// RecordParser reads the line-oriented AL3 extract the agency's
// conversion tooling emits for renewal documents: one record per line,
// a 4-character group code followed by semicolon-delimited fields. It
// covers the type-40 renewal subset only; full AL3 decoding stays with
// the upstream collaborator.
//
// Group codes handled:
//
//	1MHG  message header (ignored beyond format sniffing)
//	2TRG  transaction start; each transaction is one policy term
//	5BPI  policy number;carrier;line of business;effective;expiration;total premium
//	5CVG  coverage type;limit;deductible;premium
//	5VEH  vin;year;make;model
//	5NIS  named insured
//	5PRP  address;dwelling limit
//	5END  endorsement code
//	5DSC  discount code
type RecordParser struct{}

func NewRecordParser() *RecordParser { return &RecordParser{} }

// ParseRenewal splits the document into per-term transactions and
// returns (renewal term, baseline term), ordered by effective date with
// the newest term first.
func (p *RecordParser) ParseRenewal(ctx context.Context, data []byte) (*renewal.PolicySnapshot, *renewal.PolicySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var terms []*renewal.PolicySnapshot
	var current *renewal.PolicySnapshot

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) < 4 {
			continue
		}
		group := line[:4]
		fields := strings.Split(strings.TrimPrefix(line[4:], ";"), ";")

		if group == "2TRG" {
			current = &renewal.PolicySnapshot{}
			terms = append(terms, current)
			continue
		}
		if current == nil {
			continue
		}

		switch group {
		case "5BPI":
			applyPolicyInfo(current, fields)
		case "5CVG":
			current.Coverages = append(current.Coverages, parseCoverage(fields))
		case "5VEH":
			current.Vehicles = append(current.Vehicles, parseVehicle(fields))
		case "5NIS":
			if name := field(fields, 0); name != "" {
				current.NamedInsureds = append(current.NamedInsureds, name)
			}
		case "5PRP":
			prop := renewal.Property{Address: field(fields, 0)}
			prop.DwellingLimit = parseAmount(field(fields, 1))
			current.Properties = append(current.Properties, prop)
		case "5END":
			if code := field(fields, 0); code != "" {
				current.Endorsements = append(current.Endorsements, code)
			}
		case "5DSC":
			if code := field(fields, 0); code != "" {
				current.Discounts = append(current.Discounts, code)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan AL3 document: %w", err)
	}

	if len(terms) < 2 {
		return nil, nil, fmt.Errorf("AL3 document contains %d policy term(s), need renewal and baseline", len(terms))
	}

	sort.SliceStable(terms, func(i, j int) bool {
		di, dj := terms[i].EffectiveDate, terms[j].EffectiveDate
		if di == nil || dj == nil {
			return false
		}
		return di.After(*dj)
	})
	return terms[0], terms[1], nil
}

func applyPolicyInfo(s *renewal.PolicySnapshot, fields []string) {
	s.PolicyNumber = field(fields, 0)
	s.CarrierName = field(fields, 1)
	s.LineOfBusiness = field(fields, 2)
	s.EffectiveDate = parseDate(field(fields, 3))
	s.ExpirationDate = parseDate(field(fields, 4))
	s.TotalPremium = parseAmount(field(fields, 5))
}

func parseCoverage(fields []string) renewal.Coverage {
	return renewal.Coverage{
		Type:       field(fields, 0),
		Limit:      parseAmount(field(fields, 1)),
		Deductible: parseAmount(field(fields, 2)),
		Premium:    parseAmount(field(fields, 3)),
	}
}

func parseVehicle(fields []string) renewal.Vehicle {
	year := 0
	if y, err := strconv.Atoi(field(fields, 1)); err == nil {
		year = y
	}
	return renewal.Vehicle{
		VIN:   field(fields, 0),
		Year:  year,
		Make:  field(fields, 2),
		Model: field(fields, 3),
	}
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
