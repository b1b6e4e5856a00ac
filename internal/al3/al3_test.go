package al3

import (
	"bytes"
	"compress/gzip"
	"context"
	"strings"
	"testing"
)

// Two-term renewal document in the line-oriented extract format: the
// renewal term first would also work, ordering is by effective date.
const sampleDocument = `1MHG;HAWKSOFT;20250615
2TRG;RWL
5BPI;AUTO-100;Progressive;Personal Auto;20250101;20250701;1000.00
5CVG;bodily_injury_liability;100000;;400.00
5CVG;collision;50000;500;300.00
5VEH;1HGCM82633A004352;2019;Honda;Accord
5NIS;Pat Doe
5END;GLASS
5DSC;MULTI_POLICY
2TRG;RWL
5BPI;AUTO-100;Progressive;Personal Auto;20250701;20260101;1120.00
5CVG;bodily_injury_liability;100000;;440.00
5CVG;collision;50000;1000;330.00
5VEH;1HGCM82633A004352;2019;Honda;Accord
5NIS;Pat Doe
5END;GLASS
`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestIsRenewalType(t *testing.T) {
	cases := []struct {
		typeCode, ext string
		want          bool
	}{
		{"40", ".al3", true},
		{"40", "AL3", true},
		{" 41 ", ".dat", true},
		{"45", ".gz", true},
		{"40", ".pdf", false},
		{"10", ".al3", false},
		{"", ".al3", false},
		{"40", "", false},
	}
	for _, tc := range cases {
		if got := IsRenewalType(tc.typeCode, tc.ext); got != tc.want {
			t.Fatalf("IsRenewalType(%q, %q) = %v, want %v", tc.typeCode, tc.ext, got, tc.want)
		}
	}
}

func TestDecompressGzipAndRawFallback(t *testing.T) {
	raw := []byte(sampleDocument)
	if got := Decompress(gzipBytes(t, raw)); !bytes.Equal(got, raw) {
		t.Fatalf("gzip payload did not round-trip")
	}
	if got := Decompress(raw); !bytes.Equal(got, raw) {
		t.Fatalf("raw payload should pass through unchanged")
	}
}

func TestLooksLikeAL3(t *testing.T) {
	if !LooksLikeAL3([]byte(sampleDocument)) {
		t.Fatalf("sample document should look like AL3")
	}
	if LooksLikeAL3([]byte("2TRG")) {
		t.Fatalf("short payloads should not pass the heuristic")
	}
	junk := bytes.Repeat([]byte("x"), 600)
	if LooksLikeAL3(junk) {
		t.Fatalf("payload without header groups should not pass")
	}
	// Header group beyond the sniff window does not count.
	late := append(bytes.Repeat([]byte(" "), 520), []byte("2TRG"+strings.Repeat(" ", 64))...)
	if LooksLikeAL3(late) {
		t.Fatalf("header past the sniff window should not pass")
	}
}

func TestParseRenewalOrdersTermsByEffectiveDate(t *testing.T) {
	p := NewRecordParser()
	ren, baseline, err := p.ParseRenewal(context.Background(), []byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if ren.EffectiveDate == nil || ren.EffectiveDate.Format("2006-01-02") != "2025-07-01" {
		t.Fatalf("renewal term should be the newest: %+v", ren.EffectiveDate)
	}
	if baseline.EffectiveDate == nil || baseline.EffectiveDate.Format("2006-01-02") != "2025-01-01" {
		t.Fatalf("baseline term should be the older: %+v", baseline.EffectiveDate)
	}
	if ren.PolicyNumber != "AUTO-100" || baseline.PolicyNumber != "AUTO-100" {
		t.Fatalf("policy number missing: %q / %q", ren.PolicyNumber, baseline.PolicyNumber)
	}
	if ren.TotalPremium == nil || *ren.TotalPremium != 1120 {
		t.Fatalf("renewal premium: %+v", ren.TotalPremium)
	}
	if len(ren.Coverages) != 2 || len(baseline.Coverages) != 2 {
		t.Fatalf("coverage counts: %d / %d", len(ren.Coverages), len(baseline.Coverages))
	}
	if len(ren.Vehicles) != 1 || ren.Vehicles[0].VIN != "1HGCM82633A004352" {
		t.Fatalf("vehicle parsing: %+v", ren.Vehicles)
	}
	if len(baseline.Discounts) != 1 || baseline.Discounts[0] != "MULTI_POLICY" {
		t.Fatalf("discount parsing: %+v", baseline.Discounts)
	}
	if len(ren.Discounts) != 0 {
		t.Fatalf("renewal term has no discounts in the document: %+v", ren.Discounts)
	}
}

func TestParseRenewalSingleTermFails(t *testing.T) {
	doc := `1MHG;HAWKSOFT;20250615
2TRG;RWL
5BPI;AUTO-100;Progressive;Personal Auto;20250101;20250701;1000.00
`
	p := NewRecordParser()
	if _, _, err := p.ParseRenewal(context.Background(), []byte(doc)); err == nil {
		t.Fatalf("single-term document must not parse")
	}
}

func TestParseRenewalHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewRecordParser()
	if _, _, err := p.ParseRenewal(ctx, []byte(sampleDocument)); err == nil {
		t.Fatalf("cancelled context should abort parsing")
	}
}

func TestParseRenewalIgnoresRecordsBeforeFirstTransaction(t *testing.T) {
	doc := `5CVG;orphan;1;2;3
2TRG;RWL
5BPI;P-1;Carrier;auto;20250101;20250701;100
2TRG;RWL
5BPI;P-1;Carrier;auto;20250701;20260101;110
`
	p := NewRecordParser()
	ren, baseline, err := p.ParseRenewal(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ren.Coverages) != 0 || len(baseline.Coverages) != 0 {
		t.Fatalf("records before the first 2TRG must be dropped")
	}
}
