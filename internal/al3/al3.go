package al3

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"strings"

	"github.com/tcdsagency/renewals-backend/internal/renewal"
)

// Parser turns one AL3 document into the two policy snapshots the
// comparison pipeline consumes: the incoming renewal term and the
// expiring baseline term. The byte-level parser is an external
// collaborator; this package owns only the boundary contract and the
// cheap format plumbing around it.
type Parser interface {
	ParseRenewal(ctx context.Context, data []byte) (renewalSnap *renewal.PolicySnapshot, baselineSnap *renewal.PolicySnapshot, err error)
}

// Renewal-type AL3 documents carried as attachments. Type 40 is the
// standard personal-lines renewal transaction.
var renewalTypeCodes = map[string]struct{}{
	"40": {},
	"41": {},
	"45": {},
}

var renewalExtensions = map[string]struct{}{
	".al3": {},
	".dat": {},
	".gz":  {},
	".txt": {},
}

// IsRenewalType reports whether an attachment's AL3 type code and file
// extension match the renewal allow-list.
func IsRenewalType(typeCode, extension string) bool {
	if _, ok := renewalTypeCodes[strings.TrimSpace(typeCode)]; !ok {
		return false
	}
	ext := strings.ToLower(strings.TrimSpace(extension))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := renewalExtensions[ext]
	return ok
}

// Decompress gunzips data, falling back to the raw bytes untouched when
// they are not gzip. Carriers are inconsistent about compressing
// attachment payloads.
func Decompress(data []byte) []byte {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

const minDocumentLength = 64

// LooksLikeAL3 is a format-confidence heuristic, not a validation: it
// checks for the standard message/transaction header groups near the
// start of the document. A miss means "skip", never "failed".
func LooksLikeAL3(data []byte) bool {
	if len(data) < minDocumentLength {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("1MHG")) || bytes.Contains(head, []byte("2TRG"))
}
