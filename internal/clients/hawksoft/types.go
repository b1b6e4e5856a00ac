package hawksoft

import (
	"time"

	"github.com/google/uuid"
)

// ClientSummary is one row of the cloud directory search result.
type ClientSummary struct {
	ClientUUID   uuid.UUID `json:"clientId"`
	ClientNumber int       `json:"clientNumber"`
	ClientCode   string    `json:"clientCode"`
	DisplayName  string    `json:"displayName"`
}

// Attachment is one entry of a client's attachment listing. PolicyHexID
// is HawkSoft's opaque per-policy identifier; it maps to a human policy
// number only through the client detail's policy list.
type Attachment struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Extension   string    `json:"extension"`
	AL3TypeCode string    `json:"al3TypeCode"`
	PolicyHexID string    `json:"policyId"`
	FileSize    int64     `json:"fileSize"`
	CreatedAt   time.Time `json:"createdDate"`
}

type ClientPolicy struct {
	HexID        string `json:"id"`
	PolicyNumber string `json:"policyNumber"`
	CarrierName  string `json:"carrierName"`
	Status       string `json:"status"`
}

type ClientDetail struct {
	ClientUUID   uuid.UUID      `json:"clientId"`
	ClientNumber int            `json:"clientNumber"`
	ClientCode   string         `json:"clientCode"`
	Policies     []ClientPolicy `json:"policies"`
}

// Task is a carrier-issued work item from the cloud tasks listing. The
// renewal sync only consumes tasks whose category mentions renewals.
type Task struct {
	ID           string     `json:"id"`
	Category     string     `json:"category"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description"`
	PolicyNumber string     `json:"policyNumber"`
	ClientNumber int        `json:"clientNumber"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	CreatedAt    time.Time  `json:"createdDate"`
}

type ListTasksOptions struct {
	ModifiedSince *time.Time
	Limit         int
}
