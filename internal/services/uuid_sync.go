package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
)

// searchPrefixes is the fixed alphabet the directory is walked with;
// the cloud search endpoint has no "list everything" call.
const searchPrefixes = "abcdefghijklmnopqrstuvwxyz0123456789"

// identityChunkSize caps one IN clause; Postgres limits bind parameters
// per statement.
const identityChunkSize = 500

type UUIDSyncResult struct {
	Prefixes int `json:"prefixes"`
	Found    int `json:"found"`
	Matched  int `json:"matched"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

type UUIDSyncService interface {
	// Sync walks the cloud directory by search prefix and backfills the
	// cached cloud UUID wherever a local client code matches.
	Sync(ctx context.Context, tenantID string) (*UUIDSyncResult, error)
}

type uuidSyncService struct {
	log        *logger.Logger
	hawksoft   hawksoft.Client
	identities repos.ClientIdentityRepo
}

func NewUUIDSyncService(log *logger.Logger, hs hawksoft.Client, identities repos.ClientIdentityRepo) UUIDSyncService {
	return &uuidSyncService{
		log:        log.With("service", "UUIDSyncService"),
		hawksoft:   hs,
		identities: identities,
	}
}

func (s *uuidSyncService) Sync(ctx context.Context, tenantID string) (*UUIDSyncResult, error) {
	res := &UUIDSyncResult{}

	byCode := map[string]uuid.UUID{}
	for _, prefix := range searchPrefixes {
		res.Prefixes++
		clients, err := s.hawksoft.SearchClients(ctx, string(prefix))
		if err != nil {
			// One bad prefix must not sink the remaining ones.
			s.log.Warn("Directory search failed for prefix", "tenant_id", tenantID, "prefix", string(prefix), "error", err)
			res.Errors++
			continue
		}
		for _, c := range clients {
			if c.ClientCode != "" && c.ClientUUID != uuid.Nil {
				byCode[c.ClientCode] = c.ClientUUID
			}
		}
	}
	res.Found = len(byCode)

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}

	for start := 0; start < len(codes); start += identityChunkSize {
		end := start + identityChunkSize
		if end > len(codes) {
			end = len(codes)
		}
		identities, err := s.identities.ListByClientCodes(ctx, nil, tenantID, codes[start:end])
		if err != nil {
			s.log.Warn("Identity chunk lookup failed", "tenant_id", tenantID, "error", err)
			res.Errors++
			continue
		}
		for _, identity := range identities {
			cloudUUID, ok := byCode[identity.ClientCode]
			if !ok {
				continue
			}
			res.Matched++
			if identity.CloudUUID != nil && *identity.CloudUUID == cloudUUID {
				continue
			}
			if err := s.identities.SetCloudUUID(ctx, nil, identity.ID, cloudUUID); err != nil {
				s.log.Warn("Cloud UUID backfill failed", "tenant_id", tenantID, "client_code", identity.ClientCode, "error", err)
				res.Errors++
				continue
			}
			res.Updated++
		}
	}

	s.log.Info("Cloud UUID sync complete",
		"tenant_id", tenantID,
		"found", res.Found,
		"matched", res.Matched,
		"updated", res.Updated,
		"errors", res.Errors,
	)
	return res, nil
}
