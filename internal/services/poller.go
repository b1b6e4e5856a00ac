package services

import (
	"context"
	"encoding/base64"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tcdsagency/renewals-backend/internal/al3"
	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	redisclient "github.com/tcdsagency/renewals-backend/internal/clients/redis"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
	"github.com/tcdsagency/renewals-backend/internal/types"
)

// PollResult is the cumulative outcome of one bounded poll invocation.
// The scheduler re-invokes with NextOffset until HasMore is false.
type PollResult struct {
	Downloaded     int  `json:"downloaded"`
	Skipped        int  `json:"skipped"`
	Errors         int  `json:"errors"`
	TotalCustomers int  `json:"totalCustomers"`
	BatchOffset    int  `json:"batchOffset"`
	BatchSize      int  `json:"batchSize"`
	HasMore        bool `json:"hasMore"`
	NextOffset     int  `json:"nextOffset"`
}

type PollerService interface {
	Poll(ctx context.Context, tenantID string, windowDays, offset, batchSize int) (*PollResult, error)
}

type pollerService struct {
	log        *logger.Logger
	hawksoft   hawksoft.Client
	policies   repos.PolicyRepo
	identities repos.ClientIdentityRepo
	attachLog  repos.AttachmentLogRepo
	batches    repos.RenewalBatchRepo
	queue      redisclient.ProcessQueue
}

func NewPollerService(
	log *logger.Logger,
	hs hawksoft.Client,
	policies repos.PolicyRepo,
	identities repos.ClientIdentityRepo,
	attachLog repos.AttachmentLogRepo,
	batches repos.RenewalBatchRepo,
	queue redisclient.ProcessQueue,
) PollerService {
	return &pollerService{
		log:        log.With("service", "PollerService"),
		hawksoft:   hs,
		policies:   policies,
		identities: identities,
		attachLog:  attachLog,
		batches:    batches,
		queue:      queue,
	}
}

// Poll discovers renewal AL3 attachments for customers whose policies
// expire within windowDays and materializes each new one as a
// RenewalBatch. One invocation handles at most batchSize customers; the
// invoking scheduler owns resumption. No single customer's or
// attachment's failure aborts the run.
func (s *pollerService) Poll(ctx context.Context, tenantID string, windowDays, offset, batchSize int) (*PollResult, error) {
	now := time.Now().UTC()
	windowEnd := now.AddDate(0, 0, windowDays)

	expiring, err := s.policies.ListExpiringInWindow(ctx, nil, tenantID, now, windowEnd)
	if err != nil {
		return nil, err
	}

	// Stable, sorted customer list so repeated invocations with the
	// same offset paginate deterministically even as policies appear.
	customerSet := map[int]struct{}{}
	for _, p := range expiring {
		customerSet[p.CustomerID] = struct{}{}
	}
	customerIDs := make([]int, 0, len(customerSet))
	for id := range customerSet {
		customerIDs = append(customerIDs, id)
	}
	sort.Ints(customerIDs)

	res := &PollResult{
		TotalCustomers: len(customerIDs),
		BatchOffset:    offset,
		BatchSize:      batchSize,
	}

	if offset >= len(customerIDs) {
		res.NextOffset = offset
		return res, nil
	}
	end := offset + batchSize
	if batchSize <= 0 || end > len(customerIDs) {
		end = len(customerIDs)
	}
	page := customerIDs[offset:end]
	res.NextOffset = end
	res.HasMore = end < len(customerIDs)

	for _, customerID := range page {
		s.pollCustomer(ctx, tenantID, customerID, now, windowEnd, res)
	}

	s.log.Info("Poll page complete",
		"tenant_id", tenantID,
		"window_days", windowDays,
		"offset", offset,
		"downloaded", res.Downloaded,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"total_customers", res.TotalCustomers,
		"has_more", res.HasMore,
	)
	return res, nil
}

func (s *pollerService) pollCustomer(ctx context.Context, tenantID string, customerID int, windowStart, windowEnd time.Time, res *PollResult) {
	clientUUID, detail, ok := s.resolveIdentity(ctx, tenantID, customerID)
	if !ok {
		// No cloud identity is not an error: parts of the book predate
		// cloud-API coverage.
		s.log.Debug("Customer has no cloud identity, skipping", "tenant_id", tenantID, "customer_id", customerID)
		return
	}

	// The attachment listing and the policy detail are independent
	// fetches; the detail only improves hex-ID to policy-number
	// mapping, so its failure degrades gracefully. Identity resolution
	// may already have fetched the detail; don't hit the API twice.
	var (
		attachments []hawksoft.Attachment
		detailErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attachments, err = s.hawksoft.ListAttachments(gctx, clientUUID)
		return err
	})
	if detail == nil {
		g.Go(func() error {
			detail, detailErr = s.hawksoft.GetClient(gctx, customerID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("Attachment listing failed, skipping customer",
			"tenant_id", tenantID, "customer_id", customerID, "error", err)
		res.Errors++
		return
	}
	if detailErr != nil {
		s.log.Warn("Client detail fetch failed, policy mapping degraded",
			"tenant_id", tenantID, "customer_id", customerID, "error", detailErr)
	}

	hexMap := map[string]string{}
	if detail != nil {
		for _, p := range detail.Policies {
			if p.HexID != "" && p.PolicyNumber != "" {
				hexMap[p.HexID] = p.PolicyNumber
			}
		}
	}

	// The single-policy fallback must see exactly this customer's
	// expiring candidates, scoped by the same window as the page query.
	expiringPolicies, err := s.policies.ListExpiringForCustomer(ctx, nil, tenantID, customerID, windowStart, windowEnd)
	if err != nil {
		s.log.Warn("Expiring policy lookup failed, skipping customer",
			"tenant_id", tenantID, "customer_id", customerID, "error", err)
		res.Errors++
		return
	}

	for _, att := range attachments {
		if !al3.IsRenewalType(att.AL3TypeCode, att.Extension) {
			continue
		}
		s.processAttachment(ctx, tenantID, clientUUID, att, hexMap, expiringPolicies, res)
	}
}

// resolveIdentity returns the cached cloud UUID for a customer, fetching
// and caching it from the directory when absent. The client detail is
// returned when resolution had to fetch it so callers can reuse it
// instead of issuing a second GetClient. ok=false means the customer
// has no resolvable cloud identity.
func (s *pollerService) resolveIdentity(ctx context.Context, tenantID string, customerID int) (uuid.UUID, *hawksoft.ClientDetail, bool) {
	identity, err := s.identities.GetByCustomerID(ctx, nil, tenantID, customerID)
	if err != nil {
		s.log.Warn("Identity lookup failed", "tenant_id", tenantID, "customer_id", customerID, "error", err)
		return uuid.Nil, nil, false
	}
	if identity != nil && identity.CloudUUID != nil && *identity.CloudUUID != uuid.Nil {
		return *identity.CloudUUID, nil, true
	}

	detail, err := s.hawksoft.GetClient(ctx, customerID)
	if err != nil || detail == nil || detail.ClientUUID == uuid.Nil {
		return uuid.Nil, nil, false
	}

	cloudUUID := detail.ClientUUID
	if identity != nil {
		if err := s.identities.SetCloudUUID(ctx, nil, identity.ID, cloudUUID); err != nil {
			s.log.Warn("Failed to cache cloud UUID", "tenant_id", tenantID, "customer_id", customerID, "error", err)
		}
	} else {
		code := detail.ClientCode
		if code == "" {
			code = strconv.Itoa(customerID)
		}
		nowUTC := time.Now().UTC()
		_, err := s.identities.Create(ctx, nil, []*types.ClientIdentity{{
			ID:         uuid.New(),
			TenantID:   tenantID,
			ClientCode: code,
			CustomerID: customerID,
			CloudUUID:  &cloudUUID,
			SyncedAt:   &nowUTC,
		}})
		if err != nil {
			s.log.Warn("Failed to cache client identity", "tenant_id", tenantID, "customer_id", customerID, "error", err)
		}
	}
	return cloudUUID, detail, true
}

func (s *pollerService) processAttachment(
	ctx context.Context,
	tenantID string,
	clientUUID uuid.UUID,
	att hawksoft.Attachment,
	hexMap map[string]string,
	expiringPolicies []*types.Policy,
	res *PollResult,
) {
	seen, err := s.attachLog.Exists(ctx, nil, tenantID, att.ID)
	if err != nil {
		s.log.Warn("Attachment log lookup failed", "tenant_id", tenantID, "attachment_id", att.ID, "error", err)
		res.Errors++
		return
	}
	if seen {
		res.Skipped++
		return
	}

	policyNumber, resolution := resolvePolicyNumber(att, hexMap, expiringPolicies)

	raw, err := s.hawksoft.DownloadAttachment(ctx, att.ID)
	if err != nil {
		s.log.Warn("Attachment download failed",
			"tenant_id", tenantID, "attachment_id", att.ID, "error", err)
		s.writeLog(ctx, tenantID, clientUUID, att, policyNumber, resolution, types.AttachmentStatusFailed, nil)
		res.Errors++
		return
	}

	data := al3.Decompress(raw)
	if !al3.LooksLikeAL3(data) {
		// Format-confidence heuristic, not a confirmed defect: skip.
		s.writeLog(ctx, tenantID, clientUUID, att, policyNumber, resolution, types.AttachmentStatusSkipped, nil)
		res.Skipped++
		return
	}

	batchID := uuid.New()
	inserted, err := s.attachLog.CreateIfAbsent(ctx, nil, &types.HawksoftAttachmentLog{
		ID:               uuid.New(),
		TenantID:         tenantID,
		AttachmentID:     att.ID,
		ClientUUID:       clientUUID,
		PolicyNumber:     policyNumber,
		ResolutionMethod: resolution,
		AL3TypeCode:      att.AL3TypeCode,
		FileExtension:    att.Extension,
		FileSize:         int64(len(data)),
		Status:           types.AttachmentStatusDownloaded,
		RenewalBatchID:   &batchID,
		ProcessedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("Attachment log insert failed", "tenant_id", tenantID, "attachment_id", att.ID, "error", err)
		res.Errors++
		return
	}
	if !inserted {
		// Lost the insert race against an overlapping run: the other
		// writer owns this attachment.
		res.Skipped++
		return
	}

	fileName := att.FileName
	if fileName == "" {
		fileName = att.ID + ".al3"
	}
	if _, err := s.batches.Create(ctx, nil, []*types.RenewalBatch{{
		ID:               batchID,
		TenantID:         tenantID,
		OriginalFileName: fileName,
		FileSize:         int64(len(data)),
		Status:           types.BatchStatusUploaded,
	}}); err != nil {
		s.log.Error("Renewal batch create failed", "tenant_id", tenantID, "attachment_id", att.ID, "error", err)
		res.Errors++
		return
	}

	if err := s.queue.Enqueue(ctx, redisclient.ProcessMessage{
		BatchID:          batchID.String(),
		TenantID:         tenantID,
		FileBuffer:       base64.StdEncoding.EncodeToString(data),
		OriginalFileName: fileName,
	}); err != nil {
		s.log.Error("Enqueue failed for polled batch", "tenant_id", tenantID, "batch_id", batchID, "error", err)
		msg := "failed to enqueue for processing: " + err.Error()
		_ = s.batches.SetStatus(ctx, nil, batchID, types.BatchStatusFailed, &msg)
		res.Errors++
		return
	}

	res.Downloaded++
}

func (s *pollerService) writeLog(ctx context.Context, tenantID string, clientUUID uuid.UUID, att hawksoft.Attachment, policyNumber *string, resolution, status string, batchID *uuid.UUID) {
	_, err := s.attachLog.CreateIfAbsent(ctx, nil, &types.HawksoftAttachmentLog{
		ID:               uuid.New(),
		TenantID:         tenantID,
		AttachmentID:     att.ID,
		ClientUUID:       clientUUID,
		PolicyNumber:     policyNumber,
		ResolutionMethod: resolution,
		AL3TypeCode:      att.AL3TypeCode,
		FileExtension:    att.Extension,
		FileSize:         att.FileSize,
		Status:           status,
		RenewalBatchID:   batchID,
		ProcessedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn("Attachment log write failed", "tenant_id", tenantID, "attachment_id", att.ID, "error", err)
	}
}

// resolvePolicyNumber maps the attachment's opaque policy hex ID to a
// human policy number. The single-expiring-policy fallback applies only
// when the customer has exactly one policy in the window; with two or
// more the mapping stays unresolved rather than guessing.
func resolvePolicyNumber(att hawksoft.Attachment, hexMap map[string]string, expiringPolicies []*types.Policy) (*string, string) {
	if att.PolicyHexID != "" {
		if num, ok := hexMap[att.PolicyHexID]; ok && num != "" {
			return &num, types.ResolutionHexMap
		}
	}
	if len(expiringPolicies) == 1 && expiringPolicies[0].PolicyNumber != "" {
		num := expiringPolicies[0].PolicyNumber
		return &num, types.ResolutionFallback
	}
	return nil, types.ResolutionUnresolved
}
