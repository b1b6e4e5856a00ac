package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tcdsagency/renewals-backend/internal/http/response"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/renewal"
	"github.com/tcdsagency/renewals-backend/internal/services"
)

const (
	actionUUIDSync = "uuid-sync"
	actionTaskSync = "tasks-sync"
)

type RenewalHandler struct {
	log        *logger.Logger
	poller     services.PollerService
	uploads    services.UploadIntakeService
	comparison services.ComparisonService
	uuidSync   services.UUIDSyncService
	taskSync   services.TaskSyncService

	defaultTenantID   string
	defaultWindowDays int
	defaultBatchSize  int
}

func NewRenewalHandler(
	log *logger.Logger,
	poller services.PollerService,
	uploads services.UploadIntakeService,
	comparison services.ComparisonService,
	uuidSync services.UUIDSyncService,
	taskSync services.TaskSyncService,
	defaultTenantID string,
	defaultWindowDays int,
	defaultBatchSize int,
) *RenewalHandler {
	return &RenewalHandler{
		log:               log.With("handler", "RenewalHandler"),
		poller:            poller,
		uploads:           uploads,
		comparison:        comparison,
		uuidSync:          uuidSync,
		taskSync:          taskSync,
		defaultTenantID:   defaultTenantID,
		defaultWindowDays: defaultWindowDays,
		defaultBatchSize:  defaultBatchSize,
	}
}

type pollRequest struct {
	TenantID  string `json:"tenantId"`
	Days      *int   `json:"days"`
	Offset    *int   `json:"offset"`
	BatchSize *int   `json:"batchSize"`
	Action    string `json:"action"`
}

// Poll drives the cloud discovery cycle. The optional action field
// redirects the request to the auxiliary sync jobs instead.
func (h *RenewalHandler) Poll(c *gin.Context) {
	var req pollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Warn("poll request body rejected", "error", err)
			response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("request body must be valid JSON"))
			return
		}
	}

	tenantID := strings.TrimSpace(req.TenantID)
	if tenantID == "" {
		tenantID = h.defaultTenantID
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "":
		// fall through to the poll cycle below
	case actionUUIDSync:
		res, err := h.uuidSync.Sync(c.Request.Context(), tenantID)
		if err != nil {
			h.log.Error("uuid sync failed", "tenant_id", tenantID, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "UUID_SYNC_FAILED", errors.New("uuid sync failed"))
			return
		}
		response.RespondOK(c, gin.H{"success": true, "action": actionUUIDSync, "result": res})
		return
	case actionTaskSync:
		res, err := h.taskSync.Sync(c.Request.Context(), tenantID)
		if err != nil {
			h.log.Error("task sync failed", "tenant_id", tenantID, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "TASK_SYNC_FAILED", errors.New("task sync failed"))
			return
		}
		response.RespondOK(c, gin.H{"success": true, "action": actionTaskSync, "result": res})
		return
	default:
		response.RespondError(c, http.StatusBadRequest, "UNKNOWN_ACTION", errors.New("action must be uuid-sync or tasks-sync"))
		return
	}

	windowDays := h.defaultWindowDays
	if req.Days != nil {
		if *req.Days <= 0 {
			response.RespondError(c, http.StatusBadRequest, "INVALID_DAYS", errors.New("days must be positive"))
			return
		}
		windowDays = *req.Days
	}
	offset := 0
	if req.Offset != nil {
		if *req.Offset < 0 {
			response.RespondError(c, http.StatusBadRequest, "INVALID_OFFSET", errors.New("offset must not be negative"))
			return
		}
		offset = *req.Offset
	}
	batchSize := h.defaultBatchSize
	if req.BatchSize != nil {
		if *req.BatchSize <= 0 {
			response.RespondError(c, http.StatusBadRequest, "INVALID_BATCH_SIZE", errors.New("batchSize must be positive"))
			return
		}
		batchSize = *req.BatchSize
	}

	res, err := h.poller.Poll(c.Request.Context(), tenantID, windowDays, offset, batchSize)
	if err != nil {
		h.log.Error("poll cycle failed", "tenant_id", tenantID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "POLL_FAILED", errors.New("poll cycle failed"))
		return
	}
	response.RespondOK(c, gin.H{
		"success":        true,
		"downloaded":     res.Downloaded,
		"skipped":        res.Skipped,
		"errors":         res.Errors,
		"totalCustomers": res.TotalCustomers,
		"batchOffset":    res.BatchOffset,
		"batchSize":      res.BatchSize,
		"hasMore":        res.HasMore,
		"nextOffset":     res.NextOffset,
	})
}

// Upload ingests one AL3 batch file from a multipart form.
func (h *RenewalHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "MISSING_FILE", errors.New("multipart field 'file' is required"))
		return
	}
	tenantID := strings.TrimSpace(c.PostForm("tenantId"))
	if tenantID == "" {
		tenantID = h.defaultTenantID
	}
	uploadedByID := strings.TrimSpace(c.PostForm("uploadedById"))

	f, err := fileHeader.Open()
	if err != nil {
		h.log.Error("upload open failed", "tenant_id", tenantID, "file_name", fileHeader.Filename, "error", err)
		response.RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", errors.New("uploaded file could not be read"))
		return
	}
	defer f.Close()

	batch, err := h.uploads.Upload(c.Request.Context(), tenantID, fileHeader.Filename, fileHeader.Size, f, uploadedByID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyFile):
			response.RespondError(c, http.StatusBadRequest, "EMPTY_FILE", services.ErrEmptyFile)
		case errors.Is(err, services.ErrFileTooLarge):
			response.RespondError(c, http.StatusBadRequest, "FILE_TOO_LARGE", services.ErrFileTooLarge)
		default:
			h.log.Error("upload failed", "tenant_id", tenantID, "file_name", fileHeader.Filename, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", errors.New("upload could not be processed"))
		}
		return
	}

	response.RespondOK(c, gin.H{
		"success":  true,
		"batchId":  batch.ID,
		"fileName": batch.OriginalFileName,
		"fileSize": batch.FileSize,
	})
}

type compareRequest struct {
	RenewalSnapshot      *renewal.PolicySnapshot `json:"renewalSnapshot"`
	BaselineSnapshot     *renewal.PolicySnapshot `json:"baselineSnapshot"`
	Thresholds           *renewal.Thresholds     `json:"thresholds"`
	RenewalEffectiveDate *time.Time              `json:"renewalEffectiveDate"`
	LineOfBusiness       string                  `json:"lineOfBusiness"`
	CarrierName          string                  `json:"carrierName"`
}

// Compare runs the comparison and check engines on two caller-supplied
// snapshots without touching storage.
func (h *RenewalHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("compare request body rejected", "error", err)
		response.RespondError(c, http.StatusBadRequest, "INVALID_BODY", errors.New("request body must be valid JSON"))
		return
	}
	if req.RenewalSnapshot == nil || req.BaselineSnapshot == nil {
		response.RespondError(c, http.StatusBadRequest, "MISSING_SNAPSHOT", errors.New("renewalSnapshot and baselineSnapshot are both required"))
		return
	}

	result, checkRes, checkSummary, err := h.comparison.Run(
		req.RenewalSnapshot,
		req.BaselineSnapshot,
		req.Thresholds,
		req.RenewalEffectiveDate,
		req.LineOfBusiness,
		req.CarrierName,
	)
	if err != nil {
		h.log.Error("comparison failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "COMPARE_FAILED", errors.New("comparison failed"))
		return
	}

	response.RespondOK(c, gin.H{
		"success":           true,
		"result":            result,
		"checkEngineResult": checkRes,
		"checkSummary":      checkSummary,
	})
}
