package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tcdsagency/renewals-backend/internal/clients/hawksoft"
	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
)

type TaskSyncResult struct {
	Fetched   int `json:"fetched"`
	Renewal   int `json:"renewal"`
	Merged    int `json:"merged"`
	Unmatched int `json:"unmatched"`
	Errors    int `json:"errors"`
}

type TaskSyncService interface {
	// Sync pulls carrier-issued renewal alert tasks and merges their
	// metadata into the matching comparison records.
	Sync(ctx context.Context, tenantID string) (*TaskSyncResult, error)
}

type taskSyncService struct {
	log         *logger.Logger
	hawksoft    hawksoft.Client
	comparisons repos.RenewalComparisonRepo
}

func NewTaskSyncService(log *logger.Logger, hs hawksoft.Client, comparisons repos.RenewalComparisonRepo) TaskSyncService {
	return &taskSyncService{
		log:         log.With("service", "TaskSyncService"),
		hawksoft:    hs,
		comparisons: comparisons,
	}
}

func (s *taskSyncService) Sync(ctx context.Context, tenantID string) (*TaskSyncResult, error) {
	since := time.Now().UTC().AddDate(0, 0, -30)
	tasks, err := s.hawksoft.ListTasks(ctx, hawksoft.ListTasksOptions{ModifiedSince: &since})
	if err != nil {
		return nil, err
	}

	res := &TaskSyncResult{Fetched: len(tasks)}
	for _, task := range tasks {
		if !strings.Contains(strings.ToLower(task.Category), "renewal") {
			continue
		}
		res.Renewal++

		if task.PolicyNumber == "" {
			res.Unmatched++
			continue
		}

		alert := map[string]interface{}{
			"taskId":   task.ID,
			"category": task.Category,
			"subject":  task.Subject,
		}
		if task.Description != "" {
			alert["description"] = task.Description
		}
		if task.DueDate != nil {
			alert["dueDate"] = task.DueDate.UTC().Format(time.RFC3339)
		}

		err := s.comparisons.MergeSummaryKeys(ctx, nil, tenantID, task.PolicyNumber,
			map[string]interface{}{"renewalAlert": alert})
		switch {
		case errors.Is(err, repos.ErrComparisonNotFound):
			// No comparison row yet for this policy; count, don't drop
			// silently.
			s.log.Debug("Renewal task did not match a comparison record",
				"tenant_id", tenantID, "task_id", task.ID, "policy_number", task.PolicyNumber)
			res.Unmatched++
		case err != nil:
			s.log.Warn("Failed to merge renewal task metadata",
				"tenant_id", tenantID, "task_id", task.ID, "policy_number", task.PolicyNumber, "error", err)
			res.Errors++
		default:
			res.Merged++
		}
	}

	s.log.Info("Renewal task sync complete",
		"tenant_id", tenantID,
		"fetched", res.Fetched,
		"renewal", res.Renewal,
		"merged", res.Merged,
		"unmatched", res.Unmatched,
		"errors", res.Errors,
	)
	return res, nil
}
