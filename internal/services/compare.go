package services

import (
	"time"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/renewal"
)

// ComparisonService wraps the comparison and check engines with the
// "core result + optional annotations" coupling: Compare must succeed,
// the check pass is advisory and runs inside its own error boundary.
type ComparisonService interface {
	Run(renewalSnap, baselineSnap *renewal.PolicySnapshot, thresholds *renewal.Thresholds, renewalEffectiveDate *time.Time, lineOfBusiness, carrierName string) (*renewal.ComparisonResult, *renewal.CheckEngineResult, *renewal.CheckSummary, error)
}

type checkFunc func(renewalSnap, baselineSnap *renewal.PolicySnapshot, result *renewal.ComparisonResult, lineOfBusiness, carrierName string) (*renewal.CheckEngineResult, error)

type comparisonService struct {
	log      *logger.Logger
	runCheck checkFunc
}

func NewComparisonService(log *logger.Logger) ComparisonService {
	return &comparisonService{
		log:      log.With("service", "ComparisonService"),
		runCheck: renewal.RunCheckEngine,
	}
}

func (s *comparisonService) Run(renewalSnap, baselineSnap *renewal.PolicySnapshot, thresholds *renewal.Thresholds, renewalEffectiveDate *time.Time, lineOfBusiness, carrierName string) (*renewal.ComparisonResult, *renewal.CheckEngineResult, *renewal.CheckSummary, error) {
	result, err := renewal.Compare(renewalSnap, baselineSnap, thresholds, renewalEffectiveDate, lineOfBusiness)
	if err != nil {
		return nil, nil, nil, err
	}

	checkRes := s.runCheckSafely(renewalSnap, baselineSnap, result, lineOfBusiness, carrierName)
	var summary *renewal.CheckSummary
	if checkRes != nil {
		summary = renewal.BuildCheckSummary(checkRes)
	}
	return result, checkRes, summary, nil
}

// runCheckSafely never lets the advisory pass take down the pipeline: a
// rule error or panic is logged and yields a nil check result.
func (s *comparisonService) runCheckSafely(renewalSnap, baselineSnap *renewal.PolicySnapshot, result *renewal.ComparisonResult, lineOfBusiness, carrierName string) (checkRes *renewal.CheckEngineResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Check engine panicked", "carrier", carrierName, "panic", r)
			checkRes = nil
		}
	}()

	res, err := s.runCheck(renewalSnap, baselineSnap, result, lineOfBusiness, carrierName)
	if err != nil {
		s.log.Warn("Check engine failed, returning comparison without checks", "carrier", carrierName, "error", err)
		return nil
	}
	return res
}
