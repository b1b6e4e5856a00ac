package app

import (
	"gorm.io/gorm"

	"github.com/tcdsagency/renewals-backend/internal/platform/logger"
	"github.com/tcdsagency/renewals-backend/internal/repos"
)

type Repos struct {
	Policy            repos.PolicyRepo
	ClientIdentity    repos.ClientIdentityRepo
	AttachmentLog     repos.AttachmentLogRepo
	RenewalBatch      repos.RenewalBatchRepo
	RenewalComparison repos.RenewalComparisonRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Policy:            repos.NewPolicyRepo(db, log),
		ClientIdentity:    repos.NewClientIdentityRepo(db, log),
		AttachmentLog:     repos.NewAttachmentLogRepo(db, log),
		RenewalBatch:      repos.NewRenewalBatchRepo(db, log),
		RenewalComparison: repos.NewRenewalComparisonRepo(db, log),
	}
}
