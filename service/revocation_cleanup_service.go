package service

import (
	"context"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/examportal/backend/logging"
	"github.com/examportal/backend/ports"
)

// DefaultPruneSchedule runs revocation pruning once a minute.
const DefaultPruneSchedule = "@every 1m"

// RevocationCleanupService drops revocation entries for tokens that have
// expired anyway, bounding the size of the store.
type RevocationCleanupService struct {
	store ports.RevocationStore
	now   func() time.Time
}

// NewRevocationCleanupService creates a cleanup service pruning store.
func NewRevocationCleanupService(store ports.RevocationStore) *RevocationCleanupService {
	return &RevocationCleanupService{store: store, now: time.Now}
}

// PruneExpired removes every entry whose token expiry has passed.
func (s *RevocationCleanupService) PruneExpired(ctx context.Context) (int, error) {
	removed, err := s.store.Prune(ctx, s.now())
	if err != nil {
		logging.Logger.WithError(err).Error("Failed to prune revoked tokens")
		return 0, err
	}
	if removed > 0 {
		logging.Logger.WithField("removed", removed).Debug("Pruned expired revocation entries")
	}
	return removed, nil
}

// Schedule registers PruneExpired on c under the given cron spec.
func (s *RevocationCleanupService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultPruneSchedule
	}
	return c.AddFunc(spec, func() {
		if _, err := s.PruneExpired(context.Background()); err != nil {
			logging.Logger.WithError(err).Error("Scheduled revocation cleanup failed")
		}
	})
}
