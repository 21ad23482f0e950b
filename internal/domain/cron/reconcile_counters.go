package cron

import (
	"context"
	"time"

	"github.com/pacelog/backend/internal/repository"
	"github.com/pacelog/backend/pkg/xcontext"
)

const reconcileBatchSize = 500

// ReconcileCountersCronJob sweeps every user once a day and rewrites the
// denormalized follow counters from the edge rows. Drift introduced by a
// crash between an edge write and a counter write never outlives one pass.
type ReconcileCountersCronJob struct {
	userRepo          repository.UserRepository
	followEdgeRepo    repository.FollowEdgeRepository
	followCounterRepo repository.FollowCounterRepository
}

func NewReconcileCountersCronJob(
	userRepo repository.UserRepository,
	followEdgeRepo repository.FollowEdgeRepository,
	followCounterRepo repository.FollowCounterRepository,
) *ReconcileCountersCronJob {
	return &ReconcileCountersCronJob{
		userRepo:          userRepo,
		followEdgeRepo:    followEdgeRepo,
		followCounterRepo: followCounterRepo,
	}
}

func (job *ReconcileCountersCronJob) Do(ctx context.Context) {
	for offset := 0; ; offset += reconcileBatchSize {
		users, err := job.userRepo.GetList(ctx, offset, reconcileBatchSize)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get users to reconcile: %v", err)
			return
		}

		if len(users) == 0 {
			return
		}

		for _, user := range users {
			if err := job.reconcile(ctx, user.ID); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot reconcile counters of %s: %v", user.ID, err)
			}
		}
	}
}

func (job *ReconcileCountersCronJob) reconcile(ctx context.Context, userID string) error {
	followers, err := job.followEdgeRepo.CountActiveFollowers(ctx, userID)
	if err != nil {
		return err
	}

	following, err := job.followEdgeRepo.CountActiveFollowing(ctx, userID)
	if err != nil {
		return err
	}

	return job.followCounterRepo.Overwrite(ctx, userID, followers, following)
}

func (job *ReconcileCountersCronJob) RunNow() bool {
	return false
}

func (job *ReconcileCountersCronJob) Next() time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}
