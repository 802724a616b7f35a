package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"singo-backend/dto"
	"singo-backend/repository"
)

// ReconcileService re-applies scores that could not be written during a
// submission run. UpdateScore is idempotent, so replays are harmless.
type ReconcileService interface {
	Process(ctx context.Context, msg dto.ReconcileMessage) error
}

type reconcileService struct {
	repo repository.Repository
}

func NewReconcileService(repo repository.Repository) ReconcileService {
	return &reconcileService{repo: repo}
}

func (s *reconcileService) Process(ctx context.Context, msg dto.ReconcileMessage) error {
	operation := func() (struct{}, error) {
		err := s.repo.UpdateScore(ctx, msg.RecordID, msg.Score)
		if errors.Is(err, repository.ErrNotFound) {
			// The recording is gone; retrying cannot help.
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 30 * time.Second
	_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(5))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Uint("record_id", msg.RecordID).
			Float64("attempted_score", msg.Score).
			Msg("score reconcile failed")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Uint("record_id", msg.RecordID).
		Float64("score", msg.Score).
		Msg("score reconciled")
	return nil
}
