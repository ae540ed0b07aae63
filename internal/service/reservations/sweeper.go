package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/vzorin/lockerbook/internal/domain"
)

// SweepResult reports one expiry sweep in aggregate.
type SweepResult struct {
	Scanned   int
	Completed int
	Skipped   int
	Failed    int
}

// RunExpirySweep completes every active reservation whose window has
// elapsed. Each item goes through the regular Complete path, so a
// reservation another caller finished in the meantime is rejected by the
// ACTIVE precondition and counted as skipped. One item's failure never
// stops the rest of the batch.
func (s *Service) RunExpirySweep(ctx context.Context) (SweepResult, error) {
	started := s.now()

	expired, err := s.store.FindExpiredActive(ctx, started)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Scanned: len(expired)}
	for _, r := range expired {
		if _, err := s.Complete(ctx, r.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidStateTransition) {
				result.Skipped++
				continue
			}
			result.Failed++
			s.log.Error().Err(err).Str("reservation_id", r.ID.String()).Msg("sweep: failed to complete reservation")
			continue
		}
		result.Completed++
	}

	if s.metrics != nil {
		s.metrics.SweepRunsTotal.Inc()
		s.metrics.SweepCompletedTotal.Add(float64(result.Completed))
		s.metrics.SweepFailuresTotal.Add(float64(result.Failed))
		s.metrics.SweepDuration.Observe(s.now().Sub(started).Seconds())
	}
	return result, nil
}

// Sweeper runs the expiry sweep on a fixed period, independent from the
// request-handling path. Stop is graceful: a batch in flight finishes,
// no new batch starts.
type Sweeper struct {
	service  ReservationUseCase
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(service ReservationUseCase, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, log: log}
}

// Run blocks until ctx is canceled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().Dur("interval", w.interval).Msg("expiry sweeper started")
	for {
		select {
		case <-ticker.C:
			result, err := w.service.RunExpirySweep(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if result.Scanned > 0 {
				w.log.Info().
					Int("scanned", result.Scanned).
					Int("completed", result.Completed).
					Int("skipped", result.Skipped).
					Int("failed", result.Failed).
					Msg("expiry sweep finished")
			}
		case <-ctx.Done():
			w.log.Info().Msg("expiry sweeper stopped")
			return
		}
	}
}
