package uploader

import (
	"context"
	"fmt"
	"time"

	"lectern/internal/logging"
	"lectern/internal/queue"
)

// RetryOutcome summarizes the retry controller's work: how many previously
// failed items recovered and how many stayed failed after every attempt.
type RetryOutcome struct {
	Attempted int
	Recovered int
	Failed    int
}

// RetryFailed reruns errored items up to the configured attempt count with a
// fixed delay between passes. It only runs after a main pass has settled;
// items that are pending or transferring are left alone.
func (s *Scheduler) RetryFailed(ctx context.Context) (RetryOutcome, error) {
	var outcome RetryOutcome

	attempts := s.cfg.Uploader.RetryAttempts
	if attempts < 1 {
		return outcome, nil
	}

	initial := s.erroredIDs()
	if len(initial) == 0 {
		return outcome, nil
	}
	outcome.Attempted = len(initial)

	for attempt := 1; attempt <= attempts; attempt++ {
		errored := s.erroredIDs()
		if len(errored) == 0 {
			break
		}
		if err := sleepCtx(ctx, s.cfg.RetryDelay()); err != nil {
			outcome.Failed = len(s.erroredIDs())
			outcome.Recovered = outcome.Attempted - outcome.Failed
			return outcome, err
		}

		for _, id := range errored {
			_ = s.store.Update(id, func(item *queue.Item) {
				item.Status = queue.StatusPending
				item.ErrorMessage = fmt.Sprintf("retry attempt %d/%d", attempt, attempts)
			})
		}
		s.logger.Info("retrying failed uploads",
			logging.Int("attempt", attempt),
			logging.Int("items", len(errored)))
		if _, err := s.Run(ctx); err != nil {
			break
		}
	}

	outcome.Failed = len(s.erroredIDs())
	outcome.Recovered = outcome.Attempted - outcome.Failed
	return outcome, ctx.Err()
}

func (s *Scheduler) erroredIDs() []string {
	var ids []string
	for _, item := range s.store.Snapshot().Items {
		if item.Status == queue.StatusError {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
