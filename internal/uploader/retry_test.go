package uploader

import (
	"context"
	"strings"
	"testing"
	"time"

	"lectern/internal/queue"
)

func TestRetryFailedRecoversTransientFailures(t *testing.T) {
	host := newFakeHost()
	host.failCreate = map[string]int{
		"M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}": 1,
	}
	sched, store := newTestScheduler(t, host)
	sched.Enqueue([]string{"/in/M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4"})

	result, err := sched.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("first pass should fail, got %+v", result)
	}

	outcome, err := sched.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if outcome.Attempted != 1 || outcome.Recovered != 1 || outcome.Failed != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if item := store.Snapshot().Items[0]; item.Status != queue.StatusCompleted {
		t.Errorf("item should complete on retry, got %s", item.Status)
	}
}

func TestRetryFailedGivesUpAfterConfiguredAttempts(t *testing.T) {
	host := newFakeHost()
	host.failCreate = map[string]int{
		"M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}": 99,
	}
	sched, store := newTestScheduler(t, host)
	sched.Enqueue([]string{"/in/M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4"})

	if _, err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	outcome, err := sched.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if outcome.Failed != 1 || outcome.Recovered != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	item := store.Snapshot().Items[0]
	if item.Status != queue.StatusError {
		t.Fatalf("status = %s, want error", item.Status)
	}
	if !strings.Contains(item.ErrorMessage, "transient host failure") {
		t.Errorf("error message should carry the last failure, got %q", item.ErrorMessage)
	}
}

func TestRetryFailedWaitsBeforeFirstReattempt(t *testing.T) {
	host := newFakeHost()
	host.failCreate = map[string]int{
		"M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}": 1,
	}
	sched, _ := newTestScheduler(t, host)
	sched.cfg.Uploader.RetryDelaySeconds = 1
	sched.Enqueue([]string{"/in/M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4"})

	if _, err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	start := time.Now()
	outcome, err := sched.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if outcome.Recovered != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("first re-attempt ran after %v, want at least the configured delay", elapsed)
	}
}

func TestRetryFailedNoopWithoutErrors(t *testing.T) {
	sched, _ := newTestScheduler(t, newFakeHost())
	sched.Enqueue([]string{"/in/M1-T1-U1-L1-SCI-P0001-Ahmed--{Intro}.mp4"})
	if _, err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	outcome, err := sched.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if outcome.Attempted != 0 {
		t.Errorf("nothing to retry, got %+v", outcome)
	}
}
