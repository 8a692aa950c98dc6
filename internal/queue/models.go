package queue

import (
	"context"
	"strings"
	"time"

	"lectern/internal/classify"
	"lectern/internal/filename"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusPaused,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AbortCause distinguishes deliberate aborts from failures when an in-flight
// transfer's context is cancelled.
type AbortCause string

const (
	AbortPause  AbortCause = "pause"
	AbortCancel AbortCause = "cancel"
)

// Item represents one file's upload journey through the queue.
type Item struct {
	ID              string
	SourcePath      string
	Filename        string // display name, as selected
	Status          Status
	ProgressPercent float64
	UploadSpeedBps  float64 // derived; 0 when unknown
	ErrorMessage    string

	NeedsManualSelection bool
	ManualReason         string

	Parsed           *filename.Parsed // nil on parse failure
	TargetLibrary    string           // library display name
	TargetCollection string
	CollectionReason string
	Confidence       int
	Alternatives     []classify.Candidate

	VideoID   string // remote identifier once created
	LibraryID string // remote identifier once resolved

	StartedAt  time.Time
	FinishedAt time.Time

	// cancel aborts the in-flight transfer. Present iff Status ==
	// StatusProcessing.
	cancel context.CancelCauseFunc
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends the main upload pass for an item.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsActive reports whether the item still wants scheduler attention.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusProcessing
}

// Transferring reports whether a cancellable transfer is attached.
func (i *Item) Transferring() bool {
	return i.cancel != nil
}

// SetProgress records transfer progress and the observed speed.
func (i *Item) SetProgress(percent, speedBps float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	i.ProgressPercent = percent
	i.UploadSpeedBps = speedBps
}

// SetCompleted marks the item done. Completed implies 100 percent.
func (i *Item) SetCompleted() {
	i.Status = StatusCompleted
	i.ProgressPercent = 100
	i.UploadSpeedBps = 0
	i.ErrorMessage = ""
	i.FinishedAt = time.Now()
	i.cancel = nil
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusError
	i.ErrorMessage = message
	i.UploadSpeedBps = 0
	i.FinishedAt = time.Now()
	i.cancel = nil
}

// SetPaused parks the item, keeping its progress for display.
func (i *Item) SetPaused() {
	i.Status = StatusPaused
	i.UploadSpeedBps = 0
	i.cancel = nil
}

// BeginTransfer attaches the cancellation handle and moves the item into
// processing.
func (i *Item) BeginTransfer(cancel context.CancelCauseFunc) {
	i.Status = StatusProcessing
	i.ErrorMessage = ""
	i.cancel = cancel
	if i.StartedAt.IsZero() {
		i.StartedAt = time.Now()
	}
}

// AbortTransfer cancels the in-flight transfer with the given cause. It is a
// no-op when no transfer is attached.
func (i *Item) AbortTransfer(cause error) {
	if i.cancel != nil {
		i.cancel(cause)
		i.cancel = nil
	}
}

// SortKey returns the ordering key used by the scheduler: base filename
// first, question number second.
func (i *Item) SortKey() (string, int) {
	return filename.BaseName(i.Filename), filename.QuestionNumber(i.Filename)
}
