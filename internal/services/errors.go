package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying per-item and batch-level failures. Components
// wrap their errors with one of these so the scheduler can decide whether an
// item belongs in the manual-selection holding area, the error pool, or
// whether the whole operation must stop before any item starts.
var (
	// ErrParse marks a filename that matched no known grammar.
	ErrParse = errors.New("parse failure")
	// ErrLowConfidence marks a parsed filename whose best library match fell
	// below the auto-assign threshold.
	ErrLowConfidence = errors.New("low confidence match")
	// ErrTransfer marks a network or remote-service failure during upload.
	ErrTransfer = errors.New("transfer failure")
	// ErrAborted marks a user-initiated pause or cancel. Never recorded as an
	// item error.
	ErrAborted = errors.New("deliberate abort")
	// ErrRemoteLookup marks a library or collection listing failure. Fatal to
	// the single item's attempt, not to the batch.
	ErrRemoteLookup = errors.New("remote lookup failure")
	// ErrConfiguration marks a setup problem that aborts the whole operation.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransfer
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsAbort reports whether err represents a deliberate pause or cancel rather
// than a genuine failure.
func IsAbort(err error) bool {
	return errors.Is(err, ErrAborted)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
