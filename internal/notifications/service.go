package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lectern/internal/config"
)

const userAgent = "Lectern-Go/0.1.0"

// Service defines the notification surface exposed to the uploader.
type Service interface {
	NotifyBatchStarted(ctx context.Context, queued, held int) error
	NotifyBatchCompleted(ctx context.Context, completed, failed int, duration time.Duration) error
	NotifyManualSelectionNeeded(ctx context.Context, filename, reason string) error
	NotifyRetrySummary(ctx context.Context, recovered, failed int) error
	NotifyEmbedsPushed(ctx context.Context, updated, notFound, skipped int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, queued, held int) error {
	message := fmt.Sprintf("Started uploading %d videos", queued)
	if held > 0 {
		message = fmt.Sprintf("%s (%d awaiting manual selection)", message, held)
	}
	data := payload{
		title:   "Lectern - Batch Started",
		message: message,
		tags:    []string{"lectern", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, completed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Lectern - Batch Complete"
		message = fmt.Sprintf("Batch complete: %d videos uploaded in %s", completed, durationText)
	} else {
		title = "Lectern - Batch Complete (with errors)"
		message = fmt.Sprintf("Batch complete: %d uploaded, %d failed in %s", completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"lectern", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyManualSelectionNeeded(ctx context.Context, filename, reason string) error {
	filename = strings.TrimSpace(filename)
	message := fmt.Sprintf("Could not place: %s\nManual selection required", filename)
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s (%s)", message, reason)
	}
	data := payload{
		title:   "Lectern - Manual Selection",
		message: message,
		tags:    []string{"lectern", "manual", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRetrySummary(ctx context.Context, recovered, failed int) error {
	var message string
	if failed == 0 {
		message = fmt.Sprintf("Retry pass recovered all %d failed uploads", recovered)
	} else {
		message = fmt.Sprintf("Retry pass: %d recovered, %d still failing", recovered, failed)
	}
	data := payload{
		title:   "Lectern - Retry Summary",
		message: message,
		tags:    []string{"lectern", "retry", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEmbedsPushed(ctx context.Context, updated, notFound, skipped int) error {
	data := payload{
		title: "Lectern - Embeds Pushed",
		message: fmt.Sprintf("Sheet updated: %d embeds written, %d rows not found, %d already filled",
			updated, notFound, skipped),
		tags: []string{"lectern", "sheets", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Lectern - Error",
		message:  builder.String(),
		tags:     []string{"lectern", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lectern - Test",
		message:  "Notification system test",
		tags:     []string{"lectern", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchStarted(context.Context, int, int) error                  { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyManualSelectionNeeded(context.Context, string, string) error   { return nil }
func (noopService) NotifyRetrySummary(context.Context, int, int) error                  { return nil }
func (noopService) NotifyEmbedsPushed(context.Context, int, int, int) error             { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
