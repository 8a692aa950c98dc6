package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/notifications"
	"lectern/internal/projection"
	"lectern/internal/queue"
	"lectern/internal/sheets"
	"lectern/internal/videohost"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <files...>",
		Short: "Classify files and show their destinations without uploading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolveSourcePaths(args, false)
			if err != nil {
				return err
			}

			sched, store, closeCatalog, err := ctx.buildScheduler(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			queued, held := sched.Enqueue(paths)
			out := cmd.OutOrStdout()
			renderGroups(out, projection.Project(store.Snapshot()), shouldColorize(out))
			fmt.Fprintf(out, "%d ready to upload, %d need manual selection\n", queued, held)
			return nil
		},
	}
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var noRetry bool
	var pushEmbeds bool
	var libraryName string
	var collectionName string

	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload files to their classified libraries and collections",
		Long: "Upload classifies each file, uploads it to the matching library and collection,\n" +
			"and retries failures. Press Ctrl-C once to pause in-flight transfers; twice to abort.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			paths, err := resolveSourcePaths(args, true)
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sched, store, closeCatalog, err := ctx.buildScheduler(runCtx)
			if err != nil {
				return err
			}
			defer closeCatalog()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			notifier := notifications.NewService(cfg)

			sched.SetUploadedHook(func(item queue.Item) {
				logger.Info("video uploaded",
					logging.String(logging.FieldFilename, item.Filename),
					logging.String(logging.FieldLibrary, item.TargetLibrary),
					logging.String("video_id", item.VideoID))
			})
			if colorize {
				sched.SetObserver(newProgressPrinter(out))
			}

			// First interrupt pauses in-flight transfers; a second aborts
			// the run.
			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					fmt.Fprintln(out, "\npausing; press Ctrl-C again to abort")
					sched.SetGlobalPause(true)
				case <-runCtx.Done():
					return
				}
				select {
				case <-sigCh:
					cancel()
				case <-runCtx.Done():
				}
			}()

			var queued, held int
			if libraryName != "" {
				queued, err = sched.EnqueueTo(paths, libraryName, collectionName)
				if err != nil {
					return err
				}
			} else {
				queued, held = sched.Enqueue(paths)
			}
			_ = notifier.NotifyBatchStarted(runCtx, queued, held)
			for _, item := range store.Snapshot().Holding {
				_ = notifier.NotifyManualSelectionNeeded(runCtx, item.Filename, item.ManualReason)
			}

			started := time.Now()
			result, runErr := sched.Run(runCtx)

			if !noRetry && result.Failed > 0 && runCtx.Err() == nil {
				outcome, _ := sched.RetryFailed(runCtx)
				if outcome.Attempted > 0 {
					_ = notifier.NotifyRetrySummary(context.Background(), outcome.Recovered, outcome.Failed)
				}
				tally := store.Tally()
				result.Completed = tally.Completed
				result.Failed = tally.Errored
				result.Paused = tally.Paused
			}

			groups := projection.Project(store.Snapshot())
			renderGroups(out, groups, colorize)
			renderSummary(out, groups, time.Since(started), colorize)
			_ = notifier.NotifyBatchCompleted(context.Background(), result.Completed, result.Failed, time.Since(started))

			if pushEmbeds && result.Completed > 0 && runCtx.Err() == nil {
				if err := pushCompletedEmbeds(cmd, ctx, cfg, store, notifier); err != nil {
					return err
				}
			}

			if runErr != nil {
				return runErr
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d uploads failed", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRetry, "no-retry", false, "Skip the automatic retry pass for failed uploads")
	cmd.Flags().BoolVar(&pushEmbeds, "push-embeds", false, "Write embed codes for completed uploads into the spreadsheet")
	cmd.Flags().StringVar(&libraryName, "library", "", "Skip classification and upload everything to this library")
	cmd.Flags().StringVar(&collectionName, "collection", "", "Collection to use with --library")
	cmd.MarkFlagsRequiredTogether("library", "collection")
	return cmd
}

func pushCompletedEmbeds(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, store *queue.Store, notifier notifications.Service) error {
	client, err := ctx.sheetsClient()
	if err != nil {
		return err
	}

	var videos []sheets.Video
	for _, item := range store.Snapshot().Items {
		if item.Status == queue.StatusCompleted && item.VideoID != "" {
			videos = append(videos, sheets.Video{
				Name:      item.Filename,
				EmbedCode: videohost.EmbedCode(item.LibraryID, item.VideoID),
			})
		}
	}
	if len(videos) == 0 {
		return nil
	}

	pushCtx, cancelPush := context.WithTimeout(context.Background(),
		time.Duration(cfg.Sheets.RequestTimeout)*time.Second*2)
	defer cancelPush()

	result, err := client.UpdateEmbeds(pushCtx, videos)
	if err != nil {
		_ = notifier.NotifyError(context.Background(), err, "embed push")
		return fmt.Errorf("push embeds: %w", err)
	}
	_ = notifier.NotifyEmbedsPushed(context.Background(), result.Updated, len(result.NotFoundNames), len(result.SkippedNames))
	printEmbedResult(cmd, result)
	return nil
}

func printEmbedResult(cmd *cobra.Command, result sheets.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sheet updated: %d embeds written\n", result.Updated)
	for _, name := range result.NotFoundNames {
		fmt.Fprintf(out, "  no sheet row for %s\n", name)
	}
	for _, name := range result.SkippedNames {
		fmt.Fprintf(out, "  embed cell already filled for %s\n", name)
	}
}

// resolveSourcePaths expands and optionally stats each argument.
func resolveSourcePaths(args []string, mustExist bool) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		if mustExist {
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("inspect %q: %w", arg, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%q is a directory; pass video files", arg)
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// progressPrinter writes a compact one-line status on every queue update.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) QueueUpdated(groups []projection.Group) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var active, completed, failed, total int
	var current string
	var percent float64
	for _, group := range groups {
		if group.NeedsManualSelection {
			continue
		}
		for _, item := range group.Items {
			total++
			switch item.Status {
			case queue.StatusProcessing:
				active++
				current = item.Filename
				percent = item.ProgressPercent
			case queue.StatusCompleted:
				completed++
			case queue.StatusError:
				failed++
			}
		}
	}

	line := fmt.Sprintf("\r\x1b[K%d/%d done", completed, total)
	if failed > 0 {
		line += fmt.Sprintf(", %d failed", failed)
	}
	if active > 0 {
		line += fmt.Sprintf(" | %s %3.0f%%", current, percent)
	}
	fmt.Fprint(p.out, line)
	if completed+failed == total && total > 0 {
		fmt.Fprintln(p.out)
	}
}
