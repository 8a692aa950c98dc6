package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"lectern/internal/projection"
	"lectern/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderGroups draws the grouped queue as one table per destination.
func renderGroups(out io.Writer, groups []projection.Group, colorize bool) {
	for _, group := range groups {
		title := fmt.Sprintf("%s / %s", group.Library, group.Collection)
		if group.NeedsManualSelection {
			title = group.Library
		}
		if colorize {
			title = ansiBlue + title + ansiReset
		}
		fmt.Fprintln(out, title)

		rows := make([][]string, 0, len(group.Items))
		for _, item := range group.Items {
			rows = append(rows, []string{
				item.Filename,
				statusCell(item, colorize),
				progressCell(item),
				detailCell(item),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"File", "Status", "Progress", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
}

func statusCell(item queue.Item, colorize bool) string {
	label := string(item.Status)
	if item.NeedsManualSelection {
		label = "needs selection"
	}
	if !colorize {
		return label
	}
	switch {
	case item.NeedsManualSelection:
		return ansiYellow + label + ansiReset
	case item.Status == queue.StatusCompleted:
		return ansiGreen + label + ansiReset
	case item.Status == queue.StatusError:
		return ansiRed + label + ansiReset
	case item.Status == queue.StatusPaused:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func progressCell(item queue.Item) string {
	if item.NeedsManualSelection {
		return "-"
	}
	cell := fmt.Sprintf("%3.0f%%", item.ProgressPercent)
	if item.Status == queue.StatusProcessing && item.UploadSpeedBps > 0 {
		cell = fmt.Sprintf("%s @ %s/s", cell, humanize.Bytes(uint64(item.UploadSpeedBps)))
	}
	return cell
}

func detailCell(item queue.Item) string {
	switch {
	case item.NeedsManualSelection:
		return item.ManualReason
	case item.ErrorMessage != "":
		return item.ErrorMessage
	case item.Confidence > 0:
		return fmt.Sprintf("confidence %d", item.Confidence)
	default:
		return ""
	}
}

// renderSummary writes the one-line batch outcome.
func renderSummary(out io.Writer, groups []projection.Group, elapsed time.Duration, colorize bool) {
	totals := projection.Tally(groups)
	parts := []string{fmt.Sprintf("%d uploaded", totals.Completed)}
	if totals.Errored > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", totals.Errored))
	}
	if totals.Manual > 0 {
		parts = append(parts, fmt.Sprintf("%d need manual selection", totals.Manual))
	}
	line := strings.Join(parts, ", ")
	if elapsed > 0 {
		line = fmt.Sprintf("%s in %s", line, elapsed.Round(time.Second))
	}
	if colorize {
		if totals.Errored > 0 {
			line = ansiRed + line + ansiReset
		} else {
			line = ansiGreen + line + ansiReset
		}
	}
	fmt.Fprintln(out, line)
}
