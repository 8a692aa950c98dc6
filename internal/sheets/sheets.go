package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/services"
)

// Video pairs an uploaded video's display name with its embed markup.
type Video struct {
	Name      string `json:"name"`
	EmbedCode string `json:"embed_code"`
}

// Result summarizes one embed push. Updated counts written cells;
// NotFoundNames lists videos with no matching sheet row; SkippedNames lists
// rows whose embed cell already held a value and was left alone.
type Result struct {
	Updated       int
	NotFoundNames []string
	SkippedNames  []string
}

// Client pushes embed codes into the configured spreadsheet.
type Client struct {
	baseURL       string
	spreadsheetID string
	sheetName     string
	nameColumn    string
	embedColumn   string
	apiToken      string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient constructs a sheets client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       cfg.Sheets.BaseURL,
		spreadsheetID: cfg.Sheets.SpreadsheetID,
		sheetName:     cfg.Sheets.SheetName,
		nameColumn:    cfg.Sheets.NameColumn,
		embedColumn:   cfg.Sheets.EmbedColumn,
		apiToken:      cfg.Sheets.APIToken,
		httpClient:    &http.Client{Timeout: time.Duration(cfg.Sheets.RequestTimeout) * time.Second},
		logger:        logging.NewComponentLogger(logger, "sheets"),
	}
}

var foldCaser = cases.Fold()

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".mkv": {}, ".avi": {}, ".m4v": {}, ".webm": {}, ".ts": {},
}

// matchKey normalizes a name for row matching: trims whitespace, drops a
// trailing video extension, and case-folds.
func matchKey(name string) string {
	trimmed := strings.TrimSpace(name)
	if ext := filepath.Ext(trimmed); ext != "" {
		if _, ok := videoExtensions[strings.ToLower(ext)]; ok {
			trimmed = strings.TrimSuffix(trimmed, ext)
		}
	}
	return foldCaser.String(trimmed)
}

// UpdateEmbeds writes each video's embed markup into the embed column of the
// row whose name column matches. Matching ignores case and a trailing video
// extension. Cells that already hold a value are never overwritten.
func (c *Client) UpdateEmbeds(ctx context.Context, videos []Video) (Result, error) {
	var result Result
	if len(videos) == 0 {
		return result, nil
	}

	names, err := c.columnValues(ctx, c.nameColumn)
	if err != nil {
		return result, services.Wrap(services.ErrRemoteLookup, "sheets", "read name column", "", err)
	}
	embeds, err := c.columnValues(ctx, c.embedColumn)
	if err != nil {
		return result, services.Wrap(services.ErrRemoteLookup, "sheets", "read embed column", "", err)
	}

	// First matching row wins; rows are 1-based in A1 notation.
	rowByKey := make(map[string]int, len(names))
	for i, cell := range names {
		key := matchKey(cell)
		if key == "" {
			continue
		}
		if _, seen := rowByKey[key]; !seen {
			rowByKey[key] = i + 1
		}
	}

	type write struct {
		row   int
		value string
	}
	var writes []write
	for _, video := range videos {
		row, ok := rowByKey[matchKey(video.Name)]
		if !ok {
			result.NotFoundNames = append(result.NotFoundNames, video.Name)
			continue
		}
		if row-1 < len(embeds) && strings.TrimSpace(embeds[row-1]) != "" {
			result.SkippedNames = append(result.SkippedNames, video.Name)
			continue
		}
		writes = append(writes, write{row: row, value: video.EmbedCode})
	}

	if len(writes) == 0 {
		return result, nil
	}

	type valueRange struct {
		Range  string     `json:"range"`
		Values [][]string `json:"values"`
	}
	payload := struct {
		ValueInputOption string       `json:"valueInputOption"`
		Data             []valueRange `json:"data"`
	}{ValueInputOption: "RAW"}
	for _, w := range writes {
		payload.Data = append(payload.Data, valueRange{
			Range:  fmt.Sprintf("%s!%s%d", c.sheetName, c.embedColumn, w.row),
			Values: [][]string{{w.value}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("marshal batch update: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values:batchUpdate",
		c.baseURL, url.PathEscape(c.spreadsheetID))
	if err := c.do(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return result, services.Wrap(services.ErrRemoteLookup, "sheets", "batch update", "", err)
	}

	result.Updated = len(writes)
	c.logger.Info("embed codes pushed",
		logging.Int("updated", result.Updated),
		logging.Int("not_found", len(result.NotFoundNames)),
		logging.Int("skipped", len(result.SkippedNames)))
	return result, nil
}

// columnValues reads one whole column as a flat slice, blank cells included
// so indexes line up with sheet rows.
func (c *Client) columnValues(ctx context.Context, column string) ([]string, error) {
	cellRange := fmt.Sprintf("%s!%s1:%s", c.sheetName, column, column)
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(cellRange))

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	values := make([]string, len(payload.Values))
	for i, row := range payload.Values {
		if len(row) > 0 {
			values[i] = row[0]
		}
	}
	return values, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheets returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
