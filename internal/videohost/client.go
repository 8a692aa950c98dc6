package videohost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lectern/internal/config"
	"lectern/internal/filename"
	"lectern/internal/logging"
	"lectern/internal/services"
)

// Library is a top-level bucket on the video host. The APIKey is the
// library-scoped access credential the host returns alongside the listing.
type Library struct {
	ID     string
	Name   string
	APIKey string
}

// Collection is a named sub-bucket within a library.
type Collection struct {
	ID   string
	Name string
}

// Video is a remote video entry.
type Video struct {
	ID    string
	Title string
}

// ProgressFunc receives monotonically increasing byte counts during an
// upload.
type ProgressFunc func(sent, total int64)

// CredentialSource resolves library-scoped access keys. The catalog package
// provides the production implementation; the account key is the fallback.
type CredentialSource interface {
	LibraryKey(libraryID string) (string, bool)
}

// Client talks to the remote video service. All requests flow through a
// shared rate limiter; uploads additionally carry an idle watchdog so a
// stalled transfer cannot hold its slot forever.
type Client struct {
	baseURL      string
	videoBaseURL string
	accountKey   string
	pageSize     int
	idleTimeout  time.Duration
	creds        CredentialSource
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient constructs a video host client from configuration.
func NewClient(cfg *config.Config, creds CredentialSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      cfg.VideoHost.BaseURL,
		videoBaseURL: cfg.VideoHost.VideoBaseURL,
		accountKey:   cfg.VideoHost.APIKey,
		pageSize:     cfg.VideoHost.PageSize,
		idleTimeout:  cfg.IdleTimeout(),
		creds:        creds,
		httpClient:   &http.Client{Timeout: time.Duration(cfg.VideoHost.RequestTimeout) * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(cfg.VideoHost.RequestsPerSec), 1),
		logger:       logging.NewComponentLogger(logger, "videohost"),
	}
}

func (c *Client) key(libraryID string) string {
	if c.creds != nil && libraryID != "" {
		if key, ok := c.creds.LibraryKey(libraryID); ok && key != "" {
			return key
		}
	}
	return c.accountKey
}

// ListLibraries fetches every library visible to the account key.
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	endpoint := fmt.Sprintf("%s/videolibrary?page=1&perPage=%d", c.baseURL, c.pageSize)

	var payload struct {
		Items []struct {
			ID     json.Number `json:"Id"`
			Name   string      `json:"Name"`
			APIKey string      `json:"ApiKey"`
		} `json:"Items"`
	}
	if err := c.getJSON(ctx, endpoint, c.accountKey, &payload); err != nil {
		return nil, services.Wrap(services.ErrRemoteLookup, "videohost", "list libraries", "", err)
	}

	libraries := make([]Library, 0, len(payload.Items))
	for _, item := range payload.Items {
		name := item.Name
		if name == "" {
			name = "Unnamed Library"
		}
		libraries = append(libraries, Library{
			ID:     item.ID.String(),
			Name:   name,
			APIKey: item.APIKey,
		})
	}
	return libraries, nil
}

// ListCollections fetches the collections of one library.
func (c *Client) ListCollections(ctx context.Context, libraryID string) ([]Collection, error) {
	endpoint := fmt.Sprintf("%s/library/%s/collections?page=1&itemsPerPage=%d&orderBy=date",
		c.videoBaseURL, url.PathEscape(libraryID), c.pageSize)

	var payload struct {
		Items []struct {
			GUID string `json:"guid"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, endpoint, c.key(libraryID), &payload); err != nil {
		return nil, services.Wrap(services.ErrRemoteLookup, "videohost", "list collections", "library "+libraryID, err)
	}

	collections := make([]Collection, 0, len(payload.Items))
	for _, item := range payload.Items {
		collections = append(collections, Collection{ID: item.GUID, Name: item.Name})
	}
	return collections, nil
}

// CreateCollection creates a named collection inside a library.
func (c *Client) CreateCollection(ctx context.Context, libraryID, name string) (Collection, error) {
	endpoint := fmt.Sprintf("%s/library/%s/collections", c.videoBaseURL, url.PathEscape(libraryID))

	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return Collection{}, fmt.Errorf("marshal collection: %w", err)
	}

	var payload struct {
		GUID string `json:"guid"`
		Name string `json:"name"`
	}
	if err := c.postJSON(ctx, endpoint, c.key(libraryID), body, &payload); err != nil {
		return Collection{}, services.Wrap(services.ErrRemoteLookup, "videohost", "create collection", name, err)
	}
	if payload.Name == "" {
		payload.Name = name
	}
	return Collection{ID: payload.GUID, Name: payload.Name}, nil
}

// ListVideos fetches the videos of a library, optionally scoped to one
// collection, in natural lesson order (base title first, question variants
// after, numerically).
func (c *Client) ListVideos(ctx context.Context, libraryID, collectionID string) ([]Video, error) {
	endpoint := fmt.Sprintf("%s/library/%s/videos?page=1&itemsPerPage=%d",
		c.videoBaseURL, url.PathEscape(libraryID), c.pageSize)
	if collectionID != "" {
		endpoint += "&collection=" + url.QueryEscape(collectionID)
	}

	var payload struct {
		Items []struct {
			GUID  string `json:"guid"`
			Title string `json:"title"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, endpoint, c.key(libraryID), &payload); err != nil {
		return nil, services.Wrap(services.ErrRemoteLookup, "videohost", "list videos", "library "+libraryID, err)
	}

	videos := make([]Video, 0, len(payload.Items))
	for _, item := range payload.Items {
		videos = append(videos, Video{ID: item.GUID, Title: item.Title})
	}
	sort.SliceStable(videos, func(i, j int) bool {
		return filename.Compare(videos[i].Title, videos[j].Title) < 0
	})
	return videos, nil
}

// CreateVideo registers a video entry and returns its remote id. Bytes are
// sent separately through UploadBytes.
func (c *Client) CreateVideo(ctx context.Context, libraryID, title, collectionID string) (string, error) {
	endpoint := fmt.Sprintf("%s/library/%s/videos", c.videoBaseURL, url.PathEscape(libraryID))

	body, err := json.Marshal(map[string]string{
		"title":        title,
		"collectionId": collectionID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal video: %w", err)
	}

	var payload struct {
		GUID string `json:"guid"`
	}
	if err := c.postJSON(ctx, endpoint, c.key(libraryID), body, &payload); err != nil {
		return "", services.Wrap(services.ErrTransfer, "videohost", "create video", title, err)
	}
	if payload.GUID == "" {
		return "", services.Wrap(services.ErrTransfer, "videohost", "create video", "host returned no video id", nil)
	}
	return payload.GUID, nil
}

// UploadBytes streams the file body to the remote video entry. Progress is
// reported with monotonically increasing byte counts. Cancelling ctx stops
// the transport promptly; a transfer idle longer than the watchdog duration
// fails with a transfer error.
func (c *Client) UploadBytes(ctx context.Context, libraryID, videoID string, body io.Reader, size int64, progress ProgressFunc) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	uploadCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	reader := &progressReader{
		inner:    body,
		total:    size,
		progress: progress,
	}
	if c.idleTimeout > 0 {
		watchdog := time.AfterFunc(c.idleTimeout, func() {
			cancel(services.Wrap(services.ErrTransfer, "videohost", "upload bytes",
				"no bytes moved for "+c.idleTimeout.String(), nil))
		})
		defer watchdog.Stop()
		reader.touch = func() { watchdog.Reset(c.idleTimeout) }
	}

	endpoint := fmt.Sprintf("%s/library/%s/videos/%s",
		c.videoBaseURL, url.PathEscape(libraryID), url.PathEscape(videoID))
	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPut, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("AccessKey", c.key(libraryID))
	req.Header.Set("Content-Type", "application/octet-stream")
	if size > 0 {
		req.ContentLength = size
	}

	// Uploads run without the client-wide timeout; the watchdog and ctx
	// govern their lifetime.
	transport := &http.Client{}
	resp, err := transport.Do(req)
	if err != nil {
		if cause := context.Cause(uploadCtx); cause != nil && cause != uploadCtx.Err() {
			return cause
		}
		if ctx.Err() != nil {
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransfer, "videohost", "upload bytes", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrTransfer, "videohost", "upload bytes",
			fmt.Sprintf("host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if progress != nil && size > 0 {
		progress(size, size)
	}
	return nil
}

// EmbedCode renders the iframe snippet that plays a video. Deterministic and
// local: the markup depends only on the (libraryID, videoID) pair.
func (c *Client) EmbedCode(libraryID, videoID string) string {
	return EmbedCode(libraryID, videoID)
}

// EmbedCode is the package-level form for callers without a client.
func EmbedCode(libraryID, videoID string) string {
	return fmt.Sprintf(
		`<div style="position:relative;padding-top:56.25%%;"><iframe src="https://iframe.mediadelivery.net/embed/%s/%s?autoplay=false&loop=false&muted=false&preload=true&responsive=true" loading="lazy" style="border:0;position:absolute;top:0;height:100%%;width:100%%;" allow="accelerometer;gyroscope;autoplay;encrypted-media;picture-in-picture;" allowfullscreen="true"></iframe></div>`,
		libraryID, videoID,
	)
}

func (c *Client) getJSON(ctx context.Context, endpoint, accessKey string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, accessKey, nil, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, accessKey string, body []byte, out any) error {
	return c.doJSON(ctx, http.MethodPost, endpoint, accessKey, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, accessKey string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("AccessKey", accessKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("unauthorized: check the configured API key")
	}
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
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

// progressReader reports cumulative bytes read and pets the idle watchdog on
// every successful read.
type progressReader struct {
	inner    io.Reader
	total    int64
	sent     int64
	progress ProgressFunc
	touch    func()
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.sent += int64(n)
		if r.touch != nil {
			r.touch()
		}
		if r.progress != nil {
			r.progress(r.sent, r.total)
		}
	}
	return n, err
}
