package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"lectern/internal/classify"
	"lectern/internal/config"
	"lectern/internal/filename"
	"lectern/internal/logging"
	"lectern/internal/projection"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/videohost"
)

// Host is the slice of the video host client the scheduler drives.
type Host interface {
	ListCollections(ctx context.Context, libraryID string) ([]videohost.Collection, error)
	CreateCollection(ctx context.Context, libraryID, name string) (videohost.Collection, error)
	ListVideos(ctx context.Context, libraryID, collectionID string) ([]videohost.Video, error)
	CreateVideo(ctx context.Context, libraryID, title, collectionID string) (string, error)
	UploadBytes(ctx context.Context, libraryID, videoID string, body io.Reader, size int64, progress videohost.ProgressFunc) error
}

// Observer receives the projected queue after every visible mutation.
type Observer interface {
	QueueUpdated(groups []projection.Group)
}

// UploadedFunc runs after each successful upload with the item's remote
// identifiers filled in.
type UploadedFunc func(item queue.Item)

// BatchResult summarizes one scheduler pass.
type BatchResult struct {
	Completed int
	Failed    int
	Paused    int
}

// Deliberate abort causes. Their identity tells the item handler whether a
// cancelled transfer was paused or cancelled, as opposed to having failed.
var (
	errPauseRequested  = services.Wrap(services.ErrAborted, "uploader", "pause", "transfer paused", nil)
	errCancelRequested = services.Wrap(services.ErrAborted, "uploader", "cancel", "transfer cancelled", nil)
)

// Scheduler walks the queue in lesson order and streams each file to its
// resolved destination, at most MaxConcurrent transfers at a time.
type Scheduler struct {
	cfg    *config.Config
	store  *queue.Store
	host   Host
	logger *slog.Logger

	observer   Observer
	onUploaded UploadedFunc

	mu          sync.Mutex
	libraries   []classify.Library
	globalPause bool

	// openSource is swapped in tests.
	openSource func(path string) (io.ReadCloser, int64, error)
}

// NewScheduler constructs a scheduler over the given store and host client.
func NewScheduler(cfg *config.Config, store *queue.Store, host Host, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		store:      store,
		host:       host,
		logger:     logging.NewComponentLogger(logger, "uploader"),
		openSource: openSourceFile,
	}
}

// SetObserver registers the queue projection consumer.
func (s *Scheduler) SetObserver(observer Observer) {
	s.observer = observer
}

// SetUploadedHook registers the post-upload callback. It runs on its own
// goroutine so a slow consumer cannot stall transfers.
func (s *Scheduler) SetUploadedHook(hook UploadedFunc) {
	s.onUploaded = hook
}

// SetLibraries installs the library set used for automatic assignment.
func (s *Scheduler) SetLibraries(libraries []classify.Library) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.libraries = append([]classify.Library(nil), libraries...)
}

func (s *Scheduler) librarySet() []classify.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.libraries
}

func (s *Scheduler) notify() {
	if s.observer != nil {
		s.observer.QueueUpdated(projection.Project(s.store.Snapshot()))
	}
}

// Enqueue classifies each file and places it in the queue, or in the holding
// area when it cannot be parsed or no library clears the confidence
// threshold. Returns how many items landed in each place.
func (s *Scheduler) Enqueue(paths []string) (queued, held int) {
	libraries := s.librarySet()
	threshold := s.cfg.Classify.ConfidenceThreshold

	for _, path := range paths {
		item := &queue.Item{
			ID:         uuid.NewString(),
			SourcePath: path,
			Filename:   filepath.Base(path),
			Status:     queue.StatusPending,
		}

		parsed, err := filename.Parse(item.Filename)
		if err != nil {
			item.ManualReason = "unrecognized filename"
			s.store.AddHolding(item)
			held++
			s.logger.Warn("filename did not parse",
				logging.String(logging.FieldFilename, item.Filename),
				logging.Error(err))
			continue
		}
		item.Parsed = parsed

		match := classify.ResolveLibrary(parsed, libraries)
		item.Alternatives = match.Alternatives
		item.Confidence = match.Confidence

		collection := classify.ResolveCollection(parsed, s.cfg.Uploader.Year)
		item.TargetCollection = collection.Name
		item.CollectionReason = collection.Reason

		if match.Library == nil || match.Confidence < threshold {
			item.ManualReason = fmt.Sprintf("best score %d below threshold %d", match.Confidence, threshold)
			s.store.AddHolding(item)
			held++
			continue
		}

		item.TargetLibrary = match.Library.Name
		item.LibraryID = match.Library.ID
		s.store.Add(item)
		queued++
	}

	s.notify()
	return queued, held
}

// EnqueueTo places every file in the queue bound for an explicit library and
// collection, bypassing classification. Files still get parsed so the display
// ordering and question grouping hold, but a parse failure is not fatal here.
func (s *Scheduler) EnqueueTo(paths []string, libraryName, collectionName string) (int, error) {
	libraryID := ""
	for _, library := range s.librarySet() {
		if strings.EqualFold(library.Name, libraryName) {
			libraryID = library.ID
			libraryName = library.Name
			break
		}
	}
	if libraryID == "" {
		return 0, services.Wrap(services.ErrConfiguration, "uploader", "enqueue",
			"unknown library "+libraryName, nil)
	}

	for _, path := range paths {
		item := &queue.Item{
			ID:               uuid.NewString(),
			SourcePath:       path,
			Filename:         filepath.Base(path),
			Status:           queue.StatusPending,
			TargetLibrary:    libraryName,
			TargetCollection: collectionName,
			LibraryID:        libraryID,
		}
		if parsed, err := filename.Parse(item.Filename); err == nil {
			item.Parsed = parsed
		}
		s.store.Add(item)
	}

	s.notify()
	return len(paths), nil
}

// Assign moves a holding-area item into the queue with an operator-chosen
// destination.
func (s *Scheduler) Assign(id, libraryName, collectionName string) error {
	libraryID := ""
	for _, library := range s.librarySet() {
		if library.Name == libraryName {
			libraryID = library.ID
			break
		}
	}
	if libraryID == "" {
		return services.Wrap(services.ErrConfiguration, "uploader", "assign",
			"unknown library "+libraryName, nil)
	}
	if err := s.store.Promote(id, libraryName, collectionName); err != nil {
		return err
	}
	_ = s.store.Update(id, func(item *queue.Item) {
		item.LibraryID = libraryID
	})
	s.notify()
	return nil
}

// Run processes every pending item, honoring the concurrency ceiling, and
// returns when all launched transfers have settled.
func (s *Scheduler) Run(ctx context.Context) (BatchResult, error) {
	s.store.SortPending()
	s.notify()

	ceiling := s.cfg.Uploader.MaxConcurrent
	if ceiling < 1 {
		ceiling = 1
	}
	sem := semaphore.NewWeighted(int64(ceiling))
	var wg sync.WaitGroup

	for _, id := range s.store.IDsInOrder() {
		item, err := s.store.Get(id)
		if err != nil || item.Status != queue.StatusPending {
			continue
		}
		if s.paused() {
			_ = s.store.Update(id, func(it *queue.Item) { it.SetPaused() })
			s.notify()
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(itemID string) {
			defer wg.Done()
			defer sem.Release(1)
			s.processItem(ctx, itemID)
		}(id)
	}
	wg.Wait()

	tally := s.store.Tally()
	result := BatchResult{
		Completed: tally.Completed,
		Failed:    tally.Errored,
		Paused:    tally.Paused,
	}
	s.logger.Info("upload pass finished",
		logging.Int("completed", result.Completed),
		logging.Int("failed", result.Failed),
		logging.Int("paused", result.Paused))
	return result, ctx.Err()
}

func (s *Scheduler) processItem(ctx context.Context, id string) {
	if s.paused() {
		_ = s.store.Update(id, func(item *queue.Item) { item.SetPaused() })
		s.notify()
		return
	}

	itemCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if err := s.store.Update(id, func(item *queue.Item) {
		item.BeginTransfer(cancel)
	}); err != nil {
		return
	}
	s.notify()

	item, err := s.store.Get(id)
	if err != nil {
		return
	}

	uploadErr := s.transfer(itemCtx, id, item)
	if uploadErr != nil {
		// An abort raised during a destination lookup surfaces as a plain
		// context error; the cause on the item context carries the real
		// reason.
		if cause := context.Cause(itemCtx); errors.Is(cause, errPauseRequested) || errors.Is(cause, errCancelRequested) {
			uploadErr = cause
		}
	}
	switch {
	case uploadErr == nil:
		// transfer already marked the item completed
	case errors.Is(uploadErr, errPauseRequested):
		_ = s.store.Update(id, func(it *queue.Item) { it.SetPaused() })
	case errors.Is(uploadErr, errCancelRequested):
		_ = s.store.Remove(id)
	default:
		_ = s.store.Update(id, func(it *queue.Item) { it.SetFailed(uploadErr.Error()) })
		s.logger.Error("upload failed",
			logging.String(logging.FieldItemID, id),
			logging.String(logging.FieldFilename, item.Filename),
			logging.Error(uploadErr))
	}
	s.notify()
}

// transfer resolves the destination, skips titles the host already has, and
// streams the file body.
func (s *Scheduler) transfer(ctx context.Context, id string, item queue.Item) error {
	if item.LibraryID == "" {
		return services.Wrap(services.ErrConfiguration, "uploader", "transfer",
			"item has no resolved library", nil)
	}
	title := displayTitle(item.Filename)

	collectionID, err := s.ensureCollection(ctx, item.LibraryID, item.TargetCollection)
	if err != nil {
		return err
	}

	existing, err := s.host.ListVideos(ctx, item.LibraryID, collectionID)
	if err != nil {
		return err
	}
	for _, video := range existing {
		if strings.EqualFold(video.Title, title) {
			s.logger.Info("title already on host, skipping upload",
				logging.String(logging.FieldItemID, id),
				logging.String(logging.FieldFilename, item.Filename))
			s.finish(id, item.LibraryID, video.ID)
			return nil
		}
	}

	videoID, err := s.host.CreateVideo(ctx, item.LibraryID, title, collectionID)
	if err != nil {
		return err
	}

	body, size, err := s.openSource(item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrTransfer, "uploader", "open source", item.SourcePath, err)
	}
	defer body.Close()

	started := time.Now()
	lastNotified := -1
	progress := func(sent, total int64) {
		percent := 0.0
		if total > 0 {
			percent = float64(sent) / float64(total) * 100
		}
		speed := 0.0
		if elapsed := time.Since(started).Seconds(); elapsed > 0 {
			speed = float64(sent) / elapsed
		}
		_ = s.store.Update(id, func(it *queue.Item) { it.SetProgress(percent, speed) })
		if whole := int(percent); whole != lastNotified {
			lastNotified = whole
			s.notify()
		}
	}

	if err := s.host.UploadBytes(ctx, item.LibraryID, videoID, body, size, progress); err != nil {
		if cause := context.Cause(ctx); cause != nil && (errors.Is(cause, errPauseRequested) || errors.Is(cause, errCancelRequested)) {
			return cause
		}
		return err
	}

	s.finish(id, item.LibraryID, videoID)
	return nil
}

func (s *Scheduler) finish(id, libraryID, videoID string) {
	_ = s.store.Update(id, func(it *queue.Item) {
		it.LibraryID = libraryID
		it.VideoID = videoID
		it.SetCompleted()
	})
	if s.onUploaded != nil {
		if done, err := s.store.Get(id); err == nil {
			go s.onUploaded(done)
		}
	}
}

// ensureCollection returns the id of the named collection, creating it when
// the library does not have it yet.
func (s *Scheduler) ensureCollection(ctx context.Context, libraryID, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	collections, err := s.host.ListCollections(ctx, libraryID)
	if err != nil {
		return "", err
	}
	for _, collection := range collections {
		if strings.EqualFold(collection.Name, name) {
			return collection.ID, nil
		}
	}
	created, err := s.host.CreateCollection(ctx, libraryID, name)
	if err != nil {
		return "", err
	}
	s.logger.Info("collection created",
		logging.String(logging.FieldLibrary, libraryID),
		logging.String("collection", name))
	return created.ID, nil
}

// PauseItem pauses one item. A pending item parks immediately; a
// transferring item aborts with a pause cause and keeps its progress.
func (s *Scheduler) PauseItem(id string) error {
	err := s.store.Update(id, func(item *queue.Item) {
		if item.Transferring() {
			item.AbortTransfer(errPauseRequested)
			return
		}
		if item.Status == queue.StatusPending {
			item.SetPaused()
		}
	})
	s.notify()
	return err
}

// ResumeItem returns a paused item to the pending state.
func (s *Scheduler) ResumeItem(id string) error {
	err := s.store.Update(id, func(item *queue.Item) {
		if item.Status == queue.StatusPaused {
			item.Status = queue.StatusPending
			item.ErrorMessage = ""
		}
	})
	s.notify()
	return err
}

// CancelItem removes an item. A transferring item is aborted first; its
// handler removes it once the transport lets go.
func (s *Scheduler) CancelItem(id string) error {
	item, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if item.Status == queue.StatusProcessing {
		err = s.store.Update(id, func(it *queue.Item) {
			it.AbortTransfer(errCancelRequested)
		})
		s.notify()
		return err
	}
	err = s.store.Remove(id)
	s.notify()
	return err
}

// SetGlobalPause toggles the batch-wide pause. Engaging it aborts every
// in-flight transfer with a pause cause; those items land in paused, not
// error. Releasing it returns every paused item to pending so the next pass
// picks them up.
func (s *Scheduler) SetGlobalPause(paused bool) {
	s.mu.Lock()
	s.globalPause = paused
	s.mu.Unlock()

	if !paused {
		for _, snapItem := range s.store.Snapshot().Items {
			if snapItem.Status == queue.StatusPaused {
				_ = s.store.Update(snapItem.ID, func(item *queue.Item) {
					item.Status = queue.StatusPending
					item.ErrorMessage = ""
				})
			}
		}
		s.notify()
		return
	}
	for _, snapItem := range s.store.Snapshot().Items {
		if snapItem.Status == queue.StatusProcessing {
			_ = s.store.Update(snapItem.ID, func(item *queue.Item) {
				item.AbortTransfer(errPauseRequested)
			})
		}
	}
	s.notify()
}

func (s *Scheduler) paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.globalPause
}

// Clear empties the queue, refusing while uploads are pending or running.
func (s *Scheduler) Clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.notify()
	return nil
}

// displayTitle is the remote title for a file: its name without the
// extension.
func displayTitle(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func openSourceFile(path string) (io.ReadCloser, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, err
	}
	return file, info.Size(), nil
}
