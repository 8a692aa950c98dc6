package queue

import (
	"errors"
	"sort"
	"sync"
)

// ErrQueueBusy is returned when a clear is refused because items are still
// pending or transferring.
var ErrQueueBusy = errors.New("queue has active items")

// ErrNotFound is returned when an item id is unknown.
var ErrNotFound = errors.New("queue item not found")

// Store holds the upload queue and the manual-selection holding area. The
// scheduler is the only mutator; readers get copies through Snapshot. A
// page-reload-style restart intentionally loses this state.
type Store struct {
	mu      sync.Mutex
	items   []*Item
	holding []*Item
}

// Snapshot is a point-in-time copy of the queue for read-only consumers.
type Snapshot struct {
	Items   []Item
	Holding []Item
}

// Tally aggregates queue counts per key lifecycle state.
type Tally struct {
	Total      int
	Pending    int
	Processing int
	Paused     int
	Completed  int
	Errored    int
	Holding    int
}

// NewStore constructs an empty queue store.
func NewStore() *Store {
	return &Store{}
}

// Add appends a classified item to the main queue.
func (s *Store) Add(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

// AddHolding appends an item to the manual-selection holding area.
func (s *Store) AddHolding(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.NeedsManualSelection = true
	s.holding = append(s.holding, item)
}

// Update runs fn against the live item under the store lock. fn must not
// block on network I/O.
func (s *Store) Update(id string, fn func(*Item)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.findLocked(id); item != nil {
		fn(item)
		return nil
	}
	return ErrNotFound
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.findLocked(id); item != nil {
		return *item, nil
	}
	return Item{}, ErrNotFound
}

// Remove deletes an item from the queue or the holding area.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	for i, item := range s.holding {
		if item.ID == id {
			s.holding = append(s.holding[:i], s.holding[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Promote moves a holding-area item into the main queue with its manually
// assigned destination.
func (s *Store) Promote(id, library, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.holding {
		if item.ID != id {
			continue
		}
		s.holding = append(s.holding[:i], s.holding[i+1:]...)
		item.TargetLibrary = library
		item.TargetCollection = collection
		item.NeedsManualSelection = false
		item.ManualReason = ""
		s.items = append(s.items, item)
		return nil
	}
	return ErrNotFound
}

// Clear empties the queue. Refused while any item is pending or processing.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Status.IsActive() {
			return ErrQueueBusy
		}
	}
	s.items = nil
	s.holding = nil
	return nil
}

// SortPending orders the queue by base filename then question number, so a
// lesson's question variants follow the lesson itself.
func (s *Store) SortPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.items, func(i, j int) bool {
		baseI, qI := s.items[i].SortKey()
		baseJ, qJ := s.items[j].SortKey()
		if baseI != baseJ {
			return baseI < baseJ
		}
		return qI < qJ
	})
}

// IDsInOrder returns the queue's item ids in current order.
func (s *Store) IDsInOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Snapshot copies the current queue state for read-only consumers.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Items:   make([]Item, 0, len(s.items)),
		Holding: make([]Item, 0, len(s.holding)),
	}
	for _, item := range s.items {
		snap.Items = append(snap.Items, *item)
	}
	for _, item := range s.holding {
		snap.Holding = append(snap.Holding, *item)
	}
	return snap
}

// Tally aggregates status counts across the queue and holding area.
func (s *Store) Tally() Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	tally := Tally{Total: len(s.items), Holding: len(s.holding)}
	for _, item := range s.items {
		switch item.Status {
		case StatusPending:
			tally.Pending++
		case StatusProcessing:
			tally.Processing++
		case StatusPaused:
			tally.Paused++
		case StatusCompleted:
			tally.Completed++
		case StatusError:
			tally.Errored++
		}
	}
	return tally
}

func (s *Store) findLocked(id string) *Item {
	for _, item := range s.items {
		if item.ID == id {
			return item
		}
	}
	for _, item := range s.holding {
		if item.ID == id {
			return item
		}
	}
	return nil
}
