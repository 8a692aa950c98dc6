package projection_test

import (
	"testing"

	"lectern/internal/projection"
	"lectern/internal/queue"
)

func snapshotFor(t *testing.T) queue.Snapshot {
	t.Helper()
	store := queue.NewStore()
	store.Add(&queue.Item{ID: "1", Filename: "a.mp4", Status: queue.StatusCompleted,
		TargetLibrary: "M2-SCI-P0078-Muslim", TargetCollection: "T1-2025"})
	store.Add(&queue.Item{ID: "2", Filename: "b.mp4", Status: queue.StatusPending,
		TargetLibrary: "M2-SCI-P0078-Muslim", TargetCollection: "T1-2025"})
	store.Add(&queue.Item{ID: "3", Filename: "c.mp4", Status: queue.StatusError,
		TargetLibrary: "M1-AR-P0046-Zakaria", TargetCollection: "RE-2025"})
	store.AddHolding(&queue.Item{ID: "4", Filename: "mystery.mp4"})
	return store.Snapshot()
}

func TestProjectGroupsByDestination(t *testing.T) {
	groups := projection.Project(snapshotFor(t))

	if len(groups) != 3 {
		t.Fatalf("expected manual bucket + 2 destination groups, got %d", len(groups))
	}
	if !groups[0].NeedsManualSelection {
		t.Fatal("manual-selection bucket must come first when non-empty")
	}
	if len(groups[0].Items) != 1 || groups[0].Items[0].ID != "4" {
		t.Fatalf("manual bucket contents wrong: %+v", groups[0].Items)
	}
	if groups[1].Library != "M2-SCI-P0078-Muslim" || len(groups[1].Items) != 2 {
		t.Fatalf("first destination group wrong: %+v", groups[1])
	}
	if groups[2].Collection != "RE-2025" || len(groups[2].Items) != 1 {
		t.Fatalf("second destination group wrong: %+v", groups[2])
	}
}

func TestProjectOmitsManualBucketWhenEmpty(t *testing.T) {
	store := queue.NewStore()
	store.Add(&queue.Item{ID: "1", Filename: "a.mp4", TargetLibrary: "L", TargetCollection: "C"})
	groups := projection.Project(store.Snapshot())
	if len(groups) != 1 || groups[0].NeedsManualSelection {
		t.Fatalf("no manual bucket expected, got %+v", groups)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	snap := snapshotFor(t)
	first := projection.Project(snap)
	second := projection.Project(snap)
	if len(first) != len(second) {
		t.Fatal("projection must be deterministic for a fixed snapshot")
	}
	for i := range first {
		if first[i].Library != second[i].Library || len(first[i].Items) != len(second[i].Items) {
			t.Fatalf("group %d differs between runs", i)
		}
	}
}

func TestTallyCountsOutcomes(t *testing.T) {
	totals := projection.Tally(projection.Project(snapshotFor(t)))
	if totals.Completed != 1 || totals.Errored != 1 || totals.Manual != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
