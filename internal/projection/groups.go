// Package projection turns the flat upload queue into the grouped view
// consumed by presentation layers. Pure functions over queue snapshots;
// nothing here mutates queue state.
package projection

import "lectern/internal/queue"

// ManualSelectionLabel names the reserved bucket for items awaiting a human
// decision.
const ManualSelectionLabel = "Needs manual selection"

// Group buckets queue items that share a (library, collection) destination.
// The grouping key is the literal pair of target names, not remote ids: two
// libraries with identical display names are indistinguishable here. Known
// limitation, kept for simplicity.
type Group struct {
	Library              string
	Collection           string
	NeedsManualSelection bool
	Items                []queue.Item
}

// Project regenerates the grouped view from a queue snapshot. The
// manual-selection bucket always comes first when non-empty; remaining
// groups appear in first-seen queue order.
func Project(snap queue.Snapshot) []Group {
	groups := make([]Group, 0, len(snap.Items)+1)

	if len(snap.Holding) > 0 {
		holding := make([]queue.Item, len(snap.Holding))
		copy(holding, snap.Holding)
		groups = append(groups, Group{
			Library:              ManualSelectionLabel,
			Collection:           ManualSelectionLabel,
			NeedsManualSelection: true,
			Items:                holding,
		})
	}

	index := make(map[[2]string]int)
	for _, item := range snap.Items {
		key := [2]string{item.TargetLibrary, item.TargetCollection}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{
				Library:    item.TargetLibrary,
				Collection: item.TargetCollection,
			})
		}
		groups[pos].Items = append(groups[pos].Items, item)
	}

	return groups
}

// Totals sums item counts per terminal outcome across groups, for batch
// reporting.
type Totals struct {
	Completed int
	Errored   int
	Manual    int
}

// Tally computes outcome totals for a projected view.
func Tally(groups []Group) Totals {
	var totals Totals
	for _, group := range groups {
		if group.NeedsManualSelection {
			totals.Manual += len(group.Items)
			continue
		}
		for _, item := range group.Items {
			switch item.Status {
			case queue.StatusCompleted:
				totals.Completed++
			case queue.StatusError:
				totals.Errored++
			}
		}
	}
	return totals
}
