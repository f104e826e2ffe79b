package snapshot

import (
	"sort"

	"github.com/weftconf/weft/packages/core/config"
)

// Change kinds reported by Diff.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeChanged = "changed"
)

// Change is one difference between a recorded snapshot and a live store.
type Change struct {
	Kind    string
	Section string
	Option  string
	Before  string
	After   string
}

// Diff compares a snapshot against the current store. Options only in
// the store are added, options only in the snapshot are removed. Added
// and changed options come out in store order, removed ones sorted.
func Diff(snap *Snapshot, store *config.Store) []Change {
	before := make(map[string]Entry, len(snap.Entries))
	for _, e := range snap.Entries {
		before[e.Section+"::"+e.Option] = e
	}

	var changes []Change
	seen := make(map[string]bool)
	for _, e := range Flatten(store) {
		key := e.Section + "::" + e.Option
		seen[key] = true

		old, ok := before[key]
		switch {
		case !ok:
			changes = append(changes, Change{
				Kind: ChangeAdded, Section: e.Section, Option: e.Option, After: e.Value,
			})
		case old.Value != e.Value:
			changes = append(changes, Change{
				Kind: ChangeChanged, Section: e.Section, Option: e.Option,
				Before: old.Value, After: e.Value,
			})
		}
	}

	var removed []Change
	for key, e := range before {
		if !seen[key] {
			removed = append(removed, Change{
				Kind: ChangeRemoved, Section: e.Section, Option: e.Option, Before: e.Value,
			})
		}
	}
	sort.Slice(removed, func(i, j int) bool {
		if removed[i].Section != removed[j].Section {
			return removed[i].Section < removed[j].Section
		}
		return removed[i].Option < removed[j].Option
	})

	return append(changes, removed...)
}
