package service

import (
	"sort"

	"lexisync/internal/domain"
)

// Change tracking compares the working copy against the ancestor snapshot.
// A key counts as changed when it was added, removed, or its text differs;
// a tag change alone is not a content change. Pure functions, no state.

func CountChanges(working, ancestor domain.TranslationMap) int {
	return len(changedKeys(working, ancestor))
}

// Diff returns the changed keys in sorted order.
func Diff(working, ancestor domain.TranslationMap) []string {
	keys := changedKeys(working, ancestor)
	sort.Strings(keys)
	return keys
}

func changedKeys(working, ancestor domain.TranslationMap) []string {
	var keys []string
	for key := range domain.KeyUnion(working, ancestor) {
		w, inWorking := working[key]
		a, inAncestor := ancestor[key]

		switch {
		case inWorking != inAncestor:
			keys = append(keys, key)
		case !w.EqualText(a):
			keys = append(keys, key)
		}
	}
	return keys
}
