package service

import (
	"sort"

	"lexisync/internal/domain"
)

// Merge performs a three-way merge of the working copy, the remote copy,
// and their common ancestor. For every key in the union of the three maps:
// equal sides agree, a side that still matches the ancestor fast-forwards
// to the other, and anything else is a conflict. Conflicted keys receive
// the remote value provisionally so the merged map stays fully populated
// while resolutions are pending.
//
// Pure function of its inputs; conflicts come back sorted by key so
// identical inputs always produce identical results.
func Merge(local, remote, ancestor domain.TranslationMap) *domain.MergeResult {
	result := &domain.MergeResult{
		Merged:    domain.TranslationMap{},
		Conflicts: []domain.MergeConflict{},
	}

	for key := range domain.KeyUnion(local, remote, ancestor) {
		l, inLocal := local[key]
		r, inRemote := remote[key]

		switch {
		case inLocal && inRemote && l.EqualText(r):
			// Both sides agree; keep the local entry so its tag survives.
			result.Merged[key] = l

		case !inLocal && !inRemote:
			// Deleted on both sides (or ancestor-only ghost); nothing to keep.

		case sideMatchesAncestor(local, ancestor, key):
			// Local untouched since the ancestor: fast-forward to remote.
			if inRemote {
				result.Merged[key] = r
			}

		case sideMatchesAncestor(remote, ancestor, key):
			// Remote untouched: the local change wins without conflict.
			if inLocal {
				result.Merged[key] = l
			}

		default:
			// Both sides diverged from the ancestor (or there is no
			// ancestor to arbitrate). Record the conflict and default to
			// the remote side.
			conflict := domain.MergeConflict{Key: key}
			if inLocal {
				entry := l
				conflict.Local = &entry
			}
			if inRemote {
				entry := r
				conflict.Remote = &entry
				result.Merged[key] = r
			}
			result.Conflicts = append(result.Conflicts, conflict)
		}
	}

	sort.Slice(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].Key < result.Conflicts[j].Key
	})

	return result
}

// sideMatchesAncestor reports whether a side is unchanged relative to the
// ancestor for the given key: both absent, or both present with equal text.
func sideMatchesAncestor(side, ancestor domain.TranslationMap, key string) bool {
	s, inSide := side[key]
	a, inAncestor := ancestor[key]
	if inSide != inAncestor {
		return false
	}
	if !inSide {
		return true
	}
	return s.EqualText(a)
}
