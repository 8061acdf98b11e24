package service

import (
	"reflect"
	"testing"

	"lexisync/internal/domain"
)

func TestMergeIdenticalMaps(t *testing.T) {
	m := domain.TranslationMap{
		"a": {Text: "1"},
		"b": {Text: "2"},
	}

	result := Merge(m, m.Clone(), m.Clone())

	if result.HasConflicts() {
		t.Fatalf("expected no conflicts, got %d", len(result.Conflicts))
	}
	if !reflect.DeepEqual(result.Merged, m) {
		t.Errorf("merged = %v, want %v", result.Merged, m)
	}
}

func TestMergeRemoteOnlyAddition(t *testing.T) {
	ancestor := domain.TranslationMap{"a": {Text: "1"}}
	local := ancestor.Clone()
	remote := domain.TranslationMap{
		"a": {Text: "1"},
		"k": {Text: "fresh"},
	}

	result := Merge(local, remote, ancestor)

	if result.HasConflicts() {
		t.Fatalf("expected no conflicts, got %v", result.Conflicts)
	}
	if got := result.Merged["k"].Text; got != "fresh" {
		t.Errorf("merged[k] = %q, want %q", got, "fresh")
	}
}

func TestMergeLocalOnlyChange(t *testing.T) {
	ancestor := domain.TranslationMap{"a": {Text: "old"}}
	local := domain.TranslationMap{"a": {Text: "new"}}
	remote := ancestor.Clone()

	result := Merge(local, remote, ancestor)

	if result.HasConflicts() {
		t.Fatalf("expected no conflicts, got %v", result.Conflicts)
	}
	if got := result.Merged["a"].Text; got != "new" {
		t.Errorf("merged[a] = %q, want %q", got, "new")
	}
}

func TestMergeRemoteOnlyEdit(t *testing.T) {
	// Local untouched since the ancestor: the remote edit fast-forwards.
	ancestor := domain.TranslationMap{"greeting": {Text: "hi"}}
	local := domain.TranslationMap{"greeting": {Text: "hi"}}
	remote := domain.TranslationMap{"greeting": {Text: "hey"}}

	result := Merge(local, remote, ancestor)

	if result.HasConflicts() {
		t.Fatalf("expected fast-forward, got conflicts %v", result.Conflicts)
	}
	if got := result.Merged["greeting"].Text; got != "hey" {
		t.Errorf("merged[greeting] = %q, want %q", got, "hey")
	}
}

func TestMergeBothSidesEdited(t *testing.T) {
	ancestor := domain.TranslationMap{"greeting": {Text: "hi"}}
	local := domain.TranslationMap{"greeting": {Text: "hello"}}
	remote := domain.TranslationMap{"greeting": {Text: "hey"}}

	result := Merge(local, remote, ancestor)

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}

	conflict := result.Conflicts[0]
	if conflict.Key != "greeting" {
		t.Errorf("conflict key = %q, want %q", conflict.Key, "greeting")
	}
	if conflict.Local.Text != "hello" || conflict.Remote.Text != "hey" {
		t.Errorf("conflict sides = %v / %v", conflict.Local, conflict.Remote)
	}

	// The provisional value is the remote side so the map stays populated.
	if got := result.Merged["greeting"].Text; got != "hey" {
		t.Errorf("provisional merged[greeting] = %q, want %q", got, "hey")
	}
}

func TestMergeNoAncestorDisagreement(t *testing.T) {
	local := domain.TranslationMap{"k": {Text: "local"}}
	remote := domain.TranslationMap{"k": {Text: "remote"}}

	result := Merge(local, remote, domain.TranslationMap{})

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
}

func TestMergeLocalDeleteVsRemoteEdit(t *testing.T) {
	ancestor := domain.TranslationMap{"k": {Text: "old"}}
	local := domain.TranslationMap{}
	remote := domain.TranslationMap{"k": {Text: "new"}}

	result := Merge(local, remote, ancestor)

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	conflict := result.Conflicts[0]
	if conflict.Local != nil {
		t.Error("expected nil local side for a local deletion")
	}
	if conflict.Remote == nil || conflict.Remote.Text != "new" {
		t.Errorf("remote side = %v, want new", conflict.Remote)
	}
	// Provisional take-remote keeps the remote entry.
	if got := result.Merged["k"].Text; got != "new" {
		t.Errorf("provisional merged[k] = %q, want %q", got, "new")
	}
}

func TestMergeRemoteDeleteVsLocalEdit(t *testing.T) {
	ancestor := domain.TranslationMap{"k": {Text: "old"}}
	local := domain.TranslationMap{"k": {Text: "edited"}}
	remote := domain.TranslationMap{}

	result := Merge(local, remote, ancestor)

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	conflict := result.Conflicts[0]
	if conflict.Remote != nil {
		t.Error("expected nil remote side for a remote deletion")
	}
	// Provisional take-remote means the key is absent until resolved.
	if _, ok := result.Merged["k"]; ok {
		t.Error("expected provisional merged map to omit the remotely deleted key")
	}
}

func TestMergeDeletedOnBothSides(t *testing.T) {
	ancestor := domain.TranslationMap{"k": {Text: "old"}}

	result := Merge(domain.TranslationMap{}, domain.TranslationMap{}, ancestor)

	if result.HasConflicts() {
		t.Fatalf("expected no conflicts, got %v", result.Conflicts)
	}
	if len(result.Merged) != 0 {
		t.Errorf("merged = %v, want empty", result.Merged)
	}
}

func TestMergeDeterministic(t *testing.T) {
	ancestor := domain.TranslationMap{
		"a": {Text: "1"}, "b": {Text: "2"}, "c": {Text: "3"},
	}
	local := domain.TranslationMap{
		"a": {Text: "1-local"}, "b": {Text: "2"}, "c": {Text: "3-local"},
	}
	remote := domain.TranslationMap{
		"a": {Text: "1-remote"}, "b": {Text: "2"}, "c": {Text: "3-remote"},
	}

	first := Merge(local, remote, ancestor)
	for i := 0; i < 20; i++ {
		next := Merge(local, remote, ancestor)
		if !reflect.DeepEqual(first.Conflicts, next.Conflicts) {
			t.Fatalf("conflict list not deterministic: %v vs %v", first.Conflicts, next.Conflicts)
		}
		if !reflect.DeepEqual(first.Merged, next.Merged) {
			t.Fatalf("merged map not deterministic")
		}
	}

	// Conflicts come back sorted by key.
	if first.Conflicts[0].Key != "a" || first.Conflicts[1].Key != "c" {
		t.Errorf("conflicts not sorted: %v", first.Conflicts)
	}
}

func TestMergeUnionInvariant(t *testing.T) {
	ancestor := domain.TranslationMap{"a": {Text: "1"}, "b": {Text: "2"}}
	local := domain.TranslationMap{"a": {Text: "1"}, "c": {Text: "3"}}
	remote := domain.TranslationMap{"b": {Text: "2x"}, "d": {Text: "4"}}

	result := Merge(local, remote, ancestor)

	// Every merged key must come from the union of the three inputs.
	union := domain.KeyUnion(local, remote, ancestor)
	for key := range result.Merged {
		if _, ok := union[key]; !ok {
			t.Errorf("merged contains invented key %q", key)
		}
	}
}
