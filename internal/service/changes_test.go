package service

import (
	"reflect"
	"testing"

	"lexisync/internal/domain"
)

func TestCountChanges(t *testing.T) {
	tests := []struct {
		name     string
		working  domain.TranslationMap
		ancestor domain.TranslationMap
		want     int
	}{
		{
			name:     "identical maps",
			working:  domain.TranslationMap{"a": {Text: "1"}},
			ancestor: domain.TranslationMap{"a": {Text: "1"}},
			want:     0,
		},
		{
			name:     "added key",
			working:  domain.TranslationMap{"a": {Text: "1"}, "b": {Text: "2"}},
			ancestor: domain.TranslationMap{"a": {Text: "1"}},
			want:     1,
		},
		{
			name:     "removed key",
			working:  domain.TranslationMap{},
			ancestor: domain.TranslationMap{"a": {Text: "1"}},
			want:     1,
		},
		{
			name:     "edited text",
			working:  domain.TranslationMap{"a": {Text: "2"}},
			ancestor: domain.TranslationMap{"a": {Text: "1"}},
			want:     1,
		},
		{
			name:     "tag change alone is not a content change",
			working:  domain.TranslationMap{"a": {Text: "1", Tag: domain.TagValidated}},
			ancestor: domain.TranslationMap{"a": {Text: "1", Tag: domain.TagAI}},
			want:     0,
		},
		{
			name:     "both empty",
			working:  domain.TranslationMap{},
			ancestor: domain.TranslationMap{},
			want:     0,
		},
		{
			name: "mixed additions removals edits",
			working: domain.TranslationMap{
				"kept":   {Text: "same"},
				"edited": {Text: "new"},
				"added":  {Text: "x"},
			},
			ancestor: domain.TranslationMap{
				"kept":    {Text: "same"},
				"edited":  {Text: "old"},
				"removed": {Text: "y"},
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountChanges(tt.working, tt.ancestor); got != tt.want {
				t.Errorf("CountChanges() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDiffSorted(t *testing.T) {
	working := domain.TranslationMap{
		"zebra": {Text: "new"},
		"alpha": {Text: "added"},
	}
	ancestor := domain.TranslationMap{
		"zebra": {Text: "old"},
		"mid":   {Text: "removed"},
	}

	got := Diff(working, ancestor)
	want := []string{"alpha", "mid", "zebra"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff() = %v, want %v", got, want)
	}
}

func TestDiffPure(t *testing.T) {
	working := domain.TranslationMap{"a": {Text: "1"}}
	ancestor := domain.TranslationMap{"b": {Text: "2"}}

	Diff(working, ancestor)

	if len(working) != 1 || len(ancestor) != 1 {
		t.Error("Diff must not mutate its inputs")
	}
}
