package domain

type Tag string

const (
	TagAI        Tag = "ai"
	TagHuman     Tag = "human"
	TagValidated Tag = "validated"
	TagUnknown   Tag = "unknown"
)

// TranslationEntry is the atomic unit of content. Values are opaque; the
// engine never merges below entry granularity.
type TranslationEntry struct {
	Text string `json:"text"`
	Tag  Tag    `json:"tag"`
}

// EqualText reports content equality. Tags carry provenance, not content,
// and are ignored by every comparison in the engine.
func (e TranslationEntry) EqualText(other TranslationEntry) bool {
	return e.Text == other.Text
}

// TranslationMap maps a source key to its translated entry. It represents
// the working copy, a remote copy, an ancestor snapshot, or a merge result.
type TranslationMap map[string]TranslationEntry

func (m TranslationMap) Clone() TranslationMap {
	if m == nil {
		return TranslationMap{}
	}
	clone := make(TranslationMap, len(m))
	for key, entry := range m {
		clone[key] = entry
	}
	return clone
}

func (m TranslationMap) IsEmpty() bool {
	return len(m) == 0
}

// KeyUnion returns the set of keys present in any of the given maps.
func KeyUnion(maps ...TranslationMap) map[string]struct{} {
	union := make(map[string]struct{})
	for _, m := range maps {
		for key := range m {
			union[key] = struct{}{}
		}
	}
	return union
}
