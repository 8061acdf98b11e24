package hash

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"lexisync/internal/domain"
)

// Digest computes the canonical content hash of a translation map. Keys are
// walked in sorted order and each field is length-prefixed, so the digest is
// independent of map iteration order and unambiguous across field boundaries.
// Tags participate: the remote store hashes full entries, not just text.
func Digest(m domain.TranslationMap) string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	var lenBuf [8]byte
	writeField := func(s string) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}

	for _, key := range keys {
		entry := m[key]
		writeField(key)
		writeField(entry.Text)
		writeField(string(entry.Tag))
	}

	return hex.EncodeToString(h.Sum(nil))
}
