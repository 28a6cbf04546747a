package payment

import (
	"sort"
	"strconv"
	"strings"
)

// MetadataKeyPrefix marks the metadata entries that carry purchased photo ids.
// Entries are written as photo_0, photo_1, ... in cart order.
const MetadataKeyPrefix = "photo_"

// MaxMetadataKeys is the processor's limit on metadata entries per session.
const MaxMetadataKeys = 50

// EncodeIDs writes photo ids into a metadata map keyed photo_<index>.
func EncodeIDs(ids []string) map[string]string {
	meta := make(map[string]string, len(ids))
	for i, id := range ids {
		meta[MetadataKeyPrefix+strconv.Itoa(i)] = id
	}
	return meta
}

// DecodeIDs extracts the photo ids from session metadata.
//
// Keys without the prefix are ignored, as are empty values. Ids come back in
// index order with duplicates removed. Keys whose suffix is not a number sort
// after the numbered ones.
func DecodeIDs(meta map[string]string) []string {
	type entry struct {
		key   string
		index int
		value string
	}

	entries := make([]entry, 0, len(meta))
	for k, v := range meta {
		if !strings.HasPrefix(k, MetadataKeyPrefix) {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(k, MetadataKeyPrefix))
		if err != nil || idx < 0 {
			idx = -1
		}
		entries = append(entries, entry{key: k, index: idx, value: v})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.index >= 0 && b.index >= 0:
			return a.index < b.index
		case a.index >= 0:
			return true
		case b.index >= 0:
			return false
		default:
			return a.key < b.key
		}
	})

	ids := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.value]; ok {
			continue
		}
		seen[e.value] = struct{}{}
		ids = append(ids, e.value)
	}
	return ids
}
