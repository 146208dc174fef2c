// Package ledger reconciles the duplicate-prone upstream gift-throw log into a
// deduplicated, accumulated view with at most one entry per (viewer, gift) pair.
package ledger

import (
	"sort"

	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
)

// Entry is the merged representation of every gift-throw observed for one
// (UserID, GiftID) pair. Num accumulates the reported quantities; CreatedAt
// holds the newest timestamp seen for the pair.
type Entry struct {
	UserID    int64  `json:"user_id"`
	GiftID    int64  `json:"gift_id"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Num       int64  `json:"num"`
	CreatedAt int64  `json:"created_at"`
}

// entryKey is the composite dedup key. Both components are numeric upstream
// identifiers, so a struct key avoids the collision risk of string
// concatenation.
type entryKey struct {
	UserID int64
	GiftID int64
}

// Merge folds one snapshot's full raw gift log into the running ledger.
//
// The upstream log restates history: each snapshot carries the complete
// gift-throw log to date, so any pair present in incoming is re-derived from
// incoming alone. Within the batch, the first record for a pair seeds its
// entry and later records add Num and advance CreatedAt. Pairs from current
// that the incoming log no longer mentions carry forward unchanged, which
// keeps entries alive when upstream trims its reporting window.
//
// Merge is pure and deterministic. Re-applying the same incoming log is a
// no-op, and a superset log never lowers any pair's Num. The result is sorted
// by CreatedAt descending, most recent activity first.
func Merge(current []Entry, incoming []snapshot.GiftThrowRecord) []Entry {
	merged := make(map[entryKey]Entry, len(current)+len(incoming))
	// Seed from current so pairs outside upstream's trimmed reporting window
	// survive; any pair restated below is replaced wholesale.
	for _, entry := range current {
		merged[entryKey{UserID: entry.UserID, GiftID: entry.GiftID}] = entry
	}

	restated := make(map[entryKey]bool, len(incoming))
	for _, record := range incoming {
		key := entryKey{UserID: record.UserID, GiftID: record.GiftID}
		if !restated[key] {
			restated[key] = true
			merged[key] = Entry{
				UserID:    record.UserID,
				GiftID:    record.GiftID,
				AvatarURL: record.AvatarURL,
				Name:      record.Name,
				Image:     record.Image,
				Num:       record.Num,
				CreatedAt: record.CreatedAt,
			}
			continue
		}

		entry := merged[key]
		entry.Num += record.Num
		if record.CreatedAt > entry.CreatedAt {
			entry.CreatedAt = record.CreatedAt
		}
		merged[key] = entry
	}

	entries := make([]Entry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt != entries[j].CreatedAt {
			return entries[i].CreatedAt > entries[j].CreatedAt
		}
		if entries[i].UserID != entries[j].UserID {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].GiftID < entries[j].GiftID
	})
	return entries
}
