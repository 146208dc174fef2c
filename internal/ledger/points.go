package ledger

import "github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"

// AnnotatedEntry decorates a ledger entry with the point total derived from
// the latest catalog snapshot.
type AnnotatedEntry struct {
	Entry
	PointTotal int64 `json:"point_total"`
}

// PointValue looks up a gift's point value in the given catalog. Unknown or
// retired gift identifiers resolve to zero rather than failing.
func PointValue(giftID int64, catalog []snapshot.GiftCatalogEntry) int64 {
	for _, gift := range catalog {
		if gift.GiftID == giftID {
			return gift.Point
		}
	}
	return 0
}

// Annotate recomputes point totals for every entry against the most recent
// catalog. The catalog is treated as the current truth; totals are derived on
// demand and never stored.
func Annotate(entries []Entry, catalog []snapshot.GiftCatalogEntry) []AnnotatedEntry {
	annotated := make([]AnnotatedEntry, 0, len(entries))
	for _, entry := range entries {
		annotated = append(annotated, AnnotatedEntry{
			Entry:      entry,
			PointTotal: entry.Num * PointValue(entry.GiftID, catalog),
		})
	}
	return annotated
}
