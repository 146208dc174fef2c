package ledger

import (
	"testing"

	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
)

func TestPointValueEmptyCatalog(t *testing.T) {
	if value := PointValue(42, nil); value != 0 {
		t.Fatalf("expected 0 for empty catalog, got %d", value)
	}
	if value := PointValue(42, []snapshot.GiftCatalogEntry{}); value != 0 {
		t.Fatalf("expected 0 for empty catalog, got %d", value)
	}
}

func TestPointValueMatchesCatalogEntry(t *testing.T) {
	catalog := []snapshot.GiftCatalogEntry{
		{GiftID: 7, Point: 3, Name: "heart"},
		{GiftID: 42, Point: 7, Name: "star"},
	}

	if value := PointValue(42, catalog); value != 7 {
		t.Fatalf("expected point value 7, got %d", value)
	}
	if value := PointValue(9000, catalog); value != 0 {
		t.Fatalf("expected 0 for retired gift id, got %d", value)
	}
}

func TestAnnotateComputesPointTotals(t *testing.T) {
	catalog := []snapshot.GiftCatalogEntry{{GiftID: 42, Point: 7}}
	entries := []Entry{
		{UserID: 1, GiftID: 42, Num: 3},
		{UserID: 2, GiftID: 99, Num: 5},
	}

	annotated := Annotate(entries, catalog)

	if len(annotated) != 2 {
		t.Fatalf("expected two annotated entries, got %d", len(annotated))
	}
	if annotated[0].PointTotal != 21 {
		t.Fatalf("expected point total 21, got %d", annotated[0].PointTotal)
	}
	if annotated[1].PointTotal != 0 {
		t.Fatalf("expected point total 0 for unknown gift, got %d", annotated[1].PointTotal)
	}
}
