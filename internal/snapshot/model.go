package snapshot

import "encoding/json"

// RawSources carries the undecoded upstream response bodies for one poll cycle.
// Individual fields may hold malformed JSON; Normalize absorbs that.
type RawSources struct {
	Status   json.RawMessage
	Comments json.RawMessage
	GiftList json.RawMessage
	GiftLog  json.RawMessage
}

// RoomSnapshot is one complete normalized picture of a room captured at one
// poll cycle. Produced fresh every cycle and never mutated afterwards.
type RoomSnapshot struct {
	Status    json.RawMessage    `json:"status"`
	Comments  []CommentEvent     `json:"comments"`
	Gifts     []GiftCatalogEntry `json:"gifts"`
	GiftLogs  []GiftThrowRecord  `json:"giftLogs"`
	Timestamp int64              `json:"ts"`
}

// CommentEvent is a single chat comment as reported by the upstream comment log.
type CommentEvent struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Comment   string `json:"comment"`
	CreatedAt int64  `json:"created_at"`
}

// GiftCatalogEntry is reference data from the gift catalog, keyed by GiftID.
// Point is treated as the current truth at the moment of each snapshot.
type GiftCatalogEntry struct {
	GiftID int64  `json:"gift_id"`
	Image  string `json:"image"`
	Point  int64  `json:"point"`
	Name   string `json:"name"`
}

// GiftThrowRecord is a raw gift-throw log record. The same real-world throw may
// be restated across polls; the ledger package merges restatements.
type GiftThrowRecord struct {
	UserID    int64  `json:"user_id"`
	GiftID    int64  `json:"gift_id"`
	AvatarURL string `json:"avatar_url"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Num       int64  `json:"num"`
	CreatedAt int64  `json:"created_at"`
}
