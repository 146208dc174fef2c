package snapshot

import (
	"encoding/json"
	"time"
)

var jsonNull = json.RawMessage("null")

// Normalize shapes raw upstream bodies into a structurally complete
// RoomSnapshot. It never fails: a field that is missing, null, or not an array
// becomes an empty sequence, and a status body that is not valid JSON becomes
// JSON null. The snapshot timestamp is taken from at, not from upstream.
func Normalize(raw RawSources, at time.Time) RoomSnapshot {
	return RoomSnapshot{
		Status:    normalizeStatus(raw.Status),
		Comments:  normalizeComments(raw.Comments),
		Gifts:     normalizeGiftList(raw.GiftList),
		GiftLogs:  normalizeGiftLog(raw.GiftLog),
		Timestamp: at.UnixMilli(),
	}
}

func normalizeStatus(body json.RawMessage) json.RawMessage {
	if len(body) == 0 || !json.Valid(body) {
		return jsonNull
	}
	return body
}

func normalizeComments(body json.RawMessage) []CommentEvent {
	var envelope struct {
		CommentLog json.RawMessage `json:"comment_log"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []CommentEvent{}
	}
	comments := make([]CommentEvent, 0)
	if err := json.Unmarshal(envelope.CommentLog, &comments); err != nil || comments == nil {
		return []CommentEvent{}
	}
	return comments
}

func normalizeGiftList(body json.RawMessage) []GiftCatalogEntry {
	var envelope struct {
		Normal json.RawMessage `json:"normal"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []GiftCatalogEntry{}
	}
	gifts := make([]GiftCatalogEntry, 0)
	if err := json.Unmarshal(envelope.Normal, &gifts); err != nil || gifts == nil {
		return []GiftCatalogEntry{}
	}
	return gifts
}

func normalizeGiftLog(body json.RawMessage) []GiftThrowRecord {
	var envelope struct {
		GiftLog json.RawMessage `json:"gift_log"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []GiftThrowRecord{}
	}
	records := make([]GiftThrowRecord, 0)
	if err := json.Unmarshal(envelope.GiftLog, &records); err != nil || records == nil {
		return []GiftThrowRecord{}
	}
	return records
}
