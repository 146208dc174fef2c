package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
	"github.com/ToshikiOmura/shoeroom-logs/internal/stream"
	"github.com/gin-gonic/gin"
)

type staticSource struct {
	result snapshot.RoomSnapshot
	err    error
}

func (s staticSource) RoomSnapshot(ctx context.Context, roomID string) (snapshot.RoomSnapshot, error) {
	return s.result, s.err
}

func newTestHandler(t *testing.T, source staticSource) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler, err := NewHTTPHandler(Dependencies{
		Source:       source,
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return handler
}

func TestNewHTTPHandlerRequiresSource(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); err == nil {
		t.Fatal("expected error for missing snapshot source")
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, staticSource{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}

func TestLiveStreamRejectsMissingRoomID(t *testing.T) {
	handler := newTestHandler(t, staticSource{})

	for _, target := range []string{"/api/live/stream", "/api/live/stream?room_id=", "/api/live/stream?room_id=%20"} {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d for %q, got %d", http.StatusBadRequest, target, recorder.Code)
		}
		if contentType := recorder.Header().Get("Content-Type"); contentType == "text/event-stream" {
			t.Fatalf("expected no stream to open for %q", target)
		}
		var payload map[string]string
		if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
			t.Fatalf("expected json error payload, got %q", recorder.Body.String())
		}
		if payload["error"] == "" {
			t.Fatalf("expected error description, got %#v", payload)
		}
	}
}

func TestWriteEventFrames(t *testing.T) {
	roomSnapshot := snapshot.RoomSnapshot{
		Status:    json.RawMessage(`{"is_live":1}`),
		Comments:  []snapshot.CommentEvent{},
		Gifts:     []snapshot.GiftCatalogEntry{},
		GiftLogs:  []snapshot.GiftThrowRecord{},
		Timestamp: 42,
	}

	var dataBuffer writerBuffer
	if err := writeEvent(&dataBuffer, stream.Event{Snapshot: &roomSnapshot}); err != nil {
		t.Fatalf("failed to write data event: %v", err)
	}
	dataFrame := dataBuffer.String()
	if dataFrame != `data: {"status":{"is_live":1},"comments":[],"gifts":[],"giftLogs":[],"ts":42}`+"\n\n" {
		t.Fatalf("unexpected data frame: %q", dataFrame)
	}

	var errorBuffer writerBuffer
	failure := &stream.Failure{Kind: "upstream_failure", Message: "boom"}
	if err := writeEvent(&errorBuffer, stream.Event{Failure: failure}); err != nil {
		t.Fatalf("failed to write error event: %v", err)
	}
	errorFrame := errorBuffer.String()
	if errorFrame != `event: error`+"\n"+`data: {"kind":"upstream_failure","message":"boom"}`+"\n\n" {
		t.Fatalf("unexpected error frame: %q", errorFrame)
	}
}

type writerBuffer struct {
	data []byte
}

func (b *writerBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *writerBuffer) String() string {
	return string(b.data)
}
