// Package viewer consumes a relay event stream and maintains the merged gift
// ledger for one room subscription.
package viewer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ToshikiOmura/shoeroom-logs/internal/ledger"
	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
	"github.com/ToshikiOmura/shoeroom-logs/internal/stream"
	"go.uber.org/zap"
)

var (
	errMissingStreamURL = errors.New("viewer: stream url is required")
	errMissingRoomID    = errors.New("viewer: room identifier is required")
	noOpLogger          = zap.NewNop()
)

// Config captures the dependencies of a Viewer.
type Config struct {
	// StreamURL is the relay's stream endpoint, e.g. http://host/api/live/stream.
	StreamURL  string
	RoomID     string
	HTTPClient *http.Client
	Logger     *zap.Logger

	// OnSnapshot, when set, is invoked after each snapshot has been merged
	// into the ledger. Invocations are sequential.
	OnSnapshot func(snapshot.RoomSnapshot, []ledger.Entry)
	// OnFailure, when set, is invoked for each error event on the stream.
	OnFailure func(stream.Failure)
}

// Viewer subscribes to a room's event stream, merges every received gift log
// into its ledger, and exposes the current merged state. The ledger lives for
// the duration of the subscription and is discarded with the Viewer.
type Viewer struct {
	streamURL  string
	roomID     string
	httpClient *http.Client
	logger     *zap.Logger
	onSnapshot func(snapshot.RoomSnapshot, []ledger.Entry)
	onFailure  func(stream.Failure)

	mu      sync.RWMutex
	latest  *snapshot.RoomSnapshot
	entries []ledger.Entry
}

// New validates the configuration and returns a Viewer.
func New(cfg Config) (*Viewer, error) {
	if strings.TrimSpace(cfg.StreamURL) == "" {
		return nil, errMissingStreamURL
	}
	if strings.TrimSpace(cfg.RoomID) == "" {
		return nil, errMissingRoomID
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Viewer{
		streamURL:  cfg.StreamURL,
		roomID:     cfg.RoomID,
		httpClient: httpClient,
		logger:     logger.With(zap.String("room_id", cfg.RoomID)),
		onSnapshot: cfg.OnSnapshot,
		onFailure:  cfg.OnFailure,
	}, nil
}

// Run connects to the stream and processes events until the stream ends or
// ctx is cancelled. Cancellation returns ctx.Err(); a server-closed stream
// returns nil.
func (v *Viewer) Run(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s?room_id=%s", v.streamURL, url.QueryEscape(v.roomID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("viewer: build stream request: %w", err)
	}

	response, err := v.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("viewer: open stream: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("viewer: unexpected stream status %d", response.StatusCode)
	}

	reader := bufio.NewReader(response.Body)
	eventType := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A deliberate server close ends the body with EOF; anything
			// else is an abnormal termination worth reporting.
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("viewer: read stream: %w", err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			eventType = ""
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			v.handleData(eventType, []byte(data))
		}
	}
}

// Snapshot returns the most recently received room snapshot, or false when no
// data event has arrived yet.
func (v *Viewer) Snapshot() (snapshot.RoomSnapshot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.latest == nil {
		return snapshot.RoomSnapshot{}, false
	}
	return *v.latest, true
}

// Ledger returns a copy of the current merged gift ledger.
func (v *Viewer) Ledger() []ledger.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entries := make([]ledger.Entry, len(v.entries))
	copy(entries, v.entries)
	return entries
}

// AnnotatedLedger returns the current ledger with point totals computed from
// the latest catalog snapshot.
func (v *Viewer) AnnotatedLedger() []ledger.AnnotatedEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var catalog []snapshot.GiftCatalogEntry
	if v.latest != nil {
		catalog = v.latest.Gifts
	}
	return ledger.Annotate(v.entries, catalog)
}

func (v *Viewer) handleData(eventType string, data []byte) {
	if eventType == "error" {
		var failure stream.Failure
		if err := json.Unmarshal(data, &failure); err != nil {
			v.logger.Warn("undecodable error event", zap.Error(err))
			return
		}
		v.logger.Warn("stream reported failure",
			zap.String("kind", failure.Kind), zap.String("message", failure.Message))
		if v.onFailure != nil {
			v.onFailure(failure)
		}
		return
	}

	var roomSnapshot snapshot.RoomSnapshot
	if err := json.Unmarshal(data, &roomSnapshot); err != nil {
		v.logger.Warn("undecodable data event", zap.Error(err))
		return
	}

	v.mu.Lock()
	v.latest = &roomSnapshot
	v.entries = ledger.Merge(v.entries, roomSnapshot.GiftLogs)
	entries := make([]ledger.Entry, len(v.entries))
	copy(entries, v.entries)
	v.mu.Unlock()

	if v.onSnapshot != nil {
		v.onSnapshot(roomSnapshot, entries)
	}
}
