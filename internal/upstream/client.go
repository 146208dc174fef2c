package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
	"go.uber.org/zap"
)

const (
	roomStatusPath = "/api/live/room_status"
	commentLogPath = "/api/live/comment_log"
	giftListPath   = "/api/live/gift_list"
	giftLogPath    = "/api/live/gift_log"

	maxBodyBytes = 4 << 20
)

var (
	errMissingBaseURL = errors.New("upstream: base url is required")
	errMissingRoomID  = errors.New("upstream: room identifier is required")
	noOpLogger        = zap.NewNop()
)

// ClientConfig captures the dependencies of an upstream Client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Client fetches the four live-room resources for a room. It performs no
// caching or retries; each call issues fresh requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      func() time.Time
	logger     *zap.Logger
}

// NewClient validates the configuration and returns an upstream Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("upstream: invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Sources fetches the four upstream resources concurrently and returns their
// raw bodies. Malformed JSON in any single body is tolerated here and absorbed
// later by normalization; a transport failure on any request fails the call.
func (c *Client) Sources(ctx context.Context, roomID string) (snapshot.RawSources, error) {
	if strings.TrimSpace(roomID) == "" {
		return snapshot.RawSources{}, errMissingRoomID
	}

	paths := []string{roomStatusPath, commentLogPath, giftListPath, giftLogPath}
	bodies := make([]json.RawMessage, len(paths))
	fetchErrs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(index int, resourcePath string) {
			defer wg.Done()
			bodies[index], fetchErrs[index] = c.fetchResource(ctx, resourcePath, roomID)
		}(i, path)
	}
	wg.Wait()

	for i, fetchErr := range fetchErrs {
		if fetchErr != nil {
			c.logger.Warn("upstream resource fetch failed",
				zap.String("path", paths[i]),
				zap.String("room_id", roomID),
				zap.Error(fetchErr))
			return snapshot.RawSources{}, fetchErr
		}
	}

	return snapshot.RawSources{
		Status:   bodies[0],
		Comments: bodies[1],
		GiftList: bodies[2],
		GiftLog:  bodies[3],
	}, nil
}

// RoomSnapshot performs one full poll cycle: fetch all four resources and
// normalize them into a snapshot stamped with the client clock.
func (c *Client) RoomSnapshot(ctx context.Context, roomID string) (snapshot.RoomSnapshot, error) {
	sources, err := c.Sources(ctx, roomID)
	if err != nil {
		return snapshot.RoomSnapshot{}, err
	}
	return snapshot.Normalize(sources, c.clock()), nil
}

func (c *Client) fetchResource(ctx context.Context, resourcePath, roomID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s%s?room_id=%s", c.baseURL, resourcePath, url.QueryEscape(roomID))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request for %s: %w", resourcePath, err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("upstream: fetch %s: %w", resourcePath, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream: read %s: %w", resourcePath, err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream: fetch %s: unexpected status %d", resourcePath, response.StatusCode)
	}
	return body, nil
}
