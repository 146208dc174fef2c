package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ToshikiOmura/shoeroom-logs/internal/stream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errMissingSource = errors.New("snapshot source dependency required")

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Source       stream.SnapshotSource
	PollInterval time.Duration
	Logger       *zap.Logger
}

// NewHTTPHandler wires the gin router for the relay: the live event stream and
// a liveness probe.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Source == nil {
		return nil, errMissingSource
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		source:       deps.Source,
		pollInterval: deps.PollInterval,
		logger:       logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/api/live/stream", handler.handleLiveStream)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	})
}

type httpHandler struct {
	source       stream.SnapshotSource
	pollInterval time.Duration
	logger       *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleLiveStream serves one subscriber's event stream. Each request owns an
// independent session; disconnecting tears that session down and leaves every
// other subscriber untouched.
func (h *httpHandler) handleLiveStream(c *gin.Context) {
	roomID := strings.TrimSpace(c.Query("room_id"))
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	session, err := stream.NewSession(stream.SessionConfig{
		RoomID:   roomID,
		Source:   h.source,
		Interval: h.pollInterval,
		Logger:   h.logger,
	})
	if err != nil {
		h.logger.Error("failed to create stream session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stream_unavailable"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	requestCtx := c.Request.Context()
	go session.Run(requestCtx)
	defer session.Close()

	c.Stream(func(w io.Writer) bool {
		event, ok := <-session.Events()
		if !ok {
			return false
		}
		if err := writeEvent(w, event); err != nil {
			h.logger.Info("subscriber write failed", zap.String("session_id", session.ID()), zap.Error(err))
			return false
		}
		return true
	})
}

// writeEvent renders one event in server-sent-events framing: snapshots as
// unnamed data events, failures under the "error" event name.
func writeEvent(w io.Writer, event stream.Event) error {
	if event.Failure != nil {
		payload, err := json.Marshal(event.Failure)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		return err
	}

	payload, err := json.Marshal(event.Snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
