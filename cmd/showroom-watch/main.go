package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ToshikiOmura/shoeroom-logs/internal/ledger"
	"github.com/ToshikiOmura/shoeroom-logs/internal/logging"
	"github.com/ToshikiOmura/shoeroom-logs/internal/snapshot"
	"github.com/ToshikiOmura/shoeroom-logs/internal/viewer"
	"github.com/spf13/cobra"
)

func main() {
	var (
		streamURL string
		roomID    string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:   "showroom-watch",
		Short: "Follow a room's merged gift ledger from a relay stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), streamURL, roomID, logLevel)
		},
	}

	rootCmd.Flags().StringVar(&streamURL, "stream-url", "http://127.0.0.1:8080/api/live/stream", "Relay stream endpoint")
	rootCmd.Flags().StringVar(&roomID, "room-id", "", "Room identifier to watch")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	if err := rootCmd.MarkFlagRequired("room-id"); err != nil {
		panic(err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatch(ctx context.Context, streamURL, roomID, logLevel string) error {
	logger, err := logging.NewLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	roomViewer, err := viewer.New(viewer.Config{
		StreamURL: streamURL,
		RoomID:    roomID,
		Logger:    logger,
		OnSnapshot: func(roomSnapshot snapshot.RoomSnapshot, entries []ledger.Entry) {
			printLedger(roomSnapshot, entries)
		},
	})
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := roomViewer.Run(signalCtx); err != nil && signalCtx.Err() == nil {
		return err
	}
	return nil
}

func printLedger(roomSnapshot snapshot.RoomSnapshot, entries []ledger.Entry) {
	fmt.Printf("--- ts=%d comments=%d gifts=%d ---\n",
		roomSnapshot.Timestamp, len(roomSnapshot.Comments), len(entries))
	for _, entry := range ledger.Annotate(entries, roomSnapshot.Gifts) {
		fmt.Printf("%-20s gift=%d x%-4d (%d pt) at=%d\n",
			entry.Name, entry.GiftID, entry.Num, entry.PointTotal, entry.CreatedAt)
	}
}
