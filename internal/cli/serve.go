package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropwire/dropwire/internal/signaling"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the signaling relay",
	Long:  "serve runs the HTTP signaling relay that carries connection-setup metadata between peers; file bytes never pass through it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		db, err := signaling.OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store := signaling.NewRoomStore(db, cfg.RoomTTL)
		store.StartSweeper(ctx, time.Minute)

		service := signaling.NewService(store, log)
		server := signaling.NewServer(cfg.ListenAddr, service, log)
		return server.Start(ctx)
	},
}
