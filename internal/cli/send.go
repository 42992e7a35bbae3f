package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dropwire/dropwire/internal/negotiate"
	"github.com/dropwire/dropwire/internal/peer"
	"github.com/dropwire/dropwire/internal/signaling"
	"github.com/dropwire/dropwire/internal/transfer"
)

var sendCmd = &cobra.Command{
	Use:   "send file-path",
	Short: "share a file",
	Long:  "send creates a room on the signaling relay, prints its id for the receiver, and streams the file over the direct channel once the receiver answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()

		info, err := file.Stat()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := peer.New(peer.Config{STUNServers: cfg.STUNServers}, true, log)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		watchEvents(p, log)

		coordinator := negotiate.NewCoordinator(
			signaling.NewClient(cfg.SignalURL),
			negotiate.Config{
				PollInterval:   cfg.PollInterval,
				AnswerTimeout:  cfg.AnswerTimeout,
				CandidateGrace: cfg.CandidateGrace,
			},
			log,
		)

		roomID, err := coordinator.CreateRoom(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("Room ready. On the receiving machine run:\n\n    dropwire receive %s\n\n", roomID)

		if err := coordinator.AwaitAnswer(ctx, p, roomID); err != nil {
			return err
		}

		channel, err := p.WaitChannel(ctx)
		if err != nil {
			return err
		}

		name := filepath.Base(args[0])
		bar := progressbar.DefaultBytes(info.Size(), "sending "+name)
		session := transfer.NewSession(log, func(transferred, total int64) {
			_ = bar.Set64(transferred)
		})

		if err := session.Send(ctx, channel, name, file, info.Size()); err != nil {
			return err
		}

		// Let the transport drain before tearing the connection down.
		flushCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := p.Flush(flushCtx); err != nil {
			return err
		}

		fmt.Printf("Sent %s (%d bytes)\n", name, info.Size())
		return nil
	},
}
