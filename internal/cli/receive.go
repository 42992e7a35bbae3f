package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dropwire/dropwire/internal/negotiate"
	"github.com/dropwire/dropwire/internal/peer"
	"github.com/dropwire/dropwire/internal/signaling"
	"github.com/dropwire/dropwire/internal/transfer"
)

var receiveCmd = &cobra.Command{
	Use:   "receive room-id",
	Short: "receive a shared file",
	Long:  "receive answers the sender's room, completes negotiation, and writes the incoming file to the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := peer.New(peer.Config{STUNServers: cfg.STUNServers}, false, log)
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

		if err := coordinator.Respond(ctx, p, args[0]); err != nil {
			return err
		}

		channel, err := p.WaitChannel(ctx)
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		session := transfer.NewSession(log, func(transferred, total int64) {
			if bar == nil {
				bar = progressbar.DefaultBytes(total, "receiving")
			}
			_ = bar.Set64(transferred)
		})

		file, err := session.Receive(ctx, channel)
		if err != nil {
			return err
		}

		// The announced name is untrusted; keep only its base.
		name := filepath.Base(file.Name)
		if name == "." || name == string(filepath.Separator) || name == "" {
			name = "received.bin"
		}
		if err := os.WriteFile(name, file.Data, 0o644); err != nil {
			return err
		}

		fmt.Printf("Received %s (%d bytes)\n", name, len(file.Data))
		return nil
	},
}
