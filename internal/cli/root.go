// Package cli wires the dropwire commands: the signaling relay and the two
// peer roles.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dropwire/dropwire/internal/config"
	"github.com/dropwire/dropwire/internal/logger"
	"github.com/dropwire/dropwire/internal/peer"
)

var rootCmd = &cobra.Command{
	Use:  "dropwire",
	Long: "dropwire sends a file directly between two peers, using a small relay only for connection setup",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
}

func setup() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

// watchEvents surfaces connection progress while negotiation runs.
func watchEvents(p *peer.Peer, log *logrus.Logger) {
	go func() {
		for e := range p.Events() {
			switch e.Kind {
			case peer.EventStateChanged:
				log.Debugf("Connection state: %s", e.State)
			case peer.EventChannelOpen:
				log.Info("Direct channel established")
			case peer.EventCandidateGathered:
				log.Debug("Gathered local candidate")
			}
		}
	}()
}
