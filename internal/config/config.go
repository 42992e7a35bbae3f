// Package config loads runtime configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Signaling server.
	ListenAddr string        `envconfig:"DROPWIRE_LISTEN_ADDR" default:":8080"`
	DBPath     string        `envconfig:"DROPWIRE_DB_PATH" default:"dropwire.sqlite3"`
	RoomTTL    time.Duration `envconfig:"DROPWIRE_ROOM_TTL" default:"30m"`

	// Peer side.
	SignalURL      string        `envconfig:"DROPWIRE_SIGNAL_URL" default:"http://localhost:8080"`
	PollInterval   time.Duration `envconfig:"DROPWIRE_POLL_INTERVAL" default:"2s"`
	AnswerTimeout  time.Duration `envconfig:"DROPWIRE_ANSWER_TIMEOUT" default:"5m"`
	CandidateGrace time.Duration `envconfig:"DROPWIRE_CANDIDATE_GRACE" default:"2s"`
	STUNServers    []string      `envconfig:"DROPWIRE_STUN_SERVERS"`

	LogLevel string `envconfig:"DROPWIRE_LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
