// Command raceserver runs the racing engine's session registry, lobby
// manager, and WebSocket/REST transport.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"racetrack-engine/internal/botmanager"
	"racetrack-engine/internal/botstore"
	"racetrack-engine/internal/config"
	"racetrack-engine/internal/lobby"
	"racetrack-engine/internal/registry"
	"racetrack-engine/internal/track"
	"racetrack-engine/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	factory := track.SimpleFactory{}
	bots := botmanager.NewManager(cfg, logger)
	lobbies := lobby.NewManager(factory)
	reg := registry.New(registry.Config{BroadcastRate: cfg.BroadcastRate}, logger)
	botStore := botstore.NewMemory()

	server := transport.NewServer(cfg, logger, reg, lobbies, bots, botStore, factory)

	router := server.Router()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Info().Str("addr", *addr).Msg("racetrack-engine listening")
	if err := http.ListenAndServe(*addr, router); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
