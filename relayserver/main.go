package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"framesync/config"
	"framesync/relay"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	cfg, err := config.ReadTOML("framesync.toml")
	if err != nil {
		log.Printf("relayserver: %v, using defaults", err)
		cfg = config.Default()
	}

	server := relay.NewServer(cfg.Relay.AcceptOrigins)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Printf("relayserver: listening on %s", cfg.Relay.Address)
	if err := server.ListenAndServe(ctx, cfg.Relay.Address); err != nil {
		log.Fatal(err)
	}
}
