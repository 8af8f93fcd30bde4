package main

import (
	"context"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"framesync/client"
	"framesync/config"
	"framesync/diagnostics"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	cfg, err := config.ReadTOML("framesync.toml")
	if err != nil {
		log.Printf("client: %v, using defaults", err)
		cfg = config.Default()
	}

	var dashboard *diagnostics.Dashboard
	dashboard, err = diagnostics.Open()
	if err != nil {
		log.Printf("client: diagnostics dashboard unavailable: %v", err)
		dashboard = nil
	}
	if dashboard != nil {
		defer dashboard.Close()
		go dashboard.PollEvents(nil)
	}

	ebiten.SetWindowSize(960, 540)
	ebiten.SetWindowTitle("framesync")

	game, err := client.NewGame(context.Background(), cfg, dashboard)
	if err != nil {
		log.Fatal(err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
