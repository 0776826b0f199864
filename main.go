package main

import (
	"github.com/wingnight/gameserver/config"
	"github.com/wingnight/gameserver/content"
	"github.com/wingnight/gameserver/logger"
	"github.com/wingnight/gameserver/minigame"
	"github.com/wingnight/gameserver/minigame/trivia"
	"github.com/wingnight/gameserver/monitor"
	"github.com/wingnight/gameserver/room"
	"github.com/wingnight/gameserver/server"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	registry := minigame.NewRegistry()
	registry.Register(trivia.New(), "Trivia")
	orchestrator := minigame.NewOrchestrator(registry)

	mon := monitor.NewMonitor("gameserver")
	orchestrator.OnFailure(mon.PluginFailure)

	// A bad content pack must not take the room down. The room comes up in
	// a fatal state that refuses phase advancement but still serves
	// connections and snapshots, so the host can see what went wrong.
	var r *room.Room
	pack, err := content.Load(cfg.Content.Path)
	if err != nil {
		logger.Log.Errorf("Failed to load content pack: %v", err)
		r = room.NewFatal(err.Error(), orchestrator)
	} else {
		r = room.New(pack, orchestrator, cfg.Timer.MaxExtendSeconds)
	}

	mon.StartServer(cfg.Server.MetricsAddress)

	srv := server.NewGameServer(cfg, r, mon)
	if err := srv.Start(); err != nil {
		logger.Log.Fatalf("Server failed: %v", err)
	}
}
