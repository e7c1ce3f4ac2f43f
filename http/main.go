package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-3d-forge/config"
	"github.com/tnqbao/gau-3d-forge/http/controller"
	routes "github.com/tnqbao/gau-3d-forge/http/route"
	"github.com/tnqbao/gau-3d-forge/http/socket"
	infraPkg "github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/provider"
	"github.com/tnqbao/gau-3d-forge/repository"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra, cfg.EnvConfig.Worker.QueueName, cfg.EnvConfig.Worker.RetentionHours)
	providers := provider.InitProvider(cfg.EnvConfig)

	hub := socket.NewHub(infra.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relay worker-published progress into attached websocket sessions.
	go hub.RunBridge(ctx, infra.Produce.ProgressService)

	ctrl := controller.NewController(cfg, infra, repo, providers, hub)

	router := routes.SetupRouter(ctrl)

	addr := cfg.EnvConfig.Server.Host + ":" + cfg.EnvConfig.Server.Port
	log.Println("HTTP Server started on " + addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
