package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-3d-forge/config"
	"github.com/tnqbao/gau-3d-forge/consumer/worker"
	infraPkg "github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/pipeline"
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
	engine := pipeline.NewEngine(cfg.EnvConfig, infra.Minio)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generationConsumer := worker.NewGenerationConsumer(cfg.EnvConfig, infra, repo, providers, engine)
	if err := generationConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Generation consumer: %v", err)
		log.Fatalf("Failed to start Generation consumer: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Telemetry.Shutdown(context.Background())
	infra.Logger.InfoWithContextf(context.Background(), "Consumer exited properly")
}
