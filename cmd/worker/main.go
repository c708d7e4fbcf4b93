package main

import (
	"context"
	"log"

	"voice_conversion/config"
	"voice_conversion/internal/worker"
)

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	ctx := context.Background()
	w, err := worker.NewWorker(cfg)
	if err != nil {
		log.Fatalf("Worker error: %s", err)
	}
	if err := w.Run(ctx, cfg); err != nil {
		log.Fatalf("Worker error: %s", err)
	}
}
