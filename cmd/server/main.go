package main

import (
	"context"
	"log"

	"voice_conversion/config"
	"voice_conversion/internal/server"

	_ "voice_conversion/cmd/server/docs"
)

// @title           RVC Voice Converter API
// @version         1.0
// @description     Upload a voice conversion model and convert audio clips with it.

// @host      localhost:8080
// @BasePath  /v1

func main() {
	// Configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	ctx := context.Background()
	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Server error: %s", err)
	}
	if err := s.Run(ctx, cfg); err != nil {
		log.Fatalf("Server error: %s", err)
	}
}
