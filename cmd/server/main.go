package main

import (
	"log"

	"tasky/internal/config"
	"tasky/internal/logger"
	"tasky/internal/server"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.Development); err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
