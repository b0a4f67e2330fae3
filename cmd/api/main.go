package main

import (
	"log"

	"github.com/joho/godotenv"

	"coexnet/adapters/api"
	"coexnet/adapters/postgres"
	"coexnet/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if !cfg.Database.Enabled {
		log.Fatal("results API requires DATABASE_URL")
	}

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	server := api.NewServer(postgres.NewResultRepository(db))
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
