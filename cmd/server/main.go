package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/yamdb/internal/server"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	// a missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
