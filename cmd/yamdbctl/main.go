package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/yamdb/internal/admin"
	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yamdb/internal/server/services"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {

	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	engine, err := authz.NewEngine(logging.New(os.Stderr, logging.FormatText, cfg.LogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := admin.NewApp(os.Stdin, os.Stdout,
		services.NewUserService(db, rm, engine, cfg),
		func(ctx context.Context) error { return rm.RunMigrations(ctx, db) },
		term.IsTerminal(int(os.Stdin.Fd())),
	)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		db.Close()
		os.Exit(1)
	}
}
