package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nurpe/sales-backoffice/internal/commands"
	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/db"
	"github.com/nurpe/sales-backoffice/internal/logger"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

func load() (*commands.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)
	database, err := db.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return commands.NewApp(cfg, repository.NewStore(database), log), nil
}

func main() {
	root := commands.NewRootCommand(load)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
