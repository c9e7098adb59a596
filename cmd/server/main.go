package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/dhackz/feather-of-despair/config"
	"github.com/dhackz/feather-of-despair/handlers"
	"github.com/dhackz/feather-of-despair/persistence"
	"github.com/dhackz/feather-of-despair/services"
)

func main() {
	flags := pflag.NewFlagSet("board-server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	listen := flags.String("listen", "", "listen address (overrides config and PORT)")
	boardDir := flags.String("board-dir", "", "directory for board files (file storage only)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *boardDir != "" {
		cfg.Storage.Dir = *boardDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer db.Close()

	boardService := services.NewBoardService(db, cfg)
	clientManager := handlers.NewClientManager()

	log.Printf("Server starting on %s", cfg.Listen)
	log.Fatal(http.ListenAndServe(cfg.Listen, handlers.NewRouter(boardService, clientManager)))
}

// openStorage opens the board store selected by cfg.
func openStorage(cfg *config.Config) (persistence.Storage, error) {
	if cfg.Storage.Type == config.StoragePostgres {
		db, err := persistence.NewPostgresStore(cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Using PostgreSQL persistence")
		return db, nil
	}

	db, err := persistence.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	log.Printf("Using file persistence in %s", cfg.Storage.Dir)
	return db, nil
}
