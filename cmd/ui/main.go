package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-harvester/api"
	"github.com/thep200/github-harvester/internal/ui"
	applog "github.com/thep200/github-harvester/pkg/log"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 0, "Port for the UI server to listen on (default from config)")
	flag.Parse()

	// Setup dependencies through the api facade
	ctx := context.Background()
	harvesterApi := api.NewHarvesterAPI()
	if err := harvesterApi.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize harvester API: %v", err)
	}

	config := harvesterApi.Config()
	logger, _ := applog.NewCslLogger()

	listenPort := config.Harvester.UiPort
	if *port > 0 {
		listenPort = *port
	}

	// Create and run the server
	server, err := ui.NewServer(logger, config, harvesterApi, listenPort)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Run server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error(ctx, "Server failed to start: %v", err)
			os.Exit(1)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Gracefully shutdown the server
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during server shutdown: %v", err)
	}

	logger.Info(ctx, "Server shut down gracefully")
}
