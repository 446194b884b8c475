package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thep200/github-harvester/cfg"
	githubapi "github.com/thep200/github-harvester/internal/github_api"
	"github.com/thep200/github-harvester/internal/harvester"
	"github.com/thep200/github-harvester/internal/model"
	"github.com/thep200/github-harvester/internal/store"
	"github.com/thep200/github-harvester/pkg/db"
	"github.com/thep200/github-harvester/pkg/kafka"
	"github.com/thep200/github-harvester/pkg/log"
)

// The consumer side of harvester v2: reads file messages published by the
// harvester, downloads the raw content and offers it to the dedup store.
// Duplicate deliveries are harmless, the store's unique constraints make
// a re-offered blob a no-op.
func main() {
	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger and database
	logger, _ := log.NewCslLogger()
	mysql, _ := db.NewMysql(config)
	defer mysql.Close()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One store per target filename; messages for other filenames are
	// routed to their own table lazily
	stores := make(map[string]*store.Store)
	storeFor := func(filename string) (*store.Store, error) {
		if st, ok := stores[filename]; ok {
			return st, nil
		}
		st, err := store.NewStore(logger, config, mysql, filename)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(); err != nil {
			return nil, err
		}
		stores[filename] = st
		return st, nil
	}

	caller := githubapi.NewCaller(logger, config)
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicFile, "file-consumer-group")

	// Register handler for file messages
	consumer.RegisterHandler(harvester.FileMessageKey, func(data []byte) error {
		var msg model.FileMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal file message: %w", err)
		}

		st, err := storeFor(msg.Filename)
		if err != nil {
			return fmt.Errorf("failed to open store for %s: %w", msg.Filename, err)
		}

		stored, err := st.Offer(ctx, msg.SourceUrl, msg.BlobHash, func(ctx context.Context) ([]byte, error) {
			return caller.DownloadRawContent(ctx, msg.SourceUrl)
		})
		if err != nil {
			return fmt.Errorf("failed to store file %s: %w", msg.SourceUrl, err)
		}

		if stored {
			logger.Info(ctx, "Stored %s (blob %s) from run %s", msg.SourceUrl, msg.BlobHash, msg.RunID)
		} else {
			logger.Debug(ctx, "Skipped already known blob %s", msg.BlobHash)
		}
		return nil
	})

	// Start consumer in a goroutine
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "File consumer error: %v", err)
		}
	}()
	logger.Info(ctx, "File consumer started successfully")

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
	consumer.Close()
}
