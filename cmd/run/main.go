package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/harvester"
	"github.com/thep200/github-harvester/internal/runinfo"
	"github.com/thep200/github-harvester/internal/store"
	"github.com/thep200/github-harvester/pkg/db"
	"github.com/thep200/github-harvester/pkg/log"
)

func main() {
	// Flags override the yaml config so one binary can target
	// different filenames without editing the config file
	filename := flag.String("filename", "", "Target filename to harvest (default from config)")
	page := flag.Int("page", -1, "Search page to start from (default from config)")
	version := flag.String("version", "", "Harvester version to run (default from config)")
	flag.Parse()

	ctx := context.Background()
	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *filename != "" {
		config.Harvester.TargetFilename = *filename
	}
	if *page >= 0 {
		config.Harvester.StartPage = *page
	}
	if *version != "" {
		config.Harvester.Version = *version
	}

	logger, _ := log.NewCslLogger()
	mysql, _ := db.NewMysql(config)
	defer mysql.Close()

	// Migrate the per-filename table and the run history table
	st, err := store.NewStore(logger, config, mysql, config.Harvester.TargetFilename)
	if err != nil {
		logger.Error(ctx, "Failed to create store: %v", err)
		os.Exit(1)
	}
	if err := st.Migrate(); err != nil {
		logger.Error(ctx, "Failed to migrate store: %v", err)
		os.Exit(1)
	}

	recorder, _ := runinfo.NewRecorder(logger, config, mysql)
	if err := recorder.Migrate(); err != nil {
		logger.Error(ctx, "Failed to migrate run history: %v", err)
		os.Exit(1)
	}

	hv, err := harvester.FactoryHarvester(config.Harvester.Version, logger, config, mysql)
	if err != nil {
		logger.Error(ctx, "Failed to create harvester: %v", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Starting GitHub file harvester %s for %s", config.Harvester.Version, config.Harvester.TargetFilename)
	if hv.Harvest() {
		logger.Info(ctx, "Successfully!")
	} else {
		logger.Error(ctx, "Failed!")
		mysql.Close()
		os.Exit(1)
	}
}
