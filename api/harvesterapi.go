// Package api cung cấp các API public để tương tác với GitHub harvester
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/harvester"
	"github.com/thep200/github-harvester/internal/runinfo"
	"github.com/thep200/github-harvester/internal/store"
	"github.com/thep200/github-harvester/pkg/db"
	"github.com/thep200/github-harvester/pkg/log"
)

// HarvestStats chứa thống kê về quá trình harvest đang chạy
type HarvestStats struct {
	Version   string    `json:"version"`
	Filename  string    `json:"filename"`
	IsRunning bool      `json:"isRunning"`
	StartTime time.Time `json:"startTime"`
	Duration  string    `json:"duration"`
	LastError string    `json:"lastError"`
}

// HarvesterAPI cung cấp các API để tương tác với GitHub harvester
type HarvesterAPI struct {
	ctx            context.Context
	config         *cfg.Config
	logger         log.Logger
	mysql          *db.Mysql
	store          *store.Store
	recorder       *runinfo.Recorder
	harvesting     bool
	harvestStatsMu sync.RWMutex
	harvestStats   *HarvestStats
	running        harvester.Harvester
}

// NewHarvesterAPI tạo một instance mới của HarvesterAPI
func NewHarvesterAPI() *HarvesterAPI {
	return &HarvesterAPI{
		harvestStats: &HarvestStats{},
	}
}

// Initialize khởi tạo các thành phần cần thiết cho harvester
func (a *HarvesterAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	a.config, err = loader.Load()
	if err != nil {
		a.logger, _ = log.NewCslLogger()
		a.logger.Error(a.ctx, "Failed to load configuration: %v", err)
		return err
	}

	// Set up logger
	a.logger, err = log.NewCslLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Set up database
	a.mysql, err = db.NewMysql(a.config)
	if err != nil {
		a.logger.Error(a.ctx, "Failed to connect to database: %v", err)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set up store and run history
	a.store, err = store.NewStore(a.logger, a.config, a.mysql, a.config.Harvester.TargetFilename)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	a.recorder, err = runinfo.NewRecorder(a.logger, a.config, a.mysql)
	if err != nil {
		return fmt.Errorf("failed to create run recorder: %w", err)
	}

	// Migrate database tables
	if err := a.store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	return a.recorder.Migrate()
}

// Config trả về cấu hình đã load
func (a *HarvesterAPI) Config() *cfg.Config {
	return a.config
}

// Store trả về dedup store của filename mục tiêu
func (a *HarvesterAPI) Store() *store.Store {
	return a.store
}

// Recorder trả về recorder của lịch sử run
func (a *HarvesterAPI) Recorder() *runinfo.Recorder {
	return a.recorder
}

// StartHarvesting bắt đầu quá trình harvest với phiên bản được chỉ định
func (a *HarvesterAPI) StartHarvesting(version string) (string, error) {
	a.harvestStatsMu.RLock()
	isHarvesting := a.harvesting
	a.harvestStatsMu.RUnlock()

	if isHarvesting {
		return "Harvesting is already in progress", nil
	}

	hv, err := harvester.FactoryHarvester(version, a.logger, a.config, a.mysql)
	if err != nil {
		return "", err
	}

	// Create new stats
	a.harvestStatsMu.Lock()
	a.harvesting = true
	a.running = hv
	a.harvestStats = &HarvestStats{
		Version:   version,
		Filename:  a.config.Harvester.TargetFilename,
		IsRunning: true,
		StartTime: time.Now(),
	}
	a.harvestStatsMu.Unlock()

	// Start harvesting in a goroutine
	go func(h harvester.Harvester) {
		success := h.Harvest()

		a.updateHarvestStats(func(stats *HarvestStats) {
			stats.IsRunning = false
			if !success {
				stats.LastError = "Harvesting failed"
			}
		})

		a.harvestStatsMu.Lock()
		a.harvesting = false
		a.running = nil
		a.harvestStatsMu.Unlock()
	}(hv)

	return "Started harvesting with version " + version, nil
}

// StopHarvesting yêu cầu dừng quá trình harvest. Dừng là dừng mềm:
// harvester chỉ kiểm tra cờ ở ranh giới giữa hai truy vấn nên một trang
// đang kéo hoặc một sleep rate limit dài vẫn chạy nốt.
func (a *HarvesterAPI) StopHarvesting() (string, error) {
	a.harvestStatsMu.RLock()
	running := a.running
	a.harvestStatsMu.RUnlock()

	if running == nil {
		return "No harvesting is in progress", nil
	}

	if stopper, ok := running.(harvester.Stopper); ok {
		stopper.Stop()
		return "Stopping harvest at the next query boundary (may take some time)", nil
	}
	return "", errors.New("running harvester does not support stopping")
}

// GetHarvestStats trả về thống kê về quá trình harvest
func (a *HarvesterAPI) GetHarvestStats() (*HarvestStats, error) {
	a.harvestStatsMu.RLock()
	defer a.harvestStatsMu.RUnlock()

	if a.harvestStats == nil {
		return &HarvestStats{}, nil
	}

	// Calculate duration if harvesting is running
	stats := *a.harvestStats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}

	return &stats, nil
}

// updateHarvestStats cập nhật thống kê một cách an toàn
func (a *HarvesterAPI) updateHarvestStats(updateFn func(*HarvestStats)) {
	a.harvestStatsMu.Lock()
	defer a.harvestStatsMu.Unlock()

	if a.harvestStats == nil {
		a.harvestStats = &HarvestStats{}
	}

	updateFn(a.harvestStats)
}

// GetDatabaseStatus kiểm tra trạng thái kết nối cơ sở dữ liệu
func (a *HarvesterAPI) GetDatabaseStatus() (string, error) {
	if a.mysql == nil {
		return "Database not initialized", nil
	}

	if err := a.mysql.Ping(); err != nil {
		return "Database not connected: " + err.Error(), err
	}

	return "Database connected", nil
}
