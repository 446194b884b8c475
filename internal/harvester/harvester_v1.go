// Harvester version 1
// Ghi trực tiếp vào database: mỗi item của một trang được fan-out qua
// dedup store ngay khi trang về, trang kế chỉ được gọi khi cả batch xong.

package harvester

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/fetcher"
	githubapi "github.com/thep200/github-harvester/internal/github_api"
	"github.com/thep200/github-harvester/internal/limiter"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/internal/runinfo"
	"github.com/thep200/github-harvester/internal/store"
	"github.com/thep200/github-harvester/pkg/log"
)

// ApiClient là phần của githubapi.Caller mà harvester cần dùng
type ApiClient interface {
	Search(ctx context.Context, query params.Query, page int) (*githubapi.SearchPage, error)
	DownloadRawContent(ctx context.Context, htmlUrl string) ([]byte, error)
}

type HarvesterV1 struct {
	Logger   log.Logger
	Config   *cfg.Config
	Client   ApiClient
	Store    *store.Store
	Recorder *runinfo.Recorder

	rateLimiter *limiter.RateLimiter
	stopped     atomic.Bool
}

func NewHarvesterV1(logger log.Logger, config *cfg.Config, conn store.Conn) (*HarvesterV1, error) {
	st, err := store.NewStore(logger, config, conn, config.Harvester.TargetFilename)
	if err != nil {
		return nil, err
	}

	recorder, err := runinfo.NewRecorder(logger, config, conn)
	if err != nil {
		return nil, err
	}

	return &HarvesterV1{
		Logger:      logger,
		Config:      config,
		Client:      githubapi.NewCaller(logger, config),
		Store:       st,
		Recorder:    recorder,
		rateLimiter: limiter.NewRateLimiter(config.GithubApi.RequestsPerSecond),
	}, nil
}

// Stop yêu cầu dừng mềm: vòng harvest kết thúc truy vấn hiện tại
// rồi dừng ở ranh giới truy vấn kế tiếp, không cắt ngang trang hay sleep
func (h *HarvesterV1) Stop() {
	h.stopped.Store(true)
}

func (h *HarvesterV1) Harvest() bool {
	ctx := context.Background()
	startTime := time.Now()
	filename := h.Config.Harvester.TargetFilename

	run := &runinfo.Run{
		ID:        uuid.NewString(),
		Filename:  filename,
		Version:   "v1",
		StartedAt: startTime,
	}

	space := params.NewSpace(filename)
	f := fetcher.NewFetcher(h.Logger, h.Config, h.Client)
	h.Logger.Info(ctx, "Bắt đầu harvest %s, không gian tham số gồm %d truy vấn", filename, space.Len())

	ok := true
	for {
		if h.stopped.Load() {
			h.Logger.Info(ctx, "Nhận yêu cầu dừng, kết thúc ở ranh giới truy vấn")
			run.Outcome = "stopped"
			break
		}

		query, more := space.Next()
		if !more {
			run.Outcome = "completed"
			break
		}

		run.Queries++
		h.Logger.Info(ctx, "Truy vấn %d/%d: %s", run.Queries, space.Len(), query)

		err := f.Fetch(ctx, query, func(page *githubapi.SearchPage) error {
			inserted, err := h.processPage(ctx, page)
			if err != nil {
				return err
			}
			run.Pages++
			run.Items += len(page.Items)
			run.Stored += inserted
			h.Logger.Info(ctx, "Trang có %d item, ghi mới %d, tổng đã ghi %d", len(page.Items), inserted, run.Stored)
			return nil
		})
		if err != nil {
			// Lỗi fatal: log đủ ngữ cảnh để chạy lại bằng tay, phần còn lại
			// của không gian tham số bị bỏ. Khởi động lại sẽ duyệt từ đầu
			// và dedup store biến các item đã có thành no-op rẻ.
			h.Logger.Error(ctx, "Harvest dừng vì lỗi fatal: %v", err)
			run.Outcome = "failed"
			ok = false
			break
		}
	}

	run.FinishedAt = time.Now()
	if err := h.Recorder.Record(ctx, run); err != nil {
		h.Logger.Error(ctx, "Không ghi được lịch sử run: %v", err)
	}

	h.Logger.Info(ctx, "==== KẾT QUẢ HARVEST ====")
	h.Logger.Info(ctx, "Thời gian thực hiện: %v", run.FinishedAt.Sub(startTime))
	h.Logger.Info(ctx, "Truy vấn đã chạy: %d", run.Queries)
	h.Logger.Info(ctx, "Trang đã kéo: %d", run.Pages)
	h.Logger.Info(ctx, "Item đã thấy: %d", run.Items)
	h.Logger.Info(ctx, "File ghi mới: %d", run.Stored)

	return ok
}

// processPage fan-out toàn bộ item của một trang qua dedup store và chờ
// cả batch xong. Item trong trang không có thứ tự với nhau, lỗi đầu tiên
// thắng và làm cả run dừng lại.
func (h *HarvesterV1) processPage(ctx context.Context, page *githubapi.SearchPage) (int, error) {
	var wg sync.WaitGroup
	var inserted int32
	errCh := make(chan error, len(page.Items))

	for _, item := range page.Items {
		wg.Add(1)
		go func(item githubapi.CodeSearchItem) {
			defer wg.Done()

			// Ghìm tốc độ tải nội dung, một trang có thể fan-out tới 100 request
			for !h.rateLimiter.Allow() {
				time.Sleep(time.Duration(h.Config.GithubApi.ThrottleDelay) * time.Millisecond)
			}

			stored, err := h.Store.Offer(ctx, item.HtmlUrl, item.Sha, func(ctx context.Context) ([]byte, error) {
				return h.Client.DownloadRawContent(ctx, item.HtmlUrl)
			})
			if err != nil {
				errCh <- err
				return
			}
			if stored {
				atomic.AddInt32(&inserted, 1)
			}
		}(item)
	}

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return int(atomic.LoadInt32(&inserted)), err
	}
	return int(atomic.LoadInt32(&inserted)), nil
}
