// Harvester version 2
// Đẩy qua Kafka thay vì ghi trực tiếp: vòng duyệt và kéo trang giống v1
// nhưng mỗi item mới (qua cổng Exists rẻ) được publish thành một message,
// consumer ở tiến trình khác tự tải nội dung và offer vào store.
// Ràng buộc unique ở database vẫn là lớp dedup có thẩm quyền nên message
// trùng hay giao lại nhiều lần vẫn chỉ cho đúng một dòng mỗi blob.

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
	"github.com/thep200/github-harvester/internal/model"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/internal/runinfo"
	"github.com/thep200/github-harvester/internal/store"
	kafkapkg "github.com/thep200/github-harvester/pkg/kafka"
	"github.com/thep200/github-harvester/pkg/log"
)

// FileMessageKey là key của message file trên topic, consumer dựa vào
// key này để chọn handler
const FileMessageKey = "file"

// Publisher là phần của kafka producer mà harvester v2 cần dùng
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

type HarvesterV2 struct {
	Logger   log.Logger
	Config   *cfg.Config
	Client   ApiClient
	Store    *store.Store
	Recorder *runinfo.Recorder
	Producer Publisher

	stopped atomic.Bool
}

func NewHarvesterV2(logger log.Logger, config *cfg.Config, conn store.Conn) (*HarvesterV2, error) {
	st, err := store.NewStore(logger, config, conn, config.Harvester.TargetFilename)
	if err != nil {
		return nil, err
	}

	recorder, err := runinfo.NewRecorder(logger, config, conn)
	if err != nil {
		return nil, err
	}

	return &HarvesterV2{
		Logger:   logger,
		Config:   config,
		Client:   githubapi.NewCaller(logger, config),
		Store:    st,
		Recorder: recorder,
		Producer: kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicFile),
	}, nil
}

func (h *HarvesterV2) Stop() {
	h.stopped.Store(true)
}

func (h *HarvesterV2) Harvest() bool {
	ctx := context.Background()
	startTime := time.Now()
	filename := h.Config.Harvester.TargetFilename

	run := &runinfo.Run{
		ID:        uuid.NewString(),
		Filename:  filename,
		Version:   "v2",
		StartedAt: startTime,
	}

	defer func() {
		if err := h.Producer.Close(); err != nil {
			h.Logger.Error(ctx, "Không đóng được kafka producer: %v", err)
		}
	}()

	space := params.NewSpace(filename)
	f := fetcher.NewFetcher(h.Logger, h.Config, h.Client)
	h.Logger.Info(ctx, "Bắt đầu harvest %s qua Kafka, không gian tham số gồm %d truy vấn", filename, space.Len())

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
			published, err := h.publishPage(ctx, run.ID, filename, page)
			if err != nil {
				return err
			}
			run.Pages++
			run.Items += len(page.Items)
			run.Stored += published
			h.Logger.Info(ctx, "Trang có %d item, publish %d message, tổng đã publish %d", len(page.Items), published, run.Stored)
			return nil
		})
		if err != nil {
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

	h.Logger.Info(ctx, "==== KẾT QUẢ HARVEST (KAFKA) ====")
	h.Logger.Info(ctx, "Thời gian thực hiện: %v", run.FinishedAt.Sub(startTime))
	h.Logger.Info(ctx, "Truy vấn đã chạy: %d", run.Queries)
	h.Logger.Info(ctx, "Trang đã kéo: %d", run.Pages)
	h.Logger.Info(ctx, "Item đã thấy: %d", run.Items)
	h.Logger.Info(ctx, "Message đã publish: %d", run.Stored)

	return ok
}

// publishPage lọc các blob đã có trong store rồi publish phần còn lại.
// Cổng Exists chỉ là tối ưu để không phát message thừa, consumer vẫn
// có thể gặp blob đã ghi và coi đó là no-op.
func (h *HarvesterV2) publishPage(ctx context.Context, runID, filename string, page *githubapi.SearchPage) (int, error) {
	var wg sync.WaitGroup
	var published int32
	errCh := make(chan error, len(page.Items))

	for _, item := range page.Items {
		wg.Add(1)
		go func(item githubapi.CodeSearchItem) {
			defer wg.Done()

			known, err := h.Store.Exists(ctx, item.Sha)
			if err != nil {
				errCh <- err
				return
			}
			if known {
				return
			}

			msg := model.FileMessage{
				RunID:     runID,
				Filename:  filename,
				SourceUrl: item.HtmlUrl,
				BlobHash:  item.Sha,
			}
			if err := h.Producer.Publish(ctx, FileMessageKey, msg); err != nil {
				errCh <- err
				return
			}
			atomic.AddInt32(&published, 1)
		}(item)
	}

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return int(atomic.LoadInt32(&published)), err
	}
	return int(atomic.LoadInt32(&published)), nil
}
