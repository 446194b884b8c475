// Gói fetcher kéo lần lượt từng trang kết quả của một bộ tham số truy vấn.
// Vòng lặp trang chạy tuần tự và tự xử lý hai loại gián đoạn: abuse detection
// (chờ đúng Retry-After rồi gọi lại chính trang đó) và cạn quota (chờ đến
// mốc reset cộng thêm buffer). Mọi lỗi khác là fatal và trả về cho phía gọi.

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thep200/github-harvester/cfg"
	githubapi "github.com/thep200/github-harvester/internal/github_api"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/pkg/log"
)

// SearchClient là phần của caller mà fetcher cần dùng
type SearchClient interface {
	Search(ctx context.Context, query params.Query, page int) (*githubapi.SearchPage, error)
}

// PageHandler xử lý một trang kết quả. Trả về lỗi sẽ dừng cả truy vấn.
type PageHandler func(page *githubapi.SearchPage) error

type Fetcher struct {
	Logger    log.Logger
	Config    *cfg.Config
	Client    SearchClient
	StartPage int

	// sleep được tách ra để test không phải chờ thật
	sleep func(time.Duration)
}

func NewFetcher(logger log.Logger, config *cfg.Config, client SearchClient) *Fetcher {
	return &Fetcher{
		Logger:    logger,
		Config:    config,
		Client:    client,
		StartPage: config.Harvester.StartPage,
		sleep:     time.Sleep,
	}
}

// Fetch duyệt hết các trang của một truy vấn, gọi handler cho từng trang.
// Ranh giới trang cuối được đọc lại từ MỖI response vì index của GitHub
// có thể thay đổi ngay giữa chừng truy vấn.
func (f *Fetcher) Fetch(ctx context.Context, query params.Query, handler PageHandler) error {
	page := f.StartPage
	spacing := time.Duration(f.Config.GithubApi.PageSpacingSec) * time.Second
	buffer := time.Duration(f.Config.GithubApi.ResetBufferSec) * time.Second

	for {
		started := time.Now()

		res, err := f.Client.Search(ctx, query, page)
		if err != nil {
			var abuse *githubapi.AbuseError
			if errors.As(err, &abuse) {
				// Abuse detection: ngủ đúng thời gian được yêu cầu, không cộng
				// thêm gì, rồi gọi lại chính trang này
				f.Logger.Warn(ctx, "Abuse detection, chờ %s rồi thử lại trang %d", abuse.RetryAfter, page)
				f.sleep(abuse.RetryAfter)
				continue
			}

			var limited *githubapi.RateLimitedError
			if errors.As(err, &limited) {
				wait := waitForReset(limited.ResetAt, buffer)
				f.Logger.Warn(ctx, "Hết quota search, chờ %s rồi thử lại trang %d", wait.Round(time.Second), page)
				f.sleep(wait)
				continue
			}

			return fmt.Errorf("trang %d (%s): %w", page, query, err)
		}

		lastPage := res.LastPage

		if err := handler(res); err != nil {
			return fmt.Errorf("xử lý trang %d (%s): %w", page, query, err)
		}

		if page >= lastPage {
			return nil
		}
		page++

		// Chủ động giãn nhịp trước khi gọi trang kế: quota cạn thì chờ reset,
		// còn lại giữ khoảng cách tối thiểu giữa hai lần gọi
		if res.Window.Remaining < 1 {
			wait := waitForReset(res.Window.ResetAt, buffer)
			f.Logger.Info(ctx, "Quota đã cạn sau trang vừa rồi, chờ %s đến khi reset", wait.Round(time.Second))
			f.sleep(wait)
		} else if elapsed := time.Since(started); elapsed < spacing {
			f.sleep(spacing - elapsed)
		}
	}
}

// waitForReset tính thời gian chờ tới mốc reset cộng buffer,
// tối thiểu bằng buffer khi mốc reset thiếu hoặc đã qua
func waitForReset(resetAt time.Time, buffer time.Duration) time.Duration {
	wait := buffer
	if !resetAt.IsZero() {
		wait = time.Until(resetAt) + buffer
	}
	if wait < buffer {
		wait = buffer
	}
	return wait
}
