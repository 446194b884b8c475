// Gói githubapi cung cấp một caller cho GitHub API, để tìm kiếm file theo tên
// và tải nội dung raw của file. Nó xử lý xác thực bằng mã thông báo truy cập
// nếu được cung cấp và phân loại các lỗi rate limit thành lỗi có kiểu
// để phía gọi quyết định chờ hay dừng.

package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/pkg/log"
)

// GitHub chỉ cho xem 1000 kết quả đầu của mỗi truy vấn search
const maxSearchResults = 1000

type Caller struct {
	Logger  log.Logger
	Config  *cfg.Config
	PerPage int
	client  *http.Client
}

// SearchPage là một trang kết quả search kèm metadata rate limit và phân trang
type SearchPage struct {
	Items      []CodeSearchItem
	TotalCount int
	Window     RateWindow
	LastPage   int
}

func NewCaller(logger log.Logger, config *cfg.Config) *Caller {
	return &Caller{
		Logger:  logger,
		Config:  config,
		PerPage: 100,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Search gọi code search API với một bộ tham số truy vấn và số trang.
// Response 403/429 được phân loại: có Retry-After là AbuseError,
// quota cạn là RateLimitedError, còn lại là StatusError.
func (c *Caller) Search(ctx context.Context, query params.Query, page int) (*SearchPage, error) {
	values := url.Values{}
	values.Set("q", c.buildQualifiers(query))
	values.Set("per_page", strconv.Itoa(c.PerPage))
	values.Set("page", strconv.Itoa(page))
	if query.Sort != "" {
		values.Set("sort", query.Sort)
		values.Set("order", query.Order)
	}

	fullUrl := c.Config.GithubApi.SearchApiUrl + "?" + values.Encode()
	c.Logger.Info(ctx, "Calling GitHub API: %s", fullUrl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		c.Logger.Error(ctx, "Cannot request: %v", err)
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Config.GithubApi.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.Logger.Error(ctx, "cannot send request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	window := ParseRateWindow(resp.Header)
	c.Logger.Debug(ctx, "Rate limit remaining: %d", window.Remaining)

	// Phân loại 403/429 trước khi đọc body
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if retryAfter := parseRetryAfter(resp.Header); retryAfter > 0 {
			return nil, &AbuseError{RetryAfter: retryAfter}
		}
		if window.Remaining < 1 {
			return nil, &RateLimitedError{ResetAt: window.ResetAt}
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// Giải mã phản hồi
	rawResponse := &CodeSearchResponse{}
	if err := json.NewDecoder(resp.Body).Decode(rawResponse); err != nil {
		return nil, fmt.Errorf("cannot decode search response: %w", err)
	}

	c.Logger.Info(ctx, "Total files found: %d, page: %d, items received: %d",
		rawResponse.TotalCount, page, len(rawResponse.Items))

	if (page+1)*c.PerPage > maxSearchResults {
		c.Logger.Warn(ctx, "GitHub API only provides access to the first 1,000 search results")
	}

	return &SearchPage{
		Items:      rawResponse.Items,
		TotalCount: rawResponse.TotalCount,
		Window:     window,
		LastPage:   ParseLastPage(resp.Header),
	}, nil
}

// buildQualifiers ghép chuỗi q= từ search term, filename và language hint
func (c *Caller) buildQualifiers(query params.Query) string {
	parts := make([]string, 0, 3)
	if query.Term != "" {
		parts = append(parts, query.Term)
	}
	parts = append(parts, "filename:"+query.Filename)
	if c.Config.GithubApi.LanguageHint != "" {
		parts = append(parts, "language:"+c.Config.GithubApi.LanguageHint)
	}
	return strings.Join(parts, " ")
}

// DownloadRawContent tải nội dung file từ host raw, dựa trên html_url
// mà search trả về
func (c *Caller) DownloadRawContent(ctx context.Context, htmlUrl string) ([]byte, error) {
	rawUrl, err := c.rawContentUrl(htmlUrl)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// rawContentUrl chuyển html_url dạng {host}/{owner}/{repo}/blob/{ref}/{path}
// sang url tương ứng trên host raw: {raw}/{owner}/{repo}/{ref}/{path}
func (c *Caller) rawContentUrl(htmlUrl string) (string, error) {
	u, err := url.Parse(htmlUrl)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(parts) < 5 || parts[2] != "blob" {
		return "", fmt.Errorf("không nhận dạng được url blob: %s", htmlUrl)
	}

	rawParts := append([]string{parts[0], parts[1]}, parts[3:]...)
	return strings.TrimRight(c.Config.GithubApi.RawContentUrl, "/") + "/" + strings.Join(rawParts, "/"), nil
}
