package githubapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RateWindow là trạng thái quota đọc từ header của một response.
// Remaining là số request còn lại trong cửa sổ hiện tại, ResetAt là
// thời điểm cửa sổ được làm mới.
type RateWindow struct {
	Remaining int
	ResetAt   time.Time
}

// ParseRateWindow đọc X-RateLimit-Remaining và X-RateLimit-Reset.
// Header thiếu hoặc sai định dạng cho ra giá trị zero, phía gọi sẽ
// coi như quota đã cạn và tạm dừng thay vì đoán bừa.
func ParseRateWindow(h http.Header) RateWindow {
	w := RateWindow{}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			w.Remaining = n
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil && sec > 0 {
			w.ResetAt = time.Unix(sec, 0)
		}
	}
	return w
}

// ParseLastPage đọc số trang cuối từ header Link (rel="last").
// Không có header hay không có rel="last" nghĩa là trang hiện tại
// đã là trang cuối, trả về 0.
func ParseLastPage(h http.Header) int {
	link := h.Get("Link")
	if link == "" {
		return 0
	}
	for _, part := range strings.Split(link, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		isLast := false
		for _, attr := range sections[1:] {
			if strings.TrimSpace(attr) == `rel="last"` {
				isLast = true
				break
			}
		}
		if !isLast {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		u, err := url.Parse(target)
		if err != nil {
			continue
		}
		if page, err := strconv.Atoi(u.Query().Get("page")); err == nil {
			return page
		}
	}
	return 0
}

// parseRetryAfter đọc header Retry-After, hỗ trợ cả dạng delta giây
// và dạng HTTP date. Không có hoặc không parse được thì trả về 0.
func parseRetryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
