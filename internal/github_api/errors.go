package githubapi

import (
	"fmt"
	"time"
)

// AbuseError báo hiệu GitHub từ chối request vì nghi ngờ abuse
// (403/429 kèm Retry-After). Phía gọi chờ đúng RetryAfter rồi gọi lại.
type AbuseError struct {
	RetryAfter time.Duration
}

func (e *AbuseError) Error() string {
	return fmt.Sprintf("github từ chối request (abuse detection), thử lại sau %s", e.RetryAfter)
}

// RateLimitedError báo hiệu quota search đã cạn. ResetAt có thể là zero
// nếu header reset thiếu hoặc hỏng.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	if e.ResetAt.IsZero() {
		return "đạt giới hạn API, không rõ thời gian reset"
	}
	return fmt.Sprintf("đạt giới hạn API, thời gian reset: %s", e.ResetAt.Format(time.RFC3339))
}

// StatusError là mọi response ngoài 2xx không thuộc hai loại trên
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot received response: %s", e.Status)
}
