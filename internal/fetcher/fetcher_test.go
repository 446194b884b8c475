package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-harvester/cfg"
	githubapi "github.com/thep200/github-harvester/internal/github_api"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/pkg/log"
)

// step là một response được lên kịch bản trước cho fake client
type step struct {
	page *githubapi.SearchPage
	err  error
}

type fakeClient struct {
	steps []step
	calls []int // số trang của từng lần gọi theo thứ tự
}

func (f *fakeClient) Search(ctx context.Context, query params.Query, page int) (*githubapi.SearchPage, error) {
	f.calls = append(f.calls, page)
	if len(f.steps) == 0 {
		panic("fake client ran out of scripted responses")
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	return s.page, s.err
}

func newTestFetcher(t *testing.T, client *fakeClient, startPage int) (*Fetcher, *[]time.Duration) {
	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)
	config.Harvester.StartPage = startPage

	logger, _ := log.NewCslLogger()
	f := NewFetcher(logger, config, client)

	var sleeps []time.Duration
	f.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return f, &sleeps
}

func page(items int, remaining, lastPage int, resetAt time.Time) *githubapi.SearchPage {
	p := &githubapi.SearchPage{
		Window:   githubapi.RateWindow{Remaining: remaining, ResetAt: resetAt},
		LastPage: lastPage,
	}
	for i := 0; i < items; i++ {
		p.Items = append(p.Items, githubapi.CodeSearchItem{})
	}
	return p
}

func TestFetchStopsWhenNoLastRelation(t *testing.T) {
	client := &fakeClient{steps: []step{
		{page: page(100, 10, 0, time.Time{})},
	}}
	f, _ := newTestFetcher(t, client, 0)

	handled := 0
	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		handled++
		return nil
	})
	require.NoError(t, err)

	// Trang 0 không có rel="last" nghĩa là nó là trang duy nhất,
	// không được gọi tiếp trang 1
	assert.Equal(t, []int{0}, client.calls)
	assert.Equal(t, 1, handled)
}

func TestFetchWalksPagesToDiscoveredLast(t *testing.T) {
	client := &fakeClient{steps: []step{
		{page: page(100, 10, 2, time.Time{})},
		{page: page(100, 10, 2, time.Time{})},
		{page: page(40, 10, 2, time.Time{})},
	}}
	f, _ := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, client.calls)
}

func TestFetchRespectsShrinkingLastPage(t *testing.T) {
	// Index thay đổi giữa chừng: trang 0 báo last=5, trang 1 báo last=1
	client := &fakeClient{steps: []step{
		{page: page(100, 10, 5, time.Time{})},
		{page: page(100, 10, 1, time.Time{})},
	}}
	f, _ := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, client.calls)
}

func TestFetchAbuseRetryReplaysSamePage(t *testing.T) {
	client := &fakeClient{steps: []step{
		{err: &githubapi.AbuseError{RetryAfter: 5 * time.Second}},
		{page: page(10, 10, 3, time.Time{})},
	}}
	f, sleeps := newTestFetcher(t, client, 3)

	handled := 0
	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		handled++
		return nil
	})
	require.NoError(t, err)

	// Bị từ chối vì abuse thì ngủ đúng Retry-After rồi gọi lại CHÍNH trang 3,
	// trang chỉ được xử lý một lần
	assert.Equal(t, []int{3, 3}, client.calls)
	assert.Equal(t, 1, handled)
	require.Len(t, *sleeps, 1)
	assert.GreaterOrEqual(t, (*sleeps)[0], 5*time.Second)
}

func TestFetchRateLimitErrorWaitsForReset(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second)
	client := &fakeClient{steps: []step{
		{err: &githubapi.RateLimitedError{ResetAt: resetAt}},
		{page: page(10, 10, 0, time.Time{})},
	}}
	f, sleeps := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0}, client.calls)
	require.Len(t, *sleeps, 1)
	// Chờ đến mốc reset cộng buffer 2s
	assert.GreaterOrEqual(t, (*sleeps)[0], 29*time.Second)
	assert.LessOrEqual(t, (*sleeps)[0], 33*time.Second)
}

func TestFetchPausesWhenQuotaExhausted(t *testing.T) {
	resetAt := time.Now().Add(10 * time.Second)
	client := &fakeClient{steps: []step{
		{page: page(100, 0, 1, resetAt)},
		{page: page(100, 10, 1, time.Time{})},
	}}
	f, sleeps := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, client.calls)
	require.Len(t, *sleeps, 1)
	// remaining=0 sau trang 0 thì trang 1 chỉ được gọi sau resetAt + 2s buffer
	assert.GreaterOrEqual(t, (*sleeps)[0], 9*time.Second)
	assert.LessOrEqual(t, (*sleeps)[0], 13*time.Second)
}

func TestFetchEnforcesMinimumSpacing(t *testing.T) {
	client := &fakeClient{steps: []step{
		{page: page(100, 10, 1, time.Time{})},
		{page: page(100, 10, 1, time.Time{})},
	}}
	f, sleeps := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.NoError(t, err)

	// Handler trả về ngay nên gần như toàn bộ khoảng giãn 3s phải được ngủ bù
	require.Len(t, *sleeps, 1)
	assert.Greater(t, (*sleeps)[0], 2500*time.Millisecond)
	assert.LessOrEqual(t, (*sleeps)[0], 3*time.Second)
}

func TestFetchPropagatesUnclassifiedErrors(t *testing.T) {
	boom := errors.New("connection reset")
	client := &fakeClient{steps: []step{{err: boom}}}
	f, sleeps := newTestFetcher(t, client, 0)

	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, *sleeps)
	assert.Equal(t, []int{0}, client.calls)
}

func TestFetchPropagatesHandlerErrors(t *testing.T) {
	client := &fakeClient{steps: []step{
		{page: page(100, 10, 3, time.Time{})},
	}}
	f, _ := newTestFetcher(t, client, 0)

	boom := errors.New("store exploded")
	err := f.Fetch(context.Background(), params.Query{Filename: "package.json"}, func(p *githubapi.SearchPage) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0}, client.calls)
}
