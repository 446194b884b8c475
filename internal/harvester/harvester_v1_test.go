package harvester

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/github-harvester/cfg"
	githubapi "github.com/thep200/github-harvester/internal/github_api"
	"github.com/thep200/github-harvester/internal/params"
	"github.com/thep200/github-harvester/internal/runinfo"
	"gorm.io/gorm"

	"github.com/thep200/github-harvester/pkg/log"
)

type sqliteConn struct {
	db *gorm.DB
}

func (c *sqliteConn) Db() (*gorm.DB, error) {
	return c.db, nil
}

// fakeApi trả cùng một trang kết quả cho mọi truy vấn, giống trường hợp
// các cửa sổ 1000 kết quả chồng lên nhau gần như hoàn toàn
type fakeApi struct {
	mu          sync.Mutex
	items       []githubapi.CodeSearchItem
	searches    int
	downloads   int
	downloadErr error
}

func (f *fakeApi) Search(ctx context.Context, query params.Query, page int) (*githubapi.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return &githubapi.SearchPage{
		Items:    f.items,
		Window:   githubapi.RateWindow{Remaining: 50},
		LastPage: 0,
	}, nil
}

func (f *fakeApi) DownloadRawContent(ctx context.Context, htmlUrl string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return []byte(fmt.Sprintf(`{"source":"%s"}`, htmlUrl)), nil
}

func newTestHarvester(t *testing.T, conn *sqliteConn, api *fakeApi) *HarvesterV1 {
	loader, err := cfg.NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)

	// composer.json không có vocabulary nên không gian chỉ gồm 3 truy vấn,
	// pacing về 0 để test không ngủ thật
	config.Harvester.TargetFilename = "composer.json"
	config.GithubApi.PageSpacingSec = 0
	config.GithubApi.ResetBufferSec = 0
	config.GithubApi.ThrottleDelay = 1

	logger, _ := log.NewCslLogger()
	h, err := NewHarvesterV1(logger, config, conn)
	require.NoError(t, err)
	h.Client = api

	require.NoError(t, h.Store.Migrate())
	require.NoError(t, h.Recorder.Migrate())
	return h
}

func newConn(t *testing.T) *sqliteConn {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "harvest.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return &sqliteConn{db: db}
}

func items(blobs ...string) []githubapi.CodeSearchItem {
	var out []githubapi.CodeSearchItem
	for _, b := range blobs {
		out = append(out, githubapi.CodeSearchItem{
			Name:    "composer.json",
			Sha:     b,
			HtmlUrl: "https://github.com/o/r-" + b + "/blob/main/composer.json",
		})
	}
	return out
}

func TestHarvestStoresEachBlobOnce(t *testing.T) {
	conn := newConn(t)
	api := &fakeApi{items: items("aaa", "bbb", "ccc")}
	h := newTestHarvester(t, conn, api)

	require.True(t, h.Harvest())

	// 3 truy vấn đều trả cùng 3 blob, chỉ truy vấn đầu ghi mới
	count, err := h.Store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Equal(t, 3, api.searches)
	assert.Equal(t, 3, api.downloads)
}

func TestHarvestRerunIsNoOp(t *testing.T) {
	conn := newConn(t)
	api := &fakeApi{items: items("aaa", "bbb")}
	h := newTestHarvester(t, conn, api)
	require.True(t, h.Harvest())

	downloadsAfterFirst := api.downloads

	// Chạy lại từ đầu: dedup store biến mọi item thành no-op,
	// không tải lại nội dung nào
	h2 := newTestHarvester(t, conn, api)
	require.True(t, h2.Harvest())

	count, err := h2.Store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, downloadsAfterFirst, api.downloads)
}

func TestHarvestRecordsRunHistory(t *testing.T) {
	conn := newConn(t)
	api := &fakeApi{items: items("aaa")}
	h := newTestHarvester(t, conn, api)
	require.True(t, h.Harvest())

	runs, err := h.Recorder.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, "completed", run.Outcome)
	assert.Equal(t, "composer.json", run.Filename)
	assert.Equal(t, "v1", run.Version)
	assert.Equal(t, 3, run.Queries)
	assert.Equal(t, 3, run.Pages)
	assert.Equal(t, 3, run.Items)
	assert.Equal(t, 1, run.Stored)
	assert.NotEmpty(t, run.ID)
}

func TestHarvestAbortsOnDownloadFailure(t *testing.T) {
	conn := newConn(t)
	api := &fakeApi{
		items:       items("aaa"),
		downloadErr: errors.New("raw host unreachable"),
	}
	h := newTestHarvester(t, conn, api)

	require.False(t, h.Harvest())

	count, err := h.Store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	runs, err := h.Recorder.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Outcome)
}

func TestHarvestStopAtQueryBoundary(t *testing.T) {
	conn := newConn(t)
	api := &fakeApi{items: items("aaa")}
	h := newTestHarvester(t, conn, api)

	// Dừng được yêu cầu trước khi chạy: vòng harvest thoát ngay ở ranh giới
	// truy vấn đầu tiên mà không gọi search lần nào
	h.Stop()
	require.True(t, h.Harvest())

	assert.Equal(t, 0, api.searches)
	runs, err := h.Recorder.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "stopped", runs[0].Outcome)
}

var _ runinfo.Conn = (*sqliteConn)(nil)
