// Gói runinfo lưu lịch sử các lần chạy harvest để quan sát và đối chiếu.
// Đây không phải resume state: khởi động lại luôn duyệt từ đầu không gian
// tham số, dedup ở store bảo đảm chạy lại không tạo dòng trùng.

package runinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/pkg/log"
	"gorm.io/gorm"
)

// Conn trừu tượng hóa nguồn kết nối database để test dùng được sqlite
type Conn interface {
	Db() (*gorm.DB, error)
}

// Run là một lần chạy harvest. Stored là số dòng ghi mới với harvester
// ghi trực tiếp, hoặc số message đã publish với harvester đẩy qua Kafka.
type Run struct {
	ID         string    `json:"id" gorm:"column:id;type:char(36);primaryKey"`
	Filename   string    `json:"filename" gorm:"column:filename;type:varchar(255);not null"`
	Version    string    `json:"version" gorm:"column:version;type:varchar(16);not null"`
	StartedAt  time.Time `json:"started_at" gorm:"column:started_at"`
	FinishedAt time.Time `json:"finished_at" gorm:"column:finished_at"`
	Queries    int       `json:"queries" gorm:"column:queries"`
	Pages      int       `json:"pages" gorm:"column:pages"`
	Items      int       `json:"items" gorm:"column:items"`
	Stored     int       `json:"stored" gorm:"column:stored"`
	Outcome    string    `json:"outcome" gorm:"column:outcome;type:varchar(32)"`
}

func (Run) TableName() string {
	return "harvest_runs"
}

type Recorder struct {
	Logger log.Logger
	Config *cfg.Config
	Conn   Conn
}

func NewRecorder(logger log.Logger, config *cfg.Config, conn Conn) (*Recorder, error) {
	return &Recorder{
		Logger: logger,
		Config: config,
		Conn:   conn,
	}, nil
}

func (r *Recorder) Migrate() error {
	db, err := r.Conn.Db()
	if err != nil {
		return err
	}
	return db.AutoMigrate(&Run{})
}

// Record ghi một run đã kết thúc vào bảng lịch sử
func (r *Recorder) Record(ctx context.Context, run *Run) error {
	db, err := r.Conn.Db()
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("ghi lịch sử run %s: %w", run.ID, err)
	}
	return nil
}

// Recent trả về các run gần nhất, mới nhất trước
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	db, err := r.Conn.Db()
	if err != nil {
		return nil, err
	}

	var runs []Run
	if err := db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
