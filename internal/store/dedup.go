// Gói store ghi các file đã tải về storage với bảo đảm mỗi blob chỉ có đúng
// một dòng. Dedup hai tầng: kiểm tra blob hash trước khi tải (rẻ, tránh tải
// thừa) và ràng buộc unique ở tầng database (có thẩm quyền, chặn cả race giữa
// các goroutine lẫn giữa các process). Check-then-insert không khóa gì cả,
// thua cuộc đua chỉ là một lần insert bị từ chối.

package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/internal/model"
	"github.com/thep200/github-harvester/pkg/log"
	"gorm.io/gorm"
)

// Conn trừu tượng hóa nguồn kết nối database để test dùng được sqlite
type Conn interface {
	Db() (*gorm.DB, error)
}

// ContentFetcher tải nội dung file, chỉ được gọi khi blob chưa có trong store
type ContentFetcher func(ctx context.Context) ([]byte, error)

type Store struct {
	Logger log.Logger
	Config *cfg.Config
	Conn   Conn

	table         string
	uniqueContent bool
}

func NewStore(logger log.Logger, config *cfg.Config, conn Conn, filename string) (*Store, error) {
	if filename == "" {
		return nil, errors.New("store cần một filename mục tiêu")
	}
	return &Store{
		Logger:        logger,
		Config:        config,
		Conn:          conn,
		table:         model.TableNameFor(filename),
		uniqueContent: config.Harvester.UniqueContent,
	}, nil
}

// Table trả về tên bảng đích, phục vụ log và dashboard
func (s *Store) Table() string {
	return s.table
}

// Migrate tạo bảng và các index. Index được tạo tay với tên dẫn xuất từ
// tên bảng vì mỗi filename có bảng riêng. Unique trên content_hash chỉ
// được tạo khi chính sách unique content bật.
func (s *Store) Migrate() error {
	db, err := s.Conn.Db()
	if err != nil {
		return err
	}

	if err := db.Table(s.table).AutoMigrate(&model.StoredFile{}); err != nil {
		return fmt.Errorf("migrate bảng %s: %w", s.table, err)
	}

	if err := s.ensureIndex(db, "uniq_"+s.table+"_blob", "blob_hash", true); err != nil {
		return err
	}

	contentIdx := "idx_" + s.table + "_content"
	if s.uniqueContent {
		contentIdx = "uniq_" + s.table + "_content"
	}
	return s.ensureIndex(db, contentIdx, "content_hash", s.uniqueContent)
}

func (s *Store) ensureIndex(db *gorm.DB, name, column string, unique bool) error {
	if db.Table(s.table).Migrator().HasIndex(&model.StoredFile{}, name) {
		return nil
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	stmt := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, name, s.table, column)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("tạo index %s: %w", name, err)
	}
	return nil
}

// Exists kiểm tra nhanh một blob đã có trong bảng chưa
func (s *Store) Exists(ctx context.Context, blobHash string) (bool, error) {
	db, err := s.Conn.Db()
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.WithContext(ctx).Table(s.table).Where("blob_hash = ?", blobHash).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Offer đưa một file ứng viên vào store. Blob đã biết thì bỏ qua không tải.
// Blob mới thì tải nội dung, băm SHA-256 rồi insert; insert bị ràng buộc
// unique từ chối (thua race hoặc trùng content khi chính sách unique bật)
// cũng tính là bỏ qua chứ không phải lỗi. Trả về true khi đã ghi dòng mới.
func (s *Store) Offer(ctx context.Context, sourceUrl, blobHash string, fetch ContentFetcher) (bool, error) {
	known, err := s.Exists(ctx, blobHash)
	if err != nil {
		return false, err
	}
	if known {
		return false, nil
	}

	content, err := fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("tải nội dung %s: %w", sourceUrl, err)
	}

	sum := sha256.Sum256(content)
	row := &model.StoredFile{
		SourceUrl:   sourceUrl,
		Content:     content,
		ContentHash: hex.EncodeToString(sum[:]),
		BlobHash:    blobHash,
	}

	db, err := s.Conn.Db()
	if err != nil {
		return false, err
	}
	if err := db.WithContext(ctx).Table(s.table).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.Logger.Debug(ctx, "Blob %s đã được ghi bởi một luồng khác, bỏ qua", blobHash)
			return false, nil
		}
		return false, fmt.Errorf("insert vào %s: %w", s.table, err)
	}

	return true, nil
}

// List trả về một trang dòng của bảng đích, mới nhất trước, không kèm
// cột content vì body file có thể lớn và dashboard không cần
func (s *Store) List(ctx context.Context, offset, limit int) ([]model.StoredFile, error) {
	db, err := s.Conn.Db()
	if err != nil {
		return nil, err
	}

	var rows []model.StoredFile
	err = db.WithContext(ctx).Table(s.table).
		Select("id", "source_url", "content_hash", "blob_hash", "created_at", "updated_at").
		Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count đếm số dòng hiện có trong bảng đích
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.Conn.Db()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.WithContext(ctx).Table(s.table).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
