package model

import (
	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/pkg/db"
	"github.com/thep200/github-harvester/pkg/log"
)

// StoredFile là một file đã tải về từ GitHub.
// BlobHash là git blob SHA (identity của file trong git), ContentHash là
// SHA-256 của nội dung sau khi tải. Không khai báo TableName cố định vì
// mỗi filename mục tiêu có bảng riêng (xem TableNameFor).
type StoredFile struct {
	Model
	SourceUrl   string `json:"source_url" gorm:"column:source_url;type:text;not null"`
	Content     []byte `json:"content" gorm:"column:content;type:longblob;not null"`
	ContentHash string `json:"content_hash" gorm:"column:content_hash;type:char(64);not null"`
	BlobHash    string `json:"blob_hash" gorm:"column:blob_hash;type:char(40);not null"`
}

func NewStoredFile(config *cfg.Config, logger log.Logger, db *db.Mysql) (*StoredFile, error) {
	file := &StoredFile{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return file, nil
}
