package model

// FileMessage là cấu trúc dữ liệu file phát hiện được gửi tới Kafka.
// Consumer tự tải nội dung nên message chỉ mang định danh, không mang content.
type FileMessage struct {
	RunID     string `json:"run_id"`
	Filename  string `json:"filename"`
	SourceUrl string `json:"source_url"`
	BlobHash  string `json:"blob_hash"`
}
