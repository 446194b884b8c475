package model

import "strings"

// TruncateString cắt chuỗi xuống độ dài tối đa cho phép
// nếu chuỗi dài hơn giới hạn
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength]
}

// TableNameFor sinh tên bảng cho một filename mục tiêu.
// Ký tự ngoài [a-z0-9] được thay bằng "_" để tên bảng luôn hợp lệ,
// ví dụ "package.json" -> "files_package_json".
func TableNameFor(filename string) string {
	var b strings.Builder
	b.WriteString("files_")
	for _, r := range strings.ToLower(filename) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
