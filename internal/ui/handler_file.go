package ui

import (
	"net/http"
	"strconv"
)

// StoredFileView is a stored file row without its content bytes
type StoredFileView struct {
	ID          uint   `json:"id"`
	SourceUrl   string `json:"sourceUrl"`
	ContentHash string `json:"contentHash"`
	BlobHash    string `json:"blobHash"`
	CreatedAt   string `json:"createdAt"`
}

// getFiles returns a page of harvested files as JSON
func (h *Handler) getFiles(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters for pagination
	pageStr := r.URL.Query().Get("page")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSizeStr := r.URL.Query().Get("pageSize")
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	offset := (page - 1) * pageSize

	rows, err := h.Api.Store().List(r.Context(), offset, pageSize)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch files: %v", err)
		http.Error(w, "Failed to fetch files", http.StatusInternalServerError)
		return
	}

	totalCount, err := h.Api.Store().Count(r.Context())
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to count files: %v", err)
		http.Error(w, "Failed to count files", http.StatusInternalServerError)
		return
	}

	// Convert to response format
	var files []StoredFileView
	for _, row := range rows {
		files = append(files, StoredFileView{
			ID:          row.ID,
			SourceUrl:   row.SourceUrl,
			ContentHash: row.ContentHash,
			BlobHash:    row.BlobHash,
			CreatedAt:   row.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	// Create response with metadata
	response := map[string]interface{}{
		"files": files,
		"pagination": map[string]interface{}{
			"page":       page,
			"pageSize":   pageSize,
			"totalCount": totalCount,
			"totalPages": (totalCount + int64(pageSize) - 1) / int64(pageSize),
		},
	}

	writeJSON(w, r, h.Logger, response)
}
