package ui

import (
	"net/http"
	"strconv"
)

// RunView is one entry of the harvest run history
type RunView struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Version    string `json:"version"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt"`
	Queries    int    `json:"queries"`
	Pages      int    `json:"pages"`
	Items      int    `json:"items"`
	Stored     int    `json:"stored"`
	Outcome    string `json:"outcome"`
}

// getRuns returns the most recent harvest runs as JSON
func (h *Handler) getRuns(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.Api.Recorder().Recent(r.Context(), limit)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch runs: %v", err)
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	var views []RunView
	for _, run := range runs {
		views = append(views, RunView{
			ID:         run.ID,
			Filename:   run.Filename,
			Version:    run.Version,
			StartedAt:  run.StartedAt.Format("2006-01-02 15:04:05"),
			FinishedAt: run.FinishedAt.Format("2006-01-02 15:04:05"),
			Queries:    run.Queries,
			Pages:      run.Pages,
			Items:      run.Items,
			Stored:     run.Stored,
			Outcome:    run.Outcome,
		})
	}

	writeJSON(w, r, h.Logger, views)
}
