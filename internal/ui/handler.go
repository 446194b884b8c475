package ui

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/thep200/github-harvester/api"
	"github.com/thep200/github-harvester/cfg"
	"github.com/thep200/github-harvester/pkg/log"
)

//go:embed static/index.html
var staticFS embed.FS

// Handler manages HTTP requests for the UI
type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	Api    *api.HarvesterAPI
	tmpl   *template.Template
}

// NewHandler creates a new UI handler
func NewHandler(logger log.Logger, config *cfg.Config, harvesterApi *api.HarvesterAPI) (*Handler, error) {
	tmpl, err := template.ParseFS(staticFS, "static/index.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		Logger: logger,
		Config: config,
		Api:    harvesterApi,
		tmpl:   tmpl,
	}, nil
}

// RegisterRoutes sets up the HTTP routes for the UI
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// API routes
	mux.HandleFunc("/api/files", h.getFiles)
	mux.HandleFunc("/api/stats", h.getStats)
	mux.HandleFunc("/api/runs", h.getRuns)
	mux.HandleFunc("/api/harvest/start", h.startHarvest)
	mux.HandleFunc("/api/harvest/stop", h.stopHarvest)

	// HTML routes
	mux.HandleFunc("/", h.showHomePage)
}

// showHomePage renders the main page
func (h *Handler) showHomePage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Filename": h.Config.Harvester.TargetFilename,
		"Table":    h.Api.Store().Table(),
	}
	if err := h.tmpl.Execute(w, data); err != nil {
		h.Logger.Error(r.Context(), "Failed to execute template: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// getStats returns harvest progress and store totals as JSON
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Api.GetHarvestStats()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to fetch harvest stats: %v", err)
		http.Error(w, "Failed to fetch harvest stats", http.StatusInternalServerError)
		return
	}

	total, err := h.Api.Store().Count(r.Context())
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to count stored files: %v", err)
		http.Error(w, "Failed to count stored files", http.StatusInternalServerError)
		return
	}

	dbStatus, _ := h.Api.GetDatabaseStatus()

	writeJSON(w, r, h.Logger, map[string]interface{}{
		"harvest":     stats,
		"storedFiles": total,
		"database":    dbStatus,
	})
}

// startHarvest kicks off a harvest run with the requested version
func (h *Handler) startHarvest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	version := r.URL.Query().Get("version")
	if version == "" {
		version = h.Config.Harvester.Version
	}

	msg, err := h.Api.StartHarvesting(version)
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to start harvesting: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, r, h.Logger, map[string]string{"message": msg})
}

// stopHarvest requests a soft stop of the running harvest
func (h *Handler) stopHarvest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	msg, err := h.Api.StopHarvesting()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to stop harvesting: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, r, h.Logger, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger log.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error(r.Context(), "Failed to encode JSON response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
