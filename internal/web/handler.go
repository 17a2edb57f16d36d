package web

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/capture"
	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/reporter"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/pkg/utils"
)

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// StatusSource is the live detector state
type StatusSource interface {
	Snapshot() status.Snapshot
}

// QueueSource lists the failed queue
type QueueSource interface {
	List() ([]capture.Artifact, error)
}

// Journal is the part of the repository the API reads
type Journal interface {
	reporter.Journal
	RecentTransitions(limit int) ([]*models.StatusEvent, error)
	RecentErrors(limit int) ([]*models.ErrorLog, error)
}

type Handler struct {
	log      zerolog.Logger
	config   *config.Config
	status   StatusSource
	queue    QueueSource
	repo     Journal
	reporter *reporter.Reporter
	started  time.Time
}

func NewHandler(log zerolog.Logger, cfg *config.Config, st StatusSource, queue QueueSource, repo Journal) *Handler {
	return &Handler{
		log:      log,
		config:   cfg,
		status:   st,
		queue:    queue,
		repo:     repo,
		reporter: reporter.New(repo),
		started:  time.Now(),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/queue", h.handleQueue)
	mux.HandleFunc("/api/transitions", h.handleTransitions)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/summary", h.handleSummary)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.status.Snapshot()
	resp := map[string]any{
		"status":         snap.Status.String(),
		"since":          snap.Since.Format(time.RFC3339),
		"in_status":      utils.HumanDuration(time.Since(snap.Since)),
		"idle_seconds":   int64(snap.LastIdle / time.Second),
		"idle_threshold": h.config.Status.IdleThreshold.String(),
		"poll_interval":  h.config.Status.PollInterval.String(),
		"uptime":         utils.HumanDuration(time.Since(h.started)),
	}
	if !snap.LastSample.IsZero() {
		resp["last_sample"] = snap.LastSample.Format(time.RFC3339)
	}

	respondJSON(w, h.log, resp)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := h.queue.List()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list queue: %v", err), http.StatusInternalServerError)
		return
	}

	type entry struct {
		File      string    `json:"file"`
		CreatedAt time.Time `json:"created_at"`
	}
	entries := make([]entry, 0, len(items))
	for _, a := range items {
		entries = append(entries, entry{File: a.Name(), CreatedAt: a.CreatedAt})
	}

	respondJSON(w, h.log, map[string]any{
		"depth":   len(entries),
		"entries": entries,
	})
}

func (h *Handler) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	events, err := h.repo.RecentTransitions(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch transitions: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, h.log, events)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	logs, err := h.repo.RecentErrors(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, h.log, logs)
}

// parseLimit reads ?limit=, capped at maxLimit. It writes a 400 on a bad value.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultLimit, true
	}
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return min(l, maxLimit), true
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := h.generate(w, r)
	if !ok {
		return
	}

	respondJSON(w, h.log, report)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := h.generate(w, r)
	if !ok {
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		respondSummaryHTML(w, report)
		return
	}

	respondJSON(w, h.log, map[string]any{
		"period":  report.Period,
		"online":  utils.FormatRoundedUnit(report.OnlineSeconds),
		"offline": utils.FormatRoundedUnit(report.OfflineSeconds),
	})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	switch periodType {
	case "day", "today", "week", "month":
	default:
		http.Error(w, fmt.Sprintf("invalid period type: %s (valid: day, week, month)", periodType), http.StatusBadRequest)
		return nil, false
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return report, true
}

func respondSummaryHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	total := report.OnlineSeconds + report.OfflineSeconds
	if total == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, row := range []struct {
		name    string
		seconds int64
	}{
		{"online", report.OnlineSeconds},
		{"offline", report.OfflineSeconds},
	} {
		pct := float64(row.seconds) / float64(total) * 100.0
		fmt.Fprintf(&b, `
		<div class="item" style="--bar-width: %.1f%%">
			<span class="name">%s</span>
			<span class="time">%s</span>
			<span class="percentage">%.1f%%</span>
		</div>`, pct, html.EscapeString(row.name), utils.FormatRoundedUnit(row.seconds), pct)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="total">Transitions: %d</div>`, report.Transitions)

	w.Write([]byte(b.String()))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.log, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func respondJSON(w http.ResponseWriter, log zerolog.Logger, data any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding JSON")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Workplus</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f5f5;
            color: #333;
            padding: 20px;
        }
        .dashboard { display: flex; gap: 20px; flex-wrap: wrap; }
        .report-box {
            flex: 1;
            min-width: 260px;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 24px;
        }
        .report-box h2 { border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        .item {
            display: flex;
            justify-content: space-between;
            padding: 12px 8px;
            border-bottom: 1px solid #eee;
            background: linear-gradient(90deg, rgba(52,152,219,0.15) var(--bar-width), transparent var(--bar-width));
        }
        .percentage { color: #3498db; font-weight: 600; }
        .loading { color: #7f8c8d; font-style: italic; }
        .total { margin-top: 16px; font-weight: 600; color: #2c3e50; }
    </style>
</head>
<body>
    <h1>Workplus</h1>
    <div class="dashboard">
        <div class="report-box">
            <h2>Today</h2>
            <div hx-get="/api/summary?period=today" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
        <div class="report-box">
            <h2>This Week</h2>
            <div hx-get="/api/summary?period=week" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
        <div class="report-box">
            <h2>This Month</h2>
            <div hx-get="/api/summary?period=month" hx-trigger="load, every 30s" hx-swap="innerHTML">
                <div class="loading">Loading...</div>
            </div>
        </div>
    </div>
</body>
</html>`
