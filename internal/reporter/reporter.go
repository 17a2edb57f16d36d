package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/pkg/utils"
)

// Journal is the part of the repository the reporter reads
type Journal interface {
	TransitionsSince(since time.Time) ([]*models.StatusEvent, error)
	LatestTransitionBefore(t time.Time) (*models.StatusEvent, error)
	UploadStats(since time.Time) (models.UploadStats, error)
}

// Reporter handles report generation
type Reporter struct {
	repo Journal
	now  func() time.Time
}

// New creates a new reporter
func New(repo Journal) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport totals online and offline time for the period. Time is
// attributed to the last journaled status; time before the first known
// status, after a shutdown marker, or in the future is not counted.
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	now := r.now()
	period, err := getPeriod(periodType, now)
	if err != nil {
		return nil, err
	}

	prior, err := r.repo.LatestTransitionBefore(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get status at period start: %w", err)
	}

	events, err := r.repo.TransitionsSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}

	stats, err := r.repo.UploadStats(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload stats: %w", err)
	}

	limit := period.End
	if now.Before(limit) {
		limit = now
	}

	state := ""
	if prior != nil {
		state = prior.Status
	} else if len(events) > 0 {
		state = events[0].Previous
	}

	totals := map[string]time.Duration{}
	cursor := period.Start
	transitions := 0
	for _, e := range events {
		if !e.Timestamp.Before(limit) {
			break
		}
		totals[state] += e.Timestamp.Sub(cursor)
		state, cursor = e.Status, e.Timestamp
		if e.Status != models.StatusStopped {
			transitions++
		}
	}
	if limit.After(cursor) {
		totals[state] += limit.Sub(cursor)
	}

	online := int64(totals["online"] / time.Second)
	offline := int64(totals["offline"] / time.Second)

	return &models.Report{
		Period:         *period,
		Status:         state,
		OnlineSeconds:  online,
		OfflineSeconds: offline,
		OnlineHours:    float64(online) / 3600.0,
		OfflineHours:   float64(offline) / 3600.0,
		Transitions:    transitions,
		Uploads:        stats,
		GeneratedAt:    now,
	}, nil
}

// getPeriod calculates the time range for the report
func getPeriod(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Activity Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))

	if report.OnlineSeconds == 0 && report.OfflineSeconds == 0 {
		b.WriteString("\nNo activity recorded for this period.\n")
		return b.String()
	}

	total := report.OnlineSeconds + report.OfflineSeconds
	fmt.Fprintf(&b, "\n%-10s %-24s %8s %9s\n", "Status", "Time", "Hours", "Percent")
	b.WriteString(strings.Repeat("-", 54) + "\n")
	for _, row := range []struct {
		name    string
		seconds int64
	}{
		{"online", report.OnlineSeconds},
		{"offline", report.OfflineSeconds},
	} {
		fmt.Fprintf(&b, "%-10s %-24s %8.2f %8.1f%%\n",
			row.name,
			utils.HumanDuration(time.Duration(row.seconds)*time.Second),
			float64(row.seconds)/3600.0,
			float64(row.seconds)/float64(total)*100.0)
	}

	fmt.Fprintf(&b, "\nTransitions: %d\n", report.Transitions)
	fmt.Fprintf(&b, "Uploads: %d delivered, %d failed\n", report.Uploads.Delivered, report.Uploads.Failed)
	if report.Status != "" {
		fmt.Fprintf(&b, "Current status: %s\n", report.Status)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
