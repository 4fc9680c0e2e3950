package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/rollingriches/leadsync/internal/infra/database"
)

// ReportHandler serves the read-only operational reports: daily lead
// statistics, the forwarding backlog, and recent sync run history.
type ReportHandler struct {
	DB       *sql.DB
	Runs     *database.SyncRunRepository
	Attempts *database.ForwardAttemptRepository
}

func NewReportHandler(db *sql.DB, runs *database.SyncRunRepository, attempts *database.ForwardAttemptRepository) *ReportHandler {
	return &ReportHandler{
		DB:       db,
		Runs:     runs,
		Attempts: attempts,
	}
}

type dailyStats struct {
	Day           string  `json:"day"`
	TotalLeads    int     `json:"total_leads"`
	ValidEmails   int     `json:"valid_emails"`
	ValidPhones   int     `json:"valid_phones"`
	Blacklisted   int     `json:"blacklisted"`
	Forwarded     int     `json:"forwarded"`
	HighQuality   int     `json:"high_quality"`
	MediumQuality int     `json:"medium_quality"`
	LowQuality    int     `json:"low_quality"`
	AvgQuality    float64 `json:"avg_quality"`
}

// HandleDaily aggregates lead counts and the quality distribution per signup
// day, most recent first.
func (h *ReportHandler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)

	rows, err := h.DB.QueryContext(r.Context(), `
		SELECT
			signup_time::date AS day,
			COUNT(*),
			COUNT(*) FILTER (WHERE email_valid),
			COUNT(*) FILTER (WHERE phone_valid),
			COUNT(*) FILTER (WHERE blacklisted),
			COUNT(*) FILTER (WHERE forwarded),
			COUNT(*) FILTER (WHERE quality_score >= 80),
			COUNT(*) FILTER (WHERE quality_score >= 50 AND quality_score < 80),
			COUNT(*) FILTER (WHERE quality_score < 50),
			COALESCE(AVG(quality_score), 0)
		FROM leads
		WHERE signup_time >= NOW() - ($1 || ' days')::interval
		GROUP BY signup_time::date
		ORDER BY day DESC
	`, strconv.Itoa(days))
	if err != nil {
		writeError(w, "could not load daily statistics")
		return
	}
	defer rows.Close()

	stats := []dailyStats{}
	for rows.Next() {
		var (
			s   dailyStats
			day time.Time
		)
		err := rows.Scan(
			&day, &s.TotalLeads, &s.ValidEmails, &s.ValidPhones,
			&s.Blacklisted, &s.Forwarded,
			&s.HighQuality, &s.MediumQuality, &s.LowQuality, &s.AvgQuality,
		)
		if err != nil {
			writeError(w, "could not load daily statistics")
			return
		}
		s.Day = day.Format("2006-01-02")
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		writeError(w, "could not load daily statistics")
		return
	}

	writeJSON(w, stats)
}

// HandleBacklog lists leads whose latest forward attempt failed.
func (h *ReportHandler) HandleBacklog(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	entries, err := h.Attempts.Backlog(r.Context(), limit)
	if err != nil {
		writeError(w, "could not load forwarding backlog")
		return
	}
	if entries == nil {
		entries = []*database.BacklogEntry{}
	}

	writeJSON(w, entries)
}

// HandleRuns lists recent sync runs with their counters.
func (h *ReportHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	runs, err := h.Runs.History(r.Context(), limit)
	if err != nil {
		writeError(w, "could not load run history")
		return
	}

	writeJSON(w, runs)
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string) {
	log.Printf("❌ Report query failed: %s", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
