package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fitlio/coach-backend/internal/db"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/utils"
)

// Aggregates unmet-tool events into a tool-gap report: which intents keep
// landing in the manual fallback, and how often dispatch itself failed.
// Run against the production replica, output is JSON on stdout.

type intentGap struct {
	Intent         string `json:"intent"`
	Count          int    `json:"count"`
	DispatchFailed int    `json:"dispatch_failed"`
	DistinctUsers  int    `json:"distinct_users"`
	LastSeen       string `json:"last_seen"`
	SampleTraceID  string `json:"sample_trace_id"`
}

type gapReport struct {
	WindowDays int         `json:"window_days"`
	Total      int         `json:"total_unmet_events"`
	Intents    []intentGap `json:"intents"`
}

type gapRow struct {
	Intent    string
	Source    string
	UserID    string
	TraceID   string
	CreatedAt time.Time
}

func main() {
	log, err := logger.New("prod")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	windowDays := utils.GetEnvAsInt("GAP_WINDOW_DAYS", 30, log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init postgres: %v\n", err)
		os.Exit(1)
	}

	since := time.Now().AddDate(0, 0, -windowDays)
	var rows []gapRow
	err = pg.DB().
		Table("coach_unmet_tool_event").
		Select("intent->>'name' AS intent, source, user_id, trace_id, created_at").
		Where("created_at >= ?", since).
		Scan(&rows).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "query unmet tool events: %v\n", err)
		os.Exit(1)
	}

	byIntent := map[string]*intentGap{}
	usersByIntent := map[string]map[string]bool{}
	for _, r := range rows {
		name := r.Intent
		if name == "" {
			name = "unknown"
		}
		g, ok := byIntent[name]
		if !ok {
			g = &intentGap{Intent: name}
			byIntent[name] = g
			usersByIntent[name] = map[string]bool{}
		}
		g.Count++
		if r.Source == "tool_dispatch_failed" {
			g.DispatchFailed++
		}
		usersByIntent[name][r.UserID] = true
		if ts := r.CreatedAt.UTC().Format(time.RFC3339); ts > g.LastSeen {
			g.LastSeen = ts
			g.SampleTraceID = r.TraceID
		}
	}

	report := gapReport{WindowDays: windowDays, Total: len(rows)}
	for name, g := range byIntent {
		g.DistinctUsers = len(usersByIntent[name])
		report.Intents = append(report.Intents, *g)
	}
	sort.Slice(report.Intents, func(i, j int) bool {
		return report.Intents[i].Count > report.Intents[j].Count
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		os.Exit(1)
	}
}
