// Package stats contains replay history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/verte-zerg/faketype/internal/model"
)

// Summary aggregates a set of recorded sessions.
type Summary struct {
	Sessions  int
	Completed int
	Aborted   int
	Chars     int
	AvgCPM    float64
	BestCPM   float64
}

// CharsPerMinute returns the emission rate of a session.
func CharsPerMinute(chars int, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	minutes := float64(durationMs) / 60000.0
	return float64(chars) / minutes
}

// Summarize computes totals over sessions.
func Summarize(records []model.SessionRecord) Summary {
	var sum Summary
	var totalCPM float64
	for _, rec := range records {
		sum.Sessions++
		sum.Chars += rec.EmittedChars
		switch rec.Outcome {
		case model.OutcomeCompleted:
			sum.Completed++
		case model.OutcomeAborted:
			sum.Aborted++
		}
		cpm := CharsPerMinute(rec.EmittedChars, rec.DurationMs())
		totalCPM += cpm
		if cpm > sum.BestCPM {
			sum.BestCPM = cpm
		}
	}
	if sum.Sessions > 0 {
		sum.AvgCPM = totalCPM / float64(sum.Sessions)
	}
	return sum
}

// RenderSummary prints the summary block.
func RenderSummary(w io.Writer, records []model.SessionRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(records)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d completed, %d aborted)", sum.Sessions, sum.Completed, sum.Aborted),
		fmt.Sprintf("Chars typed: %d", sum.Chars),
		fmt.Sprintf("Avg CPM: %.1f", sum.AvgCPM),
		fmt.Sprintf("Best CPM: %.1f", sum.BestCPM),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistory prints one row per session.
func RenderHistory(w io.Writer, records []model.SessionRecord) error {
	if len(records) == 0 {
		return nil
	}
	headers := []string{"Ended", "File", "Chars", "Speed", "Jitter", "Outcome", "CPM"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		jitter := "off"
		if rec.JitterEnabled {
			jitter = fmt.Sprintf("%d%%", rec.JitterPercent)
		}
		rows = append(rows, []string{
			rec.EndedAt.Local().Format(time.DateTime),
			filepath.Base(rec.Path),
			fmt.Sprintf("%d/%d", rec.EmittedChars, rec.TotalChars),
			fmt.Sprintf("%dms", rec.BaseDelayMs),
			jitter,
			string(rec.Outcome),
			fmt.Sprintf("%.1f", CharsPerMinute(rec.EmittedChars, rec.DurationMs())),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
