package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/faketype/internal/model"
	"github.com/verte-zerg/faketype/internal/store"
)

func TestCharsPerMinute(t *testing.T) {
	if got := CharsPerMinute(120, 60000); got != 120 {
		t.Fatalf("expected 120, got %v", got)
	}
	if got := CharsPerMinute(10, 0); got != 0 {
		t.Fatalf("expected 0 for empty duration, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Unix(0, 0)
	records := []model.SessionRecord{
		{StartedAt: start, EndedAt: start.Add(time.Minute), EmittedChars: 60, Outcome: model.OutcomeCompleted},
		{StartedAt: start, EndedAt: start.Add(30 * time.Second), EmittedChars: 60, Outcome: model.OutcomeAborted},
	}
	sum := Summarize(records)
	if sum.Sessions != 2 || sum.Completed != 1 || sum.Aborted != 1 || sum.Chars != 120 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.AvgCPM != 90 || sum.BestCPM != 120 {
		t.Fatalf("unexpected cpm: %+v", sum)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No sessions found.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderHistoryFromStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "faketype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	start := time.Unix(0, 0)
	recs := []model.SessionRecord{
		{StartedAt: start, EndedAt: start.Add(time.Minute), Path: "/src/main.go", TotalChars: 300, EmittedChars: 300,
			BaseDelayMs: 50, JitterEnabled: true, JitterPercent: 30, Outcome: model.OutcomeCompleted},
		{StartedAt: start, EndedAt: start.Add(2 * time.Minute), Path: "/src/util.go", TotalChars: 500, EmittedChars: 120,
			BaseDelayMs: 80, Outcome: model.OutcomeAborted},
	}
	for _, rec := range recs {
		if _, err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	loaded, err := st.ListSessions(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, loaded); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if err := RenderHistory(&buf, loaded); err != nil {
		t.Fatalf("render history: %v", err)
	}
	out := buf.String()
	for _, needle := range []string{
		"Sessions: 2 (1 completed, 1 aborted)",
		"Chars typed: 420",
		"main.go",
		"300/300",
		"30%",
		"util.go",
		"120/500",
		"off",
		"aborted",
		"60.0",
	} {
		if !strings.Contains(out, needle) {
			t.Fatalf("expected %q in output:\n%s", needle, out)
		}
	}
}
