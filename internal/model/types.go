// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Default typing settings.
const (
	DefaultBaseDelayMs   = 50
	DefaultMinDelayMs    = 1
	DefaultMaxDelayMs    = 200
	DefaultJitterEnabled = true
	DefaultJitterPercent = 30
)

// SpeedConfig defines the pace of a replay in milliseconds per character.
type SpeedConfig struct {
	BaseDelayMs   int
	MinDelayMs    int
	MaxDelayMs    int
	JitterEnabled bool
	JitterPercent int
}

// DefaultSpeedConfig returns the built-in pace settings.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		BaseDelayMs:   DefaultBaseDelayMs,
		MinDelayMs:    DefaultMinDelayMs,
		MaxDelayMs:    DefaultMaxDelayMs,
		JitterEnabled: DefaultJitterEnabled,
		JitterPercent: DefaultJitterPercent,
	}
}

// Validate checks delay bounds and the jitter range.
func (c SpeedConfig) Validate() error {
	if c.BaseDelayMs < 1 || c.MinDelayMs < 1 || c.MaxDelayMs < 1 {
		return fmt.Errorf("delays must be >= 1 ms")
	}
	if c.MinDelayMs > c.MaxDelayMs {
		return fmt.Errorf("min delay %d ms is greater than max delay %d ms", c.MinDelayMs, c.MaxDelayMs)
	}
	if c.BaseDelayMs < c.MinDelayMs || c.BaseDelayMs > c.MaxDelayMs {
		return fmt.Errorf("delay %d ms must be between %d and %d ms", c.BaseDelayMs, c.MinDelayMs, c.MaxDelayMs)
	}
	if c.JitterPercent < 0 || c.JitterPercent > 100 {
		return fmt.Errorf("jitter percent must be between 0 and 100")
	}
	return nil
}

// Outcome describes how a replay session ended.
type Outcome string

// Session outcomes.
const (
	OutcomeCompleted Outcome = "completed"
	OutcomeAborted   Outcome = "aborted"
)

// SessionRecord captures a finished replay.
type SessionRecord struct {
	ID            int64
	StartedAt     time.Time
	EndedAt       time.Time
	Path          string
	TotalChars    int
	EmittedChars  int
	BaseDelayMs   int
	JitterEnabled bool
	JitterPercent int
	Outcome       Outcome
}

// DurationMs returns the wall time of the session.
func (r SessionRecord) DurationMs() int64 {
	return r.EndedAt.Sub(r.StartedAt).Milliseconds()
}

// HistoryFilter defines filters for history output.
type HistoryFilter struct {
	Path  string
	Since *time.Time
	Last  int
}
