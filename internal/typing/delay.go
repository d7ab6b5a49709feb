package typing

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/faketype/internal/model"
)

// NextDelay returns the pause to wait before emitting the next character.
// last reports whether that character is the final one, which is never
// jittered. Jittered delays are clamped to [1, MaxDelayMs].
func NextDelay(cfg model.SpeedConfig, rnd *rand.Rand, last bool) time.Duration {
	base := cfg.BaseDelayMs
	if base < 1 {
		base = 1
	}
	if !cfg.JitterEnabled || last || rnd == nil {
		return time.Duration(base) * time.Millisecond
	}
	variation := base * cfg.JitterPercent / 100
	delay := base
	if variation > 0 {
		delay += rnd.Intn(variation*2+1) - variation
	}
	if delay < 1 {
		delay = 1
	}
	if cfg.MaxDelayMs >= 1 && delay > cfg.MaxDelayMs {
		delay = cfg.MaxDelayMs
	}
	return time.Duration(delay) * time.Millisecond
}
