package typing_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/faketype/internal/model"
	"github.com/verte-zerg/faketype/internal/typing"
	"github.com/verte-zerg/faketype/internal/typing/typingtest"
)

type emission struct {
	at time.Duration
	ch rune
}

type recordingSink struct {
	clock    *typingtest.Clock
	text     []rune
	caret    int
	clears   int
	restored []string
	emitted  []emission
	onInsert func(offset int)
}

func (s *recordingSink) Clear() {
	s.clears++
	s.text = nil
	s.caret = 0
}

func (s *recordingSink) InsertAt(offset int, r rune) {
	s.text = append(s.text[:offset], append([]rune{r}, s.text[offset:]...)...)
	s.emitted = append(s.emitted, emission{at: s.clock.Now(), ch: r})
	if s.onInsert != nil {
		s.onInsert(offset)
	}
}

func (s *recordingSink) MoveCursorTo(offset int) {
	s.caret = offset
}

func (s *recordingSink) ReplaceAll(text string) {
	s.restored = append(s.restored, text)
	s.text = []rune(text)
	s.caret = 0
}

func (s *recordingSink) emittedString() string {
	var b strings.Builder
	for _, e := range s.emitted {
		b.WriteRune(e.ch)
	}
	return b.String()
}

func fixedSpeed(ms int) model.SpeedConfig {
	return model.SpeedConfig{BaseDelayMs: ms, MinDelayMs: 1, MaxDelayMs: 200}
}

func newHarness() (*typingtest.Clock, *typing.Scheduler, *recordingSink) {
	clock := typingtest.NewClock()
	return clock, typing.NewWithClock(clock, 1), &recordingSink{clock: clock}
}

func TestTwoCharacterScenario(t *testing.T) {
	clock, sched, sink := newHarness()
	var completedAt []time.Duration
	sess, err := sched.Start("ab", fixedSpeed(10), sink, func() {
		completedAt = append(completedAt, clock.Now())
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sink.clears != 1 {
		t.Fatalf("expected sink cleared once, got %d", sink.clears)
	}
	clock.Advance(0)
	clock.Advance(10 * time.Millisecond)

	want := []emission{{at: 0, ch: 'a'}, {at: 10 * time.Millisecond, ch: 'b'}}
	if len(sink.emitted) != len(want) {
		t.Fatalf("expected %d emissions, got %+v", len(want), sink.emitted)
	}
	for i := range want {
		if sink.emitted[i] != want[i] {
			t.Fatalf("emission %d: expected %+v, got %+v", i, want[i], sink.emitted[i])
		}
	}
	if len(completedAt) != 1 || completedAt[0] != 10*time.Millisecond {
		t.Fatalf("expected completion at 10ms, got %v", completedAt)
	}
	if sess.State() != typing.Completed {
		t.Fatalf("expected completed, got %s", sess.State())
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
	if sink.caret != 2 {
		t.Fatalf("expected caret at 2, got %d", sink.caret)
	}
}

func TestStartRejectsEmptySource(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("", fixedSpeed(10), sink, nil)
	if !errors.Is(err, typing.ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	if sess != nil {
		t.Fatalf("expected no session")
	}
	if sink.clears != 0 || clock.Pending() != 0 {
		t.Fatalf("expected destination untouched")
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	clock, sched, sink := newHarness()
	cfg := model.SpeedConfig{BaseDelayMs: 500, MinDelayMs: 1, MaxDelayMs: 200}
	_, err := sched.Start("abc", cfg, sink, nil)
	if !errors.Is(err, typing.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if sink.clears != 0 || clock.Pending() != 0 {
		t.Fatalf("expected destination untouched")
	}
}

func TestRunToCompletionEmitsEveryCharacterOnce(t *testing.T) {
	texts := []string{"x", "hello, world", "line one\n\tline two\n", "héllo → 世界"}
	for _, text := range texts {
		clock, sched, sink := newHarness()
		completions := 0
		cfg := model.SpeedConfig{BaseDelayMs: 20, MinDelayMs: 1, MaxDelayMs: 40, JitterEnabled: true, JitterPercent: 50}
		sess, err := sched.Start(text, cfg, sink, func() { completions++ })
		if err != nil {
			t.Fatalf("start %q: %v", text, err)
		}
		clock.RunAll(1000)
		if got := sink.emittedString(); got != text {
			t.Fatalf("expected %q emitted, got %q", text, got)
		}
		if string(sink.text) != text {
			t.Fatalf("expected sink text %q, got %q", text, string(sink.text))
		}
		if completions != 1 {
			t.Fatalf("expected one completion, got %d", completions)
		}
		if sess.Cursor() != sess.Len() {
			t.Fatalf("expected cursor at end")
		}
	}
}

func TestFixedDelayWithoutJitter(t *testing.T) {
	clock, sched, sink := newHarness()
	if _, err := sched.Start("abcdef", fixedSpeed(37), sink, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.RunAll(100)
	delays := clock.Delays()
	if delays[0] != 0 {
		t.Fatalf("expected first tick immediately, got %v", delays[0])
	}
	for i, d := range delays[1:] {
		if d != 37*time.Millisecond {
			t.Fatalf("delay %d: expected 37ms, got %v", i+1, d)
		}
	}
	if len(delays) != 6 {
		t.Fatalf("expected 6 scheduled ticks, got %d", len(delays))
	}
}

func TestJitteredDelaysStayInRange(t *testing.T) {
	clock, sched, sink := newHarness()
	cfg := model.SpeedConfig{BaseDelayMs: 100, MinDelayMs: 1, MaxDelayMs: 110, JitterEnabled: true, JitterPercent: 100}
	if _, err := sched.Start(strings.Repeat("z", 200), cfg, sink, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.RunAll(1000)
	for i, d := range clock.Delays()[1:] {
		if d < time.Millisecond || d > 110*time.Millisecond {
			t.Fatalf("delay %d out of range: %v", i+1, d)
		}
	}
}

func TestLastCharacterDelayIsNotJittered(t *testing.T) {
	clock, sched, sink := newHarness()
	cfg := model.SpeedConfig{BaseDelayMs: 20, MinDelayMs: 1, MaxDelayMs: 40, JitterEnabled: true, JitterPercent: 50}
	for i := 0; i < 10; i++ {
		if _, err := sched.Start("abcd", cfg, sink, nil); err != nil {
			t.Fatalf("start: %v", err)
		}
		clock.RunAll(100)
		delays := clock.Delays()
		if last := delays[len(delays)-1]; last != 20*time.Millisecond {
			t.Fatalf("run %d: expected unjittered final delay, got %v", i, last)
		}
	}
}

func TestPauseResumeKeepsSequence(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("pause", fixedSpeed(5), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(0)
	clock.Advance(5 * time.Millisecond)
	if !sess.Pause() {
		t.Fatalf("expected pause to apply")
	}
	if !sess.Resume() {
		t.Fatalf("expected resume to apply")
	}
	delays := clock.Delays()
	if last := delays[len(delays)-1]; last != 0 {
		t.Fatalf("expected resume to schedule immediately, got %v", last)
	}
	clock.Advance(0)
	if got := sink.emittedString(); got != "pau" {
		t.Fatalf("expected next character on resume, got %q", got)
	}
	clock.RunAll(100)
	if got := sink.emittedString(); got != "pause" {
		t.Fatalf("expected %q, got %q", "pause", got)
	}
}

func TestPausedSessionDoesNotEmit(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("abc", fixedSpeed(5), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(0)
	sess.Pause()
	clock.Advance(time.Second)
	if got := sink.emittedString(); got != "a" {
		t.Fatalf("expected only %q while paused, got %q", "a", got)
	}
	if sess.State() != typing.Paused {
		t.Fatalf("expected paused, got %s", sess.State())
	}
	if sess.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", sess.Cursor())
	}
}

func TestRedundantCommandsAreNoOps(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("abc", fixedSpeed(5), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.Resume() {
		t.Fatalf("expected resume while running to be a no-op")
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one pending tick, got %d", clock.Pending())
	}
	sess.Pause()
	if sess.Pause() {
		t.Fatalf("expected pause while paused to be a no-op")
	}
	if sess.State() != typing.Paused {
		t.Fatalf("expected paused, got %s", sess.State())
	}
	sess.Resume()
	sess.Resume()
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one pending tick after resume, got %d", clock.Pending())
	}
	clock.RunAll(100)
	if got := sink.emittedString(); got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
	if sess.Pause() || sess.Resume() {
		t.Fatalf("expected commands on a completed session to be no-ops")
	}
}

func TestAbortRestoresOriginal(t *testing.T) {
	for emitted := 0; emitted <= 4; emitted++ {
		clock, sched, sink := newHarness()
		completions := 0
		sess, err := sched.Start("abcd", fixedSpeed(10), sink, func() { completions++ })
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		for i := 0; i < emitted; i++ {
			clock.Fire()
		}
		aborted := sess.Abort(sink)
		if emitted == 4 {
			if aborted {
				t.Fatalf("expected abort after completion to be a no-op")
			}
			continue
		}
		if !aborted {
			t.Fatalf("expected abort to apply after %d chars", emitted)
		}
		if string(sink.text) != "abcd" {
			t.Fatalf("expected original restored, got %q", string(sink.text))
		}
		clock.RunAll(100)
		if completions != 0 {
			t.Fatalf("expected no completion after abort")
		}
		if len(sink.emitted) != emitted {
			t.Fatalf("expected no emission after abort, got %d", len(sink.emitted))
		}
		if sess.State() != typing.Aborted {
			t.Fatalf("expected aborted, got %s", sess.State())
		}
	}
}

func TestAbortWhilePaused(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("abc", fixedSpeed(10), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Fire()
	sess.Pause()
	if !sess.Abort(sink) {
		t.Fatalf("expected abort while paused to apply")
	}
	if sess.Resume() {
		t.Fatalf("expected resume after abort to be a no-op")
	}
	if len(sink.restored) != 1 || sink.restored[0] != "abc" {
		t.Fatalf("unexpected restores: %v", sink.restored)
	}
	if sess.Abort(sink) {
		t.Fatalf("expected second abort to be a no-op")
	}
}

func TestPauseFromSinkPreventsScheduling(t *testing.T) {
	clock, sched, sink := newHarness()
	var sess *typing.Session
	sink.onInsert = func(offset int) {
		if offset == 1 {
			sess.Pause()
		}
	}
	var err error
	sess, err = sched.Start("abc", fixedSpeed(10), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.RunAll(100)
	if got := sink.emittedString(); got != "ab" {
		t.Fatalf("expected %q before pause, got %q", "ab", got)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected nothing scheduled while paused")
	}
	if sess.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", sess.Cursor())
	}
	sink.onInsert = nil
	sess.Resume()
	clock.RunAll(100)
	if got := sink.emittedString(); got != "abc" {
		t.Fatalf("expected %q, got %q", "abc", got)
	}
}

func TestPauseOnLastCharacterCompletesOnResume(t *testing.T) {
	clock, sched, sink := newHarness()
	var sess *typing.Session
	sink.onInsert = func(int) { sess.Pause() }
	completions := 0
	var err error
	sess, err = sched.Start("a", fixedSpeed(10), sink, func() { completions++ })
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.RunAll(10)
	if sess.State() != typing.Paused || completions != 0 {
		t.Fatalf("expected paused without completion, got %s/%d", sess.State(), completions)
	}
	sess.Resume()
	clock.RunAll(10)
	if sess.State() != typing.Completed || completions != 1 {
		t.Fatalf("expected completion after resume, got %s/%d", sess.State(), completions)
	}
	if got := sink.emittedString(); got != "a" {
		t.Fatalf("expected no re-emission, got %q", got)
	}
}

func TestProgress(t *testing.T) {
	clock, sched, sink := newHarness()
	sess, err := sched.Start("abcd", fixedSpeed(10), sink, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Fire()
	clock.Fire()
	if got := sess.Progress(); got != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", got)
	}
}

func TestStateString(t *testing.T) {
	cases := map[typing.State]string{
		typing.Running:   "running",
		typing.Paused:    "paused",
		typing.Completed: "completed",
		typing.Aborted:   "aborted",
		typing.State(42): "unknown",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Fatalf("expected %q, got %q", want, state.String())
		}
	}
}
