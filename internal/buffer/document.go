// Package buffer provides typing destinations backed by memory and files.
package buffer

import (
	"sync"

	"github.com/verte-zerg/faketype/internal/typing"
)

// Document is an in-memory text buffer with a caret. Offsets are in runes
// and are clamped to the buffer bounds. It is safe for concurrent use.
type Document struct {
	mu    sync.Mutex
	runes []rune
	caret int
}

// NewDocument returns a document holding text with the caret at 0.
func NewDocument(text string) *Document {
	return &Document{runes: []rune(text)}
}

// Clear implements typing.Sink.
func (d *Document) Clear() {
	d.Transact(func(e typing.Sink) { e.Clear() })
}

// InsertAt implements typing.Sink.
func (d *Document) InsertAt(offset int, r rune) {
	d.Transact(func(e typing.Sink) { e.InsertAt(offset, r) })
}

// MoveCursorTo implements typing.Sink.
func (d *Document) MoveCursorTo(offset int) {
	d.Transact(func(e typing.Sink) { e.MoveCursorTo(offset) })
}

// ReplaceAll implements typing.Sink.
func (d *Document) ReplaceAll(text string) {
	d.Transact(func(e typing.Sink) { e.ReplaceAll(text) })
}

// Transact applies fn's edits while holding the document lock, so readers
// never observe a partial change.
func (d *Document) Transact(fn func(typing.Sink)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(editor{d: d})
}

// Text returns the current contents.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.runes)
}

// Cursor returns the caret offset.
func (d *Document) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caret
}

// Len returns the number of runes in the document.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.runes)
}

// Snapshot returns a copy of the contents and the caret offset.
func (d *Document) Snapshot() ([]rune, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]rune, len(d.runes))
	copy(out, d.runes)
	return out, d.caret
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.runes) {
		return len(d.runes)
	}
	return offset
}

// editor mutates a document whose lock is already held.
type editor struct {
	d *Document
}

func (e editor) Clear() {
	e.d.runes = e.d.runes[:0]
	e.d.caret = 0
}

func (e editor) InsertAt(offset int, r rune) {
	offset = e.d.clamp(offset)
	e.d.runes = append(e.d.runes, 0)
	copy(e.d.runes[offset+1:], e.d.runes[offset:])
	e.d.runes[offset] = r
	if e.d.caret > offset {
		e.d.caret++
	}
}

func (e editor) MoveCursorTo(offset int) {
	e.d.caret = e.d.clamp(offset)
}

func (e editor) ReplaceAll(text string) {
	e.d.runes = []rune(text)
	e.d.caret = 0
}
