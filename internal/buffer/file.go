package buffer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/verte-zerg/faketype/internal/typing"
)

// ErrInvalidUTF8 is returned by Load for files that are not valid UTF-8 text.
var ErrInvalidUTF8 = errors.New("file is not valid UTF-8")

// Source is a file captured before a replay.
type Source struct {
	Path string
	Text string
	Mode os.FileMode
}

// Load reads the file at path. The returned Source carries the absolute path.
func Load(path string) (Source, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return Source{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	if !utf8.Valid(data) {
		return Source{}, fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}
	return Source{Path: path, Text: string(data), Mode: info.Mode().Perm()}, nil
}

// FileMirror is a typing.Sink that edits a Document and keeps the file on
// disk equal to it. Appends at the end of the document are written in place;
// other edits rewrite the file. After the first I/O error the disk is left
// alone and the error is kept for Err.
type FileMirror struct {
	doc  *Document
	path string
	mode os.FileMode

	mu   sync.Mutex
	file *os.File
	err  error
}

// NewFileMirror mirrors doc into the file described by src.
func NewFileMirror(src Source, doc *Document) *FileMirror {
	return &FileMirror{doc: doc, path: src.Path, mode: src.Mode}
}

// Document returns the mirrored document.
func (m *FileMirror) Document() *Document {
	return m.doc
}

// Path returns the mirrored file path.
func (m *FileMirror) Path() string {
	return m.path
}

// Clear implements typing.Sink.
func (m *FileMirror) Clear() {
	m.Transact(func(e typing.Sink) { e.Clear() })
}

// InsertAt implements typing.Sink.
func (m *FileMirror) InsertAt(offset int, r rune) {
	m.Transact(func(e typing.Sink) { e.InsertAt(offset, r) })
}

// MoveCursorTo implements typing.Sink.
func (m *FileMirror) MoveCursorTo(offset int) {
	m.Transact(func(e typing.Sink) { e.MoveCursorTo(offset) })
}

// ReplaceAll implements typing.Sink.
func (m *FileMirror) ReplaceAll(text string) {
	m.Transact(func(e typing.Sink) { e.ReplaceAll(text) })
}

// Transact implements typing.Transactor.
func (m *FileMirror) Transact(fn func(typing.Sink)) {
	m.doc.Transact(func(e typing.Sink) {
		fn(mirrorEditor{m: m, e: e.(editor)})
	})
}

// Err returns the first I/O error seen while mirroring.
func (m *FileMirror) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close releases the append handle.
func (m *FileMirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeFileLocked()
}

func (m *FileMirror) truncate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	if err := m.closeFileLocked(); err != nil {
		m.err = err
		return
	}
	file, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_APPEND, m.mode)
	if err != nil {
		m.err = fmt.Errorf("failed to truncate %s: %w", m.path, err)
		return
	}
	m.file = file
}

func (m *FileMirror) appendRune(r rune) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	if m.file == nil {
		file, err := os.OpenFile(m.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, m.mode)
		if err != nil {
			m.err = fmt.Errorf("failed to open %s: %w", m.path, err)
			return
		}
		m.file = file
	}
	if _, err := m.file.Write(utf8.AppendRune(nil, r)); err != nil {
		m.err = fmt.Errorf("failed to write %s: %w", m.path, err)
	}
}

func (m *FileMirror) rewrite(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	if err := m.closeFileLocked(); err != nil {
		m.err = err
		return
	}
	if err := writeFileAtomic(m.path, text, m.mode); err != nil {
		m.err = err
	}
}

func (m *FileMirror) closeFileLocked() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", m.path, err)
	}
	return nil
}

type mirrorEditor struct {
	m *FileMirror
	e editor
}

func (me mirrorEditor) Clear() {
	me.e.Clear()
	me.m.truncate()
}

func (me mirrorEditor) InsertAt(offset int, r rune) {
	atEnd := offset >= len(me.e.d.runes)
	me.e.InsertAt(offset, r)
	if atEnd {
		me.m.appendRune(r)
		return
	}
	me.m.rewrite(string(me.e.d.runes))
}

func (me mirrorEditor) MoveCursorTo(offset int) {
	me.e.MoveCursorTo(offset)
}

func (me mirrorEditor) ReplaceAll(text string) {
	me.e.ReplaceAll(text)
	me.m.rewrite(text)
}

func writeFileAtomic(path, text string, mode os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".faketype-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.WriteString(text); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
