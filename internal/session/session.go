// Package session keeps the documents open for editing and is the
// workbench the designer looks designer files up in.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/text"
)

var ErrNotOpen = errors.New("document not open")

type entry struct {
	doc      *text.Document
	original string
	saved    uint64
}

// Session tracks open documents by clean file name.
type Session struct {
	fs     afero.Fs
	writer designer.FileWriter
	log    *slog.Logger

	mu   sync.Mutex
	docs map[string]*entry
}

var _ designer.Workbench = (*Session)(nil)

func New(fsys afero.Fs, writer designer.FileWriter, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		fs:     fsys,
		writer: writer,
		log:    log,
		docs:   make(map[string]*entry),
	}
}

// Open returns the open document for fileName, loading it first if needed.
func (s *Session) Open(fileName string) (*text.Document, error) {
	fileName = filepath.Clean(fileName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.docs[fileName]; ok {
		return e.doc, nil
	}
	data, err := afero.ReadFile(s.fs, fileName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fileName, err)
	}
	doc := text.NewDocument(string(data))
	s.docs[fileName] = &entry{doc: doc, original: string(data)}
	s.log.With("file", fileName).Debug("document opened")
	return doc, nil
}

// OpenDocument implements designer.Workbench.
func (s *Session) OpenDocument(fileName string) (*text.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[filepath.Clean(fileName)]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// Close forgets fileName without saving it.
func (s *Session) Close(fileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, filepath.Clean(fileName))
}

// Files lists the open documents.
func (s *Session) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for name := range s.docs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Modified lists the open documents changed since they were opened or last
// saved.
func (s *Session) Modified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for name, e := range s.docs {
		if e.doc.Version() != e.saved {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Original returns the content fileName had when it was opened.
func (s *Session) Original(fileName string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[filepath.Clean(fileName)]
	if !ok {
		return "", false
	}
	return e.original, true
}

// Save writes fileName if it changed.
func (s *Session) Save(fileName string) error {
	fileName = filepath.Clean(fileName)

	s.mu.Lock()
	e, ok := s.docs[fileName]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, fileName)
	}
	version := e.doc.Version()
	if version == e.saved {
		return nil
	}
	if s.writer == nil {
		return &designer.SaveError{File: fileName, Err: errors.New("no file writer configured")}
	}
	if err := s.writer.WriteFile(fileName, []byte(e.doc.Text())); err != nil {
		return &designer.SaveError{File: fileName, Err: err}
	}

	s.mu.Lock()
	e.saved = version
	s.mu.Unlock()
	s.log.With("file", fileName).Info("document saved")
	return nil
}

// SaveAll saves every modified document and reports all failures.
func (s *Session) SaveAll() error {
	var errs []error
	for _, name := range s.Modified() {
		if err := s.Save(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// View opens fileName as a designer view. merge, when set, flushes pending
// designer changes into the document.
func (s *Session) View(fileName string, merge func(*text.Document) error) (*View, error) {
	doc, err := s.Open(fileName)
	if err != nil {
		return nil, err
	}
	return &View{file: filepath.Clean(fileName), doc: doc, merge: merge}, nil
}

// View implements designer.View over an open document.
type View struct {
	file  string
	doc   *text.Document
	merge func(*text.Document) error
}

var _ designer.View = (*View)(nil)

func (v *View) FileName() string         { return v.file }
func (v *View) Document() *text.Document { return v.doc }

func (v *View) MergeFormChanges() error {
	if v.merge == nil {
		return nil
	}
	return v.merge(v.doc)
}
