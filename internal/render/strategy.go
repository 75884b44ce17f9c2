// Package render is the Go rendering strategy of the designer: it renders
// init method bodies, field declarations and event handlers with jennifer
// and decides where they go in a Go source file.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/pkgname"
	"github.com/cmmoran/designersync/internal/text"
)

var (
	ErrUnsupportedAccess = errors.New("access level not expressible in go")
	ErrBodyMismatch      = errors.New("method body is not delimited by braces")
)

// Strategy implements designer.Strategy for Go.
type Strategy struct {
	designer.BaseStrategy

	pkgNames pkgname.Resolver

	mu          sync.Mutex
	pkgPath     string
	dir         string
	names       map[string]string // import path -> name used by the designer file
	fieldIndent string
}

var _ designer.Strategy = (*Strategy)(nil)

// Option configures a Strategy.
type Option func(*Strategy)

// WithPackageNames resolves the names of imported packages; by default
// they are guessed from their paths.
func WithPackageNames(r pkgname.Resolver) Option { return func(s *Strategy) { s.pkgNames = r } }

func New(opts ...Option) *Strategy {
	s := &Strategy{names: make(map[string]string)}
	for _, fn := range opts {
		fn(s)
	}
	if s.pkgNames == nil {
		s.pkgNames = pkgname.Static(nil)
	}
	return s
}

// Prepare records the package path of the designed type, the import names
// of the designer file and the indentation of the struct's fields.
func (s *Strategy) Prepare(doc *text.Document, form *dom.Class) error {
	dir := filepath.Dir(form.FileName)
	names, err := s.importNames(doc.Text(), dir)
	if err != nil {
		return err
	}

	fieldIndent := ""
	if !form.BodyRegion.IsEmpty() && form.BodyRegion.BeginLine != form.BodyRegion.EndLine {
		ws, err := doc.LeadingWhitespace(form.BodyRegion.EndLine)
		if err != nil {
			return err
		}
		fieldIndent = ws + "\t"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkgPath = packageOf(form.FullName)
	s.dir = dir
	s.names = names
	s.fieldIndent = fieldIndent
	return nil
}

// ReplaceRegion spans the text between the braces of the init method body.
func (s *Strategy) ReplaceRegion(doc *text.Document, init *dom.Method) (dom.Region, error) {
	r := init.BodyRegion
	if r.IsEmpty() {
		return dom.Region{}, fmt.Errorf("%w: %s has no body", ErrBodyMismatch, init.Name)
	}
	if err := expectByte(doc, r.BeginLine, r.BeginColumn, '{'); err != nil {
		return dom.Region{}, err
	}
	if err := expectByte(doc, r.EndLine, r.EndColumn, '}'); err != nil {
		return dom.Region{}, err
	}
	return dom.Region{
		BeginLine:   r.BeginLine,
		BeginColumn: r.BeginColumn + 1,
		EndLine:     r.EndLine,
		EndColumn:   r.EndColumn,
	}, nil
}

// RenderBody renders the statements gofmt'd, one level deeper than indent,
// with the closing brace back at indent.
func (s *Strategy) RenderBody(m *model.Method, indent string) (string, error) {
	if len(m.Statements) == 0 {
		return "\n" + indent, nil
	}
	stmts := make([]jen.Code, 0, len(m.Statements))
	for _, st := range m.Statements {
		stmts = append(stmts, jen.Id(st))
	}
	lines, err := s.renderInner(jen.Func().Id("_").Params().Block(stmts...))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", m.Name, err)
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, l := range lines {
		if l != "" {
			b.WriteString(indent)
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(indent)
	return b.String(), nil
}

// RenderField renders "name type `tag` // comment" at the field indentation
// of the struct, or one level deeper than indent.
func (s *Strategy) RenderField(f *model.Field, indent string) (string, error) {
	if err := checkAccess(f); err != nil {
		return "", err
	}
	ref, err := model.ParseTypeRef(f.Type)
	if err != nil {
		return "", err
	}
	field := jen.Id(f.Name).Add(typeCode(ref))
	if tags := structTagToMap(f.Tag); len(tags) > 0 {
		field.Tag(tags)
	}
	if f.Comment != "" {
		field.Comment(strings.ReplaceAll(f.Comment, "\n", " "))
	}
	lines, err := s.renderInner(jen.Type().Id("_").Struct(field), ref.Packages()...)
	if err != nil {
		return "", fmt.Errorf("render field %s: %w", f.Name, err)
	}
	if len(lines) != 1 {
		return "", fmt.Errorf("render field %s: expected one line, got %d", f.Name, len(lines))
	}

	s.mu.Lock()
	prefix := s.fieldIndent
	s.mu.Unlock()
	if prefix == "" {
		prefix = indent + "\t"
	}
	return prefix + strings.TrimLeft(lines[0], "\t"), nil
}

// RenderEventHandler renders a method on a pointer to the handler's class.
func (s *Strategy) RenderEventHandler(h designer.EventHandler, indent string) (string, error) {
	params := make([]jen.Code, 0, len(h.Parameters))
	var paths []string
	for _, p := range h.Parameters {
		ref, err := model.ParseTypeRef(p.Type)
		if err != nil {
			return "", fmt.Errorf("handler %s parameter %s: %w", h.Name, p.Name, err)
		}
		params = append(params, jen.Id(p.Name).Add(typeCode(ref)))
		paths = append(paths, ref.Packages()...)
	}
	body := make([]jen.Code, 0, len(h.Body))
	for _, st := range h.Body {
		body = append(body, jen.Id(st))
	}
	decl := jen.Func().
		Params(jen.Id(receiverName(h.Class)).Op("*").Id(h.Class)).
		Id(h.Name).
		Params(params...).
		Block(body...)

	src, err := s.render(decl, paths...)
	if err != nil {
		return "", fmt.Errorf("render handler %s: %w", h.Name, err)
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, l := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		if l != "" {
			b.WriteString(indent)
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// FieldInsertionLine is the line of the struct's closing brace. A struct
// whose braces share a line has no insertion point.
func (s *Strategy) FieldInsertionLine(form *dom.Class, _ *dom.Method) int {
	r := form.BodyRegion
	if r.IsEmpty() || r.BeginLine == r.EndLine {
		return 0
	}
	return r.EndLine
}

// EventHandlerInsertionLine is the line after the class part.
func (s *Strategy) EventHandlerInsertionLine(c *dom.Class) int {
	return c.Region.EndLine + 1
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// file returns a jennifer file in the designed package that names imports
// the way the designer file does. Paths it does not import yet get the name
// EnsureImports will give them.
func (s *Strategy) file(paths ...string) *jen.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := jen.NewFilePath(s.pkgPath)
	f.ImportNames(s.names)
	var missing []string
	for _, p := range paths {
		if _, ok := s.names[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		f.ImportNames(s.pkgNames.Names(s.dir, missing))
	}
	return f
}

func (s *Strategy) render(code *jen.Statement, paths ...string) (string, error) {
	var buf bytes.Buffer
	if err := code.RenderWithFile(&buf, s.file(paths...)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderInner renders a braced declaration and returns the lines between
// its first and last line.
func (s *Strategy) renderInner(code *jen.Statement, paths ...string) ([]string, error) {
	src, err := s.render(code, paths...)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")
	if len(lines) < 2 {
		return nil, nil
	}
	return lines[1 : len(lines)-1], nil
}

func expectByte(doc *text.Document, line, column int, want byte) error {
	off, err := doc.Offset(text.Position{Line: line, Column: column})
	if err != nil {
		return err
	}
	if off >= doc.Len() || doc.Text()[off] != want {
		return fmt.Errorf("%w: expected %q at %d:%d", ErrBodyMismatch, want, line, column)
	}
	return nil
}

// checkAccess rejects access levels Go cannot express and those that
// contradict the export status of the name.
func checkAccess(f *model.Field) error {
	exported := token.IsExported(f.Name)
	switch f.Access {
	case model.AccessUnspecified:
		return nil
	case model.AccessPublic:
		if exported {
			return nil
		}
	case model.AccessPrivate:
		if !exported {
			return nil
		}
	}
	return fmt.Errorf("%w: %s field %s", ErrUnsupportedAccess, f.Access, f.Name)
}

func packageOf(fullName string) string {
	if i := strings.LastIndexByte(fullName, '.'); i > strings.LastIndexByte(fullName, '/') {
		return fullName[:i]
	}
	return ""
}

func receiverName(class string) string {
	r, _ := utf8.DecodeRuneInString(class)
	if r == utf8.RuneError {
		return "r"
	}
	return string(unicode.ToLower(r))
}
