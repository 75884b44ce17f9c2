// Package parser is the Go source parser service. A struct type is treated
// as a class whose parts are the package files declaring the struct or
// methods on it.
package parser

import (
	"errors"
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/pkgname"
)

var ErrNotGoFile = errors.New("not a go source file")

// Option configures a Parser.
type Option func(*Parser)

func WithFs(fs afero.Fs) Option          { return func(p *Parser) { p.fs = fs } }
func WithLogger(l *slog.Logger) Option   { return func(p *Parser) { p.log = l } }
func WithPackagePath(path string) Option { return func(p *Parser) { p.pkgPath = &path } }

// WithPackageNames resolves the names of imported packages; by default
// they are guessed from their paths.
func WithPackageNames(r pkgname.Resolver) Option { return func(p *Parser) { p.pkgNames = r } }

// Parser parses Go files together with their package siblings.
type Parser struct {
	fs       afero.Fs
	log      *slog.Logger
	pkgPath  *string
	pkgNames pkgname.Resolver

	mu       sync.Mutex
	contents map[string][]byte // registered text, newer than disk
	modules  map[string]string // dir -> import path
}

// New returns a parser reading the OS filesystem unless WithFs is given.
func New(opts ...Option) *Parser {
	p := &Parser{
		contents: make(map[string][]byte),
		modules:  make(map[string]string),
	}
	for _, fn := range opts {
		fn(p)
	}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.pkgNames == nil {
		p.pkgNames = pkgname.Static(nil)
	}
	return p
}

// ParseFile parses content as the text of fileName and returns the class
// parts declared in it, each linked to its complete class.
func (p *Parser) ParseFile(fileName string, content []byte) (*dom.CompilationUnit, error) {
	if !strings.HasSuffix(fileName, ".go") {
		return nil, fmt.Errorf("%w: %s", ErrNotGoFile, fileName)
	}
	fileName = filepath.Clean(fileName)
	p.register(fileName, content)

	fset := token.NewFileSet()
	main, err := goparser.ParseFile(fset, fileName, content, goparser.ParseComments|goparser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	files := map[string]*ast.File{fileName: main}
	if err = p.collectSiblings(fset, fileName, main.Name.Name, files); err != nil {
		return nil, err
	}

	dir := filepath.Dir(fileName)
	pkgPath, err := p.packagePath(dir)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(fset, pkgPath, files, p.pkgNames.Names(dir, importPaths(files)))
	b.BuildAll()
	return &dom.CompilationUnit{
		FileName: fileName,
		Classes:  b.PartsIn(fileName),
	}, nil
}

// EnqueueForParsing registers content for fileName; the next parse of any
// file in the package sees it.
func (p *Parser) EnqueueForParsing(fileName string, content []byte) {
	p.register(filepath.Clean(fileName), content)
}

// ParseableFileContent reads fileName from disk.
func (p *Parser) ParseableFileContent(fileName string) ([]byte, error) {
	b, err := afero.ReadFile(p.fs, fileName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	return b, nil
}

func (p *Parser) register(fileName string, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contents[fileName] = append([]byte(nil), content...)
}

func (p *Parser) registered(fileName string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.contents[fileName]
	return b, ok
}

// Overlay returns a copy of the registered contents, keyed by file name.
func (p *Parser) Overlay() map[string][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]byte, len(p.contents))
	for name, b := range p.contents {
		out[name] = append([]byte(nil), b...)
	}
	return out
}

// registeredIn lists registered files in dir.
func (p *Parser) registeredIn(dir string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for name := range p.contents {
		if filepath.Dir(name) == dir {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
