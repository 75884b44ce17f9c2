package render

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	goparser "go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/text"
)

// importNames maps the import paths of src onto the names the file uses
// for them. Blank and dot imports are left out.
func (s *Strategy) importNames(src, dir string) (map[string]string, error) {
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, "", src, goparser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("reading imports: %w", err)
	}
	out := make(map[string]string, len(f.Imports))
	var unnamed []string
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				continue
			}
			out[p] = spec.Name.Name
			continue
		}
		unnamed = append(unnamed, p)
	}
	for p, name := range s.pkgNames.Names(dir, unnamed) {
		out[p] = name
	}
	return out, nil
}

func hasImport(f *ast.File, p string) bool {
	for _, spec := range f.Imports {
		if v, err := strconv.Unquote(spec.Path.Value); err == nil && v == p {
			return true
		}
	}
	return false
}

// UnitPackages returns the import paths referenced by the field types of
// the unit, sorted.
func UnitPackages(u *model.Unit) []string {
	seen := map[string]struct{}{}
	for _, t := range u.Types {
		for _, f := range t.Fields() {
			ref, err := model.ParseTypeRef(f.Type)
			if err != nil {
				continue
			}
			for _, p := range ref.Packages() {
				seen[p] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ParameterPackages returns the import paths referenced by params, sorted.
func ParameterPackages(params []model.Parameter) []string {
	seen := map[string]struct{}{}
	for _, p := range params {
		ref, err := model.ParseTypeRef(p.Type)
		if err != nil {
			continue
		}
		for _, pkg := range ref.Packages() {
			seen[pkg] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// EnsureImports adds an import for every path in paths the document does not
// import yet, skipping the package of the document itself. Only the import
// declarations are rewritten, gofmt'd; the rest of the text is kept as is.
func (s *Strategy) EnsureImports(doc *text.Document, paths []string) ([]string, error) {
	s.mu.Lock()
	local := s.pkgPath
	s.mu.Unlock()

	src := doc.Text()
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, "", src, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse for imports: %w", err)
	}
	start, end, found := importSpan(fset, f)
	if !found {
		// right after the package clause line
		start = fset.Position(f.Name.End()).Offset
		if i := strings.IndexByte(src[start:], '\n'); i >= 0 {
			start += i
		} else {
			start = len(src)
		}
		end = start
	}

	var added []string
	for _, p := range paths {
		if p == "" || p == local || hasImport(f, p) {
			continue
		}
		if astutil.AddImport(fset, f, p) {
			added = append(added, p)
		}
	}
	if len(added) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err = format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("format imports: %w", err)
	}
	formatted := buf.String()
	ffset := token.NewFileSet()
	ff, err := goparser.ParseFile(ffset, "", formatted, goparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse formatted imports: %w", err)
	}
	fstart, fend, ok := importSpan(ffset, ff)
	if !ok {
		return nil, fmt.Errorf("format imports: no import declaration after adding %v", added)
	}
	block := formatted[fstart:fend]
	if !found {
		block = "\n\n" + block
	}
	if err = doc.Replace(start, end-start, block); err != nil {
		return nil, err
	}
	return added, nil
}

// importSpan returns the offsets from the first import declaration to the
// end of the last one.
func importSpan(fset *token.FileSet, f *ast.File) (start, end int, ok bool) {
	for _, d := range f.Decls {
		gd, isGen := d.(*ast.GenDecl)
		if !isGen || gd.Tok != token.IMPORT {
			break
		}
		if !ok {
			start, ok = fset.Position(gd.Pos()).Offset, true
		}
		end = fset.Position(gd.End()).Offset
	}
	return start, end, ok
}
