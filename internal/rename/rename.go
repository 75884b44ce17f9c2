// Package rename renames a Go struct type inside one document.
package rename

import (
	"errors"
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"log/slog"
	"sort"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/text"
)

var (
	ErrInvalidName   = errors.New("not a valid go identifier")
	ErrNameConflict  = errors.New("name already declared")
	ErrNotReferenced = errors.New("type not referenced in document")
)

// Renamer implements designer.Renamer with a syntactic rename: every
// identifier naming the type is rewritten, selectors, field names and
// function names are not.
type Renamer struct {
	log *slog.Logger
}

var _ designer.Renamer = (*Renamer)(nil)

func New(log *slog.Logger) *Renamer {
	if log == nil {
		log = slog.Default()
	}
	return &Renamer{log: log}
}

// RenameClass rewrites doc in a single edit; doc is unchanged on error.
func (r *Renamer) RenameClass(doc *text.Document, class *dom.Class, newName string) error {
	if !token.IsIdentifier(newName) {
		return fmt.Errorf("%w: %q", ErrInvalidName, newName)
	}
	oldName := class.Name
	if oldName == newName {
		return nil
	}

	src := doc.Text()
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, class.FileName, src, goparser.ParseComments|goparser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("parse %s: %w", class.FileName, err)
	}
	if declared(f, newName) {
		return fmt.Errorf("%w: %s in %s", ErrNameConflict, newName, class.FileName)
	}

	offsets := references(fset, f, oldName)
	if len(offsets) == 0 {
		return fmt.Errorf("%w: %s", ErrNotReferenced, oldName)
	}

	// apply back to front so earlier offsets stay valid
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))
	out := src
	for _, off := range offsets {
		out = out[:off] + newName + out[off+len(oldName):]
	}
	doc.SetText(out)

	r.log.With("from", oldName, "to", newName, "references", len(offsets)).Debug("renamed type")
	return nil
}

// references returns the byte offsets of identifiers that refer to the type
// called name.
func references(fset *token.FileSet, f *ast.File, name string) []int {
	var out []int
	astutil.Apply(f, func(c *astutil.Cursor) bool {
		id, ok := c.Node().(*ast.Ident)
		if !ok || id.Name != name {
			return true
		}
		switch c.Parent().(type) {
		case *ast.SelectorExpr:
			if c.Name() == "Sel" {
				return true
			}
		case *ast.Field:
			if c.Name() == "Names" {
				return true
			}
		case *ast.FuncDecl:
			if c.Name() == "Name" {
				return true
			}
		case *ast.KeyValueExpr:
			// a key may name a struct field
			if c.Name() == "Key" {
				return true
			}
		case *ast.File:
			// package clause
			return true
		}
		out = append(out, fset.Position(id.Pos()).Offset)
		return true
	}, nil)
	return out
}

// declared reports whether the file declares name at package level.
func declared(f *ast.File, name string) bool {
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name == name {
				return true
			}
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					if s.Name.Name == name {
						return true
					}
				case *ast.ValueSpec:
					for _, n := range s.Names {
						if n.Name == name {
							return true
						}
					}
				}
			}
		}
	}
	return false
}
