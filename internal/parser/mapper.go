package parser

import (
	"go/ast"
	"go/types"
	"sort"
	"strconv"

	"github.com/cmmoran/designersync/internal/pkgname"
)

// importMap maps the name a file refers to an import by onto its path.
type importMap map[string]string

var builtinIdents = map[string]struct{}{
	"string": {}, "bool": {}, "byte": {}, "rune": {}, "int": {}, "int8": {}, "int16": {},
	"int32": {}, "int64": {}, "uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"uintptr": {}, "float32": {}, "float64": {}, "complex64": {}, "complex128": {}, "error": {},
	"any": {}, "comparable": {},
}

// fileImports maps the names f refers to its imports by onto their paths.
// names holds the declared package names of unnamed imports.
func fileImports(f *ast.File, names map[string]string) importMap {
	out := make(importMap, len(f.Imports))
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name, ok := names[p]
		if !ok {
			name = pkgname.Guess(p)
		}
		if spec.Name != nil {
			if spec.Name.Name == "_" || spec.Name.Name == "." {
				continue
			}
			name = spec.Name.Name
		}
		out[name] = p
	}
	return out
}

// importPaths lists the distinct import paths of files.
func importPaths(files map[string]*ast.File) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range files {
		for _, spec := range f.Imports {
			p, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// typeString renders a type expression with every named type fully
// qualified by its import path, e.g. "*github.com/acme/ui.Button".
func (b *Builder) typeString(expr ast.Expr, imports importMap) string {
	switch t := expr.(type) {
	case *ast.Ident:
		if _, ok := builtinIdents[t.Name]; ok {
			return t.Name
		}
		return b.qualify(t.Name)

	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return types.ExprString(t)
		}
		p, ok := imports[pkg.Name]
		if !ok {
			p = pkg.Name
		}
		return p + "." + t.Sel.Name

	case *ast.StarExpr:
		return "*" + b.typeString(t.X, imports)

	case *ast.ParenExpr:
		return b.typeString(t.X, imports)

	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + b.typeString(t.Elt, imports)
		}
		return "[" + types.ExprString(t.Len) + "]" + b.typeString(t.Elt, imports)

	case *ast.MapType:
		return "map[" + b.typeString(t.Key, imports) + "]" + b.typeString(t.Value, imports)

	case *ast.Ellipsis:
		return "..." + b.typeString(t.Elt, imports)

	default:
		return types.ExprString(expr)
	}
}
