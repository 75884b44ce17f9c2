package parser

import (
	"go/ast"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/cmmoran/designersync/internal/dom"
)

// Builder turns the parsed files of one package into classes: one part per
// file that declares the struct or methods on it, plus a complete class
// merging every part.
type Builder struct {
	fset    *token.FileSet
	pkgPath string
	files   map[string]*ast.File
	names   []string
	pkgs    map[string]string // import path -> declared package name

	decls     map[string]*structDecl
	methods   map[string][]*dom.Method
	parts     map[string]map[string]*dom.Class
	complete  map[string]*dom.Class
	resolving map[string]bool
}

type structDecl struct {
	file    string
	st      *ast.StructType
	imports importMap
}

// NewBuilder indexes files, which must all belong to the package pkgPath.
// pkgs names the packages the files import; missing entries are guessed.
func NewBuilder(fset *token.FileSet, pkgPath string, files map[string]*ast.File, pkgs map[string]string) *Builder {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Builder{
		fset:      fset,
		pkgPath:   pkgPath,
		files:     files,
		names:     names,
		pkgs:      pkgs,
		decls:     make(map[string]*structDecl),
		methods:   make(map[string][]*dom.Method),
		parts:     make(map[string]map[string]*dom.Class),
		complete:  make(map[string]*dom.Class),
		resolving: make(map[string]bool),
	}
}

// BuildAll collects declarations from every file and links the parts of
// each struct to its complete class.
func (b *Builder) BuildAll() {
	// 1) Struct declarations and own fields.
	for _, name := range b.names {
		b.collectStructs(name, b.files[name])
	}

	// 2) Methods, wherever they are declared.
	for _, name := range b.names {
		b.collectMethods(name, b.files[name])
	}

	// 3) Complete classes, including promoted fields.
	typeNames := make([]string, 0, len(b.parts))
	for typeName := range b.parts {
		typeNames = append(typeNames, typeName)
	}
	sort.Strings(typeNames)
	for _, typeName := range typeNames {
		b.ensureComplete(typeName)
	}
}

// PartsIn returns the class parts declared in fileName, in source order.
func (b *Builder) PartsIn(fileName string) []*dom.Class {
	var out []*dom.Class
	for _, byFile := range b.parts {
		if part, ok := byFile[fileName]; ok {
			out = append(out, part)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Region, out[j].Region
		if ri.BeginLine != rj.BeginLine {
			return ri.BeginLine < rj.BeginLine
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Complete returns the merged class for typeName, or nil.
func (b *Builder) Complete(typeName string) *dom.Class {
	return b.complete[typeName]
}

// -----------------------------------------------------------------------------
// Collection
// -----------------------------------------------------------------------------

func (b *Builder) collectStructs(fileName string, f *ast.File) {
	imports := fileImports(f, b.pkgs)
	for _, d := range f.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, s := range gd.Specs {
			ts, ok := s.(*ast.TypeSpec)
			if !ok || ts.Assign.IsValid() {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sd := &structDecl{file: fileName, st: st, imports: imports}
			b.decls[ts.Name.Name] = sd

			part := b.part(ts.Name.Name, fileName)
			begin := ts.Pos()
			if !gd.Lparen.IsValid() {
				begin = gd.Pos()
			}
			part.Region = b.region(begin, ts.End()-1)
			part.BodyRegion = b.region(st.Fields.Opening, st.Fields.Closing)
			part.Fields = b.ownFields(sd)
		}
	}
}

func (b *Builder) collectMethods(fileName string, f *ast.File) {
	imports := fileImports(f, b.pkgs)
	for _, d := range f.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 || fd.Name == nil {
			continue
		}
		recv := receiverName(fd.Recv.List[0].Type)
		if recv == "" {
			continue
		}
		if _, ok = b.decls[recv]; !ok {
			// methods on non-struct types are not classes
			continue
		}

		m := &dom.Method{
			Name:       fd.Name.Name,
			Parameters: b.parameters(fd.Type.Params, imports),
			Region:     b.region(fd.Pos(), fd.End()-1),
			FileName:   fileName,
		}
		if fd.Body != nil {
			m.BodyRegion = b.region(fd.Body.Lbrace, fd.Body.Rbrace)
		}

		part := b.part(recv, fileName)
		part.Methods = append(part.Methods, m)
		if part.BodyRegion.IsEmpty() && !b.declaredIn(recv, fileName) {
			part.Region = widen(part.Region, m.Region)
		}
		b.methods[recv] = append(b.methods[recv], m)
	}
}

func (b *Builder) declaredIn(typeName, fileName string) bool {
	sd, ok := b.decls[typeName]
	return ok && sd.file == fileName
}

func (b *Builder) part(typeName, fileName string) *dom.Class {
	byFile, ok := b.parts[typeName]
	if !ok {
		byFile = make(map[string]*dom.Class)
		b.parts[typeName] = byFile
	}
	if c, ok := byFile[fileName]; ok {
		return c
	}
	c := &dom.Class{
		Name:     typeName,
		FullName: b.qualify(typeName),
		FileName: fileName,
	}
	byFile[fileName] = c
	return c
}

// ownFields lists the named fields of sd; embedded fields are not fields
// of the class but contribute promoted fields to the complete class.
func (b *Builder) ownFields(sd *structDecl) []*dom.Field {
	var out []*dom.Field
	for _, f := range sd.st.Fields.List {
		if len(f.Names) == 0 {
			continue
		}
		begin := f.Pos()
		if f.Doc != nil {
			begin = f.Doc.Pos()
		}
		region := b.region(begin, f.End()-1)
		typ := b.typeString(f.Type, sd.imports)
		var tag, comment string
		if f.Tag != nil {
			tag, _ = strconv.Unquote(f.Tag.Value)
		}
		if f.Comment != nil {
			comment = strings.TrimSpace(f.Comment.Text())
		}
		for _, n := range f.Names {
			if n.Name == "_" {
				continue
			}
			out = append(out, &dom.Field{
				Name:     n.Name,
				Type:     typ,
				Modifier: modifierOf(n.Name),
				Tag:      tag,
				Comment:  comment,
				Region:   region,
				FileName: sd.file,
			})
		}
	}
	return out
}

func (b *Builder) parameters(list *ast.FieldList, imports importMap) []dom.Parameter {
	if list == nil {
		return nil
	}
	var out []dom.Parameter
	for _, f := range list.List {
		typ := b.typeString(f.Type, imports)
		if len(f.Names) == 0 {
			out = append(out, dom.Parameter{Type: typ})
			continue
		}
		for _, n := range f.Names {
			out = append(out, dom.Parameter{Name: n.Name, Type: typ})
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Complete classes
// -----------------------------------------------------------------------------

func (b *Builder) ensureComplete(typeName string) *dom.Class {
	if c, ok := b.complete[typeName]; ok {
		return c
	}
	if b.resolving[typeName] {
		// embedding cycle
		return nil
	}
	b.resolving[typeName] = true
	defer delete(b.resolving, typeName)

	byFile := b.parts[typeName]
	c := &dom.Class{Name: typeName, FullName: b.qualify(typeName)}
	if sd, ok := b.decls[typeName]; ok {
		decl := byFile[sd.file]
		c.FileName = decl.FileName
		c.Region = decl.Region
		c.BodyRegion = decl.BodyRegion
		c.Fields = append(c.Fields, decl.Fields...)
		c.Fields = append(c.Fields, b.promotedFields(sd, c.Fields)...)
	}
	c.Methods = append(c.Methods, b.methods[typeName]...)

	for _, part := range byFile {
		part.SetComplete(c)
	}
	b.complete[typeName] = c
	return c
}

// promotedFields returns the fields reachable through embedded local
// structs that are not shadowed by a name in have.
func (b *Builder) promotedFields(sd *structDecl, have []*dom.Field) []*dom.Field {
	seen := make(map[string]bool, len(have))
	for _, f := range have {
		seen[f.Name] = true
	}
	var out []*dom.Field
	for _, f := range sd.st.Fields.List {
		if len(f.Names) != 0 {
			continue
		}
		name := embeddedName(f.Type)
		if name == "" {
			continue
		}
		seen[name] = true
		if _, ok := b.decls[name]; !ok {
			continue
		}
		inner := b.ensureComplete(name)
		if inner == nil {
			continue
		}
		for _, pf := range inner.Fields {
			if seen[pf.Name] {
				continue
			}
			seen[pf.Name] = true
			out = append(out, pf)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// region converts the positions of the first and last character of a span.
func (b *Builder) region(from, to token.Pos) dom.Region {
	begin := b.fset.Position(from)
	end := b.fset.Position(to)
	return dom.Region{
		BeginLine:   begin.Line,
		BeginColumn: begin.Column,
		EndLine:     end.Line,
		EndColumn:   end.Column,
	}
}

func widen(r, with dom.Region) dom.Region {
	if r.IsEmpty() {
		return with
	}
	if with.BeginLine < r.BeginLine || (with.BeginLine == r.BeginLine && with.BeginColumn < r.BeginColumn) {
		r.BeginLine, r.BeginColumn = with.BeginLine, with.BeginColumn
	}
	if with.EndLine > r.EndLine || (with.EndLine == r.EndLine && with.EndColumn > r.EndColumn) {
		r.EndLine, r.EndColumn = with.EndLine, with.EndColumn
	}
	return r
}

func (b *Builder) qualify(typeName string) string {
	if b.pkgPath == "" {
		return typeName
	}
	return b.pkgPath + "." + typeName
}

func modifierOf(name string) dom.Modifier {
	if ast.IsExported(name) {
		return dom.Public
	}
	return dom.Private
}

// receiverName strips pointers and type parameters from a receiver type.
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.ParenExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// embeddedName returns the local type name of an embedded field, or "" for
// embedded types from other packages.
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}
