package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	goparser "go/parser"
	"go/token"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/parser"
	"github.com/cmmoran/designersync/internal/pkgname"
	"github.com/cmmoran/designersync/pkg/manifest"
	"github.com/cmmoran/designersync/pkg/options"
)

// Generate records the designed type of opts.File, its fields and the
// statements of its init method, in the model file. Fields excluded by
// opts.ExcludeByTags are left out. The model is not written on a dry run.
func Generate(fsys afero.Fs, opts *options.Options) (*manifest.Manifest, error) {
	log := slog.Default().With("action", "snapshot", "file", opts.File)

	m, err := manifest.Load(fsys, opts.Model)
	if err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(fsys, opts.File)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.File, err)
	}
	popts := []parser.Option{parser.WithFs(fsys), parser.WithLogger(log), parser.WithPackageNames(pkgname.NewLoader(log))}
	if opts.PackagePath != "" {
		popts = append(popts, parser.WithPackagePath(opts.PackagePath))
	}
	cu, err := parser.New(popts...).ParseFile(opts.File, content)
	if err != nil {
		return nil, err
	}

	c, init := designed(cu, opts.InitMethod)
	if c == nil {
		return nil, fmt.Errorf("%w: %s in %s", designer.ErrMethodNotFound, opts.InitMethod, opts.File)
	}

	t := manifest.Type{Name: c.Name}
	for _, f := range c.Fields {
		if f.FileName != c.FileName || f.Region.BeginLine < c.BodyRegion.BeginLine || f.Region.EndLine > c.BodyRegion.EndLine {
			// promoted
			continue
		}
		if opts.Excludes(f.Tag) {
			log.With("field", f.Name).Debug("field excluded by tag")
			continue
		}
		t.Fields = append(t.Fields, manifest.Field{Name: f.Name, Type: f.Type, Tag: f.Tag, Comment: f.Comment})
	}
	stmts, err := statements(fsys, init.FileName, c.Name, init.Name)
	if err != nil {
		return nil, err
	}
	t.Methods = append(t.Methods, manifest.Method{Name: init.Name, Statements: stmts})

	m.Package = packageOf(c.FullName)
	m.AddType(t)

	if opts.DryRun {
		return m, nil
	}
	if err = m.Save(fsys, opts.Model); err != nil {
		return nil, err
	}
	log.With("model", opts.Model, "type", c.Name, "fields", len(t.Fields)).Info("snapshot recorded")
	return m, nil
}

// Diff returns how the model recorded at opts.Model differs from m.
func Diff(fsys afero.Fs, opts *options.Options, m *manifest.Manifest) (string, error) {
	previous, err := afero.ReadFile(fsys, opts.Model)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read manifest: %w", err)
	}
	current, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	return cmp.Diff(string(previous), string(current)), nil
}

// designed returns the complete class declaring the parameterless init
// method.
func designed(cu *dom.CompilationUnit, initMethod string) (*dom.Class, *dom.Method) {
	for _, part := range cu.Classes {
		c := part.Complete()
		for _, m := range c.Methods {
			if m.Name == initMethod && len(m.Parameters) == 0 {
				return c, m
			}
		}
	}
	return nil, nil
}

// statements returns the gofmt'd statements of the method name declared on
// typeName.
func statements(fsys afero.Fs, fileName, typeName, name string) ([]string, error) {
	fset, f, err := parseFile(fsys, fileName)
	if err != nil {
		return nil, err
	}
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Name.Name != name || fd.Body == nil {
			continue
		}
		if receiverType(fd.Recv.List[0].Type) != typeName {
			continue
		}
		out := make([]string, 0, len(fd.Body.List))
		for _, st := range fd.Body.List {
			var buf bytes.Buffer
			if err = format.Node(&buf, fset, st); err != nil {
				return nil, fmt.Errorf("format statement in %s: %w", name, err)
			}
			out = append(out, buf.String())
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s.%s in %s", designer.ErrMethodNotFound, typeName, name, fileName)
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverType(t.X)
	case *ast.IndexExpr:
		return receiverType(t.X)
	case *ast.IndexListExpr:
		return receiverType(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func parseFile(fsys afero.Fs, fileName string) (*token.FileSet, *ast.File, error) {
	src, err := afero.ReadFile(fsys, fileName)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, fileName, src, goparser.ParseComments|goparser.SkipObjectResolution)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", fileName, err)
	}
	return fset, f, nil
}

func packageOf(fullName string) string {
	if i := strings.LastIndexByte(fullName, '.'); i > strings.LastIndexByte(fullName, '/') {
		return fullName[:i]
	}
	return ""
}
