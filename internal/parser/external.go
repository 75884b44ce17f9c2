package parser

import (
	"errors"
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// collectSiblings parses the other files of the package in the directory of
// fileName into files. Files of another package and test files are ignored.
func (p *Parser) collectSiblings(fset *token.FileSet, fileName, pkgName string, files map[string]*ast.File) error {
	dir := filepath.Dir(fileName)

	candidates := make(map[string]struct{})
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		candidates[filepath.Join(dir, e.Name())] = struct{}{}
	}
	for _, name := range p.registeredIn(dir) {
		candidates[name] = struct{}{}
	}

	for name := range candidates {
		if name == fileName || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		src, ok := p.registered(name)
		if !ok {
			if src, err = afero.ReadFile(p.fs, name); err != nil {
				p.log.With("file", name, "error", err).Warn("skipping unreadable package file")
				continue
			}
		}
		f, err := goparser.ParseFile(fset, name, src, goparser.ParseComments|goparser.SkipObjectResolution)
		if f == nil || f.Name == nil {
			p.log.With("file", name, "error", err).Warn("skipping unparsable package file")
			continue
		}
		if err != nil {
			p.log.With("file", name, "error", err).Debug("package file has syntax errors")
		}
		if f.Name.Name != pkgName {
			continue
		}
		files[name] = f
	}
	return nil
}

// packagePath returns the import path of dir, derived from the nearest
// go.mod. Without a go.mod local types stay unqualified.
func (p *Parser) packagePath(dir string) (string, error) {
	if p.pkgPath != nil {
		return *p.pkgPath, nil
	}

	p.mu.Lock()
	cached, ok := p.modules[dir]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	modDir, modPath, err := p.findModule(dir)
	if err != nil {
		return "", err
	}
	pkgPath := ""
	if modPath != "" {
		rel, err := filepath.Rel(modDir, dir)
		if err != nil {
			return "", fmt.Errorf("relative path of %s: %w", dir, err)
		}
		pkgPath = path.Join(modPath, filepath.ToSlash(rel))
	}

	p.mu.Lock()
	p.modules[dir] = pkgPath
	p.mu.Unlock()
	return pkgPath, nil
}

// findModule walks up from dir to the first go.mod.
func (p *Parser) findModule(dir string) (string, string, error) {
	abs := filepath.Clean(dir)
	for {
		gomod := filepath.Join(abs, "go.mod")
		data, err := afero.ReadFile(p.fs, gomod)
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", "", fmt.Errorf("%s: no module directive", gomod)
			}
			if err = module.CheckImportPath(modPath); err != nil {
				return "", "", fmt.Errorf("%s: %w", gomod, err)
			}
			return abs, modPath, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("read %s: %w", gomod, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", "", nil
		}
		abs = parent
	}
}
