// Package workspace wires the designer for one view file. Every edit lands
// in a copy-on-write layer over the real filesystem and reaches it only on
// Commit, so a failed pass leaves the sources untouched.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/parser"
	"github.com/cmmoran/designersync/internal/pkgname"
	"github.com/cmmoran/designersync/internal/rename"
	"github.com/cmmoran/designersync/internal/render"
	"github.com/cmmoran/designersync/internal/session"
	"github.com/cmmoran/designersync/internal/storage"
	"github.com/cmmoran/designersync/internal/text"
	"github.com/cmmoran/designersync/pkg/options"
)

// Change is one file that differs from the base filesystem.
type Change struct {
	File string
	Diff string // cmp.Diff(old, new)
}

type Workspace struct {
	Base      afero.Fs
	Fs        afero.Fs
	Parser    *parser.Parser
	Session   *session.Session
	Strategy  *render.Strategy
	Generator *designer.Generator
	View      *session.View

	opts    *options.Options
	log     *slog.Logger
	touched map[string]struct{}
}

// Open loads opts.File as the designer view. When unit is set, merging the
// view's pending changes applies unit.
func Open(fsys afero.Fs, opts *options.Options, unit *model.Unit, log *slog.Logger) (*Workspace, error) {
	if log == nil {
		log = slog.Default()
	}
	overlay := afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(fsys), afero.NewMemMapFs())
	writer := storage.NewSafeWriter(overlay, log)

	names := pkgname.NewLoader(log)
	popts := []parser.Option{parser.WithFs(overlay), parser.WithLogger(log), parser.WithPackageNames(names)}
	if opts.PackagePath != "" {
		popts = append(popts, parser.WithPackagePath(opts.PackagePath))
	}

	w := &Workspace{
		Base:     fsys,
		Fs:       overlay,
		Parser:   parser.New(popts...),
		Session:  session.New(overlay, writer, log),
		Strategy: render.New(render.WithPackageNames(names)),
		opts:     opts,
		log:      log,
		touched:  make(map[string]struct{}),
	}
	// the go command sees unsaved edits through the parser's registry
	names.Overlay = w.Parser.Overlay
	w.Generator = designer.New(w.Parser, w.Strategy,
		designer.WithRenamer(rename.New(log)),
		designer.WithWorkbench(w.Session),
		designer.WithFileWriter(writer),
		designer.WithLogger(log),
		designer.WithInitMethod(opts.InitMethod),
		designer.WithRetainField(func(f *dom.Field) bool { return opts.Excludes(f.Tag) }),
	)

	var merge func(*text.Document) error
	if unit != nil {
		merge = func(*text.Document) error {
			_, _, err := w.Merge(unit)
			return err
		}
	}
	view, err := w.Session.View(opts.File, merge)
	if err != nil {
		return nil, err
	}
	w.View = view
	w.Generator.Attach(view)
	return w, nil
}

// Merge applies unit and imports the packages its fields need into the
// designer file.
func (w *Workspace) Merge(unit *model.Unit) (*designer.Result, []string, error) {
	res, err := w.Generator.MergeFormChanges(unit)
	if res != nil {
		w.touched[res.DesignerFile] = struct{}{}
	}
	if err != nil {
		return res, nil, err
	}
	added, err := w.EnsureImports(res.DesignerFile, render.UnitPackages(unit))
	return res, added, err
}

// EnsureImports adds the missing imports among paths to fileName.
func (w *Workspace) EnsureImports(fileName string, paths []string) ([]string, error) {
	doc, err := w.Session.Open(fileName)
	if err != nil {
		return nil, err
	}
	added, err := w.Strategy.EnsureImports(doc, paths)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if len(added) > 0 {
		w.Parser.EnqueueForParsing(fileName, []byte(doc.Text()))
		w.log.With("file", fileName, "imports", added).Info("added imports")
	}
	return added, nil
}

// Commit saves the open documents into the overlay, diffs every touched file
// against the base filesystem and, unless this is a dry run, writes the
// changed files through.
func (w *Workspace) Commit() ([]Change, error) {
	if err := w.Session.SaveAll(); err != nil {
		return nil, err
	}

	files := w.Session.Files()
	for f := range w.touched {
		files = append(files, f)
	}
	sort.Strings(files)

	base := storage.NewSafeWriter(w.Base, w.log)
	var (
		changes []Change
		last    string
	)
	for _, f := range files {
		if f == last {
			continue
		}
		last = f

		before, err := readOptional(w.Base, f)
		if err != nil {
			return changes, err
		}
		after, err := afero.ReadFile(w.Fs, f)
		if err != nil {
			return changes, fmt.Errorf("read %s: %w", f, err)
		}
		if before == string(after) {
			continue
		}
		changes = append(changes, Change{File: f, Diff: cmp.Diff(before, string(after))})
		if w.opts.DryRun {
			continue
		}
		if err = base.WriteFile(f, after); err != nil {
			return changes, &designer.SaveError{File: f, Err: err}
		}
	}
	w.log.With("changed", len(changes), "dry_run", w.opts.DryRun).Info("workspace committed")
	return changes, nil
}

func readOptional(fsys afero.Fs, name string) (string, error) {
	data, err := afero.ReadFile(fsys, name)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
