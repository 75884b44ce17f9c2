package handlers

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/action/workspace"
	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/render"
	"github.com/cmmoran/designersync/pkg/manifest"
	"github.com/cmmoran/designersync/pkg/options"
)

// Insertion is where an event handler lives after Insert.
type Insertion struct {
	File    string
	Line    int
	Existed bool
	Imports []string
	Changes []workspace.Change
}

// List returns the (sender, args) methods that can handle events of
// handlerType, e.g. "example.com/widgets.ClickEventHandler".
func List(fsys afero.Fs, opts *options.Options, handlerType string) ([]string, error) {
	w, err := workspace.Open(fsys, opts, nil, slog.Default().With("action", "handlers"))
	if err != nil {
		return nil, err
	}
	return w.Generator.CompatibleHandlerMethods(handlerType)
}

// Compatible returns the methods whose parameter types are exactly params.
func Compatible(fsys afero.Fs, opts *options.Options, params []string) ([]string, error) {
	w, err := workspace.Open(fsys, opts, nil, slog.Default().With("action", "handlers"))
	if err != nil {
		return nil, err
	}
	return w.Generator.CompatibleMethods(designer.EventSignature{Parameters: params})
}

// Insert makes sure the handler h exists on the designed type. A model file
// is merged first; when it cannot be read the designer counts as failed to
// load and nothing is inserted.
func Insert(fsys afero.Fs, opts *options.Options, h designer.EventHandler) (*Insertion, error) {
	log := slog.Default().With("action", "event", "handler", h.Name)

	var (
		unit   *model.Unit
		failed bool
	)
	if m, err := manifest.Load(fsys, opts.Model); err != nil {
		log.With("error", err).Warn("designer model unavailable")
		failed = true
	} else if len(m.Types) > 0 {
		if unit, err = m.Unit(); err != nil {
			log.With("error", err).Warn("designer model invalid")
			failed = true
		}
	}

	w, err := workspace.Open(fsys, opts, unit, log)
	if err != nil {
		return nil, err
	}
	w.Generator.SetFailedDesignerInitialize(failed)

	ins := &Insertion{}
	ins.File, ins.Line, ins.Existed, err = w.Generator.InsertComponentEvent(h)
	if err != nil {
		return nil, err
	}
	if failed || ins.Existed {
		return ins, nil
	}

	doc := w.View.Document()
	before := doc.LineCount()
	if ins.Imports, err = w.EnsureImports(w.View.FileName(), render.ParameterPackages(h.Parameters)); err != nil {
		return ins, fmt.Errorf("handler %s: %w", h.Name, err)
	}
	// the import block sits above the handler
	if ins.File == w.View.FileName() {
		ins.Line += doc.LineCount() - before
	}
	if ins.Changes, err = w.Commit(); err != nil {
		return ins, err
	}
	return ins, nil
}
