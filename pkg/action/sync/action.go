package sync

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/cmmoran/designersync/internal/action/workspace"
	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/pkg/manifest"
	"github.com/cmmoran/designersync/pkg/options"
)

// Report describes one sync run.
type Report struct {
	Result  *designer.Result
	Imports []string
	Changes []workspace.Change
	DryRun  bool
}

// Run merges the model in opts.Model into opts.File and writes the result
// unless opts.DryRun is set.
func Run(fsys afero.Fs, opts *options.Options) (*Report, error) {
	log := slog.Default().With("action", "sync", "file", opts.File)

	m, err := manifest.Load(fsys, opts.Model)
	if err != nil {
		return nil, err
	}
	unit, err := m.Unit()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", opts.Model, err)
	}

	w, err := workspace.Open(fsys, opts, unit, log)
	if err != nil {
		return nil, err
	}
	rep := &Report{DryRun: opts.DryRun}
	rep.Result, rep.Imports, err = w.Merge(unit)
	if err != nil {
		return rep, err
	}
	if rep.Changes, err = w.Commit(); err != nil {
		return rep, err
	}
	return rep, nil
}
