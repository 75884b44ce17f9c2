// Package pkgname tells which name a package declares for its import path.
// The go command is asked through golang.org/x/tools/go/packages; paths it
// cannot load get the name goimports would assume.
package pkgname

import (
	"log/slog"
	"path"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/go/packages"
)

// Resolver maps import paths onto package names as seen from dir.
type Resolver interface {
	Names(dir string, paths []string) map[string]string
}

// Static resolves from a fixed table and guesses the rest.
type Static map[string]string

func (s Static) Names(_ string, paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if n, ok := s[p]; ok {
			out[p] = n
			continue
		}
		out[p] = Guess(p)
	}
	return out
}

// LoadFunc loads packages; packages.Load in production.
type LoadFunc func(cfg *packages.Config, patterns ...string) ([]*packages.Package, error)

// Loader resolves names with the go command and remembers every answer,
// guessed ones included, so each path is loaded at most once.
type Loader struct {
	// Overlay returns unsaved file contents keyed by absolute path.
	Overlay func() map[string][]byte

	load LoadFunc
	log  *slog.Logger

	mu    sync.Mutex
	names map[string]string
}

var _ Resolver = (*Loader)(nil)

func NewLoader(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{load: packages.Load, log: log, names: make(map[string]string)}
}

// WithLoadFunc replaces packages.Load.
func (l *Loader) WithLoadFunc(fn LoadFunc) *Loader {
	l.load = fn
	return l
}

func (l *Loader) Names(dir string, paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	var missing []string
	l.mu.Lock()
	for _, p := range paths {
		if n, ok := l.names[p]; ok {
			out[p] = n
			continue
		}
		missing = append(missing, p)
	}
	l.mu.Unlock()
	if len(missing) == 0 {
		return out
	}

	loaded := l.loadNames(dir, missing)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range missing {
		n, ok := loaded[p]
		if !ok {
			n = Guess(p)
		}
		l.names[p] = n
		out[p] = n
	}
	return out
}

func (l *Loader) loadNames(dir string, paths []string) map[string]string {
	cfg := &packages.Config{Mode: packages.NeedName, Dir: dir}
	if l.Overlay != nil {
		cfg.Overlay = l.Overlay()
	}
	pkgs, err := l.load(cfg, paths...)
	if err != nil {
		l.log.With("dir", dir, "error", err).Debug("package names not loaded, guessing")
		return nil
	}
	out := make(map[string]string, len(pkgs))
	for _, pkg := range pkgs {
		if pkg.Name == "" {
			if len(pkg.Errors) > 0 {
				l.log.With("package", pkg.PkgPath, "error", pkg.Errors[0]).Debug("package name not loaded")
			}
			continue
		}
		out[pkg.PkgPath] = pkg.Name
	}
	return out
}

// Guess returns the name a package most likely declares: the last path
// element, skipping a major version element, without a "go-" prefix and
// cut at the first character an identifier cannot hold.
func Guess(importPath string) string {
	base := path.Base(importPath)
	if strings.HasPrefix(base, "v") {
		if _, err := strconv.Atoi(base[1:]); err == nil {
			if dir := path.Dir(importPath); dir != "." {
				base = path.Base(dir)
			}
		}
	}
	base = strings.TrimPrefix(base, "go-")
	if i := strings.IndexFunc(base, notIdentifier); i >= 0 {
		base = base[:i]
	}
	return base
}

func notIdentifier(ch rune) bool {
	return !('a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' ||
		'0' <= ch && ch <= '9' ||
		ch == '_' ||
		ch >= utf8.RuneSelf && (unicode.IsLetter(ch) || unicode.IsDigit(ch)))
}
