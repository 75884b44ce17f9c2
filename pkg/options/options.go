package options

import (
	"errors"
	"fmt"
	"go/token"
	"path/filepath"
	"reflect"
	"strings"

	"golang.org/x/mod/module"

	"github.com/cmmoran/designersync/internal/designer"
)

const DefaultModel = "designer.yaml"

var ErrNoFile = errors.New("no source file given")

// TagFilter excludes a field when the struct tag matches Key and contains Value.
type TagFilter struct {
	Key   string `json:"key" yaml:"key" toml:"key" mapstructure:"key"`
	Value string `json:"value" yaml:"value" toml:"value" mapstructure:"value"`
}

// Options control which file is designed and how the model is applied.
//
// File          – Go source file opened as the designer view
// Model         – manifest describing the generated model; defaults to designer.yaml next to File
// InitMethod    – name of the generated initialize method
// PackagePath   – import path of File's package when it cannot be derived from go.mod
// DryRun        – compute and report changes without writing them
// ExcludeByTags – fields left out of snapshots, ex: designer:"-"
type Options struct {
	File          string      `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty" mapstructure:"file,omitempty"`
	Model         string      `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty" mapstructure:"model,omitempty"`
	InitMethod    string      `json:"init_method,omitempty" yaml:"init_method,omitempty" toml:"init_method,omitempty" mapstructure:"init_method,omitempty"`
	PackagePath   string      `json:"package_path,omitempty" yaml:"package_path,omitempty" toml:"package_path,omitempty" mapstructure:"package_path,omitempty"`
	DryRun        bool        `json:"dry_run,omitempty" yaml:"dry_run,omitempty" toml:"dry_run,omitempty" mapstructure:"dry_run,omitempty"`
	ExcludeByTags []TagFilter `json:"exclude_by_tags,omitempty" yaml:"exclude_by_tags,omitempty" toml:"exclude_by_tags,omitempty" mapstructure:"exclude_by_tags,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		InitMethod:    designer.DefaultInitMethod,
		ExcludeByTags: []TagFilter{{Key: "designer", Value: "-"}},
	}
}

// New returns the defaults with opts applied.
func New(opts ...Option) *Options {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Normalize fills defaults, makes paths absolute and validates names.
// excludeByTagsStrings take the form key:value.
func (o *Options) Normalize(excludeByTagsStrings ...string) error {
	for _, s := range excludeByTagsStrings {
		key, value, ok := strings.Cut(s, ":")
		if !ok || key == "" {
			return fmt.Errorf("invalid tag filter %q, want key:value", s)
		}
		o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{Key: key, Value: strings.Trim(value, `"`)})
	}
	if o.File == "" {
		return ErrNoFile
	}
	var err error
	if o.File, err = filepath.Abs(o.File); err != nil {
		return fmt.Errorf("resolve %s: %w", o.File, err)
	}
	if o.Model == "" {
		o.Model = filepath.Join(filepath.Dir(o.File), DefaultModel)
	}
	if o.Model, err = filepath.Abs(o.Model); err != nil {
		return fmt.Errorf("resolve %s: %w", o.Model, err)
	}
	if o.InitMethod == "" {
		o.InitMethod = designer.DefaultInitMethod
	}
	if !token.IsIdentifier(o.InitMethod) {
		return fmt.Errorf("invalid init method name %q", o.InitMethod)
	}
	if o.PackagePath != "" {
		if err = module.CheckImportPath(o.PackagePath); err != nil {
			return fmt.Errorf("package path: %w", err)
		}
	}
	return nil
}

// Excludes reports whether a field with the raw struct tag is filtered out.
func (o *Options) Excludes(tag string) bool {
	if tag == "" {
		return false
	}
	st := reflect.StructTag(tag)
	for _, f := range o.ExcludeByTags {
		v, ok := st.Lookup(f.Key)
		if !ok {
			continue
		}
		if containsTagPart(v, f.Value) {
			return true
		}
	}
	return false
}

// containsTagPart splits a tag value on common delimiters and reports whether
// any fragment matches the expected value.
func containsTagPart(tagVal, expected string) bool {
	for _, part := range strings.FieldsFunc(tagVal, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		if part == expected {
			return true
		}
	}
	return false
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithFile(f string) Option        { return func(o *Options) { o.File = f } }
func WithModel(m string) Option       { return func(o *Options) { o.Model = m } }
func WithInitMethod(n string) Option  { return func(o *Options) { o.InitMethod = n } }
func WithPackagePath(p string) Option { return func(o *Options) { o.PackagePath = p } }
func WithDryRun() Option              { return func(o *Options) { o.DryRun = true } }
func WithExcludeByTag(key, val string) Option {
	return func(o *Options) { o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{key, val}) }
}
