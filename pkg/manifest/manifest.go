package manifest

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/designersync/internal/model"
)

// Field is a generated field declaration. Type is fully qualified, e.g.
// "*example.com/widgets.Button"; names without a package path that are not
// predeclared belong to Package.
type Field struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Access  string `yaml:"access,omitempty" json:"access,omitempty"`
	Tag     string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Comment string `yaml:"comment,omitempty" json:"comment,omitempty"`
}

type Parameter struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

type Method struct {
	Name       string      `yaml:"name" json:"name"`
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Statements []string    `yaml:"statements,omitempty" json:"statements,omitempty"`
}

type Type struct {
	Name    string   `yaml:"name" json:"name"`
	Fields  []Field  `yaml:"fields,omitempty" json:"fields,omitempty"`
	Methods []Method `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// Manifest is the model file: what the designer generated for a package.
type Manifest struct {
	Package string `yaml:"package" json:"package"`
	Types   []Type `yaml:"types" json:"types"`
}

// Load reads a manifest from the provided path. If the file does not exist,
// an empty manifest is returned.
func Load(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Save writes the manifest to the provided path, creating parent directories as needed.
func (m *Manifest) Save(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Unit converts the manifest into the generated model. Fields come before
// methods within a type. An empty access on an exported name means public.
func (m *Manifest) Unit() (*model.Unit, error) {
	u := &model.Unit{Package: m.Package}
	for _, t := range m.Types {
		mt := &model.Type{Name: t.Name}
		for _, f := range t.Fields {
			access, err := model.ParseAccess(f.Access)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
			}
			if access == model.AccessUnspecified && token.IsExported(f.Name) {
				access = model.AccessPublic
			}
			typ, err := m.qualify(f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
			}
			mt.Members = append(mt.Members, &model.Field{
				Name:    f.Name,
				Type:    typ,
				Access:  access,
				Tag:     f.Tag,
				Comment: f.Comment,
			})
		}
		for _, meth := range t.Methods {
			mm := &model.Method{Name: meth.Name, Statements: append([]string(nil), meth.Statements...)}
			for _, p := range meth.Parameters {
				typ, err := m.qualify(p.Type)
				if err != nil {
					return nil, fmt.Errorf("%s.%s(%s): %w", t.Name, meth.Name, p.Name, err)
				}
				mm.Parameters = append(mm.Parameters, model.Parameter{Name: p.Name, Type: typ})
			}
			mt.Members = append(mt.Members, mm)
		}
		u.Types = append(u.Types, mt)
	}
	return u, nil
}

// qualify adds the manifest package to bare type names.
func (m *Manifest) qualify(typ string) (string, error) {
	ref, err := model.ParseTypeRef(typ)
	if err != nil {
		return "", err
	}
	if m.Package == "" {
		return ref.String(), nil
	}
	var walk func(*model.TypeRef)
	walk = func(r *model.TypeRef) {
		if r == nil {
			return
		}
		if r.Kind == model.KindNamed && r.PkgPath == "" && types.Universe.Lookup(r.Name) == nil {
			r.PkgPath = m.Package
		}
		walk(r.Key)
		walk(r.Elem)
	}
	walk(ref)
	return ref.String(), nil
}

// AddType records t, replacing a type with the same name.
func (m *Manifest) AddType(t Type) {
	for i := range m.Types {
		if m.Types[i].Name == t.Name {
			m.Types[i] = t
			return
		}
	}
	m.Types = append(m.Types, t)
}

// Type returns the type called name, if present.
func (m *Manifest) Type(name string) *Type {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i]
		}
	}
	return nil
}
