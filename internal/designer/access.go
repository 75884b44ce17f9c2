package designer

import (
	"errors"
	"fmt"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
)

var ErrInvalidAccessTable = errors.New("invalid access table")

// AccessPair ties a source modifier to the generated access level it is
// written as.
type AccessPair struct {
	Modifier dom.Modifier
	Access   model.Access
}

// DefaultAccessPairs is the correspondence between source modifiers and
// generated access levels.
var DefaultAccessPairs = []AccessPair{
	{dom.Private, model.AccessPrivate},
	{dom.Protected, model.AccessFamily},
	{dom.ProtectedInternal, model.AccessFamilyOrAssembly},
	{dom.Internal, model.AccessAssembly},
	{dom.Public, model.AccessPublic},
}

// AccessTable is a bijection between modifiers and access levels. An
// unspecified generated access is equivalent to private and nothing else.
type AccessTable struct {
	toAccess   map[dom.Modifier]model.Access
	toModifier map[model.Access]dom.Modifier
}

// NewAccessTable validates pairs and builds the table.
func NewAccessTable(pairs ...AccessPair) (*AccessTable, error) {
	t := &AccessTable{
		toAccess:   make(map[dom.Modifier]model.Access, len(pairs)),
		toModifier: make(map[model.Access]dom.Modifier, len(pairs)),
	}
	for _, p := range pairs {
		if p.Access == model.AccessUnspecified || p.Modifier == dom.ModifierNone {
			return nil, fmt.Errorf("%w: %s/%s may not be mapped", ErrInvalidAccessTable, p.Modifier, p.Access)
		}
		if _, dup := t.toAccess[p.Modifier]; dup {
			return nil, fmt.Errorf("%w: modifier %s mapped twice", ErrInvalidAccessTable, p.Modifier)
		}
		if _, dup := t.toModifier[p.Access]; dup {
			return nil, fmt.Errorf("%w: access %s mapped twice", ErrInvalidAccessTable, p.Access)
		}
		t.toAccess[p.Modifier] = p.Access
		t.toModifier[p.Access] = p.Modifier
	}
	if _, ok := t.toAccess[dom.Private]; !ok {
		return nil, fmt.Errorf("%w: private is not mapped", ErrInvalidAccessTable)
	}
	return t, nil
}

func mustAccessTable(pairs ...AccessPair) *AccessTable {
	t, err := NewAccessTable(pairs...)
	if err != nil {
		panic(err)
	}
	return t
}

var defaultAccessTable = mustAccessTable(DefaultAccessPairs...)

// DefaultAccessTable returns the table built from DefaultAccessPairs.
func DefaultAccessTable() *AccessTable {
	return defaultAccessTable
}

// Equivalent reports whether a source modifier and a generated access level
// denote the same visibility.
func (t *AccessTable) Equivalent(m dom.Modifier, a model.Access) bool {
	if a == model.AccessUnspecified {
		return m == dom.Private
	}
	mapped, ok := t.toModifier[a]
	return ok && mapped == m
}

// Modifier returns the modifier an access level is declared with.
func (t *AccessTable) Modifier(a model.Access) dom.Modifier {
	if a == model.AccessUnspecified {
		return dom.Private
	}
	return t.toModifier[a]
}

// Access returns the access level a modifier is generated as.
func (t *AccessTable) Access(m dom.Modifier) model.Access {
	return t.toAccess[m]
}

// FieldChanged reports whether the declared field differs from the generated
// one in type or visibility.
func (t *AccessTable) FieldChanged(old *dom.Field, generated *model.Field) bool {
	if old.Type != generated.Type {
		return true
	}
	return !t.Equivalent(old.Modifier, generated.Access)
}
