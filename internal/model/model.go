package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInitMethodMissing   = errors.New("initialize method not found in generated model")
	ErrInitMethodAmbiguous = errors.New("initialize method declared more than once in generated model")
	ErrUnknownAccess       = errors.New("unknown access")
)

// Access is the access level of a generated member. Unspecified is what the
// generator emits when it leaves the default in place.
type Access int

const (
	AccessUnspecified Access = iota
	AccessPrivate
	AccessFamily           // protected
	AccessFamilyOrAssembly // protected internal
	AccessAssembly         // internal
	AccessPublic
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessFamily:
		return "protected"
	case AccessFamilyOrAssembly:
		return "protected-internal"
	case AccessAssembly:
		return "internal"
	case AccessPublic:
		return "public"
	default:
		return ""
	}
}

// ParseAccess reads the textual form used in model files.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AccessUnspecified, nil
	case "private":
		return AccessPrivate, nil
	case "protected", "family":
		return AccessFamily, nil
	case "protected-internal", "protected internal", "familyorassembly":
		return AccessFamilyOrAssembly, nil
	case "internal", "assembly":
		return AccessAssembly, nil
	case "public":
		return AccessPublic, nil
	}
	return AccessUnspecified, fmt.Errorf("%w: %q", ErrUnknownAccess, s)
}

// Member is a field or method of a generated type.
type Member interface {
	MemberName() string
}

type Field struct {
	Name    string
	Type    string // fully qualified, e.g. "*example.com/ui.Button"
	Access  Access
	Tag     string // raw struct tag without backquotes
	Comment string
}

func (f *Field) MemberName() string { return f.Name }

type Parameter struct {
	Name string
	Type string
}

type Method struct {
	Name       string
	Parameters []Parameter
	Statements []string
}

func (m *Method) MemberName() string { return m.Name }

// Type is a generated type with its members in generator order.
type Type struct {
	Name    string
	Members []Member
}

// Fields returns the field members in order.
func (t *Type) Fields() []*Field {
	out := make([]*Field, 0, len(t.Members))
	for _, m := range t.Members {
		if f, ok := m.(*Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the field called name, or nil.
func (t *Type) Field(name string) *Field {
	for _, m := range t.Members {
		if f, ok := m.(*Field); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// Unit is everything the generator produced in one run.
type Unit struct {
	Package string
	Types   []*Type
}

// InitializeMethod locates the single type declaring the method called name.
func (u *Unit) InitializeMethod(name string) (*Type, *Method, error) {
	var (
		owner  *Type
		method *Method
	)
	for _, t := range u.Types {
		for _, m := range t.Members {
			mm, ok := m.(*Method)
			if !ok || mm.Name != name {
				continue
			}
			if method != nil {
				return nil, nil, fmt.Errorf("%w: %s", ErrInitMethodAmbiguous, name)
			}
			owner, method = t, mm
		}
	}
	if method == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInitMethodMissing, name)
	}
	return owner, method, nil
}
