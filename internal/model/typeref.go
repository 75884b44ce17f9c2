package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTypeName = errors.New("invalid type name")

type Kind int

const (
	KindInvalid Kind = iota
	KindNamed        // string, example.com/ui.Button
	KindPointer      // *T
	KindSlice        // []T
	KindArray        // [N]T
	KindMap          // map[K]V
	KindRaw          // anything kept verbatim: func, chan, generics
)

// TypeRef is a structured fully qualified type name. Named types carry the
// import path of their package; predeclared types have none.
type TypeRef struct {
	Kind    Kind
	PkgPath string
	Name    string // named: type name; array: length; raw: expression
	Key     *TypeRef
	Elem    *TypeRef
}

// ParseTypeRef parses the textual form produced by String.
func ParseTypeRef(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTypeName)
	}
	switch {
	case strings.HasPrefix(s, "*"):
		elem, err := ParseTypeRef(s[1:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindPointer, Elem: elem}, nil

	case strings.HasPrefix(s, "[]"):
		elem, err := ParseTypeRef(s[2:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindSlice, Elem: elem}, nil

	case strings.HasPrefix(s, "["):
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
		}
		elem, err := ParseTypeRef(s[end+1:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindArray, Name: s[1:end], Elem: elem}, nil

	case strings.HasPrefix(s, "map["):
		end := matchingBracket(s, len("map"))
		if end < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTypeName, s)
		}
		key, err := ParseTypeRef(s[len("map["):end])
		if err != nil {
			return nil, err
		}
		elem, err := ParseTypeRef(s[end+1:])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindMap, Key: key, Elem: elem}, nil

	case strings.ContainsAny(s, "[]{}() "):
		return &TypeRef{Kind: KindRaw, Name: s}, nil
	}

	slash := strings.LastIndexByte(s, '/')
	dot := strings.LastIndexByte(s, '.')
	if dot <= slash {
		if slash >= 0 {
			return nil, fmt.Errorf("%w: %q has no type name", ErrInvalidTypeName, s)
		}
		return &TypeRef{Kind: KindNamed, Name: s}, nil
	}
	return &TypeRef{Kind: KindNamed, PkgPath: s[:dot], Name: s[dot+1:]}, nil
}

// matchingBracket returns the index of the ']' closing the '[' at open.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindNamed:
		if t.PkgPath == "" {
			return t.Name
		}
		return t.PkgPath + "." + t.Name
	case KindPointer:
		return "*" + t.Elem.String()
	case KindSlice:
		return "[]" + t.Elem.String()
	case KindArray:
		return "[" + t.Name + "]" + t.Elem.String()
	case KindMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case KindRaw:
		return t.Name
	default:
		return "INVALID"
	}
}

// Packages returns the import paths referenced by t.
func (t *TypeRef) Packages() []string {
	var out []string
	var walk func(*TypeRef)
	walk = func(r *TypeRef) {
		if r == nil {
			return
		}
		if r.PkgPath != "" {
			out = append(out, r.PkgPath)
		}
		walk(r.Key)
		walk(r.Elem)
	}
	walk(t)
	return out
}
