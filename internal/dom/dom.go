// Package dom describes source code as the parser sees it: classes split
// into per-file parts, their fields and methods, and the text regions they
// occupy.
package dom

import "fmt"

// Region is a 1-based span of source text. Columns are inclusive at the
// beginning and point at the closing token at the end.
type Region struct {
	BeginLine   int
	BeginColumn int
	EndLine     int
	EndColumn   int
}

func (r Region) IsEmpty() bool {
	return r.BeginLine <= 0 && r.EndLine <= 0
}

func (r Region) String() string {
	return fmt.Sprintf("[%d:%d-%d:%d]", r.BeginLine, r.BeginColumn, r.EndLine, r.EndColumn)
}

// Modifier is the visibility of a declared member.
type Modifier int

const (
	ModifierNone Modifier = iota
	Private
	Protected
	ProtectedInternal
	Internal
	Public
)

func (m Modifier) String() string {
	switch m {
	case Private:
		return "private"
	case Protected:
		return "protected"
	case ProtectedInternal:
		return "protected internal"
	case Internal:
		return "internal"
	case Public:
		return "public"
	default:
		return "none"
	}
}

// Field is a field declaration found in source.
type Field struct {
	Name     string
	Type     string // fully qualified
	Modifier Modifier
	Tag      string // raw struct tag, if the language has them
	Comment  string // trailing line comment
	Region   Region
	FileName string
}

type Parameter struct {
	Name string
	Type string // fully qualified
}

type Method struct {
	Name       string
	Parameters []Parameter
	Region     Region
	BodyRegion Region
	FileName   string
}

// Class is the part of a class declared in a single file. Complete returns
// the view merged over every part.
type Class struct {
	Name       string
	FullName   string
	FileName   string
	Region     Region
	BodyRegion Region
	Fields     []*Field
	Methods    []*Method

	complete *Class
}

// Complete returns the merged class, or c itself when c is not partial.
func (c *Class) Complete() *Class {
	if c.complete == nil {
		return c
	}
	return c.complete
}

// SetComplete links a part to its merged class.
func (c *Class) SetComplete(complete *Class) {
	if complete == c {
		complete = nil
	}
	c.complete = complete
}

// Field returns the field called name, or nil.
func (c *Class) Field(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first method called name, or nil.
func (c *Class) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

type CompilationUnit struct {
	FileName string
	Classes  []*Class
}

// Class returns the class part called name, or nil.
func (u *CompilationUnit) Class(name string) *Class {
	if u == nil {
		return nil
	}
	for _, c := range u.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Parser is the source parser service.
type Parser interface {
	// ParseFile parses content as the current text of fileName.
	ParseFile(fileName string, content []byte) (*CompilationUnit, error)
	// EnqueueForParsing registers updated content; nothing waits for it.
	EnqueueForParsing(fileName string, content []byte)
	// ParseableFileContent returns the text of a file that is not open.
	ParseableFileContent(fileName string) ([]byte, error)
}
