package designer

import (
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/text"
)

// EventHandler describes a handler method to create for a component event.
type EventHandler struct {
	Name       string
	Class      string
	Parameters []model.Parameter
	Body       []string
}

// Strategy renders code for one target language and decides where it goes.
type Strategy interface {
	// Prepare is called after every parse with the document holding the
	// init method and the class part declared in it.
	Prepare(doc *text.Document, form *dom.Class) error
	// ReplaceRegion returns the span of the init method body that is
	// replaced on every pass.
	ReplaceRegion(doc *text.Document, init *dom.Method) (dom.Region, error)
	// RenderBody renders the statements of the init method. indent is the
	// indentation of the method declaration.
	RenderBody(m *model.Method, indent string) (string, error)
	// RenderField renders one complete declaration line without the line
	// terminator.
	RenderField(f *model.Field, indent string) (string, error)
	// RenderEventHandler renders a handler method.
	RenderEventHandler(h EventHandler, indent string) (string, error)
	// FieldInsertionLine is the line new field declarations are inserted
	// before; 0 means the class has no place for them.
	FieldInsertionLine(form *dom.Class, init *dom.Method) int
	// EventHandlerInsertionLine is the line handlers are inserted before.
	EventHandlerInsertionLine(c *dom.Class) int
}

// BaseStrategy supplies the default insertion points: fields right after
// the init method body, handlers before the last line of the class.
type BaseStrategy struct{}

func (BaseStrategy) Prepare(*text.Document, *dom.Class) error { return nil }

func (BaseStrategy) FieldInsertionLine(_ *dom.Class, init *dom.Method) int {
	return init.BodyRegion.EndLine + 1
}

func (BaseStrategy) EventHandlerInsertionLine(c *dom.Class) int {
	return c.Region.EndLine
}

// Renamer renames a class declaration and its references.
type Renamer interface {
	RenameClass(doc *text.Document, class *dom.Class, newName string) error
}

// Workbench exposes the documents currently open in the host.
type Workbench interface {
	OpenDocument(fileName string) (*text.Document, bool)
}

// FileWriter overwrites a file completely or not at all.
type FileWriter interface {
	WriteFile(fileName string, data []byte) error
}

// View is the designer surface the generator is attached to.
type View interface {
	FileName() string
	Document() *text.Document
	// MergeFormChanges flushes pending designer changes into the source.
	MergeFormChanges() error
}
