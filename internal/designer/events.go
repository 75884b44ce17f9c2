package designer

import (
	"fmt"
	"strings"
)

// EventSignature is the parameter list of an event delegate's invoke method,
// as fully qualified type names.
type EventSignature struct {
	Parameters []string
}

// CompatibleMethods lists the methods of the designed class whose parameters
// match sig exactly.
func (g *Generator) CompatibleMethods(sig EventSignature) ([]string, error) {
	if err := g.Reparse(); err != nil {
		return nil, err
	}
	var out []string
	for _, m := range g.completeClass.Methods {
		if len(m.Parameters) != len(sig.Parameters) {
			continue
		}
		found := true
		for i, p := range m.Parameters {
			if p.Type != sig.Parameters[i] {
				found = false
				break
			}
		}
		if found {
			out = append(out, m.Name)
		}
	}
	return out, nil
}

// CompatibleHandlerMethods lists the (sender, args) methods whose second
// parameter is the argument type belonging to handlerType, for example
// "ui.ClickEventHandler" pairs with "ui.ClickEventArgs".
func (g *Generator) CompatibleHandlerMethods(handlerType string) ([]string, error) {
	if err := g.Reparse(); err != nil {
		return nil, err
	}
	argsType := strings.ReplaceAll(handlerType, "EventHandler", "EventArgs")
	var out []string
	for _, m := range g.completeClass.Methods {
		if len(m.Parameters) == 2 && m.Parameters[1].Type == argsType {
			out = append(out, m.Name)
		}
	}
	return out, nil
}

// InsertComponentEvent makes sure a handler called h.Name exists. When it
// already does, its file and first body line are returned with existed set.
// Otherwise pending designer changes are merged, the handler is inserted into
// the view document and the line after the class is returned.
func (g *Generator) InsertComponentEvent(h EventHandler) (file string, line int, existed bool, err error) {
	if g.failedDesignerInitialize {
		switch {
		case g.class != nil:
			file = g.class.FileName
		case g.view != nil:
			file = g.view.FileName()
		}
		return file, 0, false, nil
	}

	if err = g.Reparse(); err != nil {
		return "", 0, false, err
	}
	for _, m := range g.completeClass.Methods {
		if m.Name == h.Name {
			return m.FileName, m.Region.BeginLine + 1, true, nil
		}
	}

	if err = g.view.MergeFormChanges(); err != nil {
		return "", 0, false, fmt.Errorf("merge form changes: %w", err)
	}
	if err = g.Reparse(); err != nil {
		return "", 0, false, err
	}

	c := g.class
	if h.Class == "" {
		h.Class = c.Name
	}
	code, err := g.strategy.RenderEventHandler(h, g.indent)
	if err != nil {
		return "", 0, false, fmt.Errorf("render handler %s: %w", h.Name, err)
	}
	doc := g.view.Document()
	offset, err := doc.LineOffset(g.strategy.EventHandlerInsertionLine(c))
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	if err = doc.Insert(offset, code); err != nil {
		return "", 0, false, err
	}
	g.log.With("handler", h.Name, "file", c.FileName).Info("inserted event handler")
	return c.FileName, c.Region.EndLine + 1, false, nil
}
