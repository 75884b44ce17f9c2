// Package designer keeps a source file in step with the code model produced
// by a visual designer: the generated fields are declared, stale ones are
// removed, and the initialize method body is regenerated. All other text is
// left alone.
package designer

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/text"
)

const DefaultInitMethod = "InitializeComponent"

// Option configures a Generator.
type Option func(*Generator)

func WithRenamer(r Renamer) Option       { return func(g *Generator) { g.renamer = r } }
func WithWorkbench(w Workbench) Option   { return func(g *Generator) { g.workbench = w } }
func WithFileWriter(w FileWriter) Option { return func(g *Generator) { g.writer = w } }
func WithLogger(l *slog.Logger) Option   { return func(g *Generator) { g.log = l } }

func WithAccessTable(t *AccessTable) Option {
	return func(g *Generator) { g.access = t }
}

// WithRetainField keeps declared fields matching fn even when the model no
// longer lists them.
func WithRetainField(fn func(*dom.Field) bool) Option {
	return func(g *Generator) { g.retain = fn }
}

func WithInitMethod(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.initMethod = name
		}
	}
}

// Generator reconciles a designer view's source with generated models.
type Generator struct {
	parser     dom.Parser
	strategy   Strategy
	renamer    Renamer
	workbench  Workbench
	writer     FileWriter
	access     *AccessTable
	log        *slog.Logger
	initMethod string
	retain     func(*dom.Field) bool

	view                     View
	failedDesignerInitialize bool

	// Located by reparse; valid until the next call.
	class         *dom.Class // part in the view file
	completeClass *dom.Class
	formClass     *dom.Class // part declaring the init method
	init          *dom.Method
	document      *text.Document
	designerFile  string
	saveToFile    string // set when the designer file is not open anywhere
	indent        string
}

// Result describes what one MergeFormChanges pass did.
type Result struct {
	DesignerFile string
	Renamed      bool
	BodyReplaced bool
	Plan         *Plan
	Skipped      []Skip
}

// New returns a generator using parser and strategy.
func New(parser dom.Parser, strategy Strategy, opts ...Option) *Generator {
	g := &Generator{
		parser:     parser,
		strategy:   strategy,
		access:     DefaultAccessTable(),
		initMethod: DefaultInitMethod,
	}
	for _, fn := range opts {
		fn(g)
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	return g
}

func (g *Generator) Attach(v View) {
	g.view = v
}

func (g *Generator) Detach() {
	g.view = nil
}

// SetFailedDesignerInitialize marks the designer as unable to load, which
// turns InsertComponentEvent into a no-op.
func (g *Generator) SetFailedDesignerInitialize(failed bool) {
	g.failedDesignerInitialize = failed
}

// Reparse locates the class being designed, its init method and the
// document holding that method. It always parses the current text.
func (g *Generator) Reparse() error {
	if g.view == nil {
		return ErrNotAttached
	}
	g.saveToFile = ""
	g.init = nil

	viewFile := g.view.FileName()
	content := g.view.Document().Text()
	cu, err := g.parser.ParseFile(viewFile, []byte(content))
	if err != nil {
		return fmt.Errorf("parse %s: %w", viewFile, err)
	}

	for _, c := range cu.Classes {
		init := g.findInitMethod(c.Complete())
		if init == nil {
			continue
		}
		g.designerFile = init.FileName
		designerContent := content
		if init.FileName == viewFile {
			g.document = g.view.Document()
		} else {
			if err = g.loadDesignerDocument(init.FileName); err != nil {
				return err
			}
			designerContent = g.document.Text()
			dcu, perr := g.parser.ParseFile(init.FileName, []byte(designerContent))
			if perr != nil {
				return fmt.Errorf("parse %s: %w", init.FileName, perr)
			}
			dc := dcu.Class(c.Name)
			if dc == nil {
				continue
			}
			c = dc
			if init = g.findInitMethod(dc.Complete()); init == nil {
				continue
			}
		}
		if g.indent, err = g.document.LeadingWhitespace(init.Region.BeginLine); err != nil {
			return fmt.Errorf("%w: %s declaration: %v", ErrRegionInvalid, g.initMethod, err)
		}
		g.init = init
		g.class = cu.Class(c.Name)
		if g.class == nil {
			g.class = c
		}
		g.completeClass = c.Complete()
		g.formClass = g.partDeclaring(c, init)
		if err = g.strategy.Prepare(g.document, g.formClass); err != nil {
			return fmt.Errorf("prepare %s: %w", g.designerFile, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s in %s", ErrMethodNotFound, g.initMethod, viewFile)
}

func (g *Generator) findInitMethod(c *dom.Class) *dom.Method {
	for _, m := range c.Methods {
		if m.Name == g.initMethod && len(m.Parameters) == 0 {
			return m
		}
	}
	return nil
}

// partDeclaring returns the part of c declared in the init method's file.
func (g *Generator) partDeclaring(c *dom.Class, init *dom.Method) *dom.Class {
	if c.FileName == init.FileName {
		return c
	}
	return &dom.Class{Name: c.Name, FullName: c.FullName, FileName: init.FileName}
}

func (g *Generator) loadDesignerDocument(fileName string) error {
	if g.workbench != nil {
		if doc, ok := g.workbench.OpenDocument(fileName); ok {
			g.document = doc
			return nil
		}
	}
	content, err := g.parser.ParseableFileContent(fileName)
	if err != nil {
		return fmt.Errorf("load %s: %w", fileName, err)
	}
	g.document = text.NewDocument(string(content))
	g.saveToFile = fileName
	return nil
}

// saveDocument writes off-buffer documents back to disk.
func (g *Generator) saveDocument() error {
	if g.saveToFile == "" {
		return nil
	}
	if g.writer == nil {
		return &SaveError{File: g.saveToFile, Err: errors.New("no file writer configured")}
	}
	if err := g.writer.WriteFile(g.saveToFile, []byte(g.document.Text())); err != nil {
		return &SaveError{File: g.saveToFile, Err: err}
	}
	g.log.With("file", g.saveToFile).Debug("saved designer file")
	return nil
}

// MergeFormChanges applies the generated model to the source.
func (g *Generator) MergeFormChanges(unit *model.Unit) (*Result, error) {
	if err := g.Reparse(); err != nil {
		return nil, err
	}

	formType, initMethod, err := unit.InitializeMethod(g.initMethod)
	if err != nil {
		return nil, err
	}

	res := &Result{DesignerFile: g.designerFile}

	if formType.Name != g.formClass.Name {
		if err = g.renameClass(formType.Name); err != nil {
			return nil, err
		}
		res.Renamed = true
	}

	if err = g.replaceInitBody(initMethod); err != nil {
		return res, err
	}
	res.BodyReplaced = true
	if err = g.saveDocument(); err != nil {
		return res, err
	}

	generated := formType.Fields()
	res.Plan = BuildPlan(g.completeClass, generated, g.access)
	if g.retain != nil {
		kept := res.Plan.Remove[:0]
		for _, f := range res.Plan.Remove {
			if !g.retain(f) {
				kept = append(kept, f)
			}
		}
		res.Plan.Remove = kept
	}
	if err = g.applyPlan(res, generated); err != nil {
		return res, err
	}

	g.parser.EnqueueForParsing(g.designerFile, []byte(g.document.Text()))
	return res, nil
}

// renameClass renames the form class in every document holding a part of
// it, then locates it again. All documents are restored if a step fails.
func (g *Generator) renameClass(newName string) error {
	if g.renamer == nil {
		return fmt.Errorf("%w: no renamer configured", ErrRenameFailed)
	}
	oldName := g.formClass.Name
	g.log.With("from", oldName, "to", newName).Info("renaming form")

	docs, err := g.partDocuments()
	if err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrRenameFailed, oldName, newName, err)
	}
	files := make([]string, 0, len(docs))
	before := make(map[string]string, len(docs))
	for name, doc := range docs {
		files = append(files, name)
		before[name] = doc.Text()
	}
	sort.Strings(files)

	saveTo, designerDoc := g.saveToFile, g.document
	restore := func() {
		for _, name := range files {
			docs[name].SetText(before[name])
			g.parser.EnqueueForParsing(name, []byte(before[name]))
		}
		if saveTo != "" && g.writer != nil {
			if err := g.writer.WriteFile(saveTo, []byte(designerDoc.Text())); err != nil {
				g.log.With("file", saveTo, "error", err).Error("restoring designer file failed")
			}
		}
	}

	for _, name := range files {
		part := &dom.Class{Name: oldName, FullName: g.formClass.FullName, FileName: name}
		if err = g.renamer.RenameClass(docs[name], part, newName); err != nil {
			restore()
			return fmt.Errorf("%w: %s to %s in %s: %w", ErrRenameFailed, oldName, newName, name, err)
		}
	}
	// the parser must not see the old text of the other parts
	for _, name := range files {
		g.parser.EnqueueForParsing(name, []byte(docs[name].Text()))
	}
	if err = g.saveDocument(); err != nil {
		restore()
		return err
	}
	if err = g.Reparse(); err != nil {
		restore()
		return fmt.Errorf("%w: %w", ErrRenameFailed, err)
	}
	if g.formClass.Name != newName {
		restore()
		return fmt.Errorf("%w: %s is still declared as %s", ErrRenameFailed, newName, g.formClass.Name)
	}
	return nil
}

// partDocuments returns the documents of the files holding a part of the
// form class. A part in a file that is neither open nor the designer file
// cannot be edited.
func (g *Generator) partDocuments() (map[string]*text.Document, error) {
	files := map[string]struct{}{g.designerFile: {}}
	if g.completeClass.FileName != "" {
		files[g.completeClass.FileName] = struct{}{}
	}
	for _, m := range g.completeClass.Methods {
		files[m.FileName] = struct{}{}
	}

	docs := make(map[string]*text.Document, len(files))
	for name := range files {
		switch {
		case name == g.designerFile:
			docs[name] = g.document
		case name == g.view.FileName():
			docs[name] = g.view.Document()
		default:
			var ok bool
			if g.workbench != nil {
				docs[name], ok = g.workbench.OpenDocument(name)
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s is not open", ErrNonEditablePart, name)
			}
		}
	}
	return docs, nil
}

func (g *Generator) replaceInitBody(m *model.Method) error {
	body, err := g.strategy.RenderBody(m, g.indent)
	if err != nil {
		return fmt.Errorf("render %s: %w", m.Name, err)
	}
	region, err := g.strategy.ReplaceRegion(g.document, g.init)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRegionInvalid, g.init.Name, err)
	}
	if region.BeginColumn <= 0 || region.EndColumn <= 0 {
		return &RegionError{Method: g.init.Name, Region: region}
	}
	start, err := g.document.Offset(text.Position{Line: region.BeginLine, Column: region.BeginColumn})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	end, err := g.document.Offset(text.Position{Line: region.EndLine, Column: region.EndColumn})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	if end < start {
		return &RegionError{Method: g.init.Name, Region: region}
	}
	return g.document.Replace(start, end-start, body)
}

func (g *Generator) applyPlan(res *Result, generated []*model.Field) error {
	plan := res.Plan
	for _, r := range plan.Replace {
		if err := g.addOrReplaceField(res, r.New); err != nil {
			return err
		}
	}
	for _, f := range plan.Add {
		if err := g.addOrReplaceField(res, f); err != nil {
			return err
		}
	}
	for _, f := range plan.Remove {
		if err := g.removeField(res, f.Name); err != nil {
			return err
		}
	}
	return g.restoreLostFields(res, generated)
}

// restoreLostFields declares generated fields that disappeared while
// editing, e.g. a name that shared one declaration line with an edited
// field.
func (g *Generator) restoreLostFields(res *Result, generated []*model.Field) error {
	if res.Plan.Empty() {
		return nil
	}
	if err := g.Reparse(); err != nil {
		return err
	}
	for _, f := range generated {
		if g.completeClass.Field(f.Name) != nil || skipped(res, f.Name) {
			continue
		}
		g.log.With("field", f.Name).Debug("restoring field declaration")
		if err := g.addOrReplaceField(res, f); err != nil {
			return err
		}
	}
	return nil
}

func skipped(res *Result, name string) bool {
	for _, s := range res.Skipped {
		if s.Field == name {
			return true
		}
	}
	return false
}

func (g *Generator) skip(res *Result, name string, op Op, err error) {
	g.log.With("field", name, "op", op, "error", err).Warn("field edit skipped")
	res.Skipped = append(res.Skipped, Skip{Field: name, Op: op, Err: err})
}

// lineSpan returns the offsets covering whole lines begin..end.
func (g *Generator) lineSpan(r dom.Region) (int, int, error) {
	start, err := g.document.LineOffset(r.BeginLine)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	end, err := g.document.LineOffset(r.EndLine + 1)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	return start, end, nil
}

// columnSpan returns the offsets of exactly r; EndColumn is the last
// character.
func (g *Generator) columnSpan(r dom.Region) (int, int, error) {
	start, err := g.document.Offset(text.Position{Line: r.BeginLine, Column: r.BeginColumn})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	end, err := g.document.Offset(text.Position{Line: r.EndLine, Column: r.EndColumn})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: field region %s", ErrRegionInvalid, r)
	}
	return start, end + 1, nil
}

// withSeparator widens start..end over one ';' separating the declaration
// from its neighbour on the same line, and the blanks around it.
func withSeparator(src string, start, end int) (int, int) {
	i := end
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i < len(src) && src[i] == ';' {
		i++
		for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
			i++
		}
		return start, i
	}
	j := start
	for j > 0 && (src[j-1] == ' ' || src[j-1] == '\t') {
		j--
	}
	if j > 0 && src[j-1] == ';' {
		return j - 1, end
	}
	return start, end
}

// sharesLine reports whether the declaration of f shares a line with the
// braces of the class or with another declaration.
func (g *Generator) sharesLine(f *dom.Field) bool {
	r := f.Region
	bounds := g.formClass.BodyRegion
	if bounds.IsEmpty() {
		bounds = g.formClass.Region
	}
	if !bounds.IsEmpty() && (r.BeginLine <= bounds.BeginLine || r.EndLine >= bounds.EndLine) {
		return true
	}
	for _, o := range g.formClass.Fields {
		if o.Region == r {
			continue
		}
		if o.Region.BeginLine <= r.EndLine && o.Region.EndLine >= r.BeginLine {
			return true
		}
	}
	return false
}

// declaresOthers reports whether the declaration of f also declares other
// names.
func (g *Generator) declaresOthers(f *dom.Field) bool {
	for _, o := range g.formClass.Fields {
		if o.Name != f.Name && o.Region == f.Region {
			return true
		}
	}
	return false
}

// inlineEdit checks that f can be edited in place on a shared line: its
// declaration is on one line and declares nothing else.
func (g *Generator) inlineEdit(f *dom.Field) error {
	if f.Region.BeginLine != f.Region.EndLine {
		return fmt.Errorf("%w: %s spans lines %d-%d shared with other declarations", ErrNonEditablePart, f.Name, f.Region.BeginLine, f.Region.EndLine)
	}
	if g.declaresOthers(f) {
		return fmt.Errorf("%w: %s is declared together with other fields on a shared line", ErrNonEditablePart, f.Name)
	}
	return nil
}

// addOrReplaceField declares f, replacing a same-named declaration in the
// editable part.
func (g *Generator) addOrReplaceField(res *Result, f *model.Field) error {
	if err := g.Reparse(); err != nil {
		return err
	}
	line, err := g.strategy.RenderField(f, g.indent)
	if err != nil {
		return fmt.Errorf("render field %s: %w", f.Name, err)
	}

	if old := g.formClass.Field(f.Name); old != nil {
		if g.sharesLine(old) {
			return g.replaceInline(res, old, f, line)
		}
		start, end, err := g.lineSpan(old.Region)
		if err != nil {
			return err
		}
		g.log.With("field", f.Name).Info("replace field declaration")
		if err = g.document.Replace(start, end-start, line+"\n"); err != nil {
			return err
		}
		return g.saveDocument()
	}
	if old := g.completeClass.Field(f.Name); old != nil {
		g.skip(res, f.Name, OpReplace, fmt.Errorf("%w: %s", ErrNonEditablePart, old.FileName))
		return nil
	}

	at := g.strategy.FieldInsertionLine(g.formClass, g.init)
	if at <= 0 {
		g.skip(res, f.Name, OpAdd, fmt.Errorf("%w: no field insertion point in %s", ErrNonEditablePart, g.designerFile))
		return nil
	}
	offset, err := g.document.LineOffset(at)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegionInvalid, err)
	}
	line += "\n"
	if offset == g.document.Len() && offset > 0 && g.document.Text()[offset-1] != '\n' {
		line = "\n" + line
	}
	g.log.With("field", f.Name).Info("add field declaration")
	if err = g.document.Insert(offset, line); err != nil {
		return err
	}
	return g.saveDocument()
}

// replaceInline rewrites a declaration sharing its line in place. A line
// comment would swallow the rest of the line, so such fields are skipped.
func (g *Generator) replaceInline(res *Result, old *dom.Field, f *model.Field, line string) error {
	err := g.inlineEdit(old)
	if err == nil && f.Comment != "" {
		err = fmt.Errorf("%w: %s has a line comment and shares its line", ErrNonEditablePart, f.Name)
	}
	if err != nil {
		g.skip(res, f.Name, OpReplace, err)
		return nil
	}
	start, end, err := g.columnSpan(old.Region)
	if err != nil {
		return err
	}
	g.log.With("field", f.Name).Info("replace field declaration in place")
	if err = g.document.Replace(start, end-start, strings.TrimLeft(line, " \t")); err != nil {
		return err
	}
	return g.saveDocument()
}

// removeField deletes the declaration of name from the editable part.
func (g *Generator) removeField(res *Result, name string) error {
	if err := g.Reparse(); err != nil {
		return err
	}
	old := g.formClass.Field(name)
	if old == nil {
		if old = g.completeClass.Field(name); old != nil {
			g.skip(res, name, OpRemove, fmt.Errorf("%w: %s", ErrNonEditablePart, old.FileName))
		}
		return nil
	}

	var start, end int
	var err error
	if g.sharesLine(old) {
		if err = g.inlineEdit(old); err != nil {
			g.skip(res, name, OpRemove, err)
			return nil
		}
		if start, end, err = g.columnSpan(old.Region); err != nil {
			return err
		}
		start, end = withSeparator(g.document.Text(), start, end)
	} else if start, end, err = g.lineSpan(old.Region); err != nil {
		return err
	}
	g.log.With("field", name).Info("remove field declaration")
	if err = g.document.Remove(start, end-start); err != nil {
		return err
	}
	return g.saveDocument()
}
