package designer

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/internal/text"
)

// The fixture language is a small brace-delimited class syntax where fields
// and methods live in the same class body:
//
//	partial class Form1 {
//		protected ui.Button _btn;
//		void InitializeComponent() {
//			_btn = new ui.Button();
//		}
//	}
var (
	fixtureClassRe  = regexp.MustCompile(`^(\s*)(?:partial\s+)?class\s+(\w+)\s*\{\s*$`)
	fixtureFieldRe  = regexp.MustCompile(`^\s*(?:(private|protected internal|protected|internal|public)\s+)?([\w.\[\]*]+)\s+(\w+)\s*;\s*$`)
	fixtureMethodRe = regexp.MustCompile(`^(\s*)(?:\w+\s+)*void\s+(\w+)\s*\(([^)]*)\)\s*\{\s*$`)
)

var fixtureModifiers = map[string]dom.Modifier{
	"":                   dom.Private,
	"private":            dom.Private,
	"protected":          dom.Protected,
	"protected internal": dom.ProtectedInternal,
	"internal":           dom.Internal,
	"public":             dom.Public,
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func parseFixtureParams(s string) []dom.Parameter {
	var out []dom.Parameter
	for _, p := range strings.Split(s, ",") {
		parts := strings.Fields(p)
		if len(parts) < 2 {
			continue
		}
		out = append(out, dom.Parameter{
			Name: parts[len(parts)-1],
			Type: strings.Join(parts[:len(parts)-1], " "),
		})
	}
	return out
}

func parseFixture(file, content string) []*dom.Class {
	var (
		classes    []*dom.Class
		cur        *dom.Class
		curIndent  string
		meth       *dom.Method
		methIndent string
	)
	for i, line := range strings.Split(content, "\n") {
		n := i + 1
		switch {
		case meth != nil:
			if strings.TrimSpace(line) == "}" && indentOf(line) == methIndent {
				meth.Region.EndLine, meth.Region.EndColumn = n, len(methIndent)+1
				meth.BodyRegion.EndLine, meth.BodyRegion.EndColumn = n, len(methIndent)+1
				meth = nil
			}
		case cur == nil:
			if m := fixtureClassRe.FindStringSubmatch(line); m != nil {
				cur = &dom.Class{
					Name:     m[2],
					FullName: "fixture." + m[2],
					FileName: file,
					Region:   dom.Region{BeginLine: n, BeginColumn: len(m[1]) + 1},
				}
				curIndent = m[1]
			}
		case strings.TrimSpace(line) == "}" && indentOf(line) == curIndent:
			cur.Region.EndLine, cur.Region.EndColumn = n, len(curIndent)+1
			classes = append(classes, cur)
			cur = nil
		default:
			if m := fixtureMethodRe.FindStringSubmatch(line); m != nil {
				meth = &dom.Method{
					Name:       m[2],
					Parameters: parseFixtureParams(m[3]),
					FileName:   file,
					Region:     dom.Region{BeginLine: n, BeginColumn: len(m[1]) + 1},
					BodyRegion: dom.Region{BeginLine: n, BeginColumn: strings.LastIndex(line, "{") + 1},
				}
				methIndent = m[1]
				cur.Methods = append(cur.Methods, meth)
			} else if m := fixtureFieldRe.FindStringSubmatch(line); m != nil {
				cur.Fields = append(cur.Fields, &dom.Field{
					Name:     m[3],
					Type:     m[2],
					Modifier: fixtureModifiers[m[1]],
					FileName: file,
					Region: dom.Region{
						BeginLine: n, BeginColumn: len(indentOf(line)) + 1,
						EndLine: n, EndColumn: len(line),
					},
				})
			}
		}
	}
	return classes
}

type fixtureParser struct {
	disk     map[string]string
	live     map[string]string
	enqueued map[string]string
}

func newFixtureParser(disk map[string]string) *fixtureParser {
	return &fixtureParser{disk: disk, live: map[string]string{}, enqueued: map[string]string{}}
}

func (p *fixtureParser) ParseFile(fileName string, content []byte) (*dom.CompilationUnit, error) {
	p.live[fileName] = string(content)
	all := map[string]string{}
	for k, v := range p.disk {
		all[k] = v
	}
	for k, v := range p.live {
		all[k] = v
	}
	files := make([]string, 0, len(all))
	for k := range all {
		files = append(files, k)
	}
	sort.Strings(files)

	byFile := map[string][]*dom.Class{}
	parts := map[string][]*dom.Class{}
	for _, f := range files {
		for _, c := range parseFixture(f, all[f]) {
			byFile[f] = append(byFile[f], c)
			parts[c.Name] = append(parts[c.Name], c)
		}
	}
	for name, ps := range parts {
		if len(ps) < 2 {
			continue
		}
		complete := &dom.Class{Name: name, FullName: ps[0].FullName, FileName: ps[0].FileName, Region: ps[0].Region}
		for _, part := range ps {
			complete.Fields = append(complete.Fields, part.Fields...)
			complete.Methods = append(complete.Methods, part.Methods...)
		}
		for _, part := range ps {
			part.SetComplete(complete)
		}
	}
	return &dom.CompilationUnit{FileName: fileName, Classes: byFile[fileName]}, nil
}

// EnqueueForParsing makes content the text later parses see for fileName.
func (p *fixtureParser) EnqueueForParsing(fileName string, content []byte) {
	p.enqueued[fileName] = string(content)
	p.live[fileName] = string(content)
}

func (p *fixtureParser) ParseableFileContent(fileName string) ([]byte, error) {
	c, ok := p.disk[fileName]
	if !ok {
		return nil, errors.New("no such file: " + fileName)
	}
	return []byte(c), nil
}

type fixtureStrategy struct {
	BaseStrategy
	access    *AccessTable
	badRegion bool
}

func (s *fixtureStrategy) ReplaceRegion(_ *text.Document, init *dom.Method) (dom.Region, error) {
	r := dom.Region{
		BeginLine: init.BodyRegion.BeginLine + 1, BeginColumn: 1,
		EndLine: init.BodyRegion.EndLine, EndColumn: 1,
	}
	if s.badRegion {
		r.BeginColumn = 0
	}
	return r, nil
}

func (s *fixtureStrategy) RenderBody(m *model.Method, indent string) (string, error) {
	var b strings.Builder
	for _, st := range m.Statements {
		b.WriteString(indent + "\t" + st + "\n")
	}
	return b.String(), nil
}

func (s *fixtureStrategy) RenderField(f *model.Field, indent string) (string, error) {
	mod := ""
	if f.Access != model.AccessUnspecified {
		mod = s.access.Modifier(f.Access).String() + " "
	}
	return indent + mod + f.Type + " " + f.Name + ";", nil
}

func (s *fixtureStrategy) RenderEventHandler(h EventHandler, indent string) (string, error) {
	params := make([]string, len(h.Parameters))
	for i, p := range h.Parameters {
		params[i] = p.Type + " " + p.Name
	}
	var b strings.Builder
	b.WriteString(indent + "void " + h.Name + "(" + strings.Join(params, ", ") + ") {\n")
	for _, st := range h.Body {
		b.WriteString(indent + "\t" + st + "\n")
	}
	b.WriteString(indent + "}\n")
	return b.String(), nil
}

type fixtureView struct {
	file     string
	doc      *text.Document
	merges   int
	mergeErr error
}

func (v *fixtureView) FileName() string         { return v.file }
func (v *fixtureView) Document() *text.Document { return v.doc }
func (v *fixtureView) MergeFormChanges() error {
	v.merges++
	return v.mergeErr
}

type fixtureWorkbench map[string]*text.Document

func (w fixtureWorkbench) OpenDocument(fileName string) (*text.Document, bool) {
	d, ok := w[fileName]
	return d, ok
}

type fixtureWriter struct {
	parser *fixtureParser
	err    error
	writes map[string]int
}

func (w *fixtureWriter) WriteFile(fileName string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.parser.disk[fileName] = string(data)
	w.writes[fileName]++
	return nil
}

type fixtureRenamer struct {
	seen   []string
	files  []string
	err    error
	failOn string
}

func (r *fixtureRenamer) RenameClass(doc *text.Document, class *dom.Class, newName string) error {
	r.seen = append(r.seen, doc.Text())
	r.files = append(r.files, class.FileName)
	if r.err != nil && (r.failOn == "" || r.failOn == class.FileName) {
		doc.SetText(doc.Text() + "half-renamed")
		return r.err
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(class.Name) + `\b`)
	doc.SetText(re.ReplaceAllString(doc.Text(), newName))
	return nil
}

type fixture struct {
	parser    *fixtureParser
	strategy  *fixtureStrategy
	view      *fixtureView
	writer    *fixtureWriter
	renamer   *fixtureRenamer
	workbench fixtureWorkbench
	gen       *Generator
}

// newFixture opens viewFile from files; the other files stay on disk.
func newFixture(t *testing.T, viewFile string, files map[string]string) *fixture {
	t.Helper()
	disk := map[string]string{}
	for k, v := range files {
		if k != viewFile {
			disk[k] = v
		}
	}
	f := &fixture{
		parser:    newFixtureParser(disk),
		strategy:  &fixtureStrategy{access: DefaultAccessTable()},
		view:      &fixtureView{file: viewFile, doc: text.NewDocument(files[viewFile])},
		renamer:   &fixtureRenamer{},
		workbench: fixtureWorkbench{},
	}
	f.writer = &fixtureWriter{parser: f.parser, writes: map[string]int{}}
	f.gen = New(f.parser, f.strategy,
		WithRenamer(f.renamer),
		WithWorkbench(f.workbench),
		WithFileWriter(f.writer),
	)
	f.gen.Attach(f.view)
	return f
}

func formUnit(name string, statements []string, fields ...*model.Field) *model.Unit {
	members := make([]model.Member, 0, len(fields)+1)
	for _, f := range fields {
		members = append(members, f)
	}
	members = append(members, &model.Method{Name: DefaultInitMethod, Statements: statements})
	return &model.Unit{Types: []*model.Type{{Name: name, Members: members}}}
}
