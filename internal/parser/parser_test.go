package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/pkgname"
)

const formSource = `package ui

import "example.com/widgets"

type base struct {
	Title string
}

type Form1 struct {
	base
	// btn is the OK button.
	btn        *widgets.Button
	Name, Text string
}

func (f *Form1) OnClick(sender any, e widgets.ClickEventArgs) {
}
`

const designerSource = `package ui

import "example.com/widgets"

func (f *Form1) InitializeComponent() {
	f.btn = widgets.NewButton()
}
`

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestParseFile(ttt *testing.T) {
	fs := newFs(ttt, map[string]string{
		"/proj/go.mod":                "module example.com/app\n\ngo 1.24\n",
		"/proj/ui/form.go":            formSource,
		"/proj/ui/form_test.go":       "package ui\n\ntype Form1Test struct{}\n\nfunc (Form1) Helper() {}\n",
		"/proj/ui/other.go":           "package other\n\nfunc (f *Form1) Stray() {}\n",
		"/proj/ui/form1_designer.go":  designerSource,
		"/proj/ui/sub/nested_test.go": "package sub\n",
	})
	p := New(WithFs(fs))

	cu, err := p.ParseFile("/proj/ui/form1_designer.go", []byte(designerSource))
	require.NoError(ttt, err)
	require.Len(ttt, cu.Classes, 1)

	part := cu.Classes[0]
	assert.Equal(ttt, "Form1", part.Name)
	assert.Equal(ttt, "example.com/app/ui.Form1", part.FullName)
	assert.Equal(ttt, "/proj/ui/form1_designer.go", part.FileName)
	assert.Empty(ttt, part.Fields)
	assert.True(ttt, part.BodyRegion.IsEmpty())
	require.Len(ttt, part.Methods, 1)
	initMethod := part.Methods[0]
	assert.Equal(ttt, dom.Region{BeginLine: 5, BeginColumn: 1, EndLine: 7, EndColumn: 1}, initMethod.Region)
	assert.Equal(ttt, dom.Region{BeginLine: 5, BeginColumn: 39, EndLine: 7, EndColumn: 1}, initMethod.BodyRegion)
	assert.Equal(ttt, initMethod.Region, part.Region)

	complete := part.Complete()
	require.NotSame(ttt, part, complete)
	assert.Equal(ttt, "/proj/ui/form.go", complete.FileName)
	assert.Equal(ttt, dom.Region{BeginLine: 9, BeginColumn: 1, EndLine: 14, EndColumn: 1}, complete.Region)
	assert.Equal(ttt, dom.Region{BeginLine: 9, BeginColumn: 19, EndLine: 14, EndColumn: 1}, complete.BodyRegion)

	wantFields := []*dom.Field{
		{
			Name: "btn", Type: "*example.com/widgets.Button", Modifier: dom.Private,
			Region:   dom.Region{BeginLine: 11, BeginColumn: 2, EndLine: 12, EndColumn: 27},
			FileName: "/proj/ui/form.go",
		},
		{
			Name: "Name", Type: "string", Modifier: dom.Public,
			Region:   dom.Region{BeginLine: 13, BeginColumn: 2, EndLine: 13, EndColumn: 18},
			FileName: "/proj/ui/form.go",
		},
		{
			Name: "Text", Type: "string", Modifier: dom.Public,
			Region:   dom.Region{BeginLine: 13, BeginColumn: 2, EndLine: 13, EndColumn: 18},
			FileName: "/proj/ui/form.go",
		},
		{
			Name: "Title", Type: "string", Modifier: dom.Public,
			Region:   dom.Region{BeginLine: 6, BeginColumn: 2, EndLine: 6, EndColumn: 13},
			FileName: "/proj/ui/form.go",
		},
	}
	if diff := cmp.Diff(wantFields, complete.Fields); diff != "" {
		ttt.Errorf("complete fields mismatch (-want +got):\n%s", diff)
	}

	names := make([]string, 0, len(complete.Methods))
	for _, m := range complete.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(ttt, []string{"OnClick", "InitializeComponent"}, names)

	onClick := complete.Method("OnClick")
	want := []dom.Parameter{
		{Name: "sender", Type: "any"},
		{Name: "e", Type: "example.com/widgets.ClickEventArgs"},
	}
	if diff := cmp.Diff(want, onClick.Parameters); diff != "" {
		ttt.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileDeclaringPart(ttt *testing.T) {
	fs := newFs(ttt, map[string]string{
		"/proj/go.mod":               "module example.com/app\n",
		"/proj/ui/form1_designer.go": designerSource,
	})
	p := New(WithFs(fs))

	cu, err := p.ParseFile("/proj/ui/form.go", []byte(formSource))
	require.NoError(ttt, err)

	got := make([]string, 0, len(cu.Classes))
	for _, c := range cu.Classes {
		got = append(got, c.Name)
	}
	assert.Equal(ttt, []string{"base", "Form1"}, got)

	form := cu.Class("Form1")
	assert.Equal(ttt, []string{"btn", "Name", "Text"}, fieldNames(form.Fields))
	assert.Equal(ttt, []string{"OnClick"}, methodNames(form.Methods))
	assert.Equal(ttt, []string{"OnClick", "InitializeComponent"}, methodNames(form.Complete().Methods))

	// base has no other parts but still gets a complete class of its own.
	b := cu.Class("base")
	assert.Equal(ttt, []string{"Title"}, fieldNames(b.Complete().Fields))
}

func TestParseFileRegisteredContent(ttt *testing.T) {
	fs := newFs(ttt, map[string]string{
		"/proj/go.mod":               "module example.com/app\n",
		"/proj/ui/form.go":           formSource,
		"/proj/ui/form1_designer.go": designerSource,
	})
	p := New(WithFs(fs))

	edited := formSource[:len(formSource)-len("}\n")] + "}\n\nfunc (f *Form1) OnLoad() {}\n"
	p.EnqueueForParsing("/proj/ui/form.go", []byte(edited))

	cu, err := p.ParseFile("/proj/ui/form1_designer.go", []byte(designerSource))
	require.NoError(ttt, err)
	got := methodNames(cu.Class("Form1").Complete().Methods)
	assert.Equal(ttt, []string{"OnClick", "OnLoad", "InitializeComponent"}, got)

	// disk is untouched
	onDisk, err := p.ParseableFileContent("/proj/ui/form.go")
	require.NoError(ttt, err)
	assert.Equal(ttt, formSource, string(onDisk))
}

func TestParseFilePackagePath(ttt *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		opts  []Option
		want  string
		btn   string
	}{
		{
			name:  "nested module directory",
			files: map[string]string{"/proj/go.mod": "module example.com/app/v2\n"},
			want:  "example.com/app/v2/ui.Form1",
			btn:   "*example.com/widgets.Button",
		},
		{
			name: "no go.mod",
			want: "Form1",
			btn:  "*example.com/widgets.Button",
		},
		{
			name:  "explicit package path wins",
			files: map[string]string{"/proj/go.mod": "module example.com/app\n"},
			opts:  []Option{WithPackagePath("example.com/override")},
			want:  "example.com/override.Form1",
			btn:   "*example.com/widgets.Button",
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			files := map[string]string{"/proj/ui/form.go": formSource}
			for k, v := range tt.files {
				files[k] = v
			}
			p := New(append([]Option{WithFs(newFs(t, files))}, tt.opts...)...)
			cu, err := p.ParseFile("/proj/ui/form.go", []byte(formSource))
			require.NoError(t, err)
			form := cu.Class("Form1")
			assert.Equal(t, tt.want, form.FullName)
			assert.Equal(t, tt.btn, form.Field("btn").Type)
		})
	}
}

func TestParseFileErrors(ttt *testing.T) {
	fs := newFs(ttt, map[string]string{
		"/proj/go.mod":   "go 1.24\n",
		"/bad/go.mod":    "module example.com/bad\n",
		"/bad/broken.go": "package bad\n\nfunc (",
	})
	p := New(WithFs(fs))

	_, err := p.ParseFile("/proj/form.cs", []byte("class Form1 {}"))
	require.ErrorIs(ttt, err, ErrNotGoFile)

	_, err = p.ParseFile("/bad/form.go", []byte("package bad\n\ntype Form1 struct {"))
	require.Error(ttt, err)

	// a broken sibling does not prevent parsing
	cu, err := p.ParseFile("/bad/form.go", []byte("package bad\n\ntype Form1 struct{}\n"))
	require.NoError(ttt, err)
	assert.Equal(ttt, "example.com/bad.Form1", cu.Class("Form1").FullName)

	_, err = p.ParseFile("/proj/form.go", []byte("package proj\n"))
	require.ErrorContains(ttt, err, "no module directive")

	_, err = p.ParseableFileContent("/nope.go")
	require.Error(ttt, err)
}

func TestEmbeddingCycle(ttt *testing.T) {
	src := "package ui\n\ntype A struct {\n\tB\n\tX int\n}\n\ntype B struct {\n\t*A\n\tY int\n}\n"
	p := New(WithFs(afero.NewMemMapFs()))
	cu, err := p.ParseFile("/ui/cycle.go", []byte(src))
	require.NoError(ttt, err)

	a := cu.Class("A").Complete()
	b := cu.Class("B").Complete()
	assert.Contains(ttt, fieldNames(a.Fields), "X")
	assert.Contains(ttt, fieldNames(b.Fields), "Y")
	assert.Contains(ttt, fieldNames(b.Fields), "X")
}

func TestImportedPackageNames(ttt *testing.T) {
	src := `package ui

import (
	"example.com/go-ui"
	"github.com/mattn/go-isatty"
)

type T struct {
	fd isatty.Fd
	b  *widgets.Button
}
`
	p := New(
		WithFs(afero.NewMemMapFs()),
		WithPackageNames(pkgname.Static{"example.com/go-ui": "widgets"}),
	)
	cu, err := p.ParseFile("/ui/t.go", []byte(src))
	require.NoError(ttt, err)

	c := cu.Class("T")
	require.NotNil(ttt, c)
	assert.Equal(ttt, "github.com/mattn/go-isatty.Fd", c.Field("fd").Type)
	assert.Equal(ttt, "*example.com/go-ui.Button", c.Field("b").Type)
}

func TestTypeString(ttt *testing.T) {
	src := `package ui

import (
	w "example.com/widgets"
	"time"
)

type T struct {
	a map[string][]*w.Button
	b [4]time.Duration
	c chan int
	d func(Local) error
}
`
	p := New(WithFs(afero.NewMemMapFs()), WithPackagePath("example.com/ui"))
	cu, err := p.ParseFile("/ui/t.go", []byte(src))
	require.NoError(ttt, err)

	got := map[string]string{}
	for _, f := range cu.Class("T").Fields {
		got[f.Name] = f.Type
	}
	want := map[string]string{
		"a": "map[string][]*example.com/widgets.Button",
		"b": "[4]time.Duration",
		"c": "chan int",
		"d": "func(Local) error",
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		ttt.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func fieldNames(fs []*dom.Field) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name)
	}
	return out
}

func methodNames(ms []*dom.Method) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}
