package handlers

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/designersync/internal/designer"
	"github.com/cmmoran/designersync/internal/model"
	"github.com/cmmoran/designersync/pkg/options"
)

const formSource = `package ui

import "example.com/widgets"

type Form1 struct {
	btn *widgets.Button
}

func (f *Form1) InitializeComponent() {
	f.btn = widgets.NewButton()
}

func (f *Form1) OnLoad(sender any, e widgets.EventArgs) {
}
`

func project(t *testing.T, files map[string]string) (afero.Fs, *options.Options) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/proj/go.mod", []byte("module example.com/app\n\ngo 1.24\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/proj/ui/form.go", []byte(formSource), 0o644))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	o := options.New(options.WithFile("/proj/ui/form.go"))
	require.NoError(t, o.Normalize())
	return fsys, o
}

func read(t *testing.T, fsys afero.Fs) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, "/proj/ui/form.go")
	require.NoError(t, err)
	return string(data)
}

var clickHandler = designer.EventHandler{
	Name: "OnClick",
	Parameters: []model.Parameter{
		{Name: "sender", Type: "any"},
		{Name: "e", Type: "*example.com/widgets.ClickEventArgs"},
	},
}

func TestList(ttt *testing.T) {
	fsys, opts := project(ttt, nil)

	got, err := List(fsys, opts, "example.com/widgets.EventHandler")
	require.NoError(ttt, err)
	assert.Equal(ttt, []string{"OnLoad"}, got)

	got, err = List(fsys, opts, "example.com/widgets.KeyEventHandler")
	require.NoError(ttt, err)
	assert.Empty(ttt, got)
}

func TestCompatible(ttt *testing.T) {
	fsys, opts := project(ttt, nil)

	got, err := Compatible(fsys, opts, []string{"any", "example.com/widgets.EventArgs"})
	require.NoError(ttt, err)
	assert.Equal(ttt, []string{"OnLoad"}, got)

	got, err = Compatible(fsys, opts, nil)
	require.NoError(ttt, err)
	assert.Equal(ttt, []string{"InitializeComponent"}, got)
}

func TestInsert(ttt *testing.T) {
	fsys, opts := project(ttt, nil)

	ins, err := Insert(fsys, opts, clickHandler)
	require.NoError(ttt, err)
	assert.Equal(ttt, "/proj/ui/form.go", ins.File)
	assert.Equal(ttt, 8, ins.Line)
	assert.False(ttt, ins.Existed)
	assert.Empty(ttt, ins.Imports)
	require.Len(ttt, ins.Changes, 1)

	assert.Equal(ttt, `package ui

import "example.com/widgets"

type Form1 struct {
	btn *widgets.Button
}

func (f *Form1) OnClick(sender any, e *widgets.ClickEventArgs) {}

func (f *Form1) InitializeComponent() {
	f.btn = widgets.NewButton()
}

func (f *Form1) OnLoad(sender any, e widgets.EventArgs) {
}
`, read(ttt, fsys))
}

func TestInsertExisting(ttt *testing.T) {
	fsys, opts := project(ttt, nil)

	ins, err := Insert(fsys, opts, designer.EventHandler{Name: "OnLoad"})
	require.NoError(ttt, err)
	assert.True(ttt, ins.Existed)
	assert.Equal(ttt, 14, ins.Line)
	assert.Equal(ttt, formSource, read(ttt, fsys))
}

func TestInsertAddsImports(ttt *testing.T) {
	fsys, opts := project(ttt, nil)

	ins, err := Insert(fsys, opts, designer.EventHandler{
		Name:       "OnTick",
		Parameters: []model.Parameter{{Name: "at", Type: "time.Time"}},
	})
	require.NoError(ttt, err)
	assert.Equal(ttt, []string{"time"}, ins.Imports)
	assert.Equal(ttt, 11, ins.Line)

	got := read(ttt, fsys)
	assert.Contains(ttt, got, "import (\n\t\"example.com/widgets\"\n\t\"time\"\n)\n")
	assert.Contains(ttt, got, "func (f *Form1) OnTick(at time.Time) {}\n")
}

func TestInsertMergesModel(ttt *testing.T) {
	fsys, opts := project(ttt, map[string]string{
		"/proj/ui/designer.yaml": `types:
  - name: Form1
    fields:
      - name: btn
        type: "*example.com/widgets.Button"
      - name: label
        type: "*example.com/widgets.Label"
    methods:
      - name: InitializeComponent
        statements:
          - f.btn = widgets.NewButton()
          - f.label = widgets.NewLabel()
`,
	})

	ins, err := Insert(fsys, opts, clickHandler)
	require.NoError(ttt, err)
	assert.False(ttt, ins.Existed)

	got := read(ttt, fsys)
	assert.Contains(ttt, got, "\tlabel *widgets.Label\n")
	assert.Contains(ttt, got, "\tf.label = widgets.NewLabel()\n")
	assert.Contains(ttt, got, "func (f *Form1) OnClick(sender any, e *widgets.ClickEventArgs) {}\n")
}

func TestInsertWithBrokenModel(ttt *testing.T) {
	fsys, opts := project(ttt, map[string]string{
		"/proj/ui/designer.yaml": "types: [\n",
	})

	ins, err := Insert(fsys, opts, clickHandler)
	require.NoError(ttt, err)
	assert.Equal(ttt, "/proj/ui/form.go", ins.File)
	assert.Zero(ttt, ins.Line)
	assert.False(ttt, ins.Existed)
	assert.Equal(ttt, formSource, read(ttt, fsys))
}
