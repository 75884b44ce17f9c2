package rename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/text"
)

const source = `package ui

type Form1 struct {
	Form1 int
	next  *Form1
}

func NewForm1() *Form1 { return &Form1{Form1: 1} }

func (f *Form1) InitializeComponent() {
	f.Form1 = 2
	var _ = []Form1{}
}
`

const renamed = `package ui

type Form2 struct {
	Form1 int
	next  *Form2
}

func NewForm1() *Form2 { return &Form2{Form1: 1} }

func (f *Form2) InitializeComponent() {
	f.Form1 = 2
	var _ = []Form2{}
}
`

func TestRenameClass(ttt *testing.T) {
	doc := text.NewDocument(source)
	r := New(nil)

	err := r.RenameClass(doc, &dom.Class{Name: "Form1", FileName: "form.go"}, "Form2")
	require.NoError(ttt, err)
	assert.Equal(ttt, renamed, doc.Text())
	assert.EqualValues(ttt, 1, doc.Version())
}

func TestRenameClassRejects(ttt *testing.T) {
	tests := []struct {
		name    string
		src     string
		class   string
		newName string
		want    error
	}{
		{name: "leading digit", src: source, class: "Form1", newName: "2Form", want: ErrInvalidName},
		{name: "keyword", src: source, class: "Form1", newName: "func", want: ErrInvalidName},
		{name: "declared function", src: source, class: "Form1", newName: "NewForm1", want: ErrNameConflict},
		{name: "unreferenced", src: source, class: "Dialog", newName: "Dialog2", want: ErrNotReferenced},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			doc := text.NewDocument(tt.src)
			err := New(nil).RenameClass(doc, &dom.Class{Name: tt.class, FileName: "form.go"}, tt.newName)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.src, doc.Text())
		})
	}
}

func TestRenameClassParseError(ttt *testing.T) {
	broken := "package ui\n\ntype Form1 struct {"
	doc := text.NewDocument(broken)
	err := New(nil).RenameClass(doc, &dom.Class{Name: "Form1", FileName: "form.go"}, "Form2")
	require.Error(ttt, err)
	assert.Equal(ttt, broken, doc.Text())
}

func TestRenameClassSameName(ttt *testing.T) {
	doc := text.NewDocument(source)
	require.NoError(ttt, New(nil).RenameClass(doc, &dom.Class{Name: "Form1"}, "Form1"))
	assert.Zero(ttt, doc.Version())
}
