package ui

import "example.com/widgets"

// Form1 is the main window.
type Form1 struct {
	// btn submits.
	btn   *widgets.Button
	gone  string
	cache map[string]int `designer:"-"`
}

// InitializeComponent is generated.
func (f *Form1) InitializeComponent() {
	f.btn = widgets.NewButton()
}

func (f *Form1) OnClick(sender any, e *widgets.ClickEventArgs) {
	f.btn.Disable()
}
