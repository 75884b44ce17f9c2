package ui

import (
	w "example.com/widgets"
)

type Form1 struct {
	ok *w.Button
}

func (f *Form1) InitializeComponent() {
	f.ok = w.NewButton()
}

func (f *Form1) Close() {}
