// Package text implements the line/column addressed buffer the designer
// edits. Lines and columns are 1-based; column 0 is never a valid position.
package text

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidLine   = errors.New("invalid line")
	ErrInvalidColumn = errors.New("invalid column")
	ErrOutOfRange    = errors.New("offset out of range")
)

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Document is a mutable text buffer with a line index.
type Document struct {
	content    string
	lineStarts []int // offset of the first byte of each line
	version    uint64
}

// NewDocument returns a document holding content.
func NewDocument(content string) *Document {
	d := &Document{}
	d.reset(content)
	return d
}

func (d *Document) reset(content string) {
	d.content = content
	d.lineStarts = buildLineIndex(content)
}

// buildLineIndex records the start offset of every line.
func buildLineIndex(content string) []int {
	idx := make([]int, 1, strings.Count(content, "\n")+1)
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// Text returns the current content.
func (d *Document) Text() string {
	return d.content
}

// SetText replaces the whole content.
func (d *Document) SetText(content string) {
	d.reset(content)
	d.version++
}

// Version increases on every mutation.
func (d *Document) Version() uint64 {
	return d.version
}

// Len returns the content length in bytes.
func (d *Document) Len() int {
	return len(d.content)
}

// LineCount returns the number of lines. A trailing newline starts an empty
// last line, the way editors count them.
func (d *Document) LineCount() int {
	return len(d.lineStarts)
}

// Line returns line n without its line terminator.
func (d *Document) Line(n int) (string, error) {
	if n < 1 || n > len(d.lineStarts) {
		return "", fmt.Errorf("%w: %d (document has %d lines)", ErrInvalidLine, n, len(d.lineStarts))
	}
	start := d.lineStarts[n-1]
	end := len(d.content)
	if n < len(d.lineStarts) {
		end = d.lineStarts[n] - 1
	}
	return strings.TrimSuffix(d.content[start:end], "\r"), nil
}

// LineOffset returns the offset of the first byte of line n. Lines past the
// end resolve to the end of the document.
func (d *Document) LineOffset(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidLine, n)
	}
	if n > len(d.lineStarts) {
		return len(d.content), nil
	}
	return d.lineStarts[n-1], nil
}

// Offset converts a position to a byte offset. The column may point one past
// the last character of the line.
func (d *Document) Offset(p Position) (int, error) {
	if p.Column <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidColumn, p)
	}
	line, err := d.Line(p.Line)
	if err != nil {
		return 0, err
	}
	if p.Column > len(line)+1 {
		return 0, fmt.Errorf("%w: %s (line length %d)", ErrInvalidColumn, p, len(line))
	}
	return d.lineStarts[p.Line-1] + p.Column - 1, nil
}

// Insert puts s at offset.
func (d *Document) Insert(offset int, s string) error {
	return d.Replace(offset, 0, s)
}

// Remove deletes length bytes starting at offset.
func (d *Document) Remove(offset, length int) error {
	return d.Replace(offset, length, "")
}

// Replace substitutes length bytes at offset with s.
func (d *Document) Replace(offset, length int, s string) error {
	if offset < 0 || length < 0 || offset+length > len(d.content) {
		return fmt.Errorf("%w: [%d,%d) in %d bytes", ErrOutOfRange, offset, offset+length, len(d.content))
	}
	d.reset(d.content[:offset] + s + d.content[offset+length:])
	d.version++
	return nil
}

// LeadingWhitespace returns the indentation of line n.
func (d *Document) LeadingWhitespace(n int) (string, error) {
	line, err := d.Line(n)
	if err != nil {
		return "", err
	}
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))], nil
}
