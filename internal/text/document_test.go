package text

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLines(t *testing.T) {
	d := NewDocument("first\n\tsecond\nthird")
	require.Equal(t, 3, d.LineCount())

	l, err := d.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "\tsecond", l)

	_, err = d.Line(0)
	assert.True(t, errors.Is(err, ErrInvalidLine))
	_, err = d.Line(4)
	assert.True(t, errors.Is(err, ErrInvalidLine))

	ws, err := d.LeadingWhitespace(2)
	require.NoError(t, err)
	assert.Equal(t, "\t", ws)
}

func TestDocumentLineOffset(t *testing.T) {
	d := NewDocument("ab\ncd\n")
	tests := []struct {
		line int
		want int
	}{
		{1, 0},
		{2, 3},
		{3, 6},
		{10, 6},
	}
	for _, tt := range tests {
		got, err := d.LineOffset(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "line %d", tt.line)
	}
	_, err := d.LineOffset(0)
	assert.Error(t, err)
}

func TestDocumentOffset(t *testing.T) {
	d := NewDocument("ab\ncd")
	off, err := d.Offset(Position{Line: 2, Column: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, off)

	off, err = d.Offset(Position{Line: 2, Column: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, off)

	_, err = d.Offset(Position{Line: 1, Column: 0})
	assert.True(t, errors.Is(err, ErrInvalidColumn))
	_, err = d.Offset(Position{Line: 1, Column: 5})
	assert.True(t, errors.Is(err, ErrInvalidColumn))
}

func TestDocumentEdits(t *testing.T) {
	d := NewDocument("one\ntwo\nthree\n")
	v := d.Version()

	off, err := d.LineOffset(2)
	require.NoError(t, err)
	require.NoError(t, d.Insert(off, "inserted\n"))
	assert.Equal(t, "one\ninserted\ntwo\nthree\n", d.Text())
	assert.Equal(t, 5, d.LineCount())

	start, _ := d.LineOffset(3)
	end, _ := d.LineOffset(4)
	require.NoError(t, d.Replace(start, end-start, "TWO\n"))
	assert.Equal(t, "one\ninserted\nTWO\nthree\n", d.Text())

	require.NoError(t, d.Remove(0, 4))
	assert.Equal(t, "inserted\nTWO\nthree\n", d.Text())
	assert.Greater(t, d.Version(), v)

	err = d.Replace(10, 100, "")
	assert.True(t, errors.Is(err, ErrOutOfRange))
}
