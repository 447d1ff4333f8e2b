package recorder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoByTwo() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.Set(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	img.Set(0, 1, color.RGBA{R: 7, G: 8, B: 9, A: 255})
	img.Set(1, 1, color.RGBA{R: 10, G: 11, B: 12, A: 255})
	return img
}

func TestWriteFrameFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, twoByTwo(), time.UnixMilli(1234)))

	want := append([]byte("# mtime=1234\nP6\n2 2\n255\n"),
		1, 2, 3, 4, 5, 6, // top row
		7, 8, 9, 10, 11, 12, // bottom row last
	)
	assert.Equal(t, want, buf.Bytes())
}

func TestWriteFrameUsesSubImageBounds(t *testing.T) {
	sub := twoByTwo().SubImage(image.Rect(1, 1, 2, 2)).(*image.RGBA)
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, sub, time.UnixMilli(0)))
	assert.Equal(t, append([]byte("# mtime=0\nP6\n1 1\n255\n"), 10, 11, 12), buf.Bytes())
}

func TestMovieWriterWritesFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	m := NewMovieWriter(&buf, 4)
	require.NoError(t, m.Submit(twoByTwo(), time.UnixMilli(1)))
	require.NoError(t, m.Submit(twoByTwo(), time.UnixMilli(2)))
	require.NoError(t, m.Close())

	assert.Equal(t, 2, m.Frames())
	out := buf.String()
	first := bytes.Index(buf.Bytes(), []byte("# mtime=1\n"))
	second := bytes.Index(buf.Bytes(), []byte("# mtime=2\n"))
	assert.Equal(t, 0, first)
	assert.Greater(t, second, first)
	assert.Len(t, out, 2*(len("# mtime=1\nP6\n2 2\n255\n")+12))

	assert.ErrorIs(t, m.Submit(twoByTwo(), time.Now()), ErrClosed)
	assert.NoError(t, m.Close(), "close is idempotent")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMovieWriterReportsWriteError(t *testing.T) {
	// a tiny frame fits in the bufio buffer, so the error surfaces on flush
	m := NewMovieWriter(failingWriter{}, 1)
	require.NoError(t, m.Submit(twoByTwo(), time.UnixMilli(1)))
	err := m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
