// Package scenefile reads and writes persisted scenes: the canvas size
// followed by one root object graph, optionally gzip-compressed.
package scenefile

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-view/engine/serial"
)

// ErrInvalidSize is returned for a scene file with a negative width or height.
var ErrInvalidSize = errors.New("scenefile: invalid canvas size")

var gzipMagic = []byte{0x1f, 0x8b}

// Scene is the content of a scene file.
type Scene struct {
	Width  int
	Height int
	Root   serial.Object
}

// Write encodes s to w.
//
// Parameters:
//   - w: the destination
//   - s: the scene
//   - compress: true to gzip the stream
//
// Returns:
//   - error: error if encoding or writing fails
func Write(w io.Writer, s Scene, compress bool) error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Width, s.Height)
	}
	enc := serial.NewWriter()
	enc.WriteInt32(int32(s.Width))
	enc.WriteInt32(int32(s.Height))
	if err := enc.WriteObject(s.Root); err != nil {
		return fmt.Errorf("scenefile: encode: %w", err)
	}

	if !compress {
		_, err := w.Write(enc.Bytes())
		return err
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(enc.Bytes()); err != nil {
		zw.Close()
		return fmt.Errorf("scenefile: compress: %w", err)
	}
	return zw.Close()
}

// Read decodes a scene from r. Gzip-compressed streams are detected by their
// magic bytes.
//
// Parameters:
//   - r: the source
//   - reg: registry used to resolve type tags
//
// Returns:
//   - Scene: the decoded scene
//   - error: error if the stream is malformed
func Read(r io.Reader, reg *serial.Registry) (Scene, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return Scene{}, fmt.Errorf("scenefile: gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return Scene{}, fmt.Errorf("scenefile: read: %w", err)
	}
	dec := serial.NewReader(data, reg)
	width, height := int(dec.ReadInt32()), int(dec.ReadInt32())
	if err := dec.Err(); err != nil {
		return Scene{}, fmt.Errorf("scenefile: header: %w", err)
	}
	if width < 0 || height < 0 {
		return Scene{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	root, err := dec.ReadObject()
	if err != nil {
		return Scene{}, fmt.Errorf("scenefile: root: %w", err)
	}
	return Scene{Width: width, Height: height, Root: root}, nil
}

// Save writes s to the file at path, replacing it.
//
// Parameters:
//   - path: the file path
//   - s: the scene
//   - compress: true to gzip the file
//
// Returns:
//   - error: error if the file cannot be written
func Save(path string, s Scene, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, s, compress); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads the scene file at path.
//
// Parameters:
//   - path: the file path
//   - reg: registry used to resolve type tags
//
// Returns:
//   - Scene: the decoded scene
//   - error: error if the file cannot be read or is malformed
func Load(path string, reg *serial.Registry) (Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scene{}, err
	}
	defer f.Close()
	return Read(f, reg)
}
