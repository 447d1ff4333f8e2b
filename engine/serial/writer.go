package serial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// writeState is shared by a root Writer and every nested payload writer it creates.
type writeState struct {
	ids  map[Object]int32
	next int32
}

// Writer encodes primitives and object records. A Writer and its id cache are
// scoped to one root call; create a new one for every independent stream.
type Writer struct {
	buf   bytes.Buffer
	state *writeState
	// scratch avoids an allocation per primitive.
	scratch [8]byte
}

// NewWriter creates a root Writer with an empty id cache.
//
// Returns:
//   - *Writer: the new writer
func NewWriter() *Writer {
	return &Writer{state: &writeState{ids: make(map[Object]int32)}}
}

// Marshal encodes obj as a single root record.
//
// Parameters:
//   - obj: the root object (may be nil)
//
// Returns:
//   - []byte: the encoded stream
//   - error: error if any payload fails to encode
func Marshal(obj Object) ([]byte, error) {
	w := NewWriter()
	if err := w.WriteObject(obj); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Write encodes obj as a single root record to out.
//
// Parameters:
//   - out: destination stream
//   - obj: the root object (may be nil)
//
// Returns:
//   - error: error if encoding or writing fails
func Write(out io.Writer, obj Object) error {
	data, err := Marshal(obj)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// Bytes returns the bytes written so far. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteInt32(v int32) {
	binary.BigEndian.PutUint32(w.scratch[:4], uint32(v))
	w.buf.Write(w.scratch[:4])
}

func (w *Writer) WriteInt64(v int64) {
	binary.BigEndian.PutUint64(w.scratch[:8], uint64(v))
	w.buf.Write(w.scratch[:8])
}

func (w *Writer) WriteFloat32(v float32) {
	binary.BigEndian.PutUint32(w.scratch[:4], math.Float32bits(v))
	w.buf.Write(w.scratch[:4])
}

func (w *Writer) WriteFloat64(v float64) {
	binary.BigEndian.PutUint64(w.scratch[:8], math.Float64bits(v))
	w.buf.Write(w.scratch[:8])
}

// WriteString writes an int32 byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	w.buf.WriteString(s)
}

// WriteBytes writes a length-prefixed byte slice; nil is distinguished from empty.
func (w *Writer) WriteBytes(b []byte) {
	if b == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(b)))
	w.buf.Write(b)
}

// WriteFloat32s writes a length-prefixed float32 slice; nil is distinguished from empty.
func (w *Writer) WriteFloat32s(v []float32) {
	if v == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(v)))
	for _, f := range v {
		w.WriteFloat32(f)
	}
}

// WriteInt32s writes a length-prefixed int32 slice; nil is distinguished from empty.
func (w *Writer) WriteInt32s(v []int32) {
	if v == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(v)))
	for _, i := range v {
		w.WriteInt32(i)
	}
}

// WriteObject writes obj as a record. A nil obj is written as an empty tag.
// The first write of an object assigns it the next id and emits its payload;
// subsequent writes in the same root call emit only the id.
//
// Parameters:
//   - obj: the object to write
//
// Returns:
//   - error: error if the object's EncodeTo fails
func (w *Writer) WriteObject(obj Object) error {
	if obj == nil {
		w.WriteString("")
		return nil
	}
	tag := obj.TypeTag()
	if tag == "" {
		return fmt.Errorf("serial: %T has an empty type tag", obj)
	}
	w.WriteString(tag)

	if id, ok := w.state.ids[obj]; ok {
		w.WriteInt32(id)
		w.WriteUint8(uint8(markerCached))
		return nil
	}

	// The id is assigned before encoding so cyclic references inside the payload
	// are written as cached records.
	id := w.state.next
	w.state.next++
	w.state.ids[obj] = id
	w.WriteInt32(id)

	enc, ok := obj.(Encodable)
	if !ok {
		w.WriteUint8(uint8(markerNoPayload))
		return nil
	}
	w.WriteUint8(uint8(markerPayload))

	nested := &Writer{state: w.state}
	if err := enc.EncodeTo(nested); err != nil {
		return fmt.Errorf("serial: encode %s #%d: %w", tag, id, err)
	}
	w.WriteInt32(int32(nested.buf.Len()))
	w.buf.Write(nested.buf.Bytes())
	return nil
}

// WriteSlice writes a length-prefixed list of object records; nil is distinguished from empty.
//
// Parameters:
//   - w: the writer
//   - objs: the objects to write
//
// Returns:
//   - error: the first encode error
func WriteSlice[T Object](w *Writer, objs []T) error {
	if objs == nil {
		w.WriteInt32(nilLength)
		return nil
	}
	w.WriteInt32(int32(len(objs)))
	for _, o := range objs {
		if err := w.WriteObject(o); err != nil {
			return err
		}
	}
	return nil
}
