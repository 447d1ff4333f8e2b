package serial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
)

// readState is shared by a root Reader and every nested payload reader it creates.
// arena holds decoded objects indexed by record id. Ids of records skipped
// inside an undecoded payload are left as nil gaps.
type readState struct {
	reg   *Registry
	arena []Object
	size  int
}

// minRecordSize is the encoded size of the smallest non-null record: a
// one-byte tag with its length, an id and a marker.
const minRecordSize = 4 + 1 + 4 + 1

// Reader decodes primitives and object records. Primitive reads record the
// first failure and return zero values afterwards; check Err once a group of
// reads is done. A Reader and its arena are scoped to one root call.
type Reader struct {
	data  []byte
	off   int
	state *readState
	err   error
}

// NewReader creates a root Reader over data that instantiates objects from reg.
//
// Parameters:
//   - data: the encoded stream
//   - reg: registry used to resolve type tags
//
// Returns:
//   - *Reader: the new reader
func NewReader(data []byte, reg *Registry) *Reader {
	if reg == nil {
		panic("serial: NewReader requires a non-nil Registry")
	}
	return &Reader{data: data, state: &readState{reg: reg, size: len(data)}}
}

// Unmarshal decodes a single root record from data.
//
// Parameters:
//   - data: the encoded stream
//   - reg: registry used to resolve type tags
//
// Returns:
//   - Object: the root object (nil if a nil root was written)
//   - error: error if the stream is malformed or references unknown types
func Unmarshal(data []byte, reg *Registry) (Object, error) {
	r := NewReader(data, reg)
	obj, err := r.ReadObject()
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		log.Printf("[Serial] %d trailing bytes after root object", r.Remaining())
	}
	return obj, nil
}

// Read decodes a single root record from in, consuming it to EOF.
//
// Parameters:
//   - in: source stream
//   - reg: registry used to resolve type tags
//
// Returns:
//   - Object: the root object
//   - error: error if reading or decoding fails
func Read(in io.Reader, reg *Registry) (Object, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, reg)
}

// Err returns the first structural error encountered by this reader.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes in this reader's span.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// next returns the next n bytes, or nil after recording ErrMalformed.
func (r *Reader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.off {
		r.fail(fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformed, n, r.off, len(r.data)-r.off))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

func (r *Reader) ReadUint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadInt32() int32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *Reader) ReadInt64() int64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *Reader) ReadFloat32() float32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func (r *Reader) ReadFloat64() float64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func (r *Reader) ReadString() string {
	n := r.ReadInt32()
	b := r.next(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// length reads an array length prefix. ok is false for the nil sentinel or on error.
func (r *Reader) length() (n int, ok bool) {
	v := r.ReadInt32()
	if r.err != nil || v == nilLength {
		return 0, false
	}
	if v < 0 {
		r.fail(fmt.Errorf("%w: negative array length %d", ErrMalformed, v))
		return 0, false
	}
	return int(v), true
}

func (r *Reader) ReadBytes() []byte {
	n, ok := r.length()
	if !ok {
		return nil
	}
	b := r.next(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *Reader) ReadFloat32s() []float32 {
	n, ok := r.length()
	if !ok {
		return nil
	}
	if n*4 > r.Remaining() {
		r.fail(fmt.Errorf("%w: float32 array of %d exceeds payload", ErrMalformed, n))
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.ReadFloat32()
	}
	return out
}

func (r *Reader) ReadInt32s() []int32 {
	n, ok := r.length()
	if !ok {
		return nil
	}
	if n*4 > r.Remaining() {
		r.fail(fmt.Errorf("%w: int32 array of %d exceeds payload", ErrMalformed, n))
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = r.ReadInt32()
	}
	return out
}

// ReadObject decodes one record.
//
// Structural failures (truncation, bad markers, dangling references) are sticky
// and also reported by Err. An unknown type tag or a failing payload decoder is
// returned without poisoning the reader: the length prefix has already moved the
// reader past the record, so callers may log the error and continue with the
// next sibling record.
//
// Returns:
//   - Object: the decoded object, or nil for a nil record
//   - error: error describing why the record could not be decoded
func (r *Reader) ReadObject() (Object, error) {
	tag := r.ReadString()
	if r.err != nil {
		return nil, r.err
	}
	if tag == "" {
		return nil, nil
	}
	id := r.ReadInt32()
	m := marker(r.ReadUint8())
	if r.err != nil {
		return nil, r.err
	}

	st := r.state
	switch m {
	case markerCached:
		if id < 0 || int(id) >= len(st.arena) || st.arena[id] == nil {
			err := fmt.Errorf("%w: %s #%d", ErrUnresolvedReference, tag, id)
			r.fail(err)
			return nil, err
		}
		obj := st.arena[id]
		if obj.TypeTag() != tag {
			err := fmt.Errorf("%w: #%d is %s, record says %s", ErrMalformed, id, obj.TypeTag(), tag)
			r.fail(err)
			return nil, err
		}
		return obj, nil

	case markerPayload, markerNoPayload:
		if int(id) < len(st.arena) || int(id) > st.size/minRecordSize {
			err := fmt.Errorf("%w: id #%d out of sequence, expected #%d or later", ErrMalformed, id, len(st.arena))
			r.fail(err)
			return nil, err
		}
		// Records nested in a skipped payload were never read; their ids stay unresolved.
		for len(st.arena) < int(id) {
			st.arena = append(st.arena, nil)
		}
		var payload []byte
		if m == markerPayload {
			n := r.ReadInt32()
			payload = r.next(int(n))
			if r.err != nil {
				return nil, r.err
			}
		}

		obj, err := st.reg.New(tag)
		if err != nil {
			// Keep ids aligned for any later records.
			st.arena = append(st.arena, nil)
			return nil, fmt.Errorf("record #%d: %w", id, err)
		}
		// Register before populating so cyclic references resolve to obj.
		st.arena = append(st.arena, obj)
		if m == markerNoPayload {
			return obj, nil
		}

		enc, ok := obj.(Encodable)
		if !ok {
			log.Printf("[Serial] %s #%d has a payload but no decoder; %d bytes skipped", tag, id, len(payload))
			return obj, nil
		}
		nested := &Reader{data: payload, state: st}
		decodeErr := enc.DecodeFrom(nested)
		if decodeErr == nil {
			decodeErr = nested.err
		}
		if decodeErr != nil {
			return obj, fmt.Errorf("serial: decode %s #%d: %w", tag, id, decodeErr)
		}
		if nested.Remaining() != 0 {
			log.Printf("[Serial] %s #%d: decoder consumed %d of %d payload bytes", tag, id, nested.off, len(payload))
		}
		return obj, nil

	default:
		err := fmt.Errorf("%w: unknown marker %d for %s #%d", ErrMalformed, m, tag, id)
		r.fail(err)
		return nil, err
	}
}

// ReadAs decodes one record and asserts it to T. A nil record yields the zero T.
//
// Parameters:
//   - r: the reader
//
// Returns:
//   - T: the decoded object
//   - error: decode error, or ErrTypeMismatch if the object is not a T
func ReadAs[T Object](r *Reader) (T, error) {
	var zero T
	obj, err := r.ReadObject()
	if err != nil || obj == nil {
		return zero, err
	}
	v, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrTypeMismatch, obj, zero)
	}
	return v, nil
}

// ReadSlice decodes a list written by WriteSlice. Records that fail with a
// recoverable error are logged and dropped; structural errors abort.
//
// Parameters:
//   - r: the reader
//
// Returns:
//   - []T: the decoded objects (nil if a nil slice was written)
//   - error: the first structural error
func ReadSlice[T Object](r *Reader) ([]T, error) {
	n, ok := r.length()
	if !ok {
		return nil, r.err
	}
	if n > r.Remaining() {
		r.fail(fmt.Errorf("%w: list of %d records exceeds payload", ErrMalformed, n))
		return nil, r.err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := ReadAs[T](r)
		if err != nil {
			if r.err != nil {
				return nil, r.err
			}
			if errors.Is(err, ErrTypeMismatch) {
				return nil, err
			}
			log.Printf("[Serial] skipping element %d: %v", i, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
