package serial

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	Name     string
	Weight   float64
	Values   []float32
	Next     *node
	Children []*node
}

func (n *node) TypeTag() string { return "test.node" }

func (n *node) EncodeTo(w *Writer) error {
	w.WriteString(n.Name)
	w.WriteFloat64(n.Weight)
	w.WriteFloat32s(n.Values)
	if err := w.WriteObject(nodeOrNil(n.Next)); err != nil {
		return err
	}
	return WriteSlice(w, n.Children)
}

func (n *node) DecodeFrom(r *Reader) error {
	n.Name = r.ReadString()
	n.Weight = r.ReadFloat64()
	n.Values = r.ReadFloat32s()
	next, err := ReadAs[*node](r)
	if err != nil {
		return err
	}
	n.Next = next
	children, err := ReadSlice[*node](r)
	if err != nil {
		return err
	}
	n.Children = children
	return r.Err()
}

func nodeOrNil(n *node) Object {
	if n == nil {
		return nil
	}
	return n
}

// pair holds two references that may point at the same instance.
type pair struct {
	Left, Right *node
}

func (p *pair) TypeTag() string { return "test.pair" }

func (p *pair) EncodeTo(w *Writer) error {
	if err := w.WriteObject(nodeOrNil(p.Left)); err != nil {
		return err
	}
	return w.WriteObject(nodeOrNil(p.Right))
}

func (p *pair) DecodeFrom(r *Reader) error {
	var err error
	if p.Left, err = ReadAs[*node](r); err != nil {
		return err
	}
	p.Right, err = ReadAs[*node](r)
	return err
}

// marker type with no payload.
type stateless struct {
	Initialized bool
}

func (s *stateless) TypeTag() string { return "test.stateless" }

// short writes two fields but only reads one back.
type short struct {
	A, B int32
}

func (s *short) TypeTag() string { return "test.short" }

func (s *short) EncodeTo(w *Writer) error {
	w.WriteInt32(s.A)
	w.WriteInt32(s.B)
	return nil
}

func (s *short) DecodeFrom(r *Reader) error {
	s.A = r.ReadInt32()
	return r.Err()
}

// header writes a label and a nested record but only reads the label back.
type header struct {
	Label string
	Child *node
}

func (h *header) TypeTag() string { return "test.header" }

func (h *header) EncodeTo(w *Writer) error {
	w.WriteString(h.Label)
	return w.WriteObject(nodeOrNil(h.Child))
}

func (h *header) DecodeFrom(r *Reader) error {
	h.Label = r.ReadString()
	return r.Err()
}

type failing struct{}

func (f *failing) TypeTag() string            { return "test.failing" }
func (f *failing) EncodeTo(w *Writer) error   { w.WriteInt32(7); return nil }
func (f *failing) DecodeFrom(r *Reader) error { return errors.New("boom") }

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("test.node", func() Object { return &node{} })
	reg.Register("test.pair", func() Object { return &pair{} })
	reg.Register("test.stateless", func() Object { return &stateless{Initialized: true} })
	reg.Register("test.short", func() Object { return &short{} })
	reg.Register("test.failing", func() Object { return &failing{} })
	reg.Register("test.header", func() Object { return &header{} })
	return reg
}

func TestPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteUint8(200)
	w.WriteInt32(-42)
	w.WriteInt64(1 << 40)
	w.WriteFloat32(1.5)
	w.WriteFloat64(-2.25)
	w.WriteString("héllo")
	w.WriteBytes(nil)
	w.WriteBytes([]byte{})
	w.WriteFloat32s([]float32{1, 2, 3})
	w.WriteInt32s(nil)

	r := NewReader(w.Bytes(), NewRegistry())
	assert.True(t, r.ReadBool())
	assert.Equal(t, uint8(200), r.ReadUint8())
	assert.Equal(t, int32(-42), r.ReadInt32())
	assert.Equal(t, int64(1<<40), r.ReadInt64())
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	assert.Equal(t, -2.25, r.ReadFloat64())
	assert.Equal(t, "héllo", r.ReadString())
	assert.Nil(t, r.ReadBytes())
	empty := r.ReadBytes()
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Equal(t, []float32{1, 2, 3}, r.ReadFloat32s())
	assert.Nil(t, r.ReadInt32s())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

func TestBigEndianLayout(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, w.Bytes())
}

func TestTruncatedInputIsSticky(t *testing.T) {
	r := NewReader([]byte{0, 0}, NewRegistry())
	assert.Equal(t, int32(0), r.ReadInt32())
	assert.ErrorIs(t, r.Err(), ErrMalformed)
	assert.Equal(t, "", r.ReadString())
	assert.ErrorIs(t, r.Err(), ErrMalformed)
}

func TestAcyclicRoundTrip(t *testing.T) {
	root := &node{
		Name:   "root",
		Weight: 3.5,
		Values: []float32{0.5, 1.5},
		Children: []*node{
			{Name: "a", Values: []float32{}},
			{Name: "b", Next: &node{Name: "c"}},
		},
	}

	data, err := Marshal(root)
	require.NoError(t, err)

	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	got, ok := obj.(*node)
	require.True(t, ok)
	assert.Equal(t, root, got)
	assert.NotSame(t, root, got)
}

func TestCycleResolvesToEnclosingInstance(t *testing.T) {
	a := &node{Name: "A"}
	b := &node{Name: "B", Next: a}
	a.Next = b

	data, err := Marshal(a)
	require.NoError(t, err)

	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	gotA := obj.(*node)
	require.NotNil(t, gotA.Next)
	assert.Equal(t, "B", gotA.Next.Name)
	assert.Same(t, gotA, gotA.Next.Next)
}

func TestSelfReference(t *testing.T) {
	a := &node{Name: "self"}
	a.Next = a
	a.Children = []*node{a}

	data, err := Marshal(a)
	require.NoError(t, err)
	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	got := obj.(*node)
	assert.Same(t, got, got.Next)
	assert.Same(t, got, got.Children[0])
}

func TestSharedReferenceStaysShared(t *testing.T) {
	shared := &node{Name: "shared", Values: []float32{9}}
	p := &pair{Left: shared, Right: shared}

	data, err := Marshal(p)
	require.NoError(t, err)
	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	got := obj.(*pair)
	assert.Same(t, got.Left, got.Right)
	assert.Equal(t, "shared", got.Left.Name)
}

func TestDistinctEqualObjectsStayDistinct(t *testing.T) {
	p := &pair{Left: &node{Name: "x"}, Right: &node{Name: "x"}}
	data, err := Marshal(p)
	require.NoError(t, err)
	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	got := obj.(*pair)
	assert.NotSame(t, got.Left, got.Right)
}

func TestRecordHeader(t *testing.T) {
	data, err := Marshal(&stateless{})
	require.NoError(t, err)

	r := NewReader(data, NewRegistry())
	assert.Equal(t, "test.stateless", r.ReadString())
	assert.Equal(t, int32(0), r.ReadInt32())
	assert.Equal(t, uint8(markerNoPayload), r.ReadUint8())
	assert.Equal(t, 0, r.Remaining())
}

func TestIdsAreSequentialPerRootCall(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteObject(&stateless{}))
	require.NoError(t, w.WriteObject(&stateless{}))

	r := NewReader(w.Bytes(), NewRegistry())
	r.ReadString()
	assert.Equal(t, int32(0), r.ReadInt32())
	r.ReadUint8()
	r.ReadString()
	assert.Equal(t, int32(1), r.ReadInt32())

	// A fresh root call starts over at zero.
	data, err := Marshal(&stateless{})
	require.NoError(t, err)
	r = NewReader(data, NewRegistry())
	r.ReadString()
	assert.Equal(t, int32(0), r.ReadInt32())
}

func TestNoPayloadUsesFactoryDefaults(t *testing.T) {
	data, err := Marshal(&stateless{Initialized: false})
	require.NoError(t, err)
	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	assert.True(t, obj.(*stateless).Initialized)
}

func TestNilRoot(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	obj, err := Unmarshal(data, testRegistry())
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestUnknownTagSkipsToSibling(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteObject(&node{Name: "unregistered"}))
	require.NoError(t, w.WriteObject(&short{A: 1, B: 2}))

	reg := NewRegistry()
	reg.Register("test.short", func() Object { return &short{} })
	r := NewReader(w.Bytes(), reg)

	_, err := r.ReadObject()
	assert.ErrorIs(t, err, ErrUnknownTag)
	require.NoError(t, r.Err())

	obj, err := r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, int32(1), obj.(*short).A)
}

func TestUnknownTagWithNestedRecordsSkipsToSibling(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteObject(&node{Name: "unregistered", Next: &node{Name: "child"}}))
	require.NoError(t, w.WriteObject(&short{A: 1}))

	reg := NewRegistry()
	reg.Register("test.short", func() Object { return &short{} })
	r := NewReader(w.Bytes(), reg)

	_, err := r.ReadObject()
	assert.ErrorIs(t, err, ErrUnknownTag)
	require.NoError(t, r.Err())

	obj, err := r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, int32(1), obj.(*short).A)
}

func TestSkippedListElementWithChildrenIsDropped(t *testing.T) {
	w := NewWriter()
	require.NoError(t, WriteSlice(w, []Object{
		&short{A: 1},
		&node{Name: "unregistered", Children: []*node{{Name: "a"}, {Name: "b"}}},
		&short{A: 2},
	}))

	reg := NewRegistry()
	reg.Register("test.short", func() Object { return &short{} })
	got, err := ReadSlice[*short](NewReader(w.Bytes(), reg))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].A)
	assert.Equal(t, int32(2), got[1].A)
}

func TestUnreadNestedRecordLeavesUnresolvedId(t *testing.T) {
	child := &node{Name: "child"}
	w := NewWriter()
	require.NoError(t, w.WriteObject(&header{Label: "h", Child: child}))
	require.NoError(t, w.WriteObject(&short{A: 4}))
	require.NoError(t, w.WriteObject(&pair{Left: child}))

	r := NewReader(w.Bytes(), testRegistry())
	obj, err := r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, "h", obj.(*header).Label)

	obj, err = r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, int32(4), obj.(*short).A)

	_, err = r.ReadObject()
	assert.ErrorIs(t, err, ErrUnresolvedReference, "the child was never decoded")
}

func TestShortDecoderIsRecovered(t *testing.T) {
	p := &pair{Left: &node{Name: "after"}}
	w := NewWriter()
	require.NoError(t, w.WriteObject(&short{A: 5, B: 6}))
	require.NoError(t, w.WriteObject(p))

	r := NewReader(w.Bytes(), testRegistry())
	obj, err := r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, int32(5), obj.(*short).A)
	assert.Equal(t, int32(0), obj.(*short).B)

	obj, err = r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, "after", obj.(*pair).Left.Name)
}

func TestFailingDecoderDoesNotPoisonStream(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteObject(&failing{}))
	require.NoError(t, w.WriteObject(&short{A: 3}))

	r := NewReader(w.Bytes(), testRegistry())
	_, err := r.ReadObject()
	require.Error(t, err)
	assert.NoError(t, r.Err())

	obj, err := r.ReadObject()
	require.NoError(t, err)
	assert.Equal(t, int32(3), obj.(*short).A)
}

func TestDanglingCachedReference(t *testing.T) {
	w := NewWriter()
	w.WriteString("test.node")
	w.WriteInt32(4)
	w.WriteUint8(uint8(markerCached))

	_, err := Unmarshal(w.Bytes(), testRegistry())
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestOutOfSequenceId(t *testing.T) {
	w := NewWriter()
	for range 2 {
		w.WriteString("test.stateless")
		w.WriteInt32(0)
		w.WriteUint8(uint8(markerNoPayload))
	}
	r := NewReader(w.Bytes(), testRegistry())
	_, err := r.ReadObject()
	require.NoError(t, err)
	_, err = r.ReadObject()
	assert.ErrorIs(t, err, ErrMalformed, "ids never repeat")

	w = NewWriter()
	w.WriteString("test.stateless")
	w.WriteInt32(1 << 30)
	w.WriteUint8(uint8(markerNoPayload))
	_, err = Unmarshal(w.Bytes(), testRegistry())
	assert.ErrorIs(t, err, ErrMalformed, "gap larger than the stream")
}

func TestBadLengthPrefix(t *testing.T) {
	w := NewWriter()
	w.WriteString("test.node")
	w.WriteInt32(0)
	w.WriteUint8(uint8(markerPayload))
	w.WriteInt32(1000)

	_, err := Unmarshal(w.Bytes(), testRegistry())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadAsTypeMismatch(t *testing.T) {
	data, err := Marshal(&stateless{})
	require.NoError(t, err)
	_, err = ReadAs[*node](NewReader(data, testRegistry()))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestWriteAndReadStreams(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &node{Name: "streamed"}))
	obj, err := Read(&buf, testRegistry())
	require.NoError(t, err)
	assert.Equal(t, "streamed", obj.(*node).Name)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := testRegistry()
	assert.Panics(t, func() {
		reg.Register("test.node", func() Object { return &node{} })
	})
	assert.Contains(t, reg.Tags(), "test.pair")
	_, err := reg.New("missing")
	assert.ErrorIs(t, err, ErrUnknownTag)
}
