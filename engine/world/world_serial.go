package world

import (
	"fmt"
	"log"
	"sort"

	"github.com/Carmen-Shannon/oxy-view/engine/serial"
)

// Type tags written for worlds and buffers.
const (
	TagWorld  = "world.World"
	TagBuffer = "world.Buffer"
)

// RegisterTypes registers the World and Buffer factories with reg.
//
// Parameters:
//   - reg: the registry to populate
func RegisterTypes(reg *serial.Registry) {
	reg.Register(TagWorld, func() serial.Object { return newWorld() })
	reg.Register(TagBuffer, func() serial.Object { return newBuffer(nil, "", 0) })
}

func (w *worldImpl) TypeTag() string { return TagWorld }

// EncodeTo writes the world's buffers in creation order.
func (w *worldImpl) EncodeTo(out *serial.Writer) error {
	w.mu.Lock()
	bufs := make([]*bufferImpl, 0, len(w.buffers))
	for _, b := range w.buffers {
		bufs = append(bufs, b)
	}
	w.mu.Unlock()
	sort.Slice(bufs, func(i, j int) bool { return bufs[i].seq < bufs[j].seq })

	return serial.WriteSlice(out, bufs)
}

func (w *worldImpl) DecodeFrom(in *serial.Reader) error {
	bufs, err := serial.ReadSlice[*bufferImpl](in)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range bufs {
		if b == nil {
			continue
		}
		if _, dup := w.buffers[b.name]; dup {
			return fmt.Errorf("world: duplicate buffer %q", b.name)
		}
		b.world = w
		b.seq = w.nextSeq
		w.nextSeq++
		w.buffers[b.name] = b
	}
	return nil
}

func (b *bufferImpl) TypeTag() string { return TagBuffer }

// EncodeTo writes the buffer's name, draw order, owning world and the front
// objects that are themselves serializable. Back lists and temporaries are
// transient and not written.
func (b *bufferImpl) EncodeTo(out *serial.Writer) error {
	b.mu.Lock()
	name, ordered, order, front := b.name, b.ordered, b.order, b.front
	b.mu.Unlock()

	out.WriteString(name)
	out.WriteBool(ordered)
	out.WriteInt32(int32(order))

	var owner serial.Object
	if b.world != nil {
		owner = b.world
	}
	if err := out.WriteObject(owner); err != nil {
		return err
	}

	persisted := make([]serial.Object, 0, len(front))
	for _, obj := range front {
		if so, ok := obj.(serial.Object); ok {
			persisted = append(persisted, so)
		}
	}
	return serial.WriteSlice(out, persisted)
}

func (b *bufferImpl) DecodeFrom(in *serial.Reader) error {
	b.name = in.ReadString()
	b.ordered = in.ReadBool()
	b.order = int(in.ReadInt32())
	if err := in.Err(); err != nil {
		return err
	}

	owner, err := serial.ReadAs[*worldImpl](in)
	if err != nil {
		return err
	}
	b.world = owner

	objs, err := serial.ReadSlice[serial.Object](in)
	if err != nil {
		return err
	}
	front := make([]Object, 0, len(objs))
	for _, so := range objs {
		if so == nil {
			continue
		}
		obj, ok := so.(Object)
		if !ok {
			log.Printf("[World] buffer %q: %s is not drawable, dropped", b.name, so.TypeTag())
			continue
		}
		front = append(front, obj)
	}
	b.front = front
	return nil
}
