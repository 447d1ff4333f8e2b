package world

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
)

// Object is an opaque unit of renderable scene content.
// Objects are compared by interface equality, so implementations should be pointer types.
type Object interface {
	// Draw issues the backend commands for this object. It is called on the render goroutine.
	//
	// Parameters:
	//   - backend: the graphics backend to draw with
	Draw(backend renderer.Backend)
}

// temporary is an object that disappears once its expiry has passed.
type temporary struct {
	obj     Object
	expires time.Time
}

// bufferImpl is the implementation of the Buffer interface.
//
// front and temps are copy-on-write: they are replaced, never modified in place,
// so a renderer holding an earlier snapshot keeps a stable view.
type bufferImpl struct {
	mu *sync.Mutex

	name  string
	world *worldImpl
	seq   int

	ordered bool
	order   int

	front []Object
	back  []Object
	temps []temporary
}

// Buffer is a named, double-buffered list of objects within a World.
// Producers fill the back list and publish it with Swap; the renderer reads the front list.
type Buffer interface {
	// Name returns the buffer's name within its World.
	//
	// Returns:
	//   - string: the buffer name
	Name() string

	// AddBack appends objects to the back list. They become visible at the next Swap.
	//
	// Parameters:
	//   - objs: objects to append
	AddBack(objs ...Object)

	// AddFront appends objects directly to the front list so they render on the next
	// frame without waiting for a Swap. A later Swap discards them.
	//
	// Parameters:
	//   - objs: objects to append
	AddFront(objs ...Object)

	// Swap publishes the back list as the new front list and starts an empty back list.
	// World change listeners are notified afterwards.
	Swap()

	// Front returns the current front list. The returned slice is a stable snapshot
	// and must not be modified.
	//
	// Returns:
	//   - []Object: the front objects in render order
	Front() []Object

	// BackLen returns the number of objects waiting in the back list.
	//
	// Returns:
	//   - int: back list length
	BackLen() int

	// Clear empties both the front and back lists. Temporaries are kept.
	Clear()

	// AddTemporary adds obj for ttl from now. It renders after the front list until expiry.
	//
	// Parameters:
	//   - obj: the object to show
	//   - ttl: how long the object stays visible
	AddTemporary(obj Object, ttl time.Duration)

	// RemoveTemporary cancels a temporary by identity.
	//
	// Parameters:
	//   - obj: the object passed to AddTemporary
	//
	// Returns:
	//   - bool: true if the object was pending
	RemoveTemporary(obj Object) bool

	// TemporaryCount returns the number of temporaries not yet pruned.
	// Expired temporaries are pruned lazily by rendering.
	//
	// Returns:
	//   - int: number of tracked temporaries
	TemporaryCount() int

	// DrawOrder returns the buffer's draw order and whether one was set.
	// Buffers without a draw order render before all ordered buffers.
	//
	// Returns:
	//   - int: the draw order
	//   - bool: true if set
	DrawOrder() (int, bool)

	// SetDrawOrder sets the buffer's draw order. Lower values render first.
	//
	// Parameters:
	//   - order: the draw order
	SetDrawOrder(order int)
}

var _ Buffer = &bufferImpl{}

func newBuffer(w *worldImpl, name string, seq int) *bufferImpl {
	return &bufferImpl{
		mu:    &sync.Mutex{},
		name:  name,
		world: w,
		seq:   seq,
		front: []Object{},
	}
}

func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) AddBack(objs ...Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.back = append(b.back, objs...)
}

func (b *bufferImpl) AddFront(objs ...Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]Object, 0, len(b.front)+len(objs))
	next = append(next, b.front...)
	b.front = append(next, objs...)
}

func (b *bufferImpl) Swap() {
	b.mu.Lock()
	b.front = b.back
	if b.front == nil {
		b.front = []Object{}
	}
	b.back = nil
	b.mu.Unlock()

	if b.world != nil {
		b.world.notify()
	}
}

func (b *bufferImpl) Front() []Object {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.front
}

func (b *bufferImpl) BackLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

func (b *bufferImpl) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front = []Object{}
	b.back = nil
}

func (b *bufferImpl) AddTemporary(obj Object, ttl time.Duration) {
	expires := b.now().Add(ttl)
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]temporary, 0, len(b.temps)+1)
	next = append(next, b.temps...)
	b.temps = append(next, temporary{obj: obj, expires: expires})
}

func (b *bufferImpl) RemoveTemporary(obj Object) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.temps {
		if t.obj == obj {
			next := make([]temporary, 0, len(b.temps)-1)
			next = append(next, b.temps[:i]...)
			b.temps = append(next, b.temps[i+1:]...)
			return true
		}
	}
	return false
}

func (b *bufferImpl) TemporaryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.temps)
}

func (b *bufferImpl) DrawOrder() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.order, b.ordered
}

func (b *bufferImpl) SetDrawOrder(order int) {
	b.mu.Lock()
	b.order = order
	b.ordered = true
	b.mu.Unlock()
}

func (b *bufferImpl) now() time.Time {
	if b.world != nil {
		return b.world.clock()
	}
	return time.Now()
}

// snapshot prunes temporaries that expired at or before now and returns the
// objects to draw: the front list followed by live temporaries.
// The lock is held only while the lists are captured.
func (b *bufferImpl) snapshot(now time.Time) []Object {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.temps) == 0 {
		return b.front
	}

	live := b.temps
	for i, t := range b.temps {
		if !now.Before(t.expires) {
			// first expired entry found; rebuild without the expired ones
			live = make([]temporary, 0, len(b.temps))
			live = append(live, b.temps[:i]...)
			for _, rest := range b.temps[i+1:] {
				if now.Before(rest.expires) {
					live = append(live, rest)
				}
			}
			break
		}
	}
	b.temps = live

	objs := make([]Object, 0, len(b.front)+len(live))
	objs = append(objs, b.front...)
	for _, t := range live {
		objs = append(objs, t.obj)
	}
	return objs
}

// render draws the buffer's current snapshot.
func (b *bufferImpl) render(backend renderer.Backend, now time.Time) {
	for _, obj := range b.snapshot(now) {
		obj.Draw(backend)
	}
}
