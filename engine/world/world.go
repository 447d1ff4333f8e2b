package world

import (
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
)

// worldImpl is the implementation of the World interface.
type worldImpl struct {
	mu *sync.Mutex

	buffers map[string]*bufferImpl
	nextSeq int

	clock func() time.Time

	listeners      map[int]func()
	nextListenerID int
}

// World is a scene: a set of named Buffers rendered in draw order.
// Buffers are created on first use and never removed. A World may be shared by
// several layers.
type World interface {
	// Buffer returns the buffer with the given name, creating it on first use.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - Buffer: the buffer (the same instance for every call with name)
	Buffer(name string) Buffer

	// HasBuffer reports whether a buffer with the given name has been created.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - bool: true if it exists
	HasBuffer(name string) bool

	// Buffers returns every buffer in render order: buffers without a draw order
	// first, then ascending draw order, ties broken by creation order.
	//
	// Returns:
	//   - []Buffer: the buffers in render order
	Buffers() []Buffer

	// Render draws every enabled buffer in render order. Each buffer is locked
	// only while its contents are captured.
	//
	// Parameters:
	//   - backend: the graphics backend
	//   - now: the frame time, used to expire temporaries
	//   - enabled: reports whether a buffer should render; nil renders all
	Render(backend renderer.Backend, now time.Time, enabled func(name string) bool)

	// AddChangeListener registers fn to run after any buffer in this world swaps.
	// fn runs on the swapping goroutine and must not block.
	//
	// Parameters:
	//   - fn: the listener
	//
	// Returns:
	//   - func(): removes the listener
	AddChangeListener(fn func()) (remove func())

	// Now returns the world's clock reading, used for temporary expiry.
	//
	// Returns:
	//   - time.Time: the current time
	Now() time.Time
}

var _ World = &worldImpl{}

// NewWorld creates an empty World.
//
// Parameters:
//   - options: functional options to configure the world
//
// Returns:
//   - World: the new world
func NewWorld(options ...WorldBuilderOption) World {
	return newWorld(options...)
}

func newWorld(options ...WorldBuilderOption) *worldImpl {
	w := &worldImpl{
		mu:        &sync.Mutex{},
		buffers:   make(map[string]*bufferImpl),
		clock:     time.Now,
		listeners: make(map[int]func()),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *worldImpl) Buffer(name string) Buffer {
	return w.buffer(name)
}

func (w *worldImpl) buffer(name string) *bufferImpl {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.buffers[name]; ok {
		return b
	}
	b := newBuffer(w, name, w.nextSeq)
	w.nextSeq++
	w.buffers[name] = b
	return b
}

func (w *worldImpl) HasBuffer(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.buffers[name]
	return ok
}

func (w *worldImpl) Buffers() []Buffer {
	sorted := w.sortedBuffers()
	out := make([]Buffer, len(sorted))
	for i, b := range sorted {
		out[i] = b
	}
	return out
}

func (w *worldImpl) Render(backend renderer.Backend, now time.Time, enabled func(name string) bool) {
	for _, b := range w.sortedBuffers() {
		if enabled != nil && !enabled(b.name) {
			continue
		}
		b.render(backend, now)
	}
}

func (w *worldImpl) AddChangeListener(fn func()) (remove func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextListenerID
	w.nextListenerID++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

func (w *worldImpl) Now() time.Time {
	return w.clock()
}

// notify runs every change listener outside the world lock.
func (w *worldImpl) notify() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

type sortKey struct {
	b       *bufferImpl
	ordered bool
	order   int
}

// sortedBuffers returns the buffers in render order.
func (w *worldImpl) sortedBuffers() []*bufferImpl {
	w.mu.Lock()
	keys := make([]sortKey, 0, len(w.buffers))
	for _, b := range w.buffers {
		keys = append(keys, sortKey{b: b})
	}
	w.mu.Unlock()

	for i := range keys {
		keys[i].order, keys[i].ordered = keys[i].b.DrawOrder()
	}
	sort.Slice(keys, func(i, j int) bool {
		a, c := keys[i], keys[j]
		if a.ordered != c.ordered {
			return !a.ordered
		}
		if a.ordered && a.order != c.order {
			return a.order < c.order
		}
		return a.b.seq < c.b.seq
	})

	out := make([]*bufferImpl, len(keys))
	for i, k := range keys {
		out[i] = k.b
	}
	return out
}
