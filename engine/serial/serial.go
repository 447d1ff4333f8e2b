// Package serial encodes and decodes arbitrary object graphs, including shared and
// cyclic references, into a compact big-endian binary stream.
//
// Every non-nil object is written as a record: its type tag, a sequential id
// assigned on first write within one root call, and a marker. The first time an
// object is seen its payload follows as a length-prefixed block produced by the
// object's EncodeTo method; later references carry only the id. On read, a fresh
// instance is created from the Registry and stored in the id arena before its
// payload is decoded, so payloads that refer back to an enclosing object resolve
// to the instance being populated.
package serial

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownTag is returned when a record's type tag has no registered factory.
	ErrUnknownTag = errors.New("serial: unknown type tag")

	// ErrUnresolvedReference is returned when a cached record refers to an id that
	// has not been read yet in the current call.
	ErrUnresolvedReference = errors.New("serial: unresolved object reference")

	// ErrMalformed is returned for truncated input, bad markers, bad length
	// prefixes and out-of-sequence ids.
	ErrMalformed = errors.New("serial: malformed stream")

	// ErrTypeMismatch is returned by the typed read helpers when a decoded object
	// does not have the requested Go type.
	ErrTypeMismatch = errors.New("serial: object type mismatch")
)

// marker follows the id of every non-nil record.
type marker uint8

const (
	markerCached    marker = 1 // id refers to an object already read in this call
	markerPayload   marker = 2 // int32 length + nested payload follow
	markerNoPayload marker = 3 // reconstruct from the factory's default state
)

// nilLength is the length prefix written for nil slices.
const nilLength = -1

// Object is anything that can be written as a record. TypeTag must return the
// same non-empty tag the type is registered under. Objects are identified by
// interface equality, so implementations should be pointer types.
type Object interface {
	// TypeTag returns the registered tag for this object's type.
	//
	// Returns:
	//   - string: the non-empty type tag
	TypeTag() string
}

// Encodable is an Object with a structured payload. Objects that implement only
// Object are written without a payload and read back in their default state.
type Encodable interface {
	Object

	// EncodeTo writes the object's fields.
	//
	// Parameters:
	//   - w: the writer scoped to this object's payload block
	//
	// Returns:
	//   - error: error if a nested object fails to encode
	EncodeTo(w *Writer) error

	// DecodeFrom reads the fields written by EncodeTo into the receiver.
	//
	// Parameters:
	//   - r: the reader scoped to this object's payload block
	//
	// Returns:
	//   - error: error if the payload is malformed
	DecodeFrom(r *Reader) error
}

// Factory allocates an empty instance of a registered type.
type Factory func() Object

// Registry maps type tags to factories. It is safe for concurrent use; types are
// normally registered once at startup by each package's RegisterTypes function.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - *Registry: the new registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for tag. It panics if tag is empty, factory is nil or
// the tag is already registered.
//
// Parameters:
//   - tag: the type tag written into records
//   - factory: allocates an empty instance
func (r *Registry) Register(tag string, factory Factory) {
	if tag == "" {
		panic("serial: Register requires a non-empty tag")
	}
	if factory == nil {
		panic("serial: Register requires a non-nil factory for " + tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[tag]; ok {
		panic("serial: duplicate registration for " + tag)
	}
	r.factories[tag] = factory
}

// New allocates an empty instance for tag.
//
// Parameters:
//   - tag: the type tag to instantiate
//
// Returns:
//   - Object: the new instance
//   - error: ErrUnknownTag if no factory is registered
func (r *Registry) New(tag string) (Object, error) {
	r.mu.RLock()
	f, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	return f(), nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
