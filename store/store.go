// Package store owns the indirect objects of a document under construction.
//
// Objects live in an arena: object number n occupies slot n-1, numbers are
// issued once and never reused, and values may be replaced at any time so
// an object can refer to others created after it. All is the only way to
// read the full table and always returns objects in number order, which is
// the order the writer emits them.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/floatpays/pdfkit/ir/raw"
)

// ErrUnknownObject reports an operation on a reference the store never issued.
var ErrUnknownObject = errors.New("unknown object")

// Allocator creates indirect objects.
type Allocator interface {
	Create(v raw.Object) raw.ObjectRef
}

// Transactor runs fn so that the objects it creates through a exist only if
// fn succeeds.
type Transactor interface {
	Transact(fn func(a Allocator) error) error
}

// IndirectObject pairs an object reference with its current value.
type IndirectObject struct {
	Ref   raw.ObjectRef
	Value raw.Object
}

// Store is an append-only table of indirect objects. The zero value is ready
// to use; all methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	slots []raw.Object
}

// New returns an empty store.
func New() *Store { return &Store{} }

// Create stores v under the next object number.
func (s *Store) Create(v raw.Object) raw.ObjectRef {
	if v == nil {
		v = raw.NullObj{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = append(s.slots, v)
	return raw.ObjectRef{Num: len(s.slots), Gen: 0}
}

// Alloc issues an object number whose value stays null until replaced.
func (s *Store) Alloc() raw.ObjectRef { return s.Create(raw.NullObj{}) }

// Get returns the value currently stored under ref.
func (s *Store) Get(ref raw.ObjectRef) (raw.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.slot(ref)
	if err != nil {
		return nil, err
	}
	return s.slots[i], nil
}

// Replace overwrites the value stored under ref.
func (s *Store) Replace(ref raw.ObjectRef, v raw.Object) error {
	if v == nil {
		v = raw.NullObj{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.slot(ref)
	if err != nil {
		return err
	}
	s.slots[i] = v
	return nil
}

// Update replaces the value under ref with fn applied to it. fn runs with the
// store locked and must not call back into the store.
func (s *Store) Update(ref raw.ObjectRef, fn func(raw.Object) raw.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.slot(ref)
	if err != nil {
		return err
	}
	next := fn(s.slots[i])
	if next == nil {
		next = raw.NullObj{}
	}
	s.slots[i] = next
	return nil
}

// All returns a snapshot of every object in ascending number order.
func (s *Store) All() []IndirectObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]IndirectObject, len(s.slots))
	for i, v := range s.slots {
		out[i] = IndirectObject{Ref: raw.ObjectRef{Num: i + 1}, Value: v}
	}
	return out
}

// Transact runs fn with the store locked. Objects fn creates through a are
// kept when fn returns nil; on error they are dropped and their numbers are
// issued again later. fn must create objects only through a: calling any
// other Store method from fn deadlocks.
func (s *Store) Transact(fn func(a Allocator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mark := len(s.slots)
	if err := fn(txn{s}); err != nil {
		clear(s.slots[mark:])
		s.slots = s.slots[:mark]
		return err
	}
	return nil
}

type txn struct{ s *Store }

func (t txn) Create(v raw.Object) raw.ObjectRef {
	if v == nil {
		v = raw.NullObj{}
	}
	t.s.slots = append(t.s.slots, v)
	return raw.ObjectRef{Num: len(t.s.slots)}
}

// Len returns the number of objects issued so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *Store) slot(ref raw.ObjectRef) (int, error) {
	if ref.Num < 1 || ref.Num > len(s.slots) || ref.Gen != 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObject, ref)
	}
	return ref.Num - 1, nil
}
