package resources

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/store"
)

type ResourceCategory string

const (
	CategoryFont    ResourceCategory = "Font"
	CategoryXObject ResourceCategory = "XObject"
)

// ErrResourceLoadFailed is matched by every error a producer returns through
// Register.
var ErrResourceLoadFailed = errors.New("resource load failed")

// Allocator creates indirect objects. Producers use it for objects the
// resource depends on, such as font descriptors and embedded font files.
type Allocator = store.Allocator

// Producer materializes a resource the first time its key is registered.
// Objects it creates through a are discarded if it fails.
type Producer func(a Allocator) (raw.Object, error)

// Entry is a registered resource: the name page content uses to address it
// and the indirect object holding it.
type Entry struct {
	Name string
	Ref  raw.ObjectRef
}

// Registry deduplicates resources of one category by key and names them
// sequentially (F1, F2, ... or I1, I2, ...).
type Registry struct {
	category ResourceCategory
	prefix   string
	backend  store.Transactor

	mu      sync.Mutex
	entries map[string]Entry
	order   []string
}

// NewRegistry returns a registry that stores resources in backend.
func NewRegistry(category ResourceCategory, prefix string, backend store.Transactor) *Registry {
	return &Registry{
		category: category,
		prefix:   prefix,
		backend:  backend,
		entries:  make(map[string]Entry),
	}
}

// NewFontRegistry returns the font registry of a document.
func NewFontRegistry(backend store.Transactor) *Registry {
	return NewRegistry(CategoryFont, "F", backend)
}

// NewImageRegistry returns the image registry of a document.
func NewImageRegistry(backend store.Transactor) *Registry {
	return NewRegistry(CategoryXObject, "I", backend)
}

func (r *Registry) Category() ResourceCategory { return r.category }

// Register returns the entry for key, invoking p and storing its result only
// if key is new. A failed producer leaves both the registry and the store
// untouched.
func (r *Registry) Register(key string, p Producer) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key]; ok {
		return e, nil
	}
	var e Entry
	err := r.backend.Transact(func(a Allocator) error {
		obj, err := p(a)
		if err != nil {
			return err
		}
		if obj == nil {
			return errors.New("producer returned no object")
		}
		e = Entry{
			Name: r.prefix + strconv.Itoa(len(r.order)+1),
			Ref:  a.Create(obj),
		}
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %s %q: %w", ErrResourceLoadFailed, r.category, key, err)
	}
	r.entries[key] = e
	r.order = append(r.order, key)
	return e, nil
}

// Lookup returns the entry registered under key.
func (r *Registry) Lookup(key string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}

// All maps display names to object references.
func (r *Registry) All() map[string]raw.ObjectRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]raw.ObjectRef, len(r.entries))
	for _, e := range r.entries {
		out[e.Name] = e.Ref
	}
	return out
}

// Names returns the display names in lexical order.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Dict renders the registry as a resource sub-dictionary (name -> ref).
func (r *Registry) Dict() *raw.DictObj {
	d := raw.Dict()
	for name, ref := range r.All() {
		d.Put(name, raw.RefTo(ref))
	}
	return d
}
