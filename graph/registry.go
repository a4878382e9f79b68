package graph

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Factory constructs a zero valued element for a tag.
type Factory func() Element

// Registry maps record tags to element constructors. Registries are built explicitly by the
// packages that provide elements; there is no process wide registry.
type Registry struct {
	group string

	mu        sync.RWMutex
	factories map[string]Factory
	tags      map[reflect.Type]string
}

// NewRegistry returns an empty registry. The group names the family of types it holds and only
// shows up in errors and logs.
func NewRegistry(group string) *Registry {
	return &Registry{
		group:     group,
		factories: map[string]Factory{},
		tags:      map[reflect.Type]string{},
	}
}

// Group returns the name the registry was created with.
func (r *Registry) Group() string {
	return r.group
}

// Register associates tag with factory. A tag may only be registered once.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return errors.New("cannot register an empty tag")
	}
	if factory == nil {
		return errors.Errorf("nil factory for tag %q", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[tag]; ok {
		return errors.Errorf("tag %q already registered in group %q", tag, r.group)
	}
	typ := reflect.TypeOf(factory())
	if other, ok := r.tags[typ]; ok {
		return errors.Errorf("type %v already registered in group %q as %q", typ, r.group, other)
	}
	r.factories[tag] = factory
	r.tags[typ] = tag
	return nil
}

// Construct returns a new element for tag.
func (r *Registry) Construct(tag string) (Element, bool) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// TagOf returns the tag elem was registered under.
func (r *Registry) TagOf(elem Element) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tag, ok := r.tags[reflect.TypeOf(elem)]
	return tag, ok
}

// Tags returns every registered tag in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
