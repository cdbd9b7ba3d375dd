package models

import (
	"reflect"
	"sync"
)

// PropertyDescriptor is what the registry knows about a hybrid property
type PropertyDescriptor interface {
	Name() string
	Doc() string
	// SupportsThrough reports whether the query side accepts a relation prefix
	SupportsThrough() bool
	// Registered reports whether the query side has been registered
	Registered() bool
	// Evaluate runs the value side on an instance of the declaring model
	Evaluate(instance any, args ...any) (any, error)
}

var registry = struct {
	sync.RWMutex
	byType map[reflect.Type][]PropertyDescriptor
}{byType: make(map[reflect.Type][]PropertyDescriptor)}

// RegisterProperty records p as declared on model type t. Re-registering a name replaces it.
func RegisterProperty(t reflect.Type, p PropertyDescriptor) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	registry.Lock()
	defer registry.Unlock()

	props := registry.byType[t]
	for i, existing := range props {
		if existing.Name() == p.Name() {
			props[i] = p
			return
		}
	}
	registry.byType[t] = append(props, p)
}

// Properties returns the properties declared on t in declaration order
func Properties(t reflect.Type) []PropertyDescriptor {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	registry.RLock()
	defer registry.RUnlock()
	return append([]PropertyDescriptor(nil), registry.byType[t]...)
}

// LookupProperty finds a property of t by name
func LookupProperty(t reflect.Type, name string) (PropertyDescriptor, bool) {
	for _, p := range Properties(t) {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
