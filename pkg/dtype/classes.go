package dtype

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Built-in class names.
const (
	ClassObject = "object"
	ClassInt    = "int"
	ClassBool   = "bool"
	ClassFloat  = "float"
	ClassStr    = "str"
	ClassList   = "list"
	ClassNone   = "none"
)

// Classed lets domain values report their own class, e.g. "Atoms".
type Classed interface {
	Class() string
}

// Classes is a single-inheritance class hierarchy rooted at "object".
type Classes struct {
	mu      sync.RWMutex
	parents map[string]string
}

// NewClasses returns a hierarchy holding the built-in classes.
func NewClasses() *Classes {
	return &Classes{parents: map[string]string{
		ClassObject: "",
		ClassInt:    ClassObject,
		ClassBool:   ClassInt,
		ClassFloat:  ClassObject,
		ClassStr:    ClassObject,
		ClassList:   ClassObject,
		ClassNone:   ClassObject,
	}}
}

// Register adds a class under parent. An empty parent means "object".
// Registering an existing class moves it under the new parent.
func (c *Classes) Register(name, parent string) error {
	if name == "" || name == ClassObject {
		return fmt.Errorf("invalid class name %q", name)
	}
	if parent == "" {
		parent = ClassObject
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.parents[parent]; !ok {
		return fmt.Errorf("%w: parent %q of %q", ErrUnknownClass, parent, name)
	}
	for p := parent; p != ""; p = c.parents[p] {
		if p == name {
			return fmt.Errorf("class %q cannot inherit from itself", name)
		}
	}
	c.parents[name] = parent
	return nil
}

// Known reports whether the class has been registered.
func (c *Classes) Known(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.parents[name]
	return ok
}

// IsSubclass reports whether class a is b or descends from it.
// Unknown classes are only subclasses of themselves and of "object".
func (c *Classes) IsSubclass(a, b string) bool {
	if a == b || b == ClassObject {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for p, ok := c.parents[a]; ok && p != ""; p, ok = c.parents[p] {
		if p == b {
			return true
		}
	}
	return false
}

// Names returns the registered class names, sorted.
func (c *Classes) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.parents))
	for n := range c.parents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var defaultClasses = NewClasses()

// DefaultClasses returns the process-wide hierarchy used by every DType.
func DefaultClasses() *Classes { return defaultClasses }

// RegisterClass adds a class to the default hierarchy.
func RegisterClass(name, parent string) error { return defaultClasses.Register(name, parent) }

// IsSubclass checks the default hierarchy.
func IsSubclass(a, b string) bool { return defaultClasses.IsSubclass(a, b) }

// ClassOf classifies a Go value.
func ClassOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ClassNone
	case Classed:
		return x.Class()
	case bool:
		return ClassBool
	case string:
		return ClassStr
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return ClassInt
		}
		return ClassFloat
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ClassInt
	case float32, float64:
		return ClassFloat
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return ClassList
	case reflect.Pointer:
		rv := reflect.ValueOf(v)
		if rv.IsNil() {
			return ClassNone
		}
		return ClassOf(rv.Elem().Interface())
	}
	return ClassObject
}

// isIterable reports whether v can be batched over. Strings are not.
func isIterable(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// Elements returns the elements of a slice or array value, or nil when v is
// not iterable.
func Elements(v any) []any {
	if !isIterable(v) {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
