package dtype

import (
	"fmt"
	"slices"
	"strings"
)

// Kind names the flavour of a DType.
type Kind string

const (
	KindUntyped Kind = "untyped"
	KindData    Kind = "data"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindChoice  Kind = "choice"
	KindList    Kind = "list"
)

var kindTitles = map[Kind]string{
	KindUntyped: "Untyped",
	KindData:    "Data",
	KindInteger: "Integer",
	KindFloat:   "Float",
	KindBoolean: "Boolean",
	KindString:  "String",
	KindChoice:  "Choice",
	KindList:    "List",
}

// Title returns the capitalised kind name, e.g. "Integer".
func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// KindFromString resolves "integer", "Integer" and "DType.Integer".
func KindFromString(s string) (Kind, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "DType.")
	k := Kind(strings.ToLower(s))
	if _, ok := kindTitles[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// parent returns the kind this one specialises, or "".
func (k Kind) parent() Kind {
	switch k {
	case KindInteger, KindFloat, KindBoolean, KindString:
		return KindData
	}
	return ""
}

// IsData reports whether the kind belongs to the data family.
func (k Kind) IsData() bool { return k == KindData || k.parent() == KindData }

// descends reports whether k is kind or specialises it.
func (k Kind) descends(kind Kind) bool {
	for c := k; c != ""; c = c.parent() {
		if c == kind {
			return true
		}
	}
	return false
}

// Bounds constrains numeric widgets. Either end may be open.
type Bounds struct {
	Min *float64 `json:"min,omitempty" msgpack:"min,omitempty"`
	Max *float64 `json:"max,omitempty" msgpack:"max,omitempty"`
}

// DType describes what a port may carry.
type DType struct {
	Kind         Kind     `json:"kind" msgpack:"kind"`
	Default      any      `json:"default,omitempty" msgpack:"default,omitempty"`
	Doc          string   `json:"doc,omitempty" msgpack:"doc,omitempty"`
	ValidClasses []string `json:"valid_classes,omitempty" msgpack:"valid_classes,omitempty"`
	AllowNone    bool     `json:"allow_none" msgpack:"allow_none"`
	Batched      bool     `json:"batched" msgpack:"batched"`
	Bounds       *Bounds  `json:"bounds,omitempty" msgpack:"bounds,omitempty"`
	Decimals     int      `json:"decimals,omitempty" msgpack:"decimals,omitempty"`
	Size         string   `json:"size,omitempty" msgpack:"size,omitempty"`
	Items        []any    `json:"items,omitempty" msgpack:"items,omitempty"`
}

// Option configures a DType at construction.
type Option func(*DType)

// WithDefault sets the default value placed on fresh ports.
func WithDefault(v any) Option { return func(d *DType) { d.Default = v } }

// WithDoc sets the help text.
func WithDoc(doc string) Option { return func(d *DType) { d.Doc = doc } }

// WithClasses replaces the valid classes.
func WithClasses(classes ...string) Option {
	return func(d *DType) { d.ValidClasses = slices.Clone(classes) }
}

// AllowNone lets the port hold nil.
func AllowNone() Option { return func(d *DType) { d.AllowNone = true } }

// Batched makes the port carry a list of values.
func Batched() Option { return func(d *DType) { d.Batched = true } }

// WithBounds sets numeric bounds.
func WithBounds(lo, hi float64) Option {
	return func(d *DType) { d.Bounds = &Bounds{Min: &lo, Max: &hi} }
}

// WithDecimals sets the display precision of a Float.
func WithDecimals(n int) Option { return func(d *DType) { d.Decimals = n } }

// WithSize sets the widget size hint of a Data dtype ("s", "m" or "l").
func WithSize(size string) Option { return func(d *DType) { d.Size = size } }

func build(d *DType, opts []Option) *DType {
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Untyped accepts anything and is only ever checked by value.
func Untyped(opts ...Option) *DType {
	return build(&DType{Kind: KindUntyped, AllowNone: true}, opts)
}

// Data is the generic data dtype. Set its classes with WithClasses.
func Data(opts ...Option) *DType {
	return build(&DType{Kind: KindData, Size: "m"}, opts)
}

// Integer holds ints.
func Integer(opts ...Option) *DType {
	return build(&DType{Kind: KindInteger, Default: 0, ValidClasses: []string{ClassInt}, Size: "m"}, opts)
}

// Float holds floats.
func Float(opts ...Option) *DType {
	return build(&DType{Kind: KindFloat, Default: 0.0, ValidClasses: []string{ClassFloat}, Decimals: 10, Size: "m"}, opts)
}

// Boolean holds bools.
func Boolean(opts ...Option) *DType {
	return build(&DType{Kind: KindBoolean, Default: false, ValidClasses: []string{ClassBool}, Size: "m"}, opts)
}

// String holds strings.
func String(opts ...Option) *DType {
	return build(&DType{Kind: KindString, Default: "", ValidClasses: []string{ClassStr}, Size: "m"}, opts)
}

// Choice restricts values to items.
func Choice(items []any, opts ...Option) *DType {
	return build(&DType{Kind: KindChoice, Items: slices.Clone(items)}, opts)
}

// List holds iterables whose elements belong to the valid classes.
func List(opts ...Option) *DType {
	return build(&DType{Kind: KindList, ValidClasses: []string{ClassObject}}, opts)
}

// IsUntyped reports whether dtype checks must fall back to values.
func (d *DType) IsUntyped() bool { return d == nil || d.Kind == KindUntyped }

// String renders the dtype as e.g. "Integer" or "Float[batched]".
func (d *DType) String() string {
	if d == nil {
		return KindUntyped.Title()
	}
	s := d.Kind.Title()
	if d.Batched {
		s += "[batched]"
	}
	return s
}

// Clone returns a deep copy so that ports never share dtype state.
func (d *DType) Clone() *DType {
	if d == nil {
		return Untyped()
	}
	c := *d
	c.ValidClasses = slices.Clone(d.ValidClasses)
	c.Items = slices.Clone(d.Items)
	if d.Bounds != nil {
		b := Bounds{}
		if d.Bounds.Min != nil {
			lo := *d.Bounds.Min
			b.Min = &lo
		}
		if d.Bounds.Max != nil {
			hi := *d.Bounds.Max
			b.Max = &hi
		}
		c.Bounds = &b
	}
	return &c
}
