package dtype

import (
	"math"
	"reflect"
)

// Accepts reports whether an output port of dtype other may feed an input port
// of dtype d. Either side being untyped yields ErrCheckByValue.
func (d *DType) Accepts(other *DType) (bool, error) {
	if d.IsUntyped() || other.IsUntyped() {
		return false, ErrCheckByValue
	}
	switch {
	case d.Kind.IsData():
		return d.acceptsAsData(other), nil
	case d.Kind == KindChoice:
		return d.acceptsAsChoice(other), nil
	case d.Kind == KindList:
		return d.acceptsAsList(other), nil
	}
	return false, nil
}

func (d *DType) acceptsAsData(other *DType) bool {
	related := other.Kind.descends(d.Kind) || d.Kind.descends(other.Kind)
	if related && other.Kind.IsData() && d.Batched == other.Batched {
		return d.subset(other) && !d.surpriseNone(other)
	}
	if d.Batched && other.Kind == KindList && !other.Batched {
		return d.subset(other)
	}
	return false
}

func (d *DType) acceptsAsChoice(other *DType) bool {
	if d.Batched {
		fits := (other.Kind == KindList && !other.Batched) || (other.Kind.IsData() && other.Batched)
		return fits && d.subset(other) && !d.surpriseNone(other)
	}
	return other.Kind.IsData() && !other.Batched && d.subset(other) && !d.surpriseNone(other)
}

func (d *DType) acceptsAsList(other *DType) bool {
	if d.Batched {
		return other.Kind == KindList && other.Batched && d.subset(other)
	}
	fits := other.Kind == KindList || (other.Kind.IsData() && other.Batched)
	return fits && d.subset(other)
}

// subset reports whether every class other may carry is covered by d.
func (d *DType) subset(other *DType) bool {
	return classesSubset(other.ValidClasses, d.ValidClasses)
}

func classesSubset(classes, ref []string) bool {
	for _, c := range classes {
		covered := false
		for _, r := range ref {
			if defaultClasses.IsSubclass(c, r) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

// surpriseNone reports whether other may emit nil where d does not allow it.
func (d *DType) surpriseNone(other *DType) bool {
	return other.AllowNone && !d.AllowNone
}

// AcceptsValue reports whether v may be held by a port of this dtype.
func (d *DType) AcceptsValue(v any) bool {
	if d.IsUntyped() {
		if d != nil && d.Batched {
			return isIterable(v)
		}
		return true
	}
	if d.Batched {
		return d.acceptsBatch(v)
	}
	if v == nil {
		return d.AllowNone
	}
	return d.acceptsInstance(v)
}

// ValidValue is an alias of AcceptsValue.
func (d *DType) ValidValue(v any) bool { return d.AcceptsValue(v) }

// acceptsInstance checks a single non-nil value.
func (d *DType) acceptsInstance(v any) bool {
	switch d.Kind {
	case KindChoice:
		return d.hasItem(v)
	case KindList:
		if !isIterable(v) {
			return false
		}
		for _, e := range Elements(v) {
			if !d.hasClass(e) {
				return false
			}
		}
		return true
	}
	return d.hasClass(v)
}

func (d *DType) acceptsBatch(v any) bool {
	if !isIterable(v) {
		return false
	}
	for _, e := range Elements(v) {
		if e == nil && d.Kind != KindChoice {
			if !d.AllowNone {
				return false
			}
			continue
		}
		if !d.acceptsInstance(e) {
			return false
		}
	}
	return true
}

func (d *DType) hasClass(v any) bool {
	return classesSubset([]string{ClassOf(v)}, d.ValidClasses)
}

func (d *DType) hasItem(v any) bool {
	for _, item := range d.Items {
		if ValuesEqual(item, v) {
			return true
		}
	}
	return false
}

// ValuesEqual compares two values, treating numbers of different Go types as
// equal when they hold the same value.
func ValuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x)
	}
	if n, ok := v.(interface{ Float64() (float64, error) }); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
