package dtype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// UnmarshalJSON restores a dtype. The kind may be written as "integer" or in
// the legacy "DType.Integer" form.
func (d *DType) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("dtype: UnmarshalJSON on nil pointer")
	}

	type plain DType
	var raw struct {
		plain
		Kind string `json:"kind"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	kind := KindUntyped
	if raw.Kind != "" {
		k, err := KindFromString(raw.Kind)
		if err != nil {
			return err
		}
		kind = k
	}

	*d = DType(raw.plain)
	d.Kind = kind
	d.Default = d.coerceOne(Normalize(d.Default))
	for i, item := range d.Items {
		d.Items[i] = Normalize(item)
	}
	if kind == KindUntyped {
		d.AllowNone = true
	}
	return nil
}

// Normalize turns json.Number values, including those nested in slices and
// maps, into int64 or float64.
func Normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := x.Int64(); err == nil {
				return i
			}
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return s
	case []any:
		for i := range x {
			x[i] = Normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = Normalize(x[k])
		}
		return x
	}
	return v
}

// Coerce restores float-ness lost by JSON: whole numbers decode as int64, so a
// port that only takes floats gets them back as float64. List values are
// coerced element by element, batched values one level deeper.
func (d *DType) Coerce(v any) any {
	if d == nil {
		return v
	}
	depth := 0
	if d.Kind == KindList {
		depth++
	}
	if d.Batched {
		depth++
	}
	return d.coerceDepth(v, depth)
}

func (d *DType) coerceDepth(v any, depth int) any {
	if depth == 0 {
		return d.coerceOne(v)
	}
	elems, ok := v.([]any)
	if !ok {
		return v
	}
	for i := range elems {
		elems[i] = d.coerceDepth(elems[i], depth-1)
	}
	return elems
}

func (d *DType) coerceOne(v any) any {
	i, ok := v.(int64)
	if !ok || slices.Contains(d.ValidClasses, ClassInt) {
		return v
	}
	if slices.Contains(d.ValidClasses, ClassFloat) {
		return float64(i)
	}
	return v
}
