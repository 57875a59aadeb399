package std

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
)

// ErrRagged is returned by Transpose for rows of different lengths.
var ErrRagged = errors.New("rows have different lengths")

func selectItem(in flow.Values) (flow.Values, error) {
	elems := dtype.Elements(in["array"])
	i, err := toInt(in["i"])
	if err != nil {
		return nil, err
	}
	if i < 0 {
		i += len(elems)
	}
	if i < 0 || i >= len(elems) {
		return nil, fmt.Errorf("index %v out of range for %d elements", in["i"], len(elems))
	}
	return flow.Values{"item": elems[i]}, nil
}

// bound resolves a slice index the way negative indices usually work:
// counted from the end and clamped to [0, n].
func bound(v any, n, fallback int) (int, error) {
	if v == nil {
		return fallback, nil
	}
	k, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if k < 0 {
		k += n
	}
	return min(max(k, 0), n), nil
}

func slice(in flow.Values) (flow.Values, error) {
	elems := dtype.Elements(in["array"])
	lo, err := bound(in["i"], len(elems), 0)
	if err != nil {
		return nil, err
	}
	hi, err := bound(in["j"], len(elems), len(elems))
	if err != nil {
		return nil, err
	}
	if lo > hi {
		lo = hi
	}
	return flow.Values{"sliced": slices.Clone(elems[lo:hi])}, nil
}

func transpose(in flow.Values) (flow.Values, error) {
	elems := dtype.Elements(in["array"])
	if len(elems) == 0 {
		return flow.Values{"transposed": []any{}}, nil
	}

	var rows [][]any
	if dtype.Elements(elems[0]) == nil {
		rows = [][]any{elems}
	} else {
		for _, e := range elems {
			rows = append(rows, dtype.Elements(e))
		}
	}

	width := len(rows[0])
	for _, r := range rows {
		if len(r) != width {
			return nil, ErrRagged
		}
	}
	out := make([]any, width)
	for c := range width {
		col := make([]any, len(rows))
		for r := range rows {
			col[r] = rows[r][c]
		}
		out[c] = col
	}
	return flow.Values{"transposed": out}, nil
}
