package std

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
)

func intRandom(in flow.Values) (flow.Values, error) {
	var n [3]int
	for i, label := range []string{"low", "high", "length"} {
		v, err := toInt(in[label])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		n[i] = v
	}
	low, high, length := n[0], n[1], n[2]
	if high <= low {
		return nil, fmt.Errorf("high (%d) must be greater than low (%d)", high, low)
	}
	if length < 0 {
		return nil, fmt.Errorf("length must not be negative, got %d", length)
	}
	out := make([]int64, length)
	for i := range out {
		out[i] = int64(low) + rand.Int64N(int64(high-low))
	}
	return flow.Values{"randint": out}, nil
}

func linspace(in flow.Values) (flow.Values, error) {
	lo, err := toFloat(in["min"])
	if err != nil {
		return nil, err
	}
	hi, err := toFloat(in["max"])
	if err != nil {
		return nil, err
	}
	steps, err := toInt(in["steps"])
	if err != nil {
		return nil, err
	}
	if steps < 0 {
		return nil, fmt.Errorf("steps must not be negative, got %d", steps)
	}
	out := make([]float64, steps)
	switch steps {
	case 0:
	case 1:
		out[0] = lo
	default:
		step := (hi - lo) / float64(steps-1)
		for i := range out {
			out[i] = lo + float64(i)*step
		}
		out[steps-1] = hi
	}
	return flow.Values{"linspace": out}, nil
}

func sin(in flow.Values) (flow.Values, error) {
	elems := dtype.Elements(in["x"])
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, err := toFloat(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = math.Sin(f)
	}
	return flow.Values{"sin": out}, nil
}
