package std

import (
	"strconv"
	"strings"

	"github.com/aretw0/ironflow/pkg/flow"
)

func parseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i, err == nil
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// input leaves as_int and as_float nil when the text does not parse.
func input(in flow.Values) (flow.Values, error) {
	s, _ := in["input"].(string)
	out := flow.Values{"as_str": s, "as_int": nil, "as_float": nil}
	if i, ok := parseInt(s); ok {
		out["as_int"] = i
	}
	if f, ok := parseFloat(s); ok {
		out["as_float"] = f
	}
	return out, nil
}

func inputArray(in flow.Values) (flow.Values, error) {
	s, _ := in["input"].(string)
	parts := strings.Split(s, ",")
	out := flow.Values{"as_str": parts, "as_int": nil, "as_float": nil}

	ints := make([]int64, len(parts))
	floats := make([]float64, len(parts))
	intsOK, floatsOK := true, true
	for i, p := range parts {
		if intsOK {
			ints[i], intsOK = parseInt(p)
		}
		if floatsOK {
			floats[i], floatsOK = parseFloat(p)
		}
	}
	if intsOK {
		out["as_int"] = ints
	}
	if floatsOK {
		out["as_float"] = floats
	}
	return out, nil
}
