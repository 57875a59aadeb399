package std

import (
	"github.com/aretw0/ironflow/pkg/dsl"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/registry"
)

// Group is the registry group of every built-in template.
const Group = "std"

const (
	colorArray = "#aabb44"
	colorMath  = "#5d95de"
	colorLoop  = "#b33a27"
	colorClick = "#99dd55"
)

var numeric = dtype.WithClasses(dtype.ClassInt, dtype.ClassFloat)

func builder() *dsl.Builder {
	b := dsl.New(Group)

	b.Add("Select").
		Doc("Select a single element of an iterable input. Negative indices count from the end.").
		Color(colorArray).
		In("array", dtype.List()).
		In("i", dtype.Integer()).
		Out("item", dtype.Data(dtype.WithClasses(dtype.ClassObject))).
		Func(selectItem)

	b.Add("Slice").
		Doc("Slice an iterable. A missing i starts at the beginning, a missing j runs to the end.").
		Color(colorArray).
		In("array", dtype.List()).
		In("i", dtype.Integer(dtype.WithDefault(nil), dtype.AllowNone())).
		In("j", dtype.Integer(dtype.WithDefault(nil), dtype.AllowNone())).
		Out("sliced", dtype.List()).
		Func(slice)

	b.Add("Transpose").
		Doc("Transpose a two-dimensional list. A flat list becomes a column.").
		Color(colorArray).
		In("array", dtype.List()).
		Out("transposed", dtype.List()).
		Func(transpose)

	b.Add("IntRandom").
		Doc("Generate random integers in [low, high).").
		Color(colorArray).
		In("low", dtype.Integer()).
		In("high", dtype.Integer(dtype.WithDefault(1))).
		In("length", dtype.Integer(dtype.WithDefault(1))).
		Out("randint", dtype.List(dtype.WithClasses(dtype.ClassInt))).
		Func(intRandom)

	b.Add("Linspace").
		Doc("Sample steps evenly spaced values over [min, max].").
		Color(colorArray).
		In("min", dtype.Float(dtype.WithDefault(1.0))).
		In("max", dtype.Float(dtype.WithDefault(2.0))).
		In("steps", dtype.Integer(dtype.WithDefault(10))).
		Out("linspace", dtype.List(dtype.WithClasses(dtype.ClassFloat))).
		Func(linspace)

	b.Add("Sin").
		Doc("Sine of every element of x.").
		Color(colorMath).
		Version("v0.1").
		In("x", dtype.List(numeric)).
		Out("sin", dtype.List(numeric)).
		Func(sin)

	b.Add("Input").
		Doc("Give data as a string and cast it to int and float where possible.").
		In("input", dtype.String()).
		Out("as_str", dtype.String()).
		Out("as_int", dtype.Integer(dtype.AllowNone())).
		Out("as_float", dtype.Float(dtype.AllowNone())).
		Func(input)

	b.Add("InputArray").
		Doc("Give data as a comma-separated string and cast it to arrays.").
		In("input", dtype.String()).
		Out("as_str", dtype.List(dtype.WithClasses(dtype.ClassStr))).
		Out("as_int", dtype.List(dtype.WithClasses(dtype.ClassInt), dtype.AllowNone())).
		Out("as_float", dtype.List(dtype.WithClasses(dtype.ClassFloat), dtype.AllowNone())).
		Func(inputArray)

	b.Add("ForEach").
		Doc("Emit one element per start signal on e and fire loop; fire finished when exhausted. reset or new elements restart the loop.").
		Color(colorLoop).
		Version("v0.1").
		ExecIn("start").
		ExecIn("reset").
		In("elements", dtype.List()).
		ExecOut("loop").
		Out("e", dtype.Untyped()).
		ExecOut("finished").
		Update(forEach).
		Representations(countRepresentation)

	b.Add("ExecCounter").
		Doc("Count exec signals and pass them on.").
		Color(colorMath).
		Version("v0.1").
		ExecIn("exec").
		ExecOut("exec").
		Out("count", dtype.Integer()).
		Update(execCounter).
		Representations(countRepresentation)

	b.Add("Click").
		Doc("Fire an exec signal on demand, see Press.").
		Color(colorClick).
		Version("v0.1").
		ExecOut("exec").
		Update(func(*flow.Node, int) error { return nil })

	return b
}

// Templates returns fresh copies of the built-in templates.
func Templates() ([]*flow.Template, error) {
	return builder().Templates()
}

// Register adds the built-in templates to r.
func Register(r *registry.Registry) error {
	return builder().Register(r)
}
