/*
Package dsl provides a fluent builder for node templates.

Templates are usually declared in Go next to the function they run. The
builder keeps those declarations short and checks them before they reach a
registry.

Example usage:

	b := dsl.New("math")

	b.Add("Sin").
		Doc("Sine of x.").
		In("x", dtype.Float()).
		Out("sin", dtype.Float()).
		Func(func(in flow.Values) (flow.Values, error) {
			return flow.Values{"sin": math.Sin(in["x"].(float64))}, nil
		})

	loader, err := b.Build() // a ports.TemplateLoader
*/
package dsl
