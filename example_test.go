package ironflow_test

import (
	"fmt"

	"github.com/aretw0/ironflow"
)

func Example() {
	iflow, err := ironflow.New("example")
	if err != nil {
		panic(err)
	}

	lin, _ := iflow.CreateNode("std.Linspace", 0, 0)
	sel, _ := iflow.CreateNode("std.Select", 200, 0)

	if _, err := iflow.Flow().Connect(lin.Output("linspace"), sel.Input("array")); err != nil {
		panic(err)
	}
	if err := sel.Input("i").Update(-1); err != nil {
		panic(err)
	}

	fmt.Println(sel.Output("item").Value)
	// Output: 2
}
