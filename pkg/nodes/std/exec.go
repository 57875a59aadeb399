package std

import (
	"fmt"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
)

func count(n *flow.Node) int {
	c, err := toInt(n.State["count"])
	if err != nil {
		return 0
	}
	return c
}

func countRepresentation(n *flow.Node) map[string]any {
	return map[string]any{"count": count(n)}
}

// forEach ports: in start, reset, elements; out loop, e, finished.
func forEach(n *flow.Node, inp int) error {
	switch inp {
	case 0:
		elems := dtype.Elements(n.InputValue(2))
		c := count(n)
		if c >= len(elems) {
			return n.ExecOutput(2)
		}
		n.State["count"] = c + 1
		if err := n.SetOutput(1, elems[c]); err != nil {
			return err
		}
		return n.ExecOutput(0)
	case 1, 2:
		n.State["count"] = 0
	}
	return nil
}

func execCounter(n *flow.Node, inp int) error {
	if inp != 0 {
		return nil
	}
	c := count(n) + 1
	n.State["count"] = c
	if err := n.SetOutput(1, c); err != nil {
		return err
	}
	return n.ExecOutput(0)
}

// Press fires the exec output of a Click node.
func Press(n *flow.Node) error {
	if n.Template == nil || n.Template.Identifier() != Group+".Click" {
		return fmt.Errorf("%s is not a Click node", n.Title)
	}
	return n.ExecOutput(0)
}
