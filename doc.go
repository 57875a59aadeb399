/*
Package ironflow models visual scripting workflows: nodes with typed ports,
connected into flows, grouped into scripts of a session.

Ports carry a dtype describing the values they hold. Two ports connect only
when the input's dtype accepts the output's, and a batched port carries a
list of values that the node maps over. Ports may also carry an ontology
type; an ontology then decides which workflows are semantically valid and
which templates to recommend for a selected port.

# Usage

	package main

	import (
		"log"

		"github.com/aretw0/ironflow"
	)

	func main() {
		iflow, err := ironflow.New("demo")
		if err != nil {
			log.Fatal(err)
		}

		lin, _ := iflow.CreateNode("std.Linspace", 0, 0)
		sin, _ := iflow.CreateNode("std.Sin", 200, 0)
		if _, err := iflow.Flow().Connect(lin.Output("linspace"), sin.Input("x")); err != nil {
			log.Fatal(err)
		}
		log.Println(sin.Output("sin").Value)

		if err := iflow.Save("demo.json"); err != nil {
			log.Fatal(err)
		}
	}

Templates can be written in Go with pkg/dsl, or as markdown documents with a
frontmatter port declaration loaded from a directory (WithNodeDirs).
Sessions persist to JSON files, or through pkg/session.Manager to any
ports.SessionStore: memory, file, redis or sqlite.
*/
package ironflow
