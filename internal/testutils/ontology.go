package testutils

import (
	"testing"

	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/stretchr/testify/require"
)

// AtomisticsYAML is a small ontology: structures are built from elements, may
// be repeated (which passes requirements upstream) and are consumed by an MD
// calculation that requires periodicity.
const AtomisticsYAML = `
namespace: atomistics
concepts:
  - name: element
  - name: structure
  - name: bulk_structure
    parents: [structure]
  - name: surface_structure
    parents: [structure]
  - name: energy
functions:
  - name: bulk
    inputs:
      - name: element
        generic: element
    outputs:
      - name: structure
        generic: bulk_structure
        conditions: [periodic]
  - name: surface
    inputs:
      - name: element
        generic: element
    outputs:
      - name: structure
        generic: surface_structure
  - name: repeat
    inputs:
      - name: structure
        generic: structure
    outputs:
      - name: structure
        generic: structure
        transfers: [structure]
  - name: md
    inputs:
      - name: structure
        generic: structure
        requirements: [periodic]
    outputs:
      - name: energy
        generic: energy
`

// Atomistics parses AtomisticsYAML.
func Atomistics(t testing.TB) *otype.Ontology {
	t.Helper()
	o, err := otype.Parse([]byte(AtomisticsYAML))
	require.NoError(t, err)
	return o
}
