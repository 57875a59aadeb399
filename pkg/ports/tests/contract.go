package tests

import (
	"testing"

	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TemplateLoaderContractTest is a reusable test suite that verifies if an
// adapter complies with ports.TemplateLoader. expected maps identifiers to
// template titles.
func TemplateLoaderContractTest(t *testing.T, loader ports.TemplateLoader, expected map[string]string) {
	t.Helper()

	t.Run("GetTemplate_Success", func(t *testing.T) {
		for id, title := range expected {
			tmpl, err := loader.GetTemplate(id)
			require.NoError(t, err, "getting template %s", id)
			assert.Equal(t, title, tmpl.Title)
			assert.Equal(t, id, tmpl.Identifier())
		}
	})

	t.Run("GetTemplate_NotFound", func(t *testing.T) {
		_, err := loader.GetTemplate("nowhere.non-existent")
		assert.ErrorIs(t, err, ports.ErrTemplateNotFound)
	})

	t.Run("ListTemplates", func(t *testing.T) {
		ids, err := loader.ListTemplates()
		require.NoError(t, err)
		assert.Len(t, ids, len(expected))
		for id := range expected {
			assert.Contains(t, ids, id)
		}
	})
}
