package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateByType(t *testing.T) {
	tmpl, ok := TemplateByType("STANDARD_APPROVAL")
	require.True(t, ok)
	assert.Equal(t, "STANDARD_APPROVAL", tmpl.Type)
	require.Len(t, tmpl.Steps, 4)
	for i, step := range tmpl.Steps {
		assert.Equal(t, i+1, step.Number)
		assert.NotEmpty(t, step.Name)
		assert.NotEmpty(t, step.RoleHint)
	}

	_, ok = TemplateByType("NOT_A_TEMPLATE")
	assert.False(t, ok)
}

func TestTemplateCatalogStepNumbering(t *testing.T) {
	for _, typ := range TemplateTypes() {
		tmpl, ok := TemplateByType(typ)
		require.True(t, ok, typ)
		require.NotEmpty(t, tmpl.Steps, typ)
		for i, step := range tmpl.Steps {
			assert.Equal(t, i+1, step.Number, "%s step %d", typ, i)
		}
	}
}

func TestTemplateTypes(t *testing.T) {
	types := TemplateTypes()
	assert.Len(t, types, 4)
	assert.Contains(t, types, "STANDARD_APPROVAL")
	assert.Contains(t, types, "DOCUMENT_REVIEW")
	assert.Contains(t, types, "NCR_SIGNOFF")
	assert.Contains(t, types, "TRANSMITTAL_ACK")
}
