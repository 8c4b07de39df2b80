package countries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadsEmbeddedTable(t *testing.T) {
	lookup, err := New()
	require.NoError(t, err)

	assert.Greater(t, lookup.Len(), 200)
	assert.Equal(t, "Germany", lookup.Name("de"))
	assert.Equal(t, "France", lookup.Name("FR"))
	assert.Equal(t, "United States", lookup.Name("us"))
}

func TestNameFallbacks(t *testing.T) {
	lookup := NewFromMap(map[string]string{"SE": "Sweden"})

	assert.Equal(t, "Sweden", lookup.Name("se"))
	assert.Equal(t, "Sweden", lookup.Name("SE"))
	assert.Equal(t, "Unknown", lookup.Name(""))
	// Codes missing from the table stay visible as their upper-cased form.
	assert.Equal(t, "XZ", lookup.Name("xz"))
}
