package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-payroll", Slugify("Acme Payroll"))
	assert.Equal(t, "acme-co", Slugify("  Acme & Co!  "))
	// Korean names transliterate instead of collapsing to nothing.
	assert.NotEqual(t, "workspace", Slugify("한빛전자"))
	assert.Regexp(t, `^[a-z0-9-]+$`, Slugify("한빛전자"))
	// Unusable input falls back to a stable placeholder.
	assert.Equal(t, "workspace", Slugify("!!!"))
	assert.Equal(t, "workspace", Slugify(""))
	// Long names truncate without a trailing dash.
	long := Slugify("a very long company name that keeps going and going and going beyond sixty characters")
	assert.LessOrEqual(t, len(long), 60)
	assert.NotEqual(t, byte('-'), long[len(long)-1])
}

func TestNewAccessCode(t *testing.T) {
	a, err := NewAccessCode()
	require.NoError(t, err)
	b, err := NewAccessCode()
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
