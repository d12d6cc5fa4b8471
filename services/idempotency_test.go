package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalBodyHashKeyOrderIndependent(t *testing.T) {
	a := []byte(`{"rows":[{"기본급":3000000,"식대":200000}],"year":2025}`)
	b := []byte(`{"year":2025,"rows":[{"식대":200000,"기본급":3000000}]}`)
	assert.Equal(t, CanonicalBodyHash(a), CanonicalBodyHash(b))
}

func TestCanonicalBodyHashWhitespaceIndependent(t *testing.T) {
	a := []byte(`{"year": 2025, "month": 1}`)
	b := []byte("{\n  \"year\": 2025,\n  \"month\": 1\n}")
	assert.Equal(t, CanonicalBodyHash(a), CanonicalBodyHash(b))
}

func TestCanonicalBodyHashDistinguishesBodies(t *testing.T) {
	a := []byte(`{"year":2025,"month":1}`)
	b := []byte(`{"year":2025,"month":2}`)
	assert.NotEqual(t, CanonicalBodyHash(a), CanonicalBodyHash(b))
}

func TestCanonicalBodyHashNonJSON(t *testing.T) {
	a := []byte("not json at all")
	assert.Equal(t, CanonicalBodyHash(a), CanonicalBodyHash([]byte("not json at all")))
	assert.NotEqual(t, CanonicalBodyHash(a), CanonicalBodyHash([]byte("something else")))
}
