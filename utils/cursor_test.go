package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "payportal/errors"
)

func TestCursorRoundTrip(t *testing.T) {
	token := EncodeCursor(map[string]int64{"id": 42})
	payload, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), payload["id"])
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64%%%")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCursor))

	// Valid base64 but not a JSON object.
	_, err = DecodeCursor("bm90LWpzb24")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCursor))
}
