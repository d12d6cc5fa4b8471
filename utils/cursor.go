package utils

import (
	"encoding/base64"
	"encoding/json"

	apperrors "payportal/errors"
)

// EncodeCursor packs a seek-pagination key into an opaque url-safe token.
func EncodeCursor(payload map[string]int64) string {
	body, _ := json.Marshal(payload)
	return base64.RawURLEncoding.EncodeToString(body)
}

// DecodeCursor unpacks a token produced by EncodeCursor.
func DecodeCursor(token string) (map[string]int64, error) {
	body, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidCursor, "invalid cursor", err)
	}
	var payload map[string]int64
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInvalidCursor, "invalid cursor", err)
	}
	return payload, nil
}
