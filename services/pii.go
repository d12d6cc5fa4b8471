package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"payportal/config"
)

const encPrefix = "enc:"

// Keyring encrypts resident registration numbers at rest. The first key
// encrypts; every key is tried on decrypt, so rotation is adding a new key at
// the front and re-saving rows over time.
type Keyring struct {
	keys [][]byte
}

// NewKeyring builds a keyring from base64 keys. Keys must decode to 16, 24
// or 32 bytes.
func NewKeyring(encoded []string) (*Keyring, error) {
	kr := &Keyring{}
	for _, e := range encoded {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		key, err := base64.StdEncoding.DecodeString(e)
		if err != nil {
			return nil, errors.New("pii key is not valid base64")
		}
		switch len(key) {
		case 16, 24, 32:
		default:
			return nil, errors.New("pii key must be 16, 24 or 32 bytes")
		}
		kr.keys = append(kr.keys, key)
	}
	return kr, nil
}

// KeyringFromEnv loads PII_ENC_KEYS (comma separated, newest first) or the
// single-key PII_ENC_KEY. No keys configured yields an empty keyring, which
// masks instead of encrypting.
func KeyringFromEnv() (*Keyring, error) {
	if v := config.GetEnv("PII_ENC_KEYS"); v != "" {
		return NewKeyring(strings.Split(v, ","))
	}
	if v := config.GetEnv("PII_ENC_KEY"); v != "" {
		return NewKeyring([]string{v})
	}
	return &Keyring{}, nil
}

// HasKeys reports whether encryption is configured.
func (k *Keyring) HasKeys() bool {
	return k != nil && len(k.keys) > 0
}

// Encrypt seals plain with the primary key, producing an "enc:" token. With
// no keys configured it degrades to the irreversible mask.
func (k *Keyring) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	if !k.HasKeys() {
		return MaskResidentID(plain), nil
	}
	block, err := aes.NewCipher(k.keys[0])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an "enc:" token, trying every key in order. Non-token input
// is returned unchanged so masked legacy values survive.
func (k *Keyring) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encPrefix) {
		return stored, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
	if err != nil {
		return "", errors.New("malformed pii token")
	}
	for _, key := range k.keys {
		block, err := aes.NewCipher(key)
		if err != nil {
			continue
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			continue
		}
		if len(sealed) < gcm.NonceSize() {
			continue
		}
		plain, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
		if err == nil {
			return string(plain), nil
		}
	}
	return "", errors.New("no pii key can decrypt value")
}

// MaskResidentID keeps only the last four digits of a resident registration
// number. Already short values mask entirely.
func MaskResidentID(v string) string {
	digits := make([]rune, 0, len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "***-**-****"
	}
	return "***-**-" + string(digits[len(digits)-4:])
}

// MaskStored renders a stored resident id for display or export: encrypted
// tokens are opened first, everything else is assumed already masked or
// plain. The result is always masked.
func (k *Keyring) MaskStored(stored string) string {
	if stored == "" {
		return ""
	}
	plain, err := k.Decrypt(stored)
	if err != nil {
		return "***-**-****"
	}
	if strings.HasPrefix(plain, "***") {
		return plain
	}
	return MaskResidentID(plain)
}
