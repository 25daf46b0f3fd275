package jwt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errSealedValue = errors.New("malformed sealed value")

// deriveSealKey separates the encryption key from the signing secret.
func deriveSealKey(secret []byte) ([32]byte, error) {
	var key [32]byte
	r := hkdf.New(sha256.New, secret, nil, []byte("quiz-practice-web session seal"))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return key, fmt.Errorf("derive seal key: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext so claims can travel in a readable JWT payload.
func seal(key *[32]byte, plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func open(key *[32]byte, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", errSealedValue
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, key)
	if !ok {
		return "", errSealedValue
	}
	return string(plain), nil
}
