package ecap

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	ivSize  = 12
	tagSize = 16
)

// AeadEncrypt runs AES-256-GCM with no AAD. It returns ciphertext (same
// length as plaintext) and a 16-byte tag split out from GCM's combined
// output, per spec.md §4.3.
func AeadEncrypt(key, iv, plaintext []byte) (ciphertext, tag []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	if len(iv) != ivSize {
		return nil, nil, fmt.Errorf("ecap: aead: iv must be %d bytes, got %d", ivSize, len(iv))
	}
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ctLen := len(sealed) - tagSize
	return sealed[:ctLen], sealed[ctLen:], nil
}

// AeadDecrypt runs AES-256-GCM decryption with no AAD. Any tag mismatch
// (wrong password or tampered data, indistinguishably) reports ErrAuthFail.
func AeadDecrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != ivSize {
		return nil, fmt.Errorf("ecap: aead: iv must be %d bytes, got %d", ivSize, len(iv))
	}
	if len(tag) != tagSize {
		return nil, fmt.Errorf("ecap: aead: tag must be %d bytes, got %d", tagSize, len(tag))
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrAuthFail
	}
	return plaintext, nil
}

// RandomSaltAndIV returns a fresh 16-byte salt and 12-byte IV from the
// system CSPRNG, as required on every encode call.
func RandomSaltAndIV() (salt [16]byte, iv [12]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, salt[:]); err != nil {
		return salt, iv, fmt.Errorf("ecap: salt generation: %w", err)
	}
	if _, err = io.ReadFull(rand.Reader, iv[:]); err != nil {
		return salt, iv, fmt.Errorf("ecap: iv generation: %w", err)
	}
	return salt, iv, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ecap: aead: cipher init: %w", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, fmt.Errorf("ecap: aead: gcm init: %w", err)
	}
	return gcm, nil
}
