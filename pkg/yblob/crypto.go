package yblob

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo is the fixed HKDF info string for the hybrid envelope's key
// derivation (§4.4). It is a constant, not a parameter: the envelope
// format fixes the whole primitive tuple.
const hkdfInfo = "hybrid-encryption"

const (
	aesKeySize  = 32 // AES-256
	aesIVSize   = 16
	aesBlockLen = aes.BlockSize
)

// hybridEncrypt wraps plaintext for the holder of the private half of
// devicePublicKey, per §4.4: a fresh host-side P-256 ephemeral key pair,
// ECDH, HKDF-SHA256 to derive an AES-256 key, then AES-256-CBC with
// PKCS#7 padding under a random IV.
//
// The returned envelope is Q_eph (65-byte uncompressed SEC1 point) || IV
// (16 bytes) || ciphertext.
func hybridEncrypt(plaintext []byte, devicePublicKey *ecdh.PublicKey) ([]byte, error) {
	curve := ecdh.P256()

	ephemeral, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", ErrCrypto)
	}

	shared, err := ephemeral.ECDH(devicePublicKey)
	if err != nil {
		return nil, fmt.Errorf("ephemeral ECDH: %w", ErrCrypto)
	}

	key, err := deriveKey(shared)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, aesIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate IV: %w", ErrCrypto)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new AES cipher: %w", ErrCrypto)
	}

	padded := pkcs7Pad(plaintext, aesBlockLen)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	envelope := make([]byte, 0, len(ephemeral.PublicKey().Bytes())+aesIVSize+len(ciphertext))
	envelope = append(envelope, ephemeral.PublicKey().Bytes()...)
	envelope = append(envelope, iv...)
	envelope = append(envelope, ciphertext...)

	return envelope, nil
}

// hybridDecrypt reverses [hybridEncrypt] using the device-resident
// private key in slot, performing the ECDH step on the device itself so
// the private key never leaves it (§4.4, §6.1).
//
// On any failure (malformed point, truncated envelope, bad padding), it
// returns an error wrapping [ErrCrypto] and never returns partial
// plaintext.
func hybridDecrypt(envelope []byte, dev Device, slot Slot) ([]byte, error) {
	curve := ecdh.P256()

	pointLen := 1 + 2*32 // uncompressed SEC1 P-256 point: 0x04 || X || Y

	if len(envelope) < pointLen+aesIVSize+aesBlockLen {
		return nil, fmt.Errorf("envelope too short (%d bytes): %w", len(envelope), ErrCrypto)
	}

	ephPoint := envelope[:pointLen]
	iv := envelope[pointLen : pointLen+aesIVSize]
	ciphertext := envelope[pointLen+aesIVSize:]

	if len(ciphertext)%aesBlockLen != 0 {
		return nil, fmt.Errorf("ciphertext not block-aligned (%d bytes): %w", len(ciphertext), ErrCrypto)
	}

	ephemeral, err := curve.NewPublicKey(ephPoint)
	if err != nil {
		return nil, fmt.Errorf("parse ephemeral point: %w", ErrCrypto)
	}

	shared, err := dev.ECDH(slot, ephemeral)
	if err != nil {
		return nil, fmt.Errorf("device ECDH: %w", err)
	}

	key, err := deriveKey(shared)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new AES cipher: %w", ErrCrypto)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aesBlockLen)
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}

// deriveKey runs HKDF-SHA256 over the shared ECDH secret with the
// envelope's fixed info string, producing a 32-byte AES-256 key (§4.4).
func deriveKey(shared []byte) ([]byte, error) {
	key := make([]byte, aesKeySize)

	kdf := hkdf.New(sha256.New, shared, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", ErrCrypto)
	}

	return key, nil
}

// pkcs7Pad appends PKCS#7 padding so len(result) is a multiple of
// blockLen; always appends at least one byte, even if data is already
// block-aligned.
func pkcs7Pad(data []byte, blockLen int) []byte {
	pad := blockLen - len(data)%blockLen
	padded := make([]byte, len(data)+pad)
	copy(padded, data)

	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	return padded
}

// pkcs7Unpad validates and strips PKCS#7 padding, rejecting any malformed
// padding rather than guessing at a plaintext length.
func pkcs7Unpad(data []byte, blockLen int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockLen != 0 {
		return nil, fmt.Errorf("padded length %d not a multiple of %d: %w", len(data), blockLen, ErrCrypto)
	}

	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockLen || pad > len(data) {
		return nil, fmt.Errorf("invalid padding length %d: %w", pad, ErrCrypto)
	}

	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("malformed padding bytes: %w", ErrCrypto)
		}
	}

	return data[:len(data)-pad], nil
}
