package game

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	SEED_BYTES     = 32
	SEED_HEX_CHARS = SEED_BYTES * 2
)

var (
	ErrEmptySecret  = errors.New("seed secret is empty")
	ErrMalformedHex = errors.New("value must be 64 lowercase hex characters")
)

// IssueSeed draws a fresh random seed and signs it with secret. Nothing is
// retained; the client carries both values back on submission.
func IssueSeed(secret []byte) (SeedPair, error) {
	if len(secret) == 0 {
		return SeedPair{}, ErrEmptySecret
	}

	b := make([]byte, SEED_BYTES)
	if _, err := rand.Read(b); err != nil {
		return SeedPair{}, fmt.Errorf("read seed entropy: %w", err)
	}

	return SeedPair{
		Seed:      hex.EncodeToString(b),
		Signature: SignSeed(b, secret),
	}, nil
}

// SignSeed computes the HMAC-SHA256 tag over the raw seed bytes.
func SignSeed(seed []byte, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(seed)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySeed reports whether signature was produced by SignSeed for seed
// under secret. Malformed input yields false.
func VerifySeed(seedHex, signatureHex string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	seed, err := DecodeHex32(seedHex)
	if err != nil {
		return false
	}
	sig, err := DecodeHex32(signatureHex)
	if err != nil {
		return false
	}

	h := hmac.New(sha256.New, secret)
	h.Write(seed)
	return hmac.Equal(sig, h.Sum(nil))
}

// DecodeHex32 decodes a 64 character lowercase hex string. Upper case,
// odd lengths and any other character are rejected before decoding.
func DecodeHex32(s string) ([]byte, error) {
	if len(s) != SEED_HEX_CHARS {
		return nil, ErrMalformedHex
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return nil, ErrMalformedHex
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrMalformedHex
	}
	return b, nil
}
