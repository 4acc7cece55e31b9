// Package crypto seals control-socket frames with NaCl secretbox.
//
// The box key is derived from the shared token with HKDF-SHA256. A sealed
// frame is a random nonce followed by the box, base64 encoded so that it
// still fits on one line:
//
//	base64([ 24-byte nonce ][ secretbox ])
package crypto

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

var hkdfInfo = []byte("clipq-ipc-v1")

// ErrDecrypt is returned for a frame that does not open under the box key.
var ErrDecrypt = errors.New("decryption failed (wrong token?)")

// Box seals and opens frames for one token. A nil *Box is the plaintext
// channel: Seal and Open return their input unchanged.
type Box struct {
	key [32]byte
}

// NewBox derives the box for token. An empty token returns a nil Box.
func NewBox(token string) (*Box, error) {
	if token == "" {
		return nil, nil
	}
	b := new(Box)
	h := hkdf.New(sha256.New, []byte(token), nil, hkdfInfo)
	if _, err := io.ReadFull(h, b.key[:]); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return b, nil
}

// Encrypted reports whether frames are sealed.
func (b *Box) Encrypted() bool { return b != nil }

// Seal returns the line to write for frame.
func (b *Box) Seal(frame []byte) ([]byte, error) {
	if b == nil {
		return frame, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], frame, &nonce, &b.key)
	return base64.StdEncoding.AppendEncode(nil, sealed), nil
}

// Open reverses Seal. Anything that is not a frame sealed under the same
// token fails with ErrDecrypt.
func (b *Box) Open(line []byte) ([]byte, error) {
	if b == nil {
		return line, nil
	}
	sealed, err := base64.StdEncoding.AppendDecode(nil, line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: frame too short", ErrDecrypt)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed)
	frame, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return frame, nil
}
