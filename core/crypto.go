package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// This file binds the abstract signatures-and-keys contract the chain
// depends on (sign, verify, hash) to Ed25519 and SHA3-512. NodeBlock is a
// single-signer vote by construction, so no aggregate or threshold scheme
// is involved anywhere.

// KeyPair is a generated Ed25519 identity.
type KeyPair struct {
	Public  PublicKey
	private ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh Ed25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	var kp KeyPair
	copy(kp.Public[:], pub)
	kp.private = priv
	return kp, nil
}

// Sign signs message (the canonical encoding of a BlockIdentifier) and
// returns a detached signature.
func (kp KeyPair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.private, message))
	return sig
}

// Verify reports whether sig is a valid signature over message under pub.
func Verify(pub PublicKey, sig Signature, message []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), message, sig[:])
}

// HashBytes computes the 512-bit digest used throughout the chain (content
// hashes, link-descriptor hashes).
func HashBytes(b []byte) Digest {
	return Digest(sha3.Sum512(b))
}

// ErrInvalidPrivateKeyMaterial is returned by ImportPrivateKey when the
// provided seed is not a valid Ed25519 seed.
var ErrInvalidPrivateKeyMaterial = errors.New("core: invalid ed25519 seed")

// ImportPrivateKey reconstructs a KeyPair from a 32-byte Ed25519 seed, for
// nodes that persist their identity outside the chain (out of scope here;
// exposed so callers are not forced to keep GenerateKeyPair's private field
// unreachable).
func ImportPrivateKey(seed []byte) (KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return KeyPair{}, ErrInvalidPrivateKeyMaterial
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var kp KeyPair
	copy(kp.Public[:], priv.Public().(ed25519.PublicKey))
	kp.private = priv
	return kp, nil
}
