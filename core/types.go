// Package core implements the DataChain: the append-mostly, cryptographically
// self-validating ledger of data descriptors shared by a close group of
// nodes in an XOR-addressed peer-to-peer storage network.
package core

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"sort"
)

// PublicKey is a fixed-width, order-comparable signer identity. Its width
// matches an Ed25519 public key.
type PublicKey [ed25519.PublicKeySize]byte

// String renders the key as lowercase hex, for logging.
func (k PublicKey) String() string { return hex.EncodeToString(k[:]) }

// Less reports whether k sorts before other. Public keys are compared as
// raw byte strings; this order is the canonical sort key for link-identifier
// derivation.
func (k PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(k[:], other[:]) < 0
}

// SortPublicKeys returns a sorted copy of keys, deduplicated.
func SortPublicKeys(keys []PublicKey) []PublicKey {
	out := make([]PublicKey, len(keys))
	copy(out, keys)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}

// Signature is a detached Ed25519 signature over an identifier's canonical
// encoding.
type Signature [ed25519.SignatureSize]byte

func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// Digest is a fixed 512-bit hash output, wide enough for content hashes and
// link-descriptor hashes alike.
type Digest [64]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d is the all-zero digest (the value Name returns
// for link identifiers, alongside ok=false).
func (d Digest) IsZero() bool { return d == Digest{} }

// Name is the externally meaningful name of a data identifier: the content
// hash for immutable data, or the fixed structured-data name. Link
// identifiers have no Name.
type Name = Digest
