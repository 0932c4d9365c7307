package core

import (
	"fmt"
	"sort"
)

// Block is a committed (identifier, proof-set) pair: the network-level
// attestation that a quorum of close-group members agreed on identifier.
// Deleted is the tombstone bit for data blocks that cannot be physically
// removed without breaking chain consensus.
type Block struct {
	Identifier BlockIdentifier
	Proofs     map[PublicKey]Signature
	Deleted    bool
}

// NewBlock constructs a Block from a proof set, copying the map so the
// caller's map can be mutated afterward without affecting the Block.
func NewBlock(identifier BlockIdentifier, proofs map[PublicKey]Signature) Block {
	cp := make(map[PublicKey]Signature, len(proofs))
	for k, v := range proofs {
		cp[k] = v
	}
	return Block{Identifier: identifier, Proofs: cp}
}

// SignerKeys returns the block's proof signers as a slice, in no particular
// order. Useful for set-intersection math.
func (b Block) SignerKeys() []PublicKey {
	keys := make([]PublicKey, 0, len(b.Proofs))
	for k := range b.Proofs {
		keys = append(keys, k)
	}
	return keys
}

// verifySignatures checks every proof in b against b.Identifier's canonical
// encoding. It returns the first signer whose signature fails to verify, or
// ok=true if every proof verifies (including the vacuous case of zero
// proofs, though callers enforce a minimum proof count separately).
func (b Block) verifySignatures() (badSigner PublicKey, ok bool) {
	msg := b.Identifier.Encode()
	for signer, sig := range b.Proofs {
		if !Verify(signer, sig, msg) {
			return signer, false
		}
	}
	return PublicKey{}, true
}

// intersectionSize returns the number of public keys present in both blocks'
// proof sets — the quantity the rolling-quorum predicate is
// defined over.
func intersectionSize(a, b Block) int {
	n := 0
	small, large := a.Proofs, b.Proofs
	if len(large) < len(small) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			n++
		}
	}
	return n
}

// hasRollingQuorum reports whether the proof sets of prev and next share a
// strict majority of signers relative to groupSize: intersection
// size × 2 > groupSize.
func hasRollingQuorum(prev, next Block, groupSize int) bool {
	return intersectionSize(prev, next)*2 > groupSize
}

// Encode returns the canonical binary encoding of b: identifier,
// then proofs sorted by signer key so the encoding is independent of map
// iteration order, then the tombstone bit. This is the on-disk form a
// chain file persists each block as.
func (b Block) Encode() []byte {
	e := newEncoder()
	e.bytesField(b.Identifier.Encode())

	signers := b.SignerKeys()
	sort.Slice(signers, func(i, j int) bool { return signers[i].Less(signers[j]) })
	e.u32(uint32(len(signers)))
	for _, signer := range signers {
		e.raw(signer[:])
		sig := b.Proofs[signer]
		e.raw(sig[:])
	}

	deleted := byte(0)
	if b.Deleted {
		deleted = 1
	}
	e.byte(deleted)
	return e.bytes()
}

// DecodeBlock parses the canonical encoding produced by Block.Encode.
func DecodeBlock(buf []byte) (Block, error) {
	d := newDecoder(buf)

	idBytes, err := d.bytesField()
	if err != nil {
		return Block{}, fmt.Errorf("decode block identifier: %w", err)
	}
	identifier, err := DecodeBlockIdentifier(idBytes)
	if err != nil {
		return Block{}, fmt.Errorf("decode block identifier: %w", err)
	}

	count, err := d.u32()
	if err != nil {
		return Block{}, fmt.Errorf("decode block proof count: %w", err)
	}
	if int(count) > d.remaining()/(len(PublicKey{})+len(Signature{})) {
		return Block{}, fmt.Errorf("decode block: proof count %d exceeds input", count)
	}
	proofs := make(map[PublicKey]Signature, count)
	for i := uint32(0); i < count; i++ {
		keyBytes, err := d.raw(len(PublicKey{}))
		if err != nil {
			return Block{}, fmt.Errorf("decode block proof %d signer: %w", i, err)
		}
		var signer PublicKey
		copy(signer[:], keyBytes)

		sigBytes, err := d.raw(len(Signature{}))
		if err != nil {
			return Block{}, fmt.Errorf("decode block proof %d signature: %w", i, err)
		}
		var sig Signature
		copy(sig[:], sigBytes)

		proofs[signer] = sig
	}

	deleted, err := d.byte()
	if err != nil {
		return Block{}, fmt.Errorf("decode block tombstone bit: %w", err)
	}
	if !d.done() {
		return Block{}, fmt.Errorf("decode block: %d trailing bytes", d.remaining())
	}

	blk := NewBlock(identifier, proofs)
	blk.Deleted = deleted != 0
	return blk, nil
}

// linkSignersSubsetOfGroup reports whether every signer of a link block
// appears in the identifier's own key-set.
// Non-link identifiers trivially satisfy this (the check does not apply).
func linkSignersSubsetOfGroup(b Block) bool {
	if b.Identifier.Kind() != KindLink {
		return true
	}
	for signer := range b.Proofs {
		if !b.Identifier.ContainsSigner(signer) {
			return false
		}
	}
	return true
}
