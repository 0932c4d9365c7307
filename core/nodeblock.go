package core

import "fmt"

// NodeBlock is an untrusted vote: one group member's signature over an
// identifier's canonical encoding. NodeBlocks live only in the
// pending accumulator; they are never themselves persisted.
type NodeBlock struct {
	Identifier BlockIdentifier
	Signer     PublicKey
	Signature  Signature
}

// NewNodeBlock serializes identifier, signs it with signer, and returns the
// resulting vote. It fails only if the identifier cannot be serialized,
// which for BlockIdentifier cannot happen — Encode is total — so the error
// return keeps the constructor's contract stable and robust to a
// future identifier kind that might fail to serialize.
func NewNodeBlock(signer KeyPair, identifier BlockIdentifier) (NodeBlock, error) {
	msg := identifier.Encode()
	if msg == nil {
		return NodeBlock{}, fmt.Errorf("%w: nil identifier encoding", ErrSerialization)
	}
	return NodeBlock{
		Identifier: identifier,
		Signer:     signer.Public,
		Signature:  signer.Sign(msg),
	}, nil
}

// Verify recomputes the identifier's canonical encoding and checks the
// signature under Signer.
func (nb NodeBlock) Verify() bool {
	return Verify(nb.Signer, nb.Signature, nb.Identifier.Encode())
}

// Encode returns the canonical binary encoding of the vote:
// length-prefixed identifier encoding, then the fixed-width signer key and
// signature.
func (nb NodeBlock) Encode() []byte {
	e := newEncoder()
	e.bytesField(nb.Identifier.Encode())
	e.raw(nb.Signer[:])
	e.raw(nb.Signature[:])
	return e.bytes()
}

// DecodeNodeBlock parses the canonical encoding produced by Encode. The
// signature is not verified here; the accumulator verifies on admission.
func DecodeNodeBlock(buf []byte) (NodeBlock, error) {
	d := newDecoder(buf)
	idBytes, err := d.bytesField()
	if err != nil {
		return NodeBlock{}, fmt.Errorf("decode node block identifier: %w", err)
	}
	identifier, err := DecodeBlockIdentifier(idBytes)
	if err != nil {
		return NodeBlock{}, fmt.Errorf("decode node block identifier: %w", err)
	}
	keyBytes, err := d.raw(len(PublicKey{}))
	if err != nil {
		return NodeBlock{}, fmt.Errorf("decode node block signer: %w", err)
	}
	sigBytes, err := d.raw(len(Signature{}))
	if err != nil {
		return NodeBlock{}, fmt.Errorf("decode node block signature: %w", err)
	}
	if !d.done() {
		return NodeBlock{}, fmt.Errorf("decode node block: %d trailing bytes", d.remaining())
	}
	nb := NodeBlock{Identifier: identifier}
	copy(nb.Signer[:], keyBytes)
	copy(nb.Signature[:], sigBytes)
	return nb, nil
}
