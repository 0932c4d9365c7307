package core

import (
	"bytes"
	"testing"
)

func TestNodeBlockEncodeDecodeRoundTrip(t *testing.T) {
	kp := generateKeys(t, 1)[0]
	cases := []BlockIdentifier{
		NewImmutableIdentifier(HashBytes([]byte("blob"))),
		NewStructuredIdentifier(HashBytes([]byte("v3")), HashBytes([]byte("record")), 3),
		CreateLinkDescriptor(publicKeysOf(generateKeys(t, 4))),
	}
	for _, id := range cases {
		nb := newTestNodeBlock(t, kp, id)
		decoded, err := DecodeNodeBlock(nb.Encode())
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !decoded.Identifier.Equal(nb.Identifier) || decoded.Signer != nb.Signer || decoded.Signature != nb.Signature {
			t.Fatalf("round trip mismatch for %s identifier", id.Kind())
		}
		if !decoded.Verify() {
			t.Fatalf("decoded vote should still verify")
		}
	}
}

func TestDecodeNodeBlockRejectsTruncation(t *testing.T) {
	kp := generateKeys(t, 1)[0]
	nb := newTestNodeBlock(t, kp, NewImmutableIdentifier(HashBytes([]byte("x"))))
	encoded := nb.Encode()
	if _, err := DecodeNodeBlock(encoded[:len(encoded)-1]); err == nil {
		t.Fatalf("expected error for truncated vote")
	}
	if _, err := DecodeNodeBlock(append(encoded, 0)); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
}

func TestDataChainEncodeDecodeRoundTrip(t *testing.T) {
	chain, _ := buildLinkedChain(t)
	encoded := chain.Encode()

	decoded, err := DecodeDataChain(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.GroupSize() != chain.GroupSize() {
		t.Fatalf("group_size mismatch: got %d want %d", decoded.GroupSize(), chain.GroupSize())
	}
	assertChainBlocks(t, decoded, chain.Blocks())
	if !bytes.Equal(decoded.Encode(), encoded) {
		t.Fatalf("re-encode mismatch")
	}
}

func TestDecodeDataChainValidatesResult(t *testing.T) {
	keys := generateKeys(t, 4)
	data := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("x"))), keys[0], keys[1], keys[2])

	// Hand-assemble an encoding whose first block is a data block; decode
	// must refuse it even though every byte parses.
	e := newEncoder()
	e.u32(4)
	e.u32(1)
	e.bytesField(data.Encode())
	_, err := DecodeDataChain(e.bytes())
	mustChainError(t, err, KindEmptyMustBeLink)
}

func FuzzDecodeBlockIdentifier(f *testing.F) {
	f.Add(NewImmutableIdentifier(Digest{1, 2, 3}).Encode())
	f.Add(NewStructuredIdentifier(Digest{4}, Digest{5}, 9).Encode())
	f.Add([]byte{0xFF, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		id, err := DecodeBlockIdentifier(data)
		if err != nil {
			return
		}
		// Whatever decodes must re-encode to a stable canonical form.
		again, err := DecodeBlockIdentifier(id.Encode())
		if err != nil {
			t.Fatalf("canonical re-encode failed to decode: %v", err)
		}
		if !again.Equal(id) {
			t.Fatalf("canonical encoding is not a fixed point")
		}
	})
}

func FuzzDecodeBlock(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		blk, err := DecodeBlock(data)
		if err != nil {
			return
		}
		if _, err := DecodeBlock(blk.Encode()); err != nil {
			t.Fatalf("canonical re-encode failed to decode: %v", err)
		}
	})
}
