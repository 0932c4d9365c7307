package core

import (
	"bytes"
	"testing"
)

func TestCreateLinkDescriptorIsOrderAndDuplicateInvariant(t *testing.T) {
	keys := generateKeys(t, 3)
	pubs := publicKeysOf(keys)

	a := CreateLinkDescriptor([]PublicKey{pubs[0], pubs[1], pubs[2]})
	b := CreateLinkDescriptor([]PublicKey{pubs[2], pubs[0], pubs[1]})
	c := CreateLinkDescriptor([]PublicKey{pubs[0], pubs[1], pubs[2], pubs[1]})

	if a.Hash() != b.Hash() {
		t.Fatalf("link descriptor must be order-independent")
	}
	if a.Hash() != c.Hash() {
		t.Fatalf("link descriptor must be duplicate-independent")
	}
}

func TestIdentifierEncodeDecodeRoundTrip(t *testing.T) {
	keys := generateKeys(t, 3)
	pubs := publicKeysOf(keys)

	cases := []BlockIdentifier{
		NewImmutableIdentifier(HashBytes([]byte("blob"))),
		NewStructuredIdentifier(HashBytes([]byte("v1")), HashBytes([]byte("record")), 7),
		CreateLinkDescriptor(pubs),
	}
	for _, id := range cases {
		encoded := id.Encode()
		decoded, err := DecodeBlockIdentifier(encoded)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !decoded.Equal(id) {
			t.Fatalf("round trip mismatch: got %+v want %+v", decoded, id)
		}
		if !bytes.Equal(decoded.Encode(), encoded) {
			t.Fatalf("re-encode mismatch")
		}
	}
}

func TestDecodeBlockIdentifierRejectsTrailingBytes(t *testing.T) {
	id := NewImmutableIdentifier(HashBytes([]byte("x")))
	encoded := append(id.Encode(), 0xFF)
	if _, err := DecodeBlockIdentifier(encoded); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
}

func TestBlockIdentifierNameBehavior(t *testing.T) {
	immutable := NewImmutableIdentifier(HashBytes([]byte("x")))
	if name, ok := immutable.Name(); !ok || name != immutable.Hash() {
		t.Fatalf("immutable identifier name should equal its hash")
	}

	link := CreateLinkDescriptor(publicKeysOf(generateKeys(t, 2)))
	if _, ok := link.Name(); ok {
		t.Fatalf("link identifier must have no name")
	}
}

func TestContainsSigner(t *testing.T) {
	keys := generateKeys(t, 3)
	pubs := publicKeysOf(keys)
	link := CreateLinkDescriptor(pubs)
	for _, k := range pubs {
		if !link.ContainsSigner(k) {
			t.Fatalf("expected %s to be a member", k)
		}
	}
	outsider := generateKeys(t, 1)[0].Public
	if link.ContainsSigner(outsider) {
		t.Fatalf("outsider should not be a member")
	}

	immutable := NewImmutableIdentifier(HashBytes([]byte("x")))
	if immutable.ContainsSigner(pubs[0]) {
		t.Fatalf("non-link identifiers never contain a signer")
	}
}
