package core

import "testing"

func TestSignAndVerify(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	msg := []byte("canonical encoding stand-in")
	sig := kp.Sign(msg)
	if !Verify(kp.Public, sig, msg) {
		t.Fatalf("expected signature to verify")
	}
	if Verify(kp.Public, sig, []byte("tampered")) {
		t.Fatalf("signature must not verify against a different message")
	}
}

func TestImportPrivateKeyRoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	imported, err := ImportPrivateKey(seed)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	msg := []byte("hello")
	if !Verify(imported.Public, imported.Sign(msg), msg) {
		t.Fatalf("imported key pair should sign verifiably")
	}
}

func TestImportPrivateKeyRejectsBadLength(t *testing.T) {
	_, err := ImportPrivateKey([]byte{1, 2, 3})
	if err != ErrInvalidPrivateKeyMaterial {
		t.Fatalf("expected ErrInvalidPrivateKeyMaterial, got %v", err)
	}
}

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("same input"))
	b := HashBytes([]byte("same input"))
	if a != b {
		t.Fatalf("HashBytes must be deterministic")
	}
	if a.IsZero() {
		t.Fatalf("hash of non-empty input should not be zero")
	}
}

func TestPublicKeyLessIsTotalOrder(t *testing.T) {
	keys := generateKeys(t, 5)
	sorted := SortPublicKeys(publicKeysOf(keys))
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].Less(sorted[i]) {
			t.Fatalf("expected strictly increasing order at index %d", i)
		}
	}
}
