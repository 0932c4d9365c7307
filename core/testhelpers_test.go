package core

import "testing"

// generateKeys creates n fresh key pairs for test scenarios, failing the
// test immediately on any generation error.
func generateKeys(t *testing.T, n int) []KeyPair {
	t.Helper()
	keys := make([]KeyPair, n)
	for i := range keys {
		kp, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("generate key pair %d: %v", i, err)
		}
		keys[i] = kp
	}
	return keys
}

func publicKeysOf(kps []KeyPair) []PublicKey {
	keys := make([]PublicKey, len(kps))
	for i, kp := range kps {
		keys[i] = kp.Public
	}
	return keys
}

// signBlock has each of signers sign identifier and folds the resulting
// votes into a Block directly, bypassing PendingCache — useful when a test
// wants to assemble an already-committed Block without exercising the
// accumulator.
func signBlock(t *testing.T, identifier BlockIdentifier, signers ...KeyPair) Block {
	t.Helper()
	proofs := make(map[PublicKey]Signature, len(signers))
	msg := identifier.Encode()
	for _, kp := range signers {
		proofs[kp.Public] = kp.Sign(msg)
	}
	return NewBlock(identifier, proofs)
}

func mustChainError(t *testing.T, err error, want Kind) {
	t.Helper()
	ce, ok := err.(*ChainError)
	if !ok {
		t.Fatalf("expected *ChainError, got %T (%v)", err, err)
	}
	if ce.Kind != want {
		t.Fatalf("expected Kind %s, got %s", want, ce.Kind)
	}
}
