package core

import "testing"

func TestDataChainExtendHistoryDropsDuplicateHead(t *testing.T) {
	keys := generateKeys(t, 5)
	pubs := publicKeysOf(keys)

	olderLink := signBlock(t, CreateLinkDescriptor(pubs[:4]), keys[0], keys[1], keys[2])
	link := signBlock(t, CreateLinkDescriptor([]PublicKey{pubs[0], pubs[1], pubs[2], pubs[4]}), keys[0], keys[1], keys[2])
	chain := NewDataChain(4)
	mustAdd(t, chain, link)

	extended, err := chain.ExtendHistory([]Block{olderLink, link})
	if err != nil {
		t.Fatalf("extend_history: %v", err)
	}
	if extended.Len() != 2 {
		t.Fatalf("expected 2 blocks, got %d", extended.Len())
	}
	if err := extended.Validate(); err != nil {
		t.Fatalf("extended chain invalid: %v", err)
	}
	if chain.Len() != 1 {
		t.Fatalf("extend_history must not mutate the live chain")
	}
}

func TestDataChainExtendHistoryPrependsDisjointLinkRun(t *testing.T) {
	keys := generateKeys(t, 5)
	pubs := publicKeysOf(keys)

	// The witness run ends before the chain begins and shares no block with
	// it; its final link still shares a strict majority of signers with the
	// chain's head link, which is enough to splice.
	witnessLink := signBlock(t, CreateLinkDescriptor(pubs[:4]), keys[0], keys[1], keys[2])
	headLink := signBlock(t, CreateLinkDescriptor([]PublicKey{pubs[0], pubs[1], pubs[2], pubs[4]}), keys[0], keys[1], keys[2])

	chain := NewDataChain(4)
	mustAdd(t, chain, headLink)
	data := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("x"))), keys[0], keys[1], keys[2])
	mustAdd(t, chain, data)

	extended, err := chain.ExtendHistory([]Block{witnessLink})
	if err != nil {
		t.Fatalf("extend_history: %v", err)
	}
	if extended.Len() != 3 {
		t.Fatalf("expected 3 blocks, got %d", extended.Len())
	}
	if err := extended.Validate(); err != nil {
		t.Fatalf("extended chain invalid: %v", err)
	}
}

func TestDataChainExtendHistoryRejectsDataTail(t *testing.T) {
	chain, keys := buildLinkedChain(t)
	stray := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("stray"))), keys[0], keys[1], keys[2])
	_, err := chain.ExtendHistory([]Block{stray})
	mustChainError(t, err, KindNoCommonAnchor)
}

func TestDataChainExtendHistoryRejectsDisjointSigners(t *testing.T) {
	chain, _ := buildLinkedChain(t)
	strangers := generateKeys(t, 4)
	disjoint := signBlock(t, CreateLinkDescriptor(publicKeysOf(strangers)), strangers[0], strangers[1], strangers[2])
	_, err := chain.ExtendHistory([]Block{disjoint})
	mustChainError(t, err, KindMajority)
}

func TestValidateInHistoryViaQuorumPath(t *testing.T) {
	keys := generateKeys(t, 4)
	group := publicKeysOf(keys)
	link := signBlock(t, CreateLinkDescriptor(group), keys[0], keys[1], keys[2])
	history := []Block{link}

	candidate := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("new"))), keys[0], keys[1], keys[2])
	if err := ValidateInHistory(candidate, history, 4, PublicKey{}); err != nil {
		t.Fatalf("validate_in_history: %v", err)
	}
}

func TestValidateInHistoryViaOwnVote(t *testing.T) {
	keys := generateKeys(t, 4)
	candidate := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("mine"))), keys[0], keys[1], keys[2])

	// The local node signed this block itself, so it is believable without
	// any witness history at all.
	if err := ValidateInHistory(candidate, nil, 4, keys[1].Public); err != nil {
		t.Fatalf("own vote should suffice: %v", err)
	}

	err := ValidateInHistory(candidate, nil, 4, keys[3].Public)
	mustChainError(t, err, KindNoCommonAnchor)
}

func TestValidateInHistoryRejectsBrokenQuorum(t *testing.T) {
	keys := generateKeys(t, 4)
	group := publicKeysOf(keys)
	link := signBlock(t, CreateLinkDescriptor(group), keys[0], keys[1], keys[2])
	history := []Block{link}

	outsiders := generateKeys(t, 3)
	candidate := signBlock(t, NewImmutableIdentifier(HashBytes([]byte("new"))), outsiders...)
	err := ValidateInHistory(candidate, history, 4, PublicKey{})
	mustChainError(t, err, KindMajority)
}
