package core

import "fmt"

// This file implements history extension and witnessed-belief validation:
// prepending an older witness run onto a chain's view of its past, and
// deciding whether a block lifted out of an untrusted chain is believable
// to the local node.

// ExtendHistory reconstructs a longer view of the chain's past by splicing
// witnesses onto the front. The witness run is accepted when
// either its last block equals the chain's current head (in which case the
// duplicate is dropped), or — weaker than merge — its last block is a link
// that shares rolling quorum with the chain's head link even though the two
// runs share no block at all. The combined sequence must validate end to
// end.
//
// ExtendHistory returns the reconstructed chain rather than mutating c, so a
// node can discard the extended view once it has answered a historical query
// without disturbing live chain state.
func (c *DataChain) ExtendHistory(witnesses []Block) (*DataChain, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(witnesses) == 0 {
		return nil, newChainError(KindNoCommonAnchor, "extend_history", fmt.Errorf("no witness blocks supplied"))
	}
	if len(c.blocks) == 0 {
		return nil, newChainError(KindNoCommonAnchor, "extend_history", fmt.Errorf("chain has no head to anchor witnesses to"))
	}

	last := witnesses[len(witnesses)-1]
	var combined []Block
	switch {
	case last.Identifier.Equal(c.blocks[0].Identifier):
		combined = make([]Block, 0, len(witnesses)-1+len(c.blocks))
		combined = append(combined, witnesses[:len(witnesses)-1]...)
		combined = append(combined, c.blocks...)
	case last.Identifier.Kind() == KindLink:
		// The witness run ends before this chain begins; the quorum overlap
		// between its final link and this chain's head is checked by the
		// whole-sequence validation below.
		combined = make([]Block, 0, len(witnesses)+len(c.blocks))
		combined = append(combined, witnesses...)
		combined = append(combined, c.blocks...)
	default:
		return nil, newChainError(KindNoCommonAnchor, "extend_history", fmt.Errorf("witness run ends in a data block that is not this chain's head"))
	}

	if err := validateChain(combined, c.groupSize); err != nil {
		return nil, err
	}

	extended := NewDataChain(c.groupSize)
	extended.blocks = combined
	return extended, nil
}

// ValidateInHistory decides whether block, extracted from an untrusted
// chain, is believable to the local node holding self's key:
// it is when either (a) self appears in block's proofs — the node once voted
// for it — or (b) a path of quorum-linked blocks connects block to the
// supplied witness history, which must itself validate as a chain. Because a
// valid history is quorum-linked between every adjacent pair, sharing a
// strict majority of signers with any one witness establishes a path to the
// history's tail.
//
// This is witnessed belief, not transferable proof; callers must not forward
// it as evidence to other nodes.
func ValidateInHistory(block Block, history []Block, groupSize int, self PublicKey) error {
	if err := validateSingleBlock(block, groupSize); err != nil {
		return err
	}
	if _, voted := block.Proofs[self]; voted {
		return nil
	}
	if len(history) == 0 {
		return newChainError(KindNoCommonAnchor, "validate_in_history", fmt.Errorf("own key absent from proofs and no history supplied"))
	}
	if err := validateChain(history, groupSize); err != nil {
		return fmt.Errorf("validate_in_history: history invalid: %w", err)
	}
	for _, witness := range history {
		if hasRollingQuorum(witness, block, groupSize) {
			return nil
		}
	}
	return newChainError(KindMajority, "validate_in_history", fmt.Errorf(
		"no witness shares a strict majority of signers with the block"))
}
