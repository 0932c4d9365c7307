package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// This file implements split and merge: dividing a chain in two for
// transport, and splicing a foreign chain onto a local one around a shared
// link anchor to extend history as far back as possible. Both follow the
// same discipline as Add: build the candidate, validate it whole, only then
// commit.

// Split divides the chain into two independently valid chains at index at.
// The right chain keeps the block at index at as its first element; if that
// block is not a link, the nearest preceding link is cloned into the right
// chain's head so it still satisfies the first-block-is-a-link invariant.
// The left chain is the untouched prefix [0, at).
//
// Both halves keep the original group_size, which stays fixed for the life
// of each chain.
func (c *DataChain) Split(at int) (left, right *DataChain, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if at <= 0 || at >= len(c.blocks) {
		return nil, nil, newChainError(KindMergeInvalid, "split", fmt.Errorf("split index %d out of range [1,%d)", at, len(c.blocks)))
	}

	left = NewDataChain(c.groupSize)
	left.blocks = append(left.blocks, c.blocks[:at]...)

	right = NewDataChain(c.groupSize)
	if c.blocks[at].Identifier.Kind() != KindLink {
		anchor := -1
		for i := at - 1; i >= 0; i-- {
			if c.blocks[i].Identifier.Kind() == KindLink {
				anchor = i
				break
			}
		}
		if anchor == -1 {
			return nil, nil, newChainError(KindEmptyMustBeLink, "split", fmt.Errorf("no link precedes index %d to anchor the suffix", at))
		}
		right.blocks = append(right.blocks, c.blocks[anchor])
	}
	right.blocks = append(right.blocks, c.blocks[at:]...)

	if err := validateChain(right.blocks, c.groupSize); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Merge splices other into c in place, extending history as far back in time
// as possible. It searches both chains for the earliest link
// that appears in both equivalently — identical identifier and proof sets
// sharing a strict majority of signers — then keeps, on each side of that
// anchor, whichever chain carries more history: the longer prefix before the
// anchor and the longer run from the anchor onward. This makes the operation
// symmetric in its arguments, so two nodes merging each other's chains
// converge on the same result.
//
// The combined chain is validated as a whole before any mutation is
// committed; on failure c is unchanged. Fails with NoCommonAnchor when no
// quorum-equivalent shared link exists, MergeInvalid when the spliced chain
// does not validate.
func (c *DataChain) Merge(other *DataChain) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if other != c {
		other.mu.RLock()
		defer other.mu.RUnlock()
	}

	if c.groupSize != other.groupSize {
		c.metrics.observeMergeFailure()
		return newChainError(KindMergeInvalid, "merge", fmt.Errorf("group_size mismatch: %d vs %d", c.groupSize, other.groupSize))
	}
	if len(other.blocks) == 0 {
		return nil
	}
	if len(c.blocks) == 0 {
		candidate := append([]Block(nil), other.blocks...)
		if err := validateChain(candidate, c.groupSize); err != nil {
			c.metrics.observeMergeFailure()
			return newChainError(KindMergeInvalid, "merge", err)
		}
		c.blocks = candidate
		return nil
	}

	selfIdx, otherIdx := findCommonAnchor(c.blocks, other.blocks, c.groupSize)
	if selfIdx == -1 {
		c.metrics.observeMergeFailure()
		return newChainError(KindNoCommonAnchor, "merge", fmt.Errorf("no quorum-equivalent link shared by both chains"))
	}

	// Oldest prefix wins, and likewise the longer continuation: history on
	// either side of the anchor is only ever extended, never shortened.
	prefix := c.blocks[:selfIdx]
	if otherIdx > selfIdx {
		prefix = other.blocks[:otherIdx]
	}
	suffix := c.blocks[selfIdx:]
	if len(other.blocks)-otherIdx > len(suffix) {
		suffix = other.blocks[otherIdx:]
	}

	candidate := make([]Block, 0, len(prefix)+len(suffix))
	candidate = append(candidate, prefix...)
	candidate = append(candidate, suffix...)

	if err := validateChain(candidate, c.groupSize); err != nil {
		c.metrics.observeMergeFailure()
		return newChainError(KindMergeInvalid, "merge", fmt.Errorf("combined chain fails validation: %w", err))
	}

	c.blocks = candidate
	chainLogger.WithFields(logrus.Fields{"prefix": len(prefix), "suffix": len(suffix)}).Debug("datachain: merged")
	return nil
}

// findCommonAnchor locates the earliest link present in both block runs
// whose proof sets intersect in a strict majority of signers. Earliest means
// the lowest index in a — when multiple shared links exist the oldest wins,
// maximizing historical coverage. Returns (-1, -1) when no such link exists.
func findCommonAnchor(a, b []Block, groupSize int) (aIdx, bIdx int) {
	for i, ba := range a {
		if ba.Identifier.Kind() != KindLink {
			continue
		}
		for j, bb := range b {
			if bb.Identifier.Kind() != KindLink {
				continue
			}
			if !ba.Identifier.Equal(bb.Identifier) {
				continue
			}
			if intersectionSize(ba, bb)*2 <= groupSize {
				continue
			}
			return i, j
		}
	}
	return -1, -1
}
