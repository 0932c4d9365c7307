package core

import "fmt"

// This file implements delete and prune: removing a data block physically
// where the chain tolerates it, tombstoning it in place where it does not,
// and dropping contiguous tombstoned runs from the head. Index arithmetic is
// explicit throughout: head is always index 0 and tail is always
// len(blocks)-1 of the live slice.

// Delete removes the live block named by name. Policy:
//
//   - Tail block: always tombstoned, never removed, so the chain stays
//     forward-extensible from an intact tail.
//   - Head or an interior block whose neighbours share rolling quorum
//     without it: physically removed.
//   - Any other interior block: tombstoned in place; it keeps participating
//     in signature and quorum verification, only its external payload may be
//     discarded.
//
// Only Immutable and Structured identifiers carry a Name, so a
// link can never be targeted through this operation; use DeleteBlock for
// identifier-addressed removal. Returns ErrNotFound if no live block carries
// name.
func (c *DataChain) Delete(name Name) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.blocks {
		b := c.blocks[i]
		if b.Deleted {
			continue
		}
		n, ok := b.Identifier.Name()
		if !ok || n != name {
			continue
		}
		c.deleteAt(i)
		return nil
	}
	return newChainError(KindNotFound, "delete", fmt.Errorf("no live block named %q", name))
}

// DeleteBlock removes the live block carrying identifier, under the same
// policy as Delete, with one addition: a link block may never be removed or
// tombstoned while any data block after it depends on it for quorum
// anchoring — such attempts fail with ErrLinkLoadBearing.
func (c *DataChain) DeleteBlock(identifier BlockIdentifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.blocks {
		b := c.blocks[i]
		if b.Deleted || !b.Identifier.Equal(identifier) {
			continue
		}
		if b.Identifier.Kind() == KindLink && c.linkLoadBearing(i) {
			return newChainError(KindLinkLoadBearing, "delete", fmt.Errorf("link at index %d anchors subsequent data blocks", i))
		}
		c.deleteAt(i)
		return nil
	}
	return newChainError(KindNotFound, "delete", fmt.Errorf("no live block for identifier %s", identifier.Hash()))
}

// deleteAt applies the removal-or-tombstone policy to the block at index i.
// Caller holds c.mu.
func (c *DataChain) deleteAt(i int) {
	tail := len(c.blocks) - 1
	switch {
	case i == tail:
		c.blocks[i].Deleted = true
		chainLogger.WithField("index", i).Debug("datachain: tombstoned tail block")
	case i == 0:
		c.blocks = append(c.blocks[:0], c.blocks[1:]...)
		chainLogger.Debug("datachain: removed head block")
	case hasRollingQuorum(c.blocks[i-1], c.blocks[i+1], c.groupSize):
		c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
		chainLogger.WithField("index", i).Debug("datachain: removed interior block")
	default:
		c.blocks[i].Deleted = true
		chainLogger.WithField("index", i).Debug("datachain: tombstoned interior block")
	}
}

// linkLoadBearing reports whether the link at index i still anchors any
// block after it: it does unless the next block is itself a link (which then
// takes over as the anchor for everything downstream) or nothing follows it
// at all. Caller holds c.mu.
func (c *DataChain) linkLoadBearing(i int) bool {
	if i == len(c.blocks)-1 {
		return false
	}
	return c.blocks[i+1].Identifier.Kind() != KindLink
}

// Prune physically removes every maximal run of tombstoned blocks at the
// head of the chain, stopping at the first live block or the first link
// whose removal would leave a data block exposed at the head with no link
// anchoring it — a link stays load-bearing until nothing downstream needs
// it. It returns the number of blocks actually removed.
//
// Prune never touches the chain's interior or tail; interior tombstones are
// handled at Delete time, where both neighbours are available for the
// rolling-quorum check.
func (c *DataChain) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for len(c.blocks) > 0 {
		head := c.blocks[0]
		if !head.Deleted {
			break
		}
		if head.Identifier.Kind() == KindLink && c.linkLoadBearing(0) {
			break
		}
		c.blocks = c.blocks[1:]
		removed++
	}
	if removed > 0 {
		chainLogger.WithField("removed", removed).Debug("datachain: pruned head")
	}
	return removed
}
