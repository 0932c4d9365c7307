package core

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// This file implements the DataChain type and its validate/add operations.
// The append discipline is transactional: every precondition is checked
// before the first mutation, so a failed Add leaves the chain untouched.

var chainLogger = logrus.New()

// SetChainLogger overrides the package-level logger used by DataChain.
func SetChainLogger(l *logrus.Logger) { chainLogger = l }

func init() { chainLogger.SetLevel(logrus.WarnLevel) }

// Quorum returns the strict-majority threshold for a group of the given
// size: group_size/2 + 1. It is derived, never configured independently.
func Quorum(groupSize int) int { return groupSize/2 + 1 }

// DataChain is the ordered sequence of Blocks plus the scalar group_size.
// It is single-writer: the owning node mutates it serially; concurrent
// readers may safely call the read-only accessors while a writer holds the
// lock only for the duration of each operation.
type DataChain struct {
	mu        sync.RWMutex
	groupSize int
	blocks    []Block
	metrics   *Metrics
}

// NewDataChain creates an empty chain bound to groupSize. groupSize is
// fixed at creation and checked on load.
func NewDataChain(groupSize int) *DataChain {
	return &DataChain{groupSize: groupSize}
}

// SetMetrics attaches optional Prometheus instrumentation; nil detaches it.
func (c *DataChain) SetMetrics(m *Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

// GroupSize returns the chain's fixed group_size.
func (c *DataChain) GroupSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groupSize
}

// Len returns the number of blocks in the chain.
func (c *DataChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// IsEmpty reports whether the chain has no blocks.
func (c *DataChain) IsEmpty() bool { return c.Len() == 0 }

// Blocks returns a read-only snapshot of the chain's blocks, in append
// order. The returned slice (and its Block values' Proofs maps) must not be
// mutated by the caller.
func (c *DataChain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Validate holistically checks the chain: every block's signatures verify,
// and the rolling-quorum predicate holds between every adjacent pair. An
// empty chain is valid.
func (c *DataChain) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return validateChain(c.blocks, c.groupSize)
}

// Add appends block if doing so preserves every chain invariant: every
// proof verifies; for a non-empty chain the new block shares
// rolling quorum with the current tail, and if the chain is empty the block
// must be a link; for a link block, every signer key is in the link's
// key-set. On any failure the chain is left byte-for-byte unchanged.
func (c *DataChain) Add(block Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateSingleBlock(block, c.groupSize); err != nil {
		return err
	}

	if len(c.blocks) == 0 {
		if block.Identifier.Kind() != KindLink {
			return newChainError(KindEmptyMustBeLink, "add", fmt.Errorf("chain is empty; first block must be a link"))
		}
		c.blocks = append(c.blocks, block)
		c.metrics.observeCommit()
		chainLogger.WithFields(logrus.Fields{"kind": block.Identifier.Kind(), "proofs": len(block.Proofs)}).Debug("datachain: seeded with link block")
		return nil
	}

	tail := c.blocks[len(c.blocks)-1]
	if !hasRollingQuorum(tail, block, c.groupSize) {
		return newChainError(KindMajority, "add", fmt.Errorf(
			"intersection with tail proof set has size %d, group_size/2=%d", intersectionSize(tail, block), c.groupSize/2))
	}

	c.blocks = append(c.blocks, block)
	c.metrics.observeCommit()
	chainLogger.WithFields(logrus.Fields{"kind": block.Identifier.Kind(), "height": len(c.blocks) - 1}).Debug("datachain: appended block")
	return nil
}

// AddNodeBlock feeds one vote through cache and, when that vote completes a
// quorum, commits the resulting Block to the chain and purges the cache
// entry. The returned SubmitResult reports the accumulation state either
// way. If the commit itself fails (the quorate block does not extend this
// chain's tail), the Ready entry stays in the cache untouched so the owner
// can retry once the chain has caught up, and the error is returned.
func (c *DataChain) AddNodeBlock(cache *PendingCache, nb NodeBlock) (SubmitResult, error) {
	res := cache.Submit(nb)
	if res.Status != StatusReady {
		return res, nil
	}
	if err := c.Add(res.Block); err != nil {
		return res, err
	}
	cache.Purge(res.Block.Identifier)
	return res, nil
}

// validateSingleBlock checks the invariants that apply to any one block in
// isolation: every proof verifies, the proof count is within
// [quorum, group_size], and a link block's signers are a subset of its own
// key-set.
func validateSingleBlock(block Block, groupSize int) error {
	if signer, ok := block.verifySignatures(); !ok {
		return newChainError(KindSignature, "validate", fmt.Errorf("proof by %s does not verify", signer))
	}
	if q := Quorum(groupSize); len(block.Proofs) < q || len(block.Proofs) > groupSize {
		return newChainError(KindMajority, "validate", fmt.Errorf(
			"proof count %d outside [%d,%d]", len(block.Proofs), q, groupSize))
	}
	if !linkSignersSubsetOfGroup(block) {
		return newChainError(KindLinkMismatch, "validate", fmt.Errorf("link block has a signer outside its own key-set"))
	}
	return nil
}

// validateChain runs the full holistic check over an ordered block slice:
// structural link-seeding, per-block invariants (verified in parallel, since
// block-level validity is order-insensitive), and the sequential
// rolling-quorum predicate between every adjacent pair.
func validateChain(blocks []Block, groupSize int) error {
	if len(blocks) == 0 {
		return nil
	}
	if blocks[0].Identifier.Kind() != KindLink {
		return newChainError(KindEmptyMustBeLink, "validate", fmt.Errorf("first block is not a link"))
	}
	if err := verifyBlocksParallel(blocks, groupSize); err != nil {
		return err
	}
	return verifyRollingQuorumChain(blocks, groupSize)
}

// verifyBlocksParallel checks validateSingleBlock for every block
// concurrently — safe because each block's validity is independent of the
// others — then folds the results back deterministically: the
// lowest-index failing block wins, regardless of which goroutine finished
// first.
func verifyBlocksParallel(blocks []Block, groupSize int) error {
	if len(blocks) == 1 {
		return validateSingleBlock(blocks[0], groupSize)
	}
	issues := make([]error, len(blocks))
	var g errgroup.Group
	for i := range blocks {
		i, b := i, blocks[i]
		g.Go(func() error {
			issues[i] = validateSingleBlock(b, groupSize)
			return nil
		})
	}
	_ = g.Wait() // goroutines record failures in issues; g itself never errors
	for _, issue := range issues {
		if issue != nil {
			return issue
		}
	}
	return nil
}

// Encode returns the canonical binary encoding of the whole chain:
// the group_size, then the length-prefixed run of block encodings in append
// order. This is the wire form two nodes exchange during a rejoin.
func (c *DataChain) Encode() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e := newEncoder()
	e.u32(uint32(c.groupSize))
	e.u32(uint32(len(c.blocks)))
	for _, b := range c.blocks {
		e.bytesField(b.Encode())
	}
	return e.bytes()
}

// DecodeDataChain parses the canonical encoding produced by Encode and
// validates the result holistically before returning it, so a decoded chain
// carries the same guarantees as one grown through Add.
func DecodeDataChain(buf []byte) (*DataChain, error) {
	d := newDecoder(buf)
	groupSize, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("decode chain group_size: %w", err)
	}
	count, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("decode chain block count: %w", err)
	}
	if int(count) > d.remaining()/4 {
		return nil, fmt.Errorf("decode chain: block count %d exceeds input", count)
	}
	blocks := make([]Block, 0, count)
	for i := uint32(0); i < count; i++ {
		body, err := d.bytesField()
		if err != nil {
			return nil, fmt.Errorf("decode chain block %d: %w", i, err)
		}
		blk, err := DecodeBlock(body)
		if err != nil {
			return nil, fmt.Errorf("decode chain block %d: %w", i, err)
		}
		blocks = append(blocks, blk)
	}
	if !d.done() {
		return nil, fmt.Errorf("decode chain: %d trailing bytes", d.remaining())
	}
	if err := validateChain(blocks, int(groupSize)); err != nil {
		return nil, err
	}
	chain := NewDataChain(int(groupSize))
	chain.blocks = blocks
	return chain, nil
}

func verifyRollingQuorumChain(blocks []Block, groupSize int) error {
	for i := 0; i+1 < len(blocks); i++ {
		if !hasRollingQuorum(blocks[i], blocks[i+1], groupSize) {
			return newChainError(KindMajority, "validate", fmt.Errorf(
				"blocks %d,%d: intersection size %d not > group_size/2=%d",
				i, i+1, intersectionSize(blocks[i], blocks[i+1]), groupSize/2))
		}
	}
	return nil
}
