package core

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// This file implements the per-identifier vote accumulator: a map of small
// state machines, each running Absent -> Pending(k, votes) -> Ready ->
// Committed as signatures over the same identifier arrive from the group.

var accLogger = logrus.New()

// SetAccumulatorLogger overrides the package-level logger used by
// PendingCache.
func SetAccumulatorLogger(l *logrus.Logger) { accLogger = l }

func init() { accLogger.SetLevel(logrus.WarnLevel) }

// SubmitStatus is the outcome of submitting a NodeBlock to a PendingCache.
type SubmitStatus uint8

const (
	StatusPending SubmitStatus = iota
	StatusReady
	StatusRejected
)

// RejectReason explains a StatusRejected outcome.
type RejectReason uint8

const (
	RejectInvalidSignature RejectReason = iota
	RejectDuplicateSigner
	RejectSignerNotInGroup
	RejectAlreadyReady
	RejectIdentifierMismatch
	RejectEntryUnknown
)

func (r RejectReason) String() string {
	switch r {
	case RejectInvalidSignature:
		return "InvalidSignature"
	case RejectDuplicateSigner:
		return "DuplicateSigner"
	case RejectSignerNotInGroup:
		return "SignerNotInGroup"
	case RejectAlreadyReady:
		return "AlreadyReady"
	case RejectIdentifierMismatch:
		return "IdentifierMismatch"
	case RejectEntryUnknown:
		return "EntryUnknown"
	default:
		return "Unknown"
	}
}

// SubmitResult reports the new state of an identifier's accumulation after a
// submit.
type SubmitResult struct {
	Status SubmitStatus
	Votes  int
	Quorum int
	Block  Block        // populated when Status == StatusReady
	Reason RejectReason // populated when Status == StatusRejected
}

type pendingEntry struct {
	identifier BlockIdentifier
	proofs     map[PublicKey]Signature
	ready      bool
}

// PendingCache collects NodeBlocks referring to the same identifier until a
// quorum of distinct signers is reached. It is single-writer
// from the owning node's perspective but receives votes in arbitrary arrival
// order from the network.
type PendingCache struct {
	mu        sync.Mutex
	groupSize int
	quorum    int
	capacity  int
	entries   map[string]*pendingEntry
	recency   *lru.Cache[string, struct{}]
	evicted   *lru.Cache[string, struct{}]
	metrics   *Metrics
}

// NewPendingCache creates an accumulator for a group of the given size.
// capacity <= 0 means unbounded; capacity > 0 bounds the cache to that many
// pending identifiers, evicting the least-recently updated entry when full.
func NewPendingCache(groupSize, capacity int) *PendingCache {
	pc := &PendingCache{
		groupSize: groupSize,
		quorum:    Quorum(groupSize),
		capacity:  capacity,
		entries:   make(map[string]*pendingEntry),
	}
	if capacity > 0 {
		// Evicted keys are remembered (in an equally bounded cache) so a
		// late-arriving vote for a dropped entry is answered with
		// EntryUnknown rather than silently restarting accumulation — the
		// sender reissues on the next churn.
		evicted, err := lru.New[string, struct{}](capacity)
		if err != nil {
			// Only returns an error for a non-positive size, already excluded.
			panic(err)
		}
		pc.evicted = evicted

		// onEvict runs synchronously inside recency.Add, which is always
		// called while pc.mu is already held — it must not try to
		// re-acquire it.
		onEvict := func(key string, _ struct{}) {
			delete(pc.entries, key)
			pc.evicted.Add(key, struct{}{})
			accLogger.WithField("identifier", key).Debug("pending cache: evicted stale entry")
		}
		recency, err := lru.NewWithEvict[string, struct{}](capacity, onEvict)
		if err != nil {
			panic(err)
		}
		pc.recency = recency
	}
	return pc
}

// SetMetrics attaches optional Prometheus instrumentation; nil detaches it.
func (pc *PendingCache) SetMetrics(m *Metrics) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.metrics = m
}

func cacheKey(id BlockIdentifier) string { return string(id.Encode()) }

// Submit verifies and admits a vote, returning the identifier's new state.
// The first signature from a given signer wins; later duplicates are
// rejected rather than overwriting. For a link identifier, the
// signer must be one of the keys that compose the link.
func (pc *PendingCache) Submit(nb NodeBlock) SubmitResult {
	if !nb.Verify() {
		return SubmitResult{Status: StatusRejected, Reason: RejectInvalidSignature}
	}
	if nb.Identifier.Kind() == KindLink && !nb.Identifier.ContainsSigner(nb.Signer) {
		return SubmitResult{Status: StatusRejected, Reason: RejectSignerNotInGroup}
	}

	key := cacheKey(nb.Identifier)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, ok := pc.entries[key]
	if !ok {
		if pc.evicted != nil && pc.evicted.Contains(key) {
			return SubmitResult{Status: StatusRejected, Reason: RejectEntryUnknown}
		}
		entry = &pendingEntry{identifier: nb.Identifier, proofs: make(map[PublicKey]Signature)}
		pc.entries[key] = entry
	} else if !entry.identifier.Equal(nb.Identifier) {
		return SubmitResult{Status: StatusRejected, Reason: RejectIdentifierMismatch}
	}

	if entry.ready {
		return SubmitResult{Status: StatusRejected, Reason: RejectAlreadyReady}
	}
	if _, dup := entry.proofs[nb.Signer]; dup {
		return SubmitResult{Status: StatusRejected, Reason: RejectDuplicateSigner}
	}

	entry.proofs[nb.Signer] = nb.Signature
	if pc.recency != nil {
		pc.recency.Add(key, struct{}{})
	}

	pc.metrics.setPending(len(pc.entries))

	votes := len(entry.proofs)
	if votes >= pc.quorum {
		entry.ready = true
		blk := NewBlock(nb.Identifier, entry.proofs)
		return SubmitResult{Status: StatusReady, Votes: votes, Quorum: pc.quorum, Block: blk}
	}
	return SubmitResult{Status: StatusPending, Votes: votes, Quorum: pc.quorum}
}

// Purge discards the pending entry for identifier, whether or not it ever
// reached quorum. Callers purge after a Ready Block is successfully
// committed to the chain.
func (pc *PendingCache) Purge(identifier BlockIdentifier) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	key := cacheKey(identifier)
	delete(pc.entries, key)
	if pc.recency != nil {
		pc.recency.Remove(key)
	}
	if pc.evicted != nil {
		pc.evicted.Remove(key)
	}
	pc.metrics.setPending(len(pc.entries))
}

// Len returns the number of identifiers currently pending (including any
// already-Ready but not yet purged).
func (pc *PendingCache) Len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.entries)
}

// Pending reports the current vote count for identifier, for introspection
// and tests. ok is false if there is no entry (Absent state).
func (pc *PendingCache) Pending(identifier BlockIdentifier) (votes int, ok bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	entry, present := pc.entries[cacheKey(identifier)]
	if !present {
		return 0, false
	}
	return len(entry.proofs), true
}
