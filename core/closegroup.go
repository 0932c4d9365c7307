package core

import (
	"math/big"
	"sort"
)

// ClosegroupView is a minimal, transport-free view of the peers a node
// currently believes compose its close group: the group_size peers whose
// identifiers are closest, by XOR, to its own. Routing and peer discovery
// live elsewhere; only the distance primitive and the resulting member
// key-set matter to DataChain.
type ClosegroupView struct {
	self    PublicKey
	members map[PublicKey]struct{}
}

// NewClosegroupView creates a view centered on self with no members.
func NewClosegroupView(self PublicKey) *ClosegroupView {
	return &ClosegroupView{self: self, members: make(map[PublicKey]struct{})}
}

// Join records that peer has joined the close group.
func (v *ClosegroupView) Join(peer PublicKey) {
	if peer == v.self {
		return
	}
	v.members[peer] = struct{}{}
}

// Leave records that peer has left the close group (churn).
func (v *ClosegroupView) Leave(peer PublicKey) {
	delete(v.members, peer)
}

// Keys returns the current group's key-set, including self, sorted
// canonically — exactly the input CreateLinkDescriptor expects.
func (v *ClosegroupView) Keys() []PublicKey {
	keys := make([]PublicKey, 0, len(v.members)+1)
	keys = append(keys, v.self)
	for k := range v.members {
		keys = append(keys, k)
	}
	return SortPublicKeys(keys)
}

// Size returns the current group cardinality, including self.
func (v *ClosegroupView) Size() int { return len(v.members) + 1 }

// xorDistance returns the XOR distance between two public keys' digests as
// a big.Int, computed over the identity keys DataChain already has on hand
// rather than separately derived node IDs.
func xorDistance(a, b PublicKey) *big.Int {
	ha := HashBytes(a[:])
	hb := HashBytes(b[:])
	diff := make([]byte, len(ha))
	for i := range diff {
		diff[i] = ha[i] ^ hb[i]
	}
	return new(big.Int).SetBytes(diff)
}

// FurthestDistance returns the XOR distance from self to its furthest
// current group member — the value a node persists as network_difficulty
// for startup heuristics. Returns nil if the group has no members
// besides self.
func (v *ClosegroupView) FurthestDistance() *big.Int {
	var furthest *big.Int
	for member := range v.members {
		d := xorDistance(v.self, member)
		if furthest == nil || d.Cmp(furthest) > 0 {
			furthest = d
		}
	}
	return furthest
}

// Nearest returns up to count current members closest to target by XOR
// distance, sorted nearest-first. It does not include self.
func (v *ClosegroupView) Nearest(target PublicKey, count int) []PublicKey {
	peers := make([]PublicKey, 0, len(v.members))
	for k := range v.members {
		peers = append(peers, k)
	}
	sort.Slice(peers, func(i, j int) bool {
		return xorDistance(target, peers[i]).Cmp(xorDistance(target, peers[j])) < 0
	})
	if len(peers) > count {
		peers = peers[:count]
	}
	return peers
}
