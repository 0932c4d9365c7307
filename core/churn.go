package core

import "fmt"

// BuildLinkVote derives the current close-group key-set from view and
// constructs the link NodeBlock self would multicast to the group on a churn
// event. The caller distributes the returned NodeBlock to the rest of the
// group and feeds the replies back into a PendingCache; the message is built
// here, fanned out by whatever transport the node runs on.
func BuildLinkVote(self KeyPair, view *ClosegroupView) (NodeBlock, error) {
	identifier := CreateLinkDescriptor(view.Keys())
	nb, err := NewNodeBlock(self, identifier)
	if err != nil {
		return NodeBlock{}, fmt.Errorf("build link vote: %w", err)
	}
	return nb, nil
}
