// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

// Lifecycle is a Node's position in the Bootstrapping -> Joining -> Adult
// -> Elder progression. Transitions are driven entirely by wire frames and
// consensus blocks, never by direct host mutation.
type Lifecycle int

const (
	// LifecycleBootstrapping means the node is cycling contacts looking
	// for a section to sponsor its join.
	LifecycleBootstrapping Lifecycle = iota
	// LifecycleJoining means a contact has responded and the node is
	// waiting on NodeApproval from its destination section's elders.
	LifecycleJoining
	// LifecycleAdult means the node is an approved, non-elder member of
	// its section.
	LifecycleAdult
	// LifecycleElder means the node currently sits in its section's
	// elder committee.
	LifecycleElder
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleBootstrapping:
		return "Bootstrapping"
	case LifecycleJoining:
		return "Joining"
	case LifecycleAdult:
		return "Adult"
	case LifecycleElder:
		return "Elder"
	default:
		return "Unknown"
	}
}
