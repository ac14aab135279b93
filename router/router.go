// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"github.com/luxfi/log"

	"github.com/luxfi/mesh/blschain"
	"github.com/luxfi/mesh/crypto/bls"
	"github.com/luxfi/mesh/messages"
	"github.com/luxfi/mesh/section"
	mlog "github.com/luxfi/mesh/log"
	"github.com/luxfi/mesh/xorname"
)

// Decision is the outcome of routing one inbound signed Message.
type Decision int

const (
	// DecisionLocal means the message's destination is us or our
	// section: hand it to local handling.
	DecisionLocal Decision = iota
	// DecisionForward means the message should be forwarded to a
	// computed next-hop target set.
	DecisionForward
	// DecisionBounceUntrusted means the proof chain could not be
	// verified against what we currently trust.
	DecisionBounceUntrusted
	// DecisionBounceUnknown means the destination prefix is not covered
	// by our network view.
	DecisionBounceUnknown
	// DecisionDuplicate means the message was already processed.
	DecisionDuplicate
	// DecisionInvalidProof means a link in the message's proof chain
	// failed to verify: it is not a duplicate, and bouncing it would only
	// teach the sender nothing useful since the chain itself is bad.
	DecisionInvalidProof
)

// Outcome bundles a routing Decision with whatever payload it implies.
type Outcome struct {
	Decision Decision
	Targets  []section.ElderInfo
	Bounce   messages.BouncedUntrustedMessage
	Unknown  messages.BouncedUnknownMessage
}

// Router decides, for each inbound signed Message, whether to handle it
// locally, forward it, bounce it, or drop it as a duplicate. It holds an
// immutable snapshot view for next-hop decisions while processing one
// inbound frame; mutations are applied between frames by the lifecycle
// owner.
type Router struct {
	log       log.Logger
	ourName   xorname.Name
	ourPrefix xorname.Prefix
	threshold int
	filter    *Filter
	ourChain  *blschain.Chain
	view      *section.NetworkView
}

// New constructs a Router. threshold is bls_threshold: next-hop target
// subsets are sized threshold+1 for redundancy.
func New(ourName xorname.Name, ourPrefix xorname.Prefix, threshold int, ourChain *blschain.Chain, view *section.NetworkView, filterCapacity int, logger log.Logger) *Router {
	if logger == nil {
		logger = mlog.NoOp()
	}
	return &Router{
		log:       logger,
		ourName:   ourName,
		ourPrefix: ourPrefix,
		threshold: threshold,
		filter:    NewFilter(filterCapacity),
		ourChain:  ourChain,
		view:      view,
	}
}

// UpdatePrefix refreshes the router's notion of its own section's prefix,
// e.g. after a split or merge is applied between frames.
func (r *Router) UpdatePrefix(prefix xorname.Prefix) {
	r.ourPrefix = prefix
}

// Route classifies msg and computes the routing decision for it.
func (r *Router) Route(msg messages.Message) Outcome {
	hash := msg.Plain.Hash()
	if r.filter.SeenMessage(hash) {
		return Outcome{Decision: DecisionDuplicate}
	}

	trust := r.ourChain.VerifySlice(msg.SectionProof, r.trustedKeyFor(msg.Plain.Src))
	switch trust {
	case blschain.TrustNone:
		r.log.Warn("dropping message with unverifiable proof chain")
		return Outcome{Decision: DecisionInvalidProof}
	case blschain.TrustPartial:
		latest, ok := r.view.KeyForPrefix(msg.Plain.Src.Name)
		if !ok {
			latest = r.ourChain.Last()
		}
		return Outcome{
			Decision: DecisionBounceUntrusted,
			Bounce:   messages.BouncedUntrustedMessage{Original: msg, LatestKnownKey: latest},
		}
	}

	if r.destinationIsUs(msg.Plain.Dst) {
		return Outcome{Decision: DecisionLocal}
	}

	targets, ok := r.nextHop(msg.Plain.Dst)
	if !ok {
		return Outcome{Decision: DecisionBounceUnknown, Unknown: messages.BouncedUnknownMessage{Original: msg}}
	}
	return Outcome{Decision: DecisionForward, Targets: targets}
}

// trustedKeyFor returns the key we currently trust for src's section: our
// own current key if src is within our section, the latest key we have
// cached for src's section in our network view, or our chain's genesis
// key as a last resort so verify_slice remains total.
func (r *Router) trustedKeyFor(src messages.Location) *bls.PublicKey {
	if r.ourPrefix.Matches(src.Name) {
		return r.ourChain.Last()
	}
	if key, ok := r.view.KeyForPrefix(src.Name); ok {
		return key
	}
	return r.ourChain.First()
}

func (r *Router) destinationIsUs(dst messages.Location) bool {
	switch dst.Kind {
	case messages.LocationNode:
		return dst.Name == r.ourName
	case messages.LocationSection:
		return r.ourPrefix.Matches(dst.Name)
	case messages.LocationPrefix:
		return dst.Prefix.IsCompatible(r.ourPrefix)
	default:
		return false
	}
}

// nextHop picks the known section whose prefix best matches dst, then
// targets its elders, returning the threshold+1 highest-priority elders
// for redundancy.
func (r *Router) nextHop(dst messages.Location) ([]section.ElderInfo, bool) {
	var name xorname.Name
	switch dst.Kind {
	case messages.LocationNode, messages.LocationSection:
		name = dst.Name
	case messages.LocationPrefix:
		name = dst.Prefix.Name()
	}

	authority, ok := r.view.BestMatch(name)
	if !ok {
		return nil, false
	}

	names := authority.ElderNames()
	xorname.SortByDistance(names, name)

	want := r.threshold + 1
	if want > len(names) {
		want = len(names)
	}
	targets := make([]section.ElderInfo, 0, want)
	for _, n := range names[:want] {
		targets = append(targets, authority.Elders[n])
	}
	return targets, true
}
