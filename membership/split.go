// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

// ShouldSplit reports whether every sub-prefix of prefix holds at least
// splitThreshold adult (online, non-candidate) members, the trigger for
// voting the two child SAPs.
func ShouldSplit(model *section.Model, prefix xorname.Prefix, splitThreshold int) bool {
	zero, one := prefix.Split()
	var zeroCount, oneCount int
	for _, m := range model.OnlineAdults() {
		switch {
		case zero.Matches(m.Identity.Name):
			zeroCount++
		case one.Matches(m.Identity.Name):
			oneCount++
		}
	}
	return zeroCount >= splitThreshold && oneCount >= splitThreshold
}

// SplitMembers partitions a section's current members (any presence) into the
// two child prefixes produced by prefix.Split(), satisfying "every member
// of p is a member of exactly one of p||0 or p||1, matched by xor_name".
func SplitMembers(model *section.Model, prefix xorname.Prefix) (zeroMembers, oneMembers []section.Member) {
	zero, one := prefix.Split()
	for _, m := range model.Members() {
		switch {
		case zero.Matches(m.Identity.Name):
			zeroMembers = append(zeroMembers, m)
		case one.Matches(m.Identity.Name):
			oneMembers = append(oneMembers, m)
		}
	}
	return zeroMembers, oneMembers
}

// ShouldMerge is the inverse of ShouldSplit: true when two sibling
// sections' combined online-adult count has fallen at or below
// mergeThreshold, and they should recombine under their shared parent
// prefix, continuing proof-chain history from whichever child signs last.
func ShouldMerge(a, b *section.Model, mergeThreshold int) bool {
	if !a.Prefix().IsSiblingOf(b.Prefix()) {
		return false
	}
	return len(a.OnlineAdults())+len(b.OnlineAdults()) <= mergeThreshold
}

// MergeMembers combines two sibling sections' members (any presence) into one set
// for the merged parent prefix.
func MergeMembers(a, b *section.Model) []section.Member {
	merged := append([]section.Member{}, a.Members()...)
	merged = append(merged, b.Members()...)
	return merged
}
