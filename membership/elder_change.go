// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package membership

import (
	"github.com/luxfi/mesh/section"
	"github.com/luxfi/mesh/xorname"
)

// ElderChange is CheckAndProcessElderChange: the periodic committee
// rotation routine. On a CheckElder consensus block it compares the
// current elder set against the model's age-sorted top-N members, and if
// they differ it tracks the pending names until SectionInfoVoteAccepted
// has seen each one, in any order. Casting the votes, applying the new
// authority and appending the new section key to the chain are left to
// the caller.
type ElderChange struct {
	model         *section.Model
	currentElders map[xorname.Name]bool
	pending       map[xorname.Name]bool
	inFlight      bool
}

// NewElderChange wires the routine to the section model it rotates
// elders for, seeded with the model's elder set at construction time.
func NewElderChange(model *section.Model) *ElderChange {
	e := &ElderChange{model: model, pending: make(map[xorname.Name]bool)}
	e.currentElders = elderNameSet(model)
	return e
}

func elderNameSet(model *section.Model) map[xorname.Name]bool {
	set := make(map[xorname.Name]bool)
	for _, m := range model.ComputeElders() {
		set[m.Identity.Name] = true
	}
	return set
}

// Result describes what CheckElder computed: whether a change is needed
// and, if so, which names are now elders.
type Result struct {
	Changed   bool
	NewElders []xorname.Name
}

// CheckElderBlock is delivered on the consensus-ordered CheckElder vote.
// It is idempotent while a rotation is already in flight: a second
// CheckElder block arriving before the prior rotation's SectionInfo votes
// have all landed is a no-op, matching "wait until all such votes reach
// consensus... then atomically apply".
func (e *ElderChange) CheckElderBlock() Result {
	if e.inFlight {
		return Result{}
	}
	target := elderNameSet(e.model)
	if setEqual(target, e.currentElders) {
		return Result{}
	}

	e.inFlight = true
	names := make([]xorname.Name, 0, len(target))
	for name := range target {
		names = append(names, name)
		e.pending[name] = true
	}
	return Result{Changed: true, NewElders: names}
}

func setEqual(a, b map[xorname.Name]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// SectionInfoVoteAccepted is delivered for each SectionInfo vote reaching
// consensus. Once every pending name has been accounted for, the rotation
// is considered applied and the timer may be re-armed.
func (e *ElderChange) SectionInfoVoteAccepted(name xorname.Name) (done bool) {
	delete(e.pending, name)
	if len(e.pending) == 0 {
		e.inFlight = false
		e.currentElders = elderNameSet(e.model)
		return true
	}
	return false
}
