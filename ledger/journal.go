// Copyright (C) 2025, Universal Swaps Ltd. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

// Journal is a transaction-scoped undo log shared by every state
// container that participates in a mutating operation. Each primitive
// mutation records an inverse closure; reverting to a snapshot replays
// the closures in reverse order, restoring the exact prior state.
//
// Operations bracket themselves with Begin/End. Notification callbacks
// may re-enter and open nested brackets on the same journal; entries
// are only discarded once the outermost bracket closes, so an outer
// revert also undoes the effects of completed inner operations.
type Journal struct {
	undo  []func()
	depth int
}

func NewJournal() *Journal {
	return &Journal{}
}

// Record appends an undo closure for a primitive mutation that has
// just been applied.
func (j *Journal) Record(undo func()) {
	j.undo = append(j.undo, undo)
}

// Begin opens an operation bracket and returns its revert point.
func (j *Journal) Begin() int {
	j.depth++
	return len(j.undo)
}

// End closes the current bracket. When the outermost bracket closes
// the retained undo entries are dropped; anything still recorded at
// that point is committed.
func (j *Journal) End() {
	j.depth--
	if j.depth == 0 {
		j.undo = j.undo[:0]
	}
}

// Snapshot returns the current revert point without opening a bracket.
func (j *Journal) Snapshot() int {
	return len(j.undo)
}

// RevertToSnapshot undoes every mutation recorded since rev.
func (j *Journal) RevertToSnapshot(rev int) {
	for i := len(j.undo) - 1; i >= rev; i-- {
		j.undo[i]()
	}
	j.undo = j.undo[:rev]
}
