package svn

import (
	"fmt"
)

type revEntry struct {
	output     int
	retained   bool // this revision was emitted as entry.output
	resolvable bool // false for a drop with no retained predecessor
}

// RevisionMap tracks original to output revision numbers as revisions are
// retained or dropped. Entries are final once recorded. A dropped revision
// resolves to the nearest prior retained revision: an empty revision leaves
// the repository unchanged from its predecessor, so any copy source inside
// it is identical to that predecessor's state.
type RevisionMap struct {
	entries    map[int]revEntry
	lastOutput int
	haveOutput bool
}

// NewRevisionMap returns an empty map.
func NewRevisionMap() *RevisionMap {
	return &RevisionMap{entries: make(map[int]revEntry)}
}

// Retain records that original was emitted as output.
func (rm *RevisionMap) Retain(original, output int) {
	rm.entries[original] = revEntry{output: output, retained: true, resolvable: true}
	rm.lastOutput = output
	rm.haveOutput = true
}

// Drop records that original was elided from the output.
func (rm *RevisionMap) Drop(original int) {
	rm.entries[original] = revEntry{output: rm.lastOutput, resolvable: rm.haveOutput}
}

// Seen reports whether original has been processed.
func (rm *RevisionMap) Seen(original int) bool {
	_, ok := rm.entries[original]
	return ok
}

// Resolve maps an original revision number to the output number that holds
// the equivalent repository state. References must point backward: asking
// about an unprocessed revision is an error.
func (rm *RevisionMap) Resolve(original int) (int, error) {
	entry, ok := rm.entries[original]
	if !ok {
		return 0, fmt.Errorf("%w: r%d has not been processed", ErrReference, original)
	}
	if !entry.resolvable {
		return 0, fmt.Errorf("%w: r%d was dropped with no retained predecessor",
			ErrReference, original)
	}
	return entry.output, nil
}
