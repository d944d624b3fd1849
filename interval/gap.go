// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
)

// Flank describes one product sequence that reaches both sides of a gap.
// The left fields come from the end boundary of the block before the gap,
// the right fields from the start boundary of the block after it.
type Flank struct {
	Name              string
	ContigID          int64
	LeftIndices       []int
	RightIndices      []int
	LeftOrientations  []Orientation
	RightOrientations []Orientation
}

// GroupedGap is a candidate IES: the positions strictly between two
// consecutive merged blocks, annotated once per product flanking it on both
// sides.  Start and End are inclusive and End >= Start.
type GroupedGap struct {
	Start, End PosType
	Flanks     []Flank
}

// Len returns the number of positions in the gap.
func (g GroupedGap) Len() int { return int(g.End-g.Start) + 1 }

// String implements fmt.Stringer.
func (g GroupedGap) String() string {
	return fmt.Sprintf("[%d,%d]x%d", g.Start, g.End, len(g.Flanks))
}

// ExtractGaps walks consecutive pairs of blocks and emits a gap wherever the
// end boundary of the left block and the start boundary of the right block
// share at least one product name.  Flanks are sorted by product name.
//
// REQUIRES: blocks are sorted and pairwise non-mergeable, as returned by Fold.
func ExtractGaps(blocks []MergedMatch) []GroupedGap {
	var gaps []GroupedGap
	for i := 0; i+1 < len(blocks); i++ {
		left, right := blocks[i], blocks[i+1]
		start, end := int64(left.End)+1, int64(right.Start)-1
		if end < start {
			continue
		}
		var names []string
		for _, name := range left.EndMacs.Names() {
			if _, ok := right.StartMacs[name]; ok {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		gap := GroupedGap{Start: PosType(start), End: PosType(end), Flanks: make([]Flank, len(names))}
		for j, name := range names {
			l, r := left.EndMacs[name], right.StartMacs[name]
			gap.Flanks[j] = Flank{
				Name:              name,
				ContigID:          l.ContigID,
				LeftIndices:       l.Indices,
				RightIndices:      r.Indices,
				LeftOrientations:  l.Orientations,
				RightOrientations: r.Orientations,
			}
		}
		gaps = append(gaps, gap)
	}
	return gaps
}
