// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"sort"
)

// MergedMatch is the union of one or more overlapping or abutting matches.
// StartMacs holds the products whose matches begin at Start, EndMacs those
// whose matches finish at End.
type MergedMatch struct {
	Start, End PosType
	StartMacs  MacSet
	EndMacs    MacSet
}

// Len returns the number of positions covered by the block.
func (m MergedMatch) Len() int { return int(m.End-m.Start) + 1 }

// String implements fmt.Stringer.
func (m MergedMatch) String() string {
	return fmt.Sprintf("[%d,%d]", m.Start, m.End)
}

// Singleton wraps a single match.  Its start and end boundaries share the
// one annotation.
func Singleton(m Match) MergedMatch {
	macs := MacSet{m.Mac.Name: m.Mac}
	return MergedMatch{
		Start:     m.Start,
		End:       m.End,
		StartMacs: macs,
		EndMacs:   macs,
	}
}

// Mergeable reports whether x and y overlap or abut, i.e. there is no
// position strictly between them.  It is symmetric.  The comparison is done
// in int64 so that an End of PosTypeMax does not wrap.
func Mergeable(x, y MergedMatch) bool {
	if int64(x.End)+1 < int64(y.Start) {
		return false
	}
	if int64(y.End)+1 < int64(x.Start) {
		return false
	}
	return true
}

// Combine returns the block spanning x and y.  The boundary annotations come
// from whichever block owns the outermost boundary; on a tie both sides are
// merged with MergeAllMacs(x, y).
//
// REQUIRES: Mergeable(x, y)
func Combine(x, y MergedMatch) (MergedMatch, error) {
	var (
		r   MergedMatch
		err error
	)
	switch {
	case x.Start < y.Start:
		r.Start, r.StartMacs = x.Start, x.StartMacs
	case x.Start > y.Start:
		r.Start, r.StartMacs = y.Start, y.StartMacs
	default:
		r.Start = x.Start
		if r.StartMacs, err = MergeAllMacs(x.StartMacs, y.StartMacs); err != nil {
			return MergedMatch{}, err
		}
	}
	switch {
	case x.End > y.End:
		r.End, r.EndMacs = x.End, x.EndMacs
	case x.End < y.End:
		r.End, r.EndMacs = y.End, y.EndMacs
	default:
		r.End = x.End
		if r.EndMacs, err = MergeAllMacs(x.EndMacs, y.EndMacs); err != nil {
			return MergedMatch{}, err
		}
	}
	return r, nil
}

// Fold merges matches into the minimal sequence of disjoint, non-abutting
// blocks, ordered by position.  Matches are sorted by Start with a stable
// sort, so matches sharing a start are folded in the order given.  The input
// slice is not modified.
//
// The error, if any, has kind errors.Integrity (see MergeMacs).
func Fold(matches []Match) ([]MergedMatch, error) {
	blocks := make([]MergedMatch, len(matches))
	for i, m := range matches {
		blocks[i] = Singleton(m)
	}
	return foldSorted(blocks)
}

// FoldBlocks runs the same fold over blocks that were already merged, e.g.
// the output of Fold or blocks coming from several partitions.  Applied to
// the output of Fold it returns an identical sequence.
func FoldBlocks(blocks []MergedMatch) ([]MergedMatch, error) {
	return foldSorted(append([]MergedMatch(nil), blocks...))
}

// foldSorted sorts blocks in place and folds them left to right.  Since the
// blocks are ordered by Start, each one can only merge with the last block
// emitted so far.
func foldSorted(blocks []MergedMatch) ([]MergedMatch, error) {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	merged := make([]MergedMatch, 0, len(blocks))
	for _, b := range blocks {
		n := len(merged)
		if n == 0 || !Mergeable(merged[n-1], b) {
			merged = append(merged, b)
			continue
		}
		c, err := Combine(merged[n-1], b)
		if err != nil {
			return nil, err
		}
		merged[n-1] = c
	}
	return merged, nil
}
