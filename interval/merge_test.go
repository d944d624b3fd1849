// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func newTestMatch(t *testing.T, start, end PosType, contigID int64, name string, index int, o Orientation) Match {
	m, err := NewMatch(start, end, contigID, name, index, o)
	assert.NoError(t, err)
	return m
}

func mac(contigID int64, name string, indices []int, orients string) MacAnnotation {
	a := MacAnnotation{ContigID: contigID, Name: name, Indices: indices}
	for i := 0; i < len(orients); i++ {
		a.Orientations = append(a.Orientations, Orientation(orients[i]))
	}
	return a
}

func TestNewMatch(t *testing.T) {
	m, err := NewMatch(10, 20, 7, "MAC_1", 3, Reverse)
	assert.NoError(t, err)
	expect.EQ(t, m.Start, PosType(10))
	expect.EQ(t, m.End, PosType(20))
	expect.EQ(t, m.Mac, mac(7, "MAC_1", []int{3}, "-"))

	// Single-base matches are valid.
	_, err = NewMatch(5, 5, 7, "MAC_1", 0, Forward)
	expect.NoError(t, err)

	_, err = NewMatch(21, 20, 7, "MAC_1", 3, Forward)
	expect.True(t, IsInvalidInterval(err))
	expect.False(t, IsInconsistentContig(err))

	_, err = NewMatch(1, 20, 7, "MAC_1", -3, Forward)
	expect.True(t, IsInvalidInterval(err))
}

func TestParseOrientation(t *testing.T) {
	expect.EQ(t, ParseOrientation("+"), Forward)
	expect.EQ(t, ParseOrientation("-"), Reverse)
	expect.EQ(t, ParseOrientation(""), Unknown)
	expect.EQ(t, ParseOrientation("?"), Unknown)
	expect.EQ(t, Orientation(0).String(), ".")
	expect.EQ(t, Reverse.String(), "-")
}

func TestMergeable(t *testing.T) {
	tests := []struct {
		s1, e1, s2, e2 PosType
		want           bool
	}{
		{0, 10, 5, 20, true},   // overlap
		{0, 10, 11, 20, true},  // abutting
		{0, 10, 12, 20, false}, // one-base gap
		{0, 100, 10, 20, true}, // containment
		{12, 20, 0, 10, false}, // reversed order
		{11, 20, 0, 10, true},
	}
	for _, tt := range tests {
		x := MergedMatch{Start: tt.s1, End: tt.e1}
		y := MergedMatch{Start: tt.s2, End: tt.e2}
		expect.EQ(t, Mergeable(x, y), tt.want, "%+v", tt)
		expect.EQ(t, Mergeable(y, x), tt.want, "%+v (swapped)", tt)
	}
}

func TestFoldDisjoint(t *testing.T) {
	matches := []Match{
		newTestMatch(t, 50, 60, 2, "B", 2, Forward),
		newTestMatch(t, 0, 10, 1, "A", 1, Forward),
		newTestMatch(t, 12, 20, 1, "A", 2, Reverse),
	}
	blocks, err := Fold(matches)
	assert.NoError(t, err)
	expect.EQ(t, blocks, []MergedMatch{
		Singleton(matches[1]),
		Singleton(matches[2]),
		Singleton(matches[0]),
	})
	// The input order is left alone.
	expect.EQ(t, matches[0].Start, PosType(50))
}

func TestFoldOverlapping(t *testing.T) {
	tests := []struct {
		s1, e1, s2, e2 PosType
		wantS, wantE   PosType
	}{
		{0, 10, 5, 20, 0, 20},
		{0, 10, 11, 20, 0, 20},
		{0, 100, 10, 20, 0, 100},
		{30, 40, 10, 29, 10, 40},
	}
	for _, tt := range tests {
		blocks, err := Fold([]Match{
			newTestMatch(t, tt.s1, tt.e1, 1, "A", 1, Forward),
			newTestMatch(t, tt.s2, tt.e2, 2, "B", 1, Forward),
		})
		assert.NoError(t, err)
		assert.EQ(t, len(blocks), 1, "%+v", tt)
		expect.EQ(t, blocks[0].Start, tt.wantS)
		expect.EQ(t, blocks[0].End, tt.wantE)
	}
}

func TestFoldBoundaryMacs(t *testing.T) {
	blocks, err := Fold([]Match{
		newTestMatch(t, 0, 100, 1, "A", 1, Forward),
		newTestMatch(t, 50, 200, 2, "B", 4, Reverse),
		newTestMatch(t, 0, 200, 3, "C", 2, Forward),
	})
	assert.NoError(t, err)
	assert.EQ(t, len(blocks), 1)
	expect.EQ(t, blocks[0].StartMacs, MacSet{
		"A": mac(1, "A", []int{1}, "+"),
		"C": mac(3, "C", []int{2}, "+"),
	})
	expect.EQ(t, blocks[0].EndMacs, MacSet{
		"B": mac(2, "B", []int{4}, "-"),
		"C": mac(3, "C", []int{2}, "+"),
	})
}

func TestFoldStableTies(t *testing.T) {
	// Two matches of the same product at the same locus with the same index:
	// the one given later determines the orientation.
	fwd := newTestMatch(t, 0, 10, 1, "A", 1, Forward)
	rev := newTestMatch(t, 0, 10, 1, "A", 1, Reverse)

	blocks, err := Fold([]Match{fwd, rev})
	assert.NoError(t, err)
	expect.EQ(t, blocks[0].StartMacs["A"], mac(1, "A", []int{1}, "-"))

	blocks, err = Fold([]Match{rev, fwd})
	assert.NoError(t, err)
	expect.EQ(t, blocks[0].StartMacs["A"], mac(1, "A", []int{1}, "+"))
}

func TestFoldInconsistentContig(t *testing.T) {
	_, err := Fold([]Match{
		newTestMatch(t, 0, 10, 1, "A", 1, Forward),
		newTestMatch(t, 0, 20, 2, "A", 2, Forward),
	})
	expect.True(t, IsInconsistentContig(err))
}

func TestFoldIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	names := []string{"A", "B", "C", "D"}
	for iter := 0; iter < 200; iter++ {
		var matches []Match
		for i := r.Intn(30); i >= 0; i-- {
			start := PosType(r.Intn(500))
			end := start + PosType(r.Intn(40))
			n := r.Intn(len(names))
			o := Forward
			if r.Intn(2) == 0 {
				o = Reverse
			}
			matches = append(matches, newTestMatch(t, start, end, int64(n), names[n], r.Intn(10), o))
		}
		blocks, err := Fold(matches)
		assert.NoError(t, err)
		for i := 0; i+1 < len(blocks); i++ {
			expect.False(t, Mergeable(blocks[i], blocks[i+1]), "blocks %v %v", blocks[i], blocks[i+1])
		}
		again, err := FoldBlocks(blocks)
		assert.NoError(t, err)
		expect.EQ(t, again, blocks)
	}
}

func TestFoldAtPosTypeMax(t *testing.T) {
	matches := []Match{
		newTestMatch(t, 0, PosTypeMax, 1, "A", 1, Forward),
		newTestMatch(t, 5, 10, 1, "A", 2, Forward),
	}
	blocks, err := Fold(matches)
	assert.NoError(t, err)
	assert.EQ(t, len(blocks), 1)
	expect.EQ(t, blocks[0].Start, PosType(0))
	expect.EQ(t, blocks[0].End, PosType(PosTypeMax))

	x := MergedMatch{Start: PosTypeMax, End: PosTypeMax}
	y := MergedMatch{Start: 0, End: PosTypeMax - 1}
	expect.True(t, Mergeable(x, y))
	expect.True(t, Mergeable(y, x))
	y.End = PosTypeMax - 2
	expect.False(t, Mergeable(x, y))

	_, err = NewMatch(-1, 10, 1, "A", 1, Forward)
	expect.True(t, IsInvalidInterval(err))
}
