// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Orientation is the strand of a match relative to its product sequence.
type Orientation byte

const (
	// Unknown is used when the source does not record a strand.
	Unknown Orientation = '.'
	// Forward is a match on the + strand.
	Forward Orientation = '+'
	// Reverse is a match on the - strand.
	Reverse Orientation = '-'
)

// ParseOrientation converts the textual strand used by the match tables.
// Anything other than "+" or "-" maps to Unknown.
func ParseOrientation(s string) Orientation {
	switch s {
	case "+":
		return Forward
	case "-":
		return Reverse
	}
	return Unknown
}

// String implements fmt.Stringer.
func (o Orientation) String() string {
	switch o {
	case Forward, Reverse:
		return string(o)
	}
	return string(Unknown)
}

// Match is one aligned interval on a precursor sequence together with the
// product sequence it aligns to.  Start and End are inclusive.
type Match struct {
	Start, End PosType
	Mac        MacAnnotation
}

// NewMatch validates and builds a Match.  The returned error has kind
// errors.Invalid when start < 0, start > end or index < 0.
func NewMatch(start, end PosType, contigID int64, name string, index int, orientation Orientation) (Match, error) {
	if start < 0 {
		return Match{}, errors.E(errors.Invalid,
			fmt.Sprintf("invalid interval [%d, %d] for product %s: negative start", start, end, name))
	}
	if start > end {
		return Match{}, errors.E(errors.Invalid,
			fmt.Sprintf("invalid interval [%d, %d] for product %s: start > end", start, end, name))
	}
	if index < 0 {
		return Match{}, errors.E(errors.Invalid,
			fmt.Sprintf("invalid interval [%d, %d] for product %s: negative index %d", start, end, name, index))
	}
	return Match{
		Start: start,
		End:   end,
		Mac: MacAnnotation{
			ContigID:     contigID,
			Name:         name,
			Indices:      []int{index},
			Orientations: []Orientation{orientation},
		},
	}, nil
}

// IsInvalidInterval reports whether err was produced by NewMatch rejecting a
// record.
func IsInvalidInterval(err error) bool {
	return errors.Is(errors.Invalid, err)
}

// IsInconsistentContig reports whether err was caused by two annotations of
// the same product name carrying different contig IDs.
func IsInconsistentContig(err error) bool {
	return errors.Is(errors.Integrity, err)
}

// MacAnnotation is the per-product state attached to one boundary of a
// merged block.  Indices is sorted ascending without duplicates, and
// Orientations[i] belongs to Indices[i].  Values are never modified after
// construction.
type MacAnnotation struct {
	ContigID     int64
	Name         string
	Indices      []int
	Orientations []Orientation
}

// NewMacAnnotation builds an annotation from raw co-indexed pairs.  When an
// index appears more than once, the first orientation seen is kept.
//
// REQUIRES: len(indices) == len(orientations)
func NewMacAnnotation(contigID int64, name string, indices []int, orientations []Orientation) MacAnnotation {
	if len(indices) != len(orientations) {
		panic(fmt.Sprintf("NewMacAnnotation %s: %d indices, %d orientations", name, len(indices), len(orientations)))
	}
	m := newIndexMap()
	for i, idx := range indices {
		m.insertIfAbsent(idx, orientations[i])
	}
	a := MacAnnotation{ContigID: contigID, Name: name}
	a.Indices, a.Orientations = m.flatten()
	return a
}

// String renders the annotation as name:i1,i2:o1,o2.
func (a MacAnnotation) String() string {
	return fmt.Sprintf("%s:%s:%s", a.Name, JoinInts(a.Indices), JoinOrientations(a.Orientations))
}
