// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
)

// MacSet maps a product name to its annotation at one block boundary.
// A MacSet is treated as immutable once it is attached to a MergedMatch.
type MacSet map[string]MacAnnotation

// Names returns the sorted product names in the set.
func (s MacSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeMacs returns the union of the (index, orientation) pairs of a and b.
// When both contain the same index, b's orientation wins.  The result is
// sorted by index.
//
// It returns an error of kind errors.Integrity if a and b describe the same
// product name under different contig IDs: that means the upstream
// alignment data is mislabeled.
//
// REQUIRES: a.Name == b.Name
func MergeMacs(a, b MacAnnotation) (MacAnnotation, error) {
	if a.Name != b.Name {
		panic(fmt.Sprintf("MergeMacs: name mismatch %q vs %q", a.Name, b.Name))
	}
	if a.ContigID != b.ContigID {
		return MacAnnotation{}, errors.E(errors.Integrity,
			fmt.Sprintf("inconsistent contig for product %s: %d vs %d", a.Name, a.ContigID, b.ContigID))
	}
	m := newIndexMap()
	m.putAll(a)
	m.putAll(b)
	merged := MacAnnotation{ContigID: a.ContigID, Name: a.Name}
	merged.Indices, merged.Orientations = m.flatten()
	return merged, nil
}

// MergeAllMacs unions two boundary sets.  Names present on one side only are
// passed through as is; shared names are combined with MergeMacs(a[name],
// b[name]).  Neither input is modified.
func MergeAllMacs(a, b MacSet) (MacSet, error) {
	merged := make(MacSet, len(a)+len(b))
	for name, mac := range a {
		merged[name] = mac
	}
	for name, mac := range b {
		prev, ok := merged[name]
		if !ok {
			merged[name] = mac
			continue
		}
		m, err := MergeMacs(prev, mac)
		if err != nil {
			return nil, err
		}
		merged[name] = m
	}
	return merged, nil
}
