// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Mode selects how the matches of one precursor are grouped before merging.
type Mode int

const (
	// Strict pools the matches of all products.  A gap is reported only where
	// no match of any product falls inside it.
	Strict Mode = iota
	// Weak merges the matches of each product separately, so a gap of one
	// product may overlap matches of other products.
	Weak
)

// ParseMode parses "strict" or "weak".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "weak":
		return Weak, nil
	}
	return Strict, errors.E(errors.Invalid, fmt.Sprintf("unknown IES mode %q, want strict or weak", s))
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Weak:
		return "weak"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Partition splits the matches of one precursor into independently merged
// groups.  Strict yields a single group.  Weak yields one group per product
// name, in order of first appearance; the matches keep their relative order
// inside each group.
func Partition(matches []Match, mode Mode) [][]Match {
	if len(matches) == 0 {
		return nil
	}
	if mode == Strict {
		return [][]Match{matches}
	}
	groupIdx := map[string]int{}
	var groups [][]Match
	for _, m := range matches {
		i, ok := groupIdx[m.Mac.Name]
		if !ok {
			i = len(groups)
			groupIdx[m.Mac.Name] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

// CheckContigs verifies that every product name maps to a single contig ID
// across matches.  The error has kind errors.Integrity.
func CheckContigs(matches []Match) error {
	contigs := map[string]int64{}
	for _, m := range matches {
		id, ok := contigs[m.Mac.Name]
		if !ok {
			contigs[m.Mac.Name] = m.Mac.ContigID
			continue
		}
		if id != m.Mac.ContigID {
			return errors.E(errors.Integrity,
				fmt.Sprintf("inconsistent contig for product %s: %d vs %d", m.Mac.Name, id, m.Mac.ContigID))
		}
	}
	return nil
}

// MergePartitions partitions matches by mode and folds each group.
func MergePartitions(matches []Match, mode Mode) ([][]MergedMatch, error) {
	if err := CheckContigs(matches); err != nil {
		return nil, err
	}
	groups := Partition(matches, mode)
	merged := make([][]MergedMatch, len(groups))
	for i, g := range groups {
		blocks, err := Fold(g)
		if err != nil {
			return nil, err
		}
		merged[i] = blocks
	}
	return merged, nil
}

// FindGaps returns the gaps of one precursor under the given mode.  Gaps of
// different groups are concatenated in group order.
func FindGaps(matches []Match, mode Mode) ([]GroupedGap, error) {
	merged, err := MergePartitions(matches, mode)
	if err != nil {
		return nil, err
	}
	var gaps []GroupedGap
	for _, blocks := range merged {
		gaps = append(gaps, ExtractGaps(blocks)...)
	}
	return gaps, nil
}
