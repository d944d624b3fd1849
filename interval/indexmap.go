// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import "github.com/biogo/store/llrb"

// indexEntry is one (index, orientation) pair stored in an indexMap.  Only
// index takes part in the ordering.
type indexEntry struct {
	index  int
	orient Orientation
}

// Compare implements llrb.Comparable.
func (e indexEntry) Compare(c llrb.Comparable) int {
	return e.index - c.(indexEntry).index
}

// indexMap is an ordered index -> orientation map.  put overwrites the
// orientation of an existing index; insertIfAbsent keeps it.
type indexMap struct {
	tree llrb.Tree
}

func newIndexMap() *indexMap { return &indexMap{} }

func (m *indexMap) put(index int, orient Orientation) {
	m.tree.Insert(indexEntry{index, orient})
}

func (m *indexMap) insertIfAbsent(index int, orient Orientation) {
	if m.tree.Get(indexEntry{index: index}) != nil {
		return
	}
	m.tree.Insert(indexEntry{index, orient})
}

func (m *indexMap) putAll(a MacAnnotation) {
	for i, idx := range a.Indices {
		m.put(idx, a.Orientations[i])
	}
}

// flatten returns the entries in ascending index order.
func (m *indexMap) flatten() ([]int, []Orientation) {
	n := m.tree.Len()
	indices := make([]int, 0, n)
	orients := make([]Orientation, 0, n)
	m.tree.Do(func(c llrb.Comparable) (done bool) {
		e := c.(indexEntry)
		indices = append(indices, e.index)
		orients = append(orients, e.orient)
		return
	})
	return indices, orients
}
