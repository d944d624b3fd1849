// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import (
	"strconv"
	"strings"
)

// JoinInts renders indices as a comma-separated list, e.g. "3,4".
func JoinInts(v []int) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(x))
	}
	return b.String()
}

// JoinOrientations renders orientations as a comma-separated list, e.g. "+,-".
func JoinOrientations(v []Orientation) string {
	var b strings.Builder
	for i, o := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.String())
	}
	return b.String()
}
