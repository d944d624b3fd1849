// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package interval

import "math"

// PosType is the type used to represent precursor coordinates.  int32 is
// plenty for MIC contigs, which are orders of magnitude shorter than a
// chromosome.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// PosInRange reports whether v can be stored in a PosType without
// truncation.  Positions are never negative.
func PosInRange(v int64) bool {
	return v >= 0 && v <= PosTypeMax
}
