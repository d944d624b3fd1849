// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package interval merges alignment intervals between a precursor (MIC)
  sequence and its product (MAC) sequences, and derives the gaps (IESs) that
  separate the merged blocks.

  Overlapping or abutting matches are folded into MergedMatch blocks.  Each
  block remembers, for its leftmost and rightmost boundary, which product
  sequences reach that boundary and with which match indices/orientations.
  A gap is reported between two consecutive blocks only when at least one
  product sequence flanks it on both sides.

  Positions are non-negative integers, inclusive on both ends.
*/
package interval
