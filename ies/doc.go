// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package ies computes the IES table of a genome assembly: for every
// precursor (MIC) contig it fetches the preliminary MAC matches from a
// Source, finds the gaps with package interval, numbers them, and hands the
// resulting rows to a Sink.
//
// Precursors are independent, so they are processed in parallel.  Results
// are put back in source order before IDs are assigned, so a run produces
// the same table regardless of the parallelism.
package ies
