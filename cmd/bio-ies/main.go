// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-ies finds internal eliminated sequences (IESs) on MIC precursor contigs:
the stretches between consecutive matches of a MAC product that no match
covers.

Sample usage:

	bio-ies gaps -mode=weak matches.tsv.gz ies_weak.tsv
	bio-ies gaps -mode=strict -batch-size=500 genome.db
	bio-ies gaps -resume-after=31337 -first-gap-id=120001 genome.db
	bio-ies merge matches.tsv blocks.tsv

A match table is a TSV with the columns

	mic_contig_id mic_name mic_start mic_end mac_contig_id mac_name index orientation is_preliminary

A SQLite input must have the contig and match tables, and the ies_strict and
ies_weak output tables when no output path is given.
*/
package main

import (
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-ies",
		Short:    "Find IESs from MIC/MAC matches",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdGaps(),
			newCmdMerge(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
