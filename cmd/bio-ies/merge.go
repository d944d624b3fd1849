// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/ciliate/bio/encoding/iestsv"
	"github.com/ciliate/bio/ies"
	"github.com/ciliate/bio/interval"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Write the merged match blocks of every precursor",
		ArgsName: "matches.tsv blocks.tsv",
	}
	mode := cmd.Flags.String("mode", ies.DefaultOpts.Mode.String(), "Grouping mode, strict or weak")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("merge takes matches.tsv blocks.tsv, but got %v", argv)
		}
		m, err := interval.ParseMode(*mode)
		if err != nil {
			return err
		}
		return merge(vcontext.Background(), m, argv[0], argv[1])
	})
	return cmd
}

// merge writes the blocks of each precursor of the match table in to out.
// Precursors with inconsistent data are logged and skipped.
func merge(ctx context.Context, mode interval.Mode, in, out string) error {
	mr, err := iestsv.NewMatchReader(ctx, in)
	if err != nil {
		return err
	}
	precursors, err := mr.Precursors(ctx)
	if err != nil {
		return err
	}
	w, err := iestsv.NewBlockWriter(ctx, out)
	if err != nil {
		return err
	}
	e := errorreporter.T{}
	for _, p := range precursors {
		matches, _, err := ies.LoadMatches(ctx, mr, p)
		if err != nil {
			e.Set(err)
			break
		}
		groups, err := interval.MergePartitions(matches, mode)
		if err != nil {
			log.Error.Printf("%v: %v", p, err)
			continue
		}
		if err := w.Write(p, groups); err != nil {
			e.Set(err)
			break
		}
	}
	e.Set(w.Close(ctx))
	return e.Err()
}
