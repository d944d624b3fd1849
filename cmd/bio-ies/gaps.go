// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ciliate/bio/encoding/iestsv"
	"github.com/ciliate/bio/ies"
	"github.com/ciliate/bio/interval"
	"github.com/ciliate/bio/store/sqlstore"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

// inputFormat is the kind of match source.
type inputFormat string

const (
	formatTSV    inputFormat = "tsv"
	formatSQLite inputFormat = "sqlite"
)

// guessFormat picks the input format from the file name.
func guessFormat(path string) inputFormat {
	for _, suffix := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(path, suffix) {
			return formatSQLite
		}
	}
	return formatTSV
}

type gapsFlags struct {
	mode        string
	format      string
	parallelism int
	batchSize   int
	firstGapID  int64
	resumeAfter int64
	skipFailed  bool
}

func newCmdGaps() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "gaps",
		Short: "Compute the IES table",
		Long: `
Computes the IESs of every precursor in the input and writes one row per
(IES, flanking product).  With a TSV input the output path is required.  With
a SQLite input and no output path, rows are inserted into ies_strict or
ies_weak in the same database.

If a run fails, the error reports the last precursor whose rows were
written; rerun with -resume-after set to its contig ID and -first-gap-id set
to the next ID.  A resumed run with a TSV output must write to a new file,
to be concatenated (without its header) to the previous one; an existing
output file is never overwritten when -resume-after is set.`,
		ArgsName: "input [output]",
	}
	var f gapsFlags
	cmd.Flags.StringVar(&f.mode, "mode", ies.DefaultOpts.Mode.String(), "IES mode, strict or weak")
	cmd.Flags.StringVar(&f.format, "input-format", "", "Input format, tsv or sqlite. By default guessed from the input file name")
	cmd.Flags.IntVar(&f.parallelism, "parallelism", 0, "Number of precursors processed concurrently; 0 = runtime.NumCPU()")
	cmd.Flags.IntVar(&f.batchSize, "batch-size", ies.DefaultOpts.BatchSize, "Number of precursors written per batch")
	cmd.Flags.Int64Var(&f.firstGapID, "first-gap-id", ies.DefaultOpts.FirstGapID, "ID of the first IES row")
	cmd.Flags.Int64Var(&f.resumeAfter, "resume-after", 0, "Skip precursors up to and including this contig ID")
	cmd.Flags.BoolVar(&f.skipFailed, "skip-failed", false, "Report failed precursors at the end instead of stopping at the first one")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) < 1 || len(argv) > 2 {
			return fmt.Errorf("gaps takes input [output], but got %v", argv)
		}
		var out string
		if len(argv) == 2 {
			out = argv[1]
		}
		_, err := gaps(vcontext.Background(), f, argv[0], out)
		return err
	})
	return cmd
}

func (f gapsFlags) opts() (ies.Opts, error) {
	mode, err := interval.ParseMode(f.mode)
	if err != nil {
		return ies.Opts{}, err
	}
	opts := ies.DefaultOpts
	opts.Mode = mode
	opts.Parallelism = f.parallelism
	opts.BatchSize = f.batchSize
	opts.FirstGapID = f.firstGapID
	opts.ResumeAfter = f.resumeAfter
	opts.SkipFailedPrecursors = f.skipFailed
	return opts, nil
}

// gaps runs the IES computation from in to out.  An empty out is only
// allowed for a SQLite input.
func gaps(ctx context.Context, f gapsFlags, in, out string) (stats ies.Stats, err error) {
	opts, err := f.opts()
	if err != nil {
		return stats, err
	}
	format := inputFormat(f.format)
	if format == "" {
		format = guessFormat(in)
	}

	var src ies.Source
	switch format {
	case formatTSV:
		if out == "" {
			return stats, fmt.Errorf("an output path is required for a TSV input")
		}
		var mr *iestsv.MatchReader
		if mr, err = iestsv.NewMatchReader(ctx, in); err != nil {
			return stats, err
		}
		log.Printf("%s: %d rows, %d non-preliminary", in, mr.Rows, mr.Skipped)
		src = mr
	case formatSQLite:
		var store *sqlstore.Store
		if store, err = sqlstore.Open(in); err != nil {
			return stats, err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		src = store
		if out == "" {
			log.Printf("writing to table %s", sqlstore.GapTableName(opts.Mode))
			stats, err = ies.Run(ctx, store, store.NewGapTable(opts.Mode), opts)
			reportRunError(err)
			return stats, err
		}
	default:
		return stats, fmt.Errorf("unknown input format %q, want tsv or sqlite", f.format)
	}

	if opts.ResumeAfter != 0 {
		if _, serr := file.Stat(ctx, out); serr == nil {
			return stats, fmt.Errorf("%s exists; a resumed run must write to a new file", out)
		}
	}
	w, err := iestsv.NewGapWriter(ctx, out)
	if err != nil {
		return stats, err
	}
	stats, err = ies.Run(ctx, src, w, opts)
	if cerr := w.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	reportRunError(err)
	return stats, err
}

func reportRunError(err error) {
	rerr, ok := err.(*ies.RunError)
	if !ok {
		return
	}
	if rerr.LastFlushed.ContigID == 0 {
		log.Error.Printf("no precursor was written by this run; rerun with the same -resume-after and -first-gap-id")
		return
	}
	log.Error.Printf("to resume, rerun with -resume-after=%d -first-gap-id=%d",
		rerr.LastFlushed.ContigID, rerr.LastFlushedGapID+1)
}
