// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ies

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/ciliate/bio/interval"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/sync/multierror"
	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Opts controls Run.
type Opts struct {
	// Mode selects strict or weak IESs.
	Mode interval.Mode
	// Parallelism is the number of precursors processed concurrently.
	// 0 means runtime.NumCPU().
	Parallelism int
	// BatchSize is the number of precursors between two Sink.Flush calls.
	BatchSize int
	// FirstGapID is the ID of the first gap record produced by the run.
	FirstGapID int64
	// ResumeAfter, if nonzero, skips every precursor up to and including the
	// one with this contig ID.  Together with FirstGapID it continues a run
	// that failed; see RunError.
	ResumeAfter int64
	// SkipFailedPrecursors makes Run carry on after a precursor fails (bad
	// data or a Source error).  The failures are returned together once the
	// run completes.  By default the first failure stops the run.
	SkipFailedPrecursors bool
	// MaxErrors caps the number of failures reported when
	// SkipFailedPrecursors is set.
	MaxErrors int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Mode:       interval.Strict,
	BatchSize:  100,
	FirstGapID: 1,
	MaxErrors:  20,
}

// Stats summarizes a run.
type Stats struct {
	// Precursors is the number of precursors whose gaps reached the sink.
	Precursors int
	// Resumed is the number of precursors skipped because of ResumeAfter.
	Resumed int
	// Failed is the number of precursors that could not be processed.
	Failed int
	// Matches is the number of valid matches read.
	Matches int
	// InvalidMatches is the number of match records rejected by
	// interval.NewMatch.
	InvalidMatches int
	// Gaps is the number of distinct gaps; Records counts one per flank.
	Gaps    int
	Records int
}

// RunError reports a failed precursor together with the state needed to
// resume: rerun with ResumeAfter = LastFlushed.ContigID and FirstGapID =
// LastFlushedGapID + 1.
type RunError struct {
	Precursor Precursor
	// LastGapID is the last ID handed to the sink, flushed or not.
	LastGapID int64
	// LastFlushed is the last precursor whose records were flushed, and
	// LastFlushedGapID the last ID among flushed records.  LastFlushed is the
	// zero value if nothing was flushed.
	LastFlushed      Precursor
	LastFlushedGapID int64
	Err              error
}

// Error implements error.
func (e *RunError) Error() string {
	return fmt.Sprintf("precursor %v (last gap id %d, last flushed %v/%d): %v",
		e.Precursor, e.LastGapID, e.LastFlushed, e.LastFlushedGapID, e.Err)
}

// Cause returns the underlying error.
func (e *RunError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error { return e.Err }

// LoadMatches fetches the matches of p and converts them.  Records rejected
// by interval.NewMatch are logged and counted in the second return value.
func LoadMatches(ctx context.Context, src Source, p Precursor) ([]interval.Match, int, error) {
	recs, err := src.Matches(ctx, p)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "fetch matches of %v", p)
	}
	matches := make([]interval.Match, 0, len(recs))
	invalid := 0
	for _, r := range recs {
		m, err := interval.NewMatch(r.MicStart, r.MicEnd, r.MacContigID, r.MacName, r.Index,
			interval.ParseOrientation(r.Orientation))
		if err != nil {
			log.Error.Printf("%v: skipping match: %v", p, err)
			invalid++
			continue
		}
		matches = append(matches, m)
	}
	return matches, invalid, nil
}

// precursorResult is what a worker hands to the writer for one precursor.
type precursorResult struct {
	precursor Precursor
	matches   int
	invalid   int
	gaps      []interval.GroupedGap
	err       error
}

func processPrecursor(ctx context.Context, src Source, p Precursor, mode interval.Mode) precursorResult {
	res := precursorResult{precursor: p}
	if res.err = ctx.Err(); res.err != nil {
		return res
	}
	var matches []interval.Match
	if matches, res.invalid, res.err = LoadMatches(ctx, src, p); res.err != nil {
		return res
	}
	res.matches = len(matches)
	res.gaps, res.err = interval.FindGaps(matches, mode)
	log.Debug.Printf("%v: %d matches, %d gaps", p, res.matches, len(res.gaps))
	return res
}

// Run computes the gaps of every precursor supplied by src and writes them
// to sink.  Gap IDs are assigned in precursor order, then gap order, then
// product name order, starting at opts.FirstGapID.
func Run(ctx context.Context, src Source, sink Sink, opts Opts) (Stats, error) {
	var stats Stats
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOpts.BatchSize
	}
	if opts.FirstGapID <= 0 {
		opts.FirstGapID = DefaultOpts.FirstGapID
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultOpts.MaxErrors
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	precursors, err := src.Precursors(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "list precursors")
	}
	if opts.ResumeAfter != 0 {
		for i, p := range precursors {
			if p.ContigID == opts.ResumeAfter {
				stats.Resumed = i + 1
				break
			}
		}
		if stats.Resumed == 0 {
			return stats, errors.Errorf("resume: precursor contig %d not found", opts.ResumeAfter)
		}
		precursors = precursors[stats.Resumed:]
		log.Printf("resuming after contig %d: skipped %d precursors", opts.ResumeAfter, stats.Resumed)
	}
	if len(precursors) == 0 {
		return stats, nil
	}
	if parallelism > len(precursors) {
		parallelism = len(precursors)
	}

	log.Printf("computing %v IESs for %d precursors (%d workers)", opts.Mode, len(precursors), parallelism)
	t0 := time.Now()
	queue := syncqueue.NewOrderedQueue(2 * parallelism)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Job j handles precursors j, j+parallelism, ... so that insertions
		// into the queue stay close to the order in which they are consumed.
		err := traverse.Each(parallelism, func(jobIdx int) error {
			for i := jobIdx; i < len(precursors); i += parallelism {
				res := processPrecursor(gctx, src, precursors[i], opts.Mode)
				if err := queue.Insert(i, res); err != nil {
					return err
				}
			}
			return nil
		})
		if e := queue.Close(err); e != nil && err == nil {
			err = e
		}
		return err
	})

	var (
		counter     = NewGapCounter(opts.FirstGapID)
		failures    = multierror.NewMultiError(opts.MaxErrors)
		lastFlushed Precursor
		flushedID   = counter.Last()
		fatal       error
	)
	newRunError := func(p Precursor, err error) *RunError {
		return &RunError{
			Precursor:        p,
			LastGapID:        counter.Last(),
			LastFlushed:      lastFlushed,
			LastFlushedGapID: flushedID,
			Err:              err,
		}
	}
	g.Go(func() error {
		var (
			pending int
			last    Precursor
		)
		flush := func() error {
			if err := sink.Flush(gctx); err != nil {
				return newRunError(last, errors.Wrap(err, "flush gap records"))
			}
			lastFlushed, flushedID = last, counter.Last()
			pending = 0
			return nil
		}
		for n := 0; ; n++ {
			v, ok, err := queue.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			res := v.(precursorResult)
			stats.InvalidMatches += res.invalid
			if res.err != nil {
				rerr := newRunError(res.precursor, res.err)
				if !opts.SkipFailedPrecursors || gctx.Err() != nil {
					fatal = rerr
					queue.Close(rerr)
					return rerr
				}
				log.Error.Printf("%v", rerr)
				stats.Failed++
				failures.Add(rerr)
				continue
			}
			recs := GapRecords(res.precursor, res.gaps, counter)
			if err := sink.Add(gctx, recs); err != nil {
				fatal = newRunError(res.precursor, errors.Wrap(err, "add gap records"))
				queue.Close(fatal)
				return fatal
			}
			last = res.precursor
			stats.Precursors++
			stats.Matches += res.matches
			stats.Gaps += len(res.gaps)
			stats.Records += len(recs)
			if pending++; pending >= opts.BatchSize {
				log.Printf("%d / %d precursors, %d gap records", n+1, len(precursors), stats.Records)
				if fatal = flush(); fatal != nil {
					queue.Close(fatal)
					return fatal
				}
			}
		}
		if pending > 0 {
			if fatal = flush(); fatal != nil {
				return fatal
			}
		}
		return nil
	})

	err = g.Wait()
	if fatal != nil {
		// Workers see the closed queue as an error of their own; report the
		// failure that caused it.
		err = fatal
	}
	if err != nil {
		return stats, err
	}
	log.Printf("done: %d precursors, %d gaps, %d records, %d invalid matches, %d failed in %v",
		stats.Precursors, stats.Gaps, stats.Records, stats.InvalidMatches, stats.Failed, time.Since(t0))
	return stats, failures.Err()
}
