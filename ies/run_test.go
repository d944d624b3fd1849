// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ies

import (
	"context"
	"fmt"
	"testing"

	"github.com/ciliate/bio/interval"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	precursors []Precursor
	matches    map[int64][]MatchRecord
	failOn     int64
}

func (s *fakeSource) Precursors(ctx context.Context) ([]Precursor, error) {
	return s.precursors, nil
}

func (s *fakeSource) Matches(ctx context.Context, p Precursor) ([]MatchRecord, error) {
	if p.ContigID == s.failOn {
		return nil, fmt.Errorf("connection reset")
	}
	return s.matches[p.ContigID], nil
}

type memSink struct {
	pending []GapRecord
	flushed []GapRecord
	flushes int
	// failFlush makes the n-th Flush call (1-based) fail.
	failFlush int
}

func (s *memSink) Add(ctx context.Context, recs []GapRecord) error {
	s.pending = append(s.pending, recs...)
	return nil
}

func (s *memSink) Flush(ctx context.Context) error {
	s.flushes++
	if s.flushes == s.failFlush {
		return fmt.Errorf("disk full")
	}
	s.flushed = append(s.flushed, s.pending...)
	s.pending = nil
	return nil
}

func rec(start, end interval.PosType, contig int64, name string, index int, orient string) MatchRecord {
	return MatchRecord{MicStart: start, MicEnd: end, MacContigID: contig, MacName: name, Index: index, Orientation: orient}
}

// newTestSource builds n precursors.  Precursor i has i+1 gaps on product
// MAC_i, and precursor 0 also has a one-base gap on product E.
func newTestSource(n int) *fakeSource {
	src := &fakeSource{matches: map[int64][]MatchRecord{}}
	for i := 0; i < n; i++ {
		p := Precursor{ContigID: int64(100 + i), Name: fmt.Sprintf("MIC_%d", i)}
		src.precursors = append(src.precursors, p)
		name := fmt.Sprintf("MAC_%d", i)
		var recs []MatchRecord
		for j := 0; j <= i+1; j++ {
			start := interval.PosType(5000 + 100*j)
			recs = append(recs, rec(start, start+49, int64(1000+i), name, j+1, "+"))
		}
		src.matches[p.ContigID] = recs
	}
	if n > 0 {
		src.matches[100] = append(src.matches[100],
			rec(0, 100, 1, "A", 1, "+"),
			rec(0, 100, 2, "B", 1, "+"),
			rec(0, 1000, 3, "C", 1, "-"),
			rec(0, 1000, 5, "E", 1, "+"),
			rec(1002, 1004, 5, "E", 2, "-"),
		)
	}
	return src
}

func TestRun(t *testing.T) {
	src := newTestSource(5)
	sink := &memSink{}
	opts := DefaultOpts
	opts.Parallelism = 1
	stats, err := Run(context.Background(), src, sink, opts)
	require.NoError(t, err)

	// 1+2+3+4+5 gaps from MAC_i, plus the E gap.
	assert.Equal(t, 16, stats.Records)
	assert.Equal(t, 16, stats.Gaps)
	assert.Equal(t, 5, stats.Precursors)
	assert.Equal(t, 0, stats.InvalidMatches)
	require.Len(t, sink.flushed, 16)
	assert.Empty(t, sink.pending)
	for i, r := range sink.flushed {
		assert.Equal(t, int64(i+1), r.GapID)
		assert.Equal(t, r.End-r.Start+1, interval.PosType(r.Length))
	}

	e := sink.flushed[0]
	assert.Equal(t, GapRecord{
		GapID:             1,
		PrecursorContigID: 100,
		PrecursorName:     "MIC_0",
		Start:             1001,
		End:               1001,
		Length:            1,
		ProductContigID:   5,
		ProductName:       "E",
		LeftIndices:       []int{1},
		RightIndices:      []int{2},
		LeftOrientations:  []interval.Orientation{interval.Forward},
		RightOrientations: []interval.Orientation{interval.Reverse},
	}, e)
	last := sink.flushed[15]
	assert.Equal(t, "MIC_4", last.PrecursorName)
	assert.Equal(t, interval.PosType(5450), last.Start)
	assert.Equal(t, interval.PosType(5499), last.End)
}

func TestRunParallelDeterministic(t *testing.T) {
	src := newTestSource(40)
	want := &memSink{}
	opts := DefaultOpts
	opts.Parallelism = 1
	_, err := Run(context.Background(), src, want, opts)
	require.NoError(t, err)

	for _, parallelism := range []int{2, 3, 8, 64} {
		got := &memSink{}
		opts.Parallelism = parallelism
		_, err := Run(context.Background(), src, got, opts)
		require.NoError(t, err)
		assert.Equal(t, want.flushed, got.flushed, "parallelism %d", parallelism)
	}
}

func TestRunBatches(t *testing.T) {
	src := newTestSource(5)
	sink := &memSink{}
	opts := DefaultOpts
	opts.BatchSize = 2
	_, err := Run(context.Background(), src, sink, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, sink.flushes)
}

func TestRunInvalidMatch(t *testing.T) {
	src := newTestSource(2)
	src.matches[101] = append(src.matches[101], rec(20, 10, 9, "BAD", 1, "+"))
	sink := &memSink{}
	stats, err := Run(context.Background(), src, sink, DefaultOpts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.InvalidMatches)
	assert.Equal(t, 4, stats.Records)
}

func TestRunInconsistentContig(t *testing.T) {
	src := newTestSource(4)
	src.matches[102] = append(src.matches[102], rec(0, 10, 1, "X", 1, "+"), rec(20, 30, 2, "X", 2, "+"))

	sink := &memSink{}
	opts := DefaultOpts
	opts.BatchSize = 1
	_, err := Run(context.Background(), src, sink, opts)
	require.Error(t, err)
	rerr, ok := err.(*RunError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, int64(102), rerr.Precursor.ContigID)
	assert.True(t, interval.IsInconsistentContig(rerr.Err))
	assert.Equal(t, int64(101), rerr.LastFlushed.ContigID)
	assert.Equal(t, int64(4), rerr.LastFlushedGapID)
	assert.Len(t, sink.flushed, 4)

	sink = &memSink{}
	opts.SkipFailedPrecursors = true
	stats, err := Run(context.Background(), src, sink, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent contig")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, stats.Precursors)
	// Precursor 3 follows precursor 1 directly in the ID sequence.
	require.Len(t, sink.flushed, 2+2+4)
	assert.Equal(t, int64(5), sink.flushed[4].GapID)
	assert.Equal(t, "MIC_3", sink.flushed[4].PrecursorName)
}

func TestRunSourceError(t *testing.T) {
	src := newTestSource(3)
	src.failOn = 101
	_, err := Run(context.Background(), src, &memSink{}, DefaultOpts)
	require.Error(t, err)
	rerr, ok := err.(*RunError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, "MIC_1", rerr.Precursor.Name)
	assert.Contains(t, errors.Cause(err).Error(), "connection reset")
}

func TestRunFlushErrorAndResume(t *testing.T) {
	src := newTestSource(6)
	full := &memSink{}
	_, err := Run(context.Background(), src, full, DefaultOpts)
	require.NoError(t, err)

	opts := DefaultOpts
	opts.BatchSize = 2
	sink := &memSink{failFlush: 2}
	_, err = Run(context.Background(), src, sink, opts)
	require.Error(t, err)
	rerr := err.(*RunError)
	assert.Equal(t, "MIC_1", rerr.LastFlushed.Name)
	assert.Equal(t, int64(4), rerr.LastFlushedGapID)
	assert.Equal(t, "MIC_3", rerr.Precursor.Name)

	opts.ResumeAfter = rerr.LastFlushed.ContigID
	opts.FirstGapID = rerr.LastFlushedGapID + 1
	resumed := &memSink{}
	stats, err := Run(context.Background(), src, resumed, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Resumed)
	assert.Equal(t, full.flushed, append(sink.flushed, resumed.flushed...))
}

func TestRunResumeUnknown(t *testing.T) {
	opts := DefaultOpts
	opts.ResumeAfter = 12345
	_, err := Run(context.Background(), newTestSource(2), &memSink{}, opts)
	assert.Error(t, err)
}

func TestRunEmpty(t *testing.T) {
	sink := &memSink{}
	stats, err := Run(context.Background(), newTestSource(0), sink, DefaultOpts)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 0, sink.flushes)
}

func TestGapCounter(t *testing.T) {
	c := NewGapCounter(10)
	assert.Equal(t, int64(9), c.Last())
	assert.Equal(t, int64(10), c.Next())
	assert.Equal(t, int64(11), c.Next())
	assert.Equal(t, int64(11), c.Last())
}
