// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ies

import (
	"context"
	"fmt"

	"github.com/ciliate/bio/interval"
)

// Precursor identifies a MIC contig.
type Precursor struct {
	ContigID int64
	Name     string
}

// String implements fmt.Stringer.
func (p Precursor) String() string { return fmt.Sprintf("%s(%d)", p.Name, p.ContigID) }

// MatchRecord is one match row as supplied by a Source.  Index must already
// be an absolute value.
type MatchRecord struct {
	MicStart    interval.PosType
	MicEnd      interval.PosType
	MacContigID int64
	MacName     string
	Index       int
	Orientation string
}

// GapRecord is one row of the IES table: a gap on a precursor together with
// one of the products flanking it.
type GapRecord struct {
	GapID             int64
	PrecursorContigID int64
	PrecursorName     string
	Start             interval.PosType
	End               interval.PosType
	Length            int
	ProductContigID   int64
	ProductName       string
	LeftIndices       []int
	RightIndices      []int
	LeftOrientations  []interval.Orientation
	RightOrientations []interval.Orientation
}

// Source supplies precursors and their matches.  Implementations must be
// safe for concurrent Matches calls.
type Source interface {
	// Precursors lists the MIC contigs to process, in processing order.
	Precursors(ctx context.Context) ([]Precursor, error)
	// Matches returns the preliminary matches located on p.
	Matches(ctx context.Context, p Precursor) ([]MatchRecord, error)
}

// Sink persists gap records.  Add and Flush are called from a single
// goroutine.  Records passed to Add are durable only after Flush returns
// nil.
type Sink interface {
	Add(ctx context.Context, recs []GapRecord) error
	Flush(ctx context.Context) error
}

// GapCounter hands out sequential gap IDs.  It is owned by a single
// goroutine.
type GapCounter struct {
	last int64
}

// NewGapCounter creates a counter whose first Next call returns first.
func NewGapCounter(first int64) *GapCounter {
	return &GapCounter{last: first - 1}
}

// Next returns a new ID.
func (c *GapCounter) Next() int64 {
	c.last++
	return c.last
}

// Last returns the last ID handed out, or first-1 if none.
func (c *GapCounter) Last() int64 { return c.last }

// GapRecords flattens the gaps of precursor p into table rows, one per
// flank, numbering them with c.
func GapRecords(p Precursor, gaps []interval.GroupedGap, c *GapCounter) []GapRecord {
	var recs []GapRecord
	for _, g := range gaps {
		for _, f := range g.Flanks {
			recs = append(recs, GapRecord{
				GapID:             c.Next(),
				PrecursorContigID: p.ContigID,
				PrecursorName:     p.Name,
				Start:             g.Start,
				End:               g.End,
				Length:            g.Len(),
				ProductContigID:   f.ContigID,
				ProductName:       f.Name,
				LeftIndices:       f.LeftIndices,
				RightIndices:      f.RightIndices,
				LeftOrientations:  f.LeftOrientations,
				RightOrientations: f.RightOrientations,
			})
		}
	}
	return recs
}
