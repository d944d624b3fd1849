// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package iestsv

import (
	"context"
	"io"

	"github.com/ciliate/bio/ies"
	"github.com/ciliate/bio/interval"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// matchRow is one line of a match table.
type matchRow struct {
	MicContigID   int64  `tsv:"mic_contig_id"`
	MicName       string `tsv:"mic_name"`
	MicStart      int64  `tsv:"mic_start"`
	MicEnd        int64  `tsv:"mic_end"`
	MacContigID   int64  `tsv:"mac_contig_id"`
	MacName       string `tsv:"mac_name"`
	Index         int64  `tsv:"index"`
	Orientation   string `tsv:"orientation"`
	IsPreliminary int64  `tsv:"is_preliminary"`
}

// MatchReader is an ies.Source backed by a match table.  The whole table is
// loaded by NewMatchReader; afterwards the reader is read-only and safe for
// concurrent use.
type MatchReader struct {
	precursors []ies.Precursor
	matches    map[int64][]ies.MatchRecord
	// Rows counts the lines read, Skipped the non-preliminary ones.
	Rows, Skipped int
}

// ReadMatches loads a match table from r.  Only preliminary matches are
// kept, and indices are stored as absolute values.  Precursors are listed in
// order of first appearance.
func ReadMatches(r io.Reader) (*MatchReader, error) {
	mr := &MatchReader{matches: map[int64][]ies.MatchRecord{}}
	names := map[int64]string{}
	scanner := tsv.NewReader(r)
	scanner.Comment = '#'
	for {
		var row matchRow
		if err := scanner.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "match table line %d", mr.Rows+1)
		}
		mr.Rows++
		name, ok := names[row.MicContigID]
		if !ok {
			names[row.MicContigID] = row.MicName
			mr.precursors = append(mr.precursors, ies.Precursor{ContigID: row.MicContigID, Name: row.MicName})
		} else if name != row.MicName {
			return nil, errors.Errorf("match table line %d: precursor contig %d named both %s and %s",
				mr.Rows, row.MicContigID, name, row.MicName)
		}
		if row.IsPreliminary != 1 {
			mr.Skipped++
			continue
		}
		if !interval.PosInRange(row.MicStart) || !interval.PosInRange(row.MicEnd) {
			return nil, errors.Errorf("match table line %d: position out of range [%d,%d]",
				mr.Rows, row.MicStart, row.MicEnd)
		}
		index := row.Index
		if index < 0 {
			index = -index
		}
		mr.matches[row.MicContigID] = append(mr.matches[row.MicContigID], ies.MatchRecord{
			MicStart:    interval.PosType(row.MicStart),
			MicEnd:      interval.PosType(row.MicEnd),
			MacContigID: row.MacContigID,
			MacName:     row.MacName,
			Index:       int(index),
			Orientation: row.Orientation,
		})
	}
	return mr, nil
}

// NewMatchReader loads the match table at path.
func NewMatchReader(ctx context.Context, path string) (mr *MatchReader, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.Wrap(err, path)
		}
	}
	if mr, err = ReadMatches(reader); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return mr, nil
}

// Precursors implements ies.Source.
func (mr *MatchReader) Precursors(ctx context.Context) ([]ies.Precursor, error) {
	return mr.precursors, nil
}

// Matches implements ies.Source.
func (mr *MatchReader) Matches(ctx context.Context, p ies.Precursor) ([]ies.MatchRecord, error) {
	return mr.matches[p.ContigID], nil
}
