// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package iestsv

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/ciliate/bio/ies"
	"github.com/ciliate/bio/interval"
	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// GapHeader is the header line written by GapWriter.
const GapHeader = "#ies_id\tmic_contig_id\tmic_name\tmic_start\tmic_end\tlength\tmac_contig_id\tmac_name\tleft_index\tright_index\tleft_orientation\tright_orientation"

// tableFile is an output file, gzip-compressed when its name ends in .gz.
type tableFile struct {
	out file.File
	gz  *gzip.Writer
	w   *tsv.Writer
}

func createTable(ctx context.Context, path, header string) (*tableFile, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	t := &tableFile{out: out}
	dst := io.Writer(out.Writer(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		t.gz = gzip.NewWriter(dst)
		dst = t.gz
	}
	t.w = tsv.NewWriter(dst)
	t.w.WriteString(header)
	if err := t.w.EndLine(); err != nil {
		out.Close(ctx) // nolint: errcheck
		return nil, err
	}
	return t, nil
}

func (t *tableFile) close(ctx context.Context) error {
	err := errorreporter.T{}
	err.Set(t.w.Flush())
	if t.gz != nil {
		err.Set(t.gz.Close())
	}
	err.Set(t.out.Close(ctx))
	return err.Err()
}

func writeInt64(w *tsv.Writer, v int64) {
	w.WriteString(strconv.FormatInt(v, 10))
}

// GapWriter writes gap records to an IES table.  It implements ies.Sink.
type GapWriter struct {
	path string
	t    *tableFile
}

// NewGapWriter creates the IES table at path and writes its header.
func NewGapWriter(ctx context.Context, path string) (*GapWriter, error) {
	t, err := createTable(ctx, path, GapHeader)
	if err != nil {
		return nil, err
	}
	return &GapWriter{path: path, t: t}, nil
}

// WriteGapRecord appends one row to w.
func WriteGapRecord(w *tsv.Writer, r ies.GapRecord) error {
	writeInt64(w, r.GapID)
	writeInt64(w, r.PrecursorContigID)
	w.WriteString(r.PrecursorName)
	writeInt64(w, int64(r.Start))
	writeInt64(w, int64(r.End))
	writeInt64(w, int64(r.Length))
	writeInt64(w, r.ProductContigID)
	w.WriteString(r.ProductName)
	w.WriteString(interval.JoinInts(r.LeftIndices))
	w.WriteString(interval.JoinInts(r.RightIndices))
	w.WriteString(interval.JoinOrientations(r.LeftOrientations))
	w.WriteString(interval.JoinOrientations(r.RightOrientations))
	return w.EndLine()
}

// Add implements ies.Sink.
func (g *GapWriter) Add(ctx context.Context, recs []ies.GapRecord) error {
	for _, r := range recs {
		if err := WriteGapRecord(g.t.w, r); err != nil {
			return err
		}
	}
	return nil
}

// Flush implements ies.Sink.  Rows, including any pending gzip data, are
// pushed to the underlying file.
func (g *GapWriter) Flush(ctx context.Context) error {
	if err := g.t.w.Flush(); err != nil {
		return err
	}
	if g.t.gz != nil {
		return g.t.gz.Flush()
	}
	return nil
}

// Close flushes remaining rows and closes the file.
func (g *GapWriter) Close(ctx context.Context) error {
	return g.t.close(ctx)
}

// BlockHeader is the header line written by BlockWriter.
const BlockHeader = "#mic_contig_id\tmic_name\tgroup\tstart\tend\tlength\tstart_macs\tend_macs"

// BlockWriter writes merged matches, one per line, for inspection of the
// merge step.
type BlockWriter struct {
	t *tableFile
}

// NewBlockWriter creates the block table at path.
func NewBlockWriter(ctx context.Context, path string) (*BlockWriter, error) {
	t, err := createTable(ctx, path, BlockHeader)
	if err != nil {
		return nil, err
	}
	return &BlockWriter{t: t}, nil
}

// Write appends the merged groups of precursor p.  Group i is written with
// group number i.
func (b *BlockWriter) Write(p ies.Precursor, groups [][]interval.MergedMatch) error {
	w := b.t.w
	for i, blocks := range groups {
		for _, m := range blocks {
			writeInt64(w, p.ContigID)
			w.WriteString(p.Name)
			writeInt64(w, int64(i))
			writeInt64(w, int64(m.Start))
			writeInt64(w, int64(m.End))
			writeInt64(w, int64(m.Len()))
			w.WriteString(formatMacs(m.StartMacs))
			w.WriteString(formatMacs(m.EndMacs))
			if err := w.EndLine(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes and closes the file.
func (b *BlockWriter) Close(ctx context.Context) error {
	return b.t.close(ctx)
}

// formatMacs renders a MacSet as "name:indices:orientations" entries
// separated by ';', sorted by name.
func formatMacs(macs interval.MacSet) string {
	names := macs.Names()
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = macs[name].String()
	}
	return strings.Join(parts, ";")
}
