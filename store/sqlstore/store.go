// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package sqlstore reads precursors and matches from a SQLite database and
// writes IES tables back into it.
//
// The database must provide the tables
//
//   contig(contig_id, name, nucleus)
//   "match"(mic_contig_id, mic_start, mic_end, mac_contig_id, mac_name, "index", orientation, is_preliminary)
//   ies_strict / ies_weak(ies_id, mic_contig_id, mic_name, mic_start, mic_end, length,
//     mac_contig_id, mac_name, left_index, right_index, left_orientation, right_orientation)
//
// This package never creates or alters tables.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ciliate/bio/ies"
	"github.com/ciliate/bio/interval"
	"github.com/grailbio/base/log"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/pkg/errors"
)

const busyTimeoutMS = 30000

// Store is an ies.Source over a SQLite database.  It is safe for concurrent
// use.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path.  Unless path carries its own
// query parameters, writers wait up to busyTimeoutMS for a lock held by
// concurrent readers.
func Open(path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn = fmt.Sprintf("%s?_busy_timeout=%d", path, busyTimeoutMS)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close() // nolint: errcheck
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &Store{db: db}, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Precursors implements ies.Source.  It lists the MIC contigs by contig ID.
func (s *Store) Precursors(ctx context.Context) ([]ies.Precursor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contig_id, name FROM contig WHERE nucleus = 'mic' ORDER BY contig_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query precursors")
	}
	defer rows.Close()

	var precursors []ies.Precursor
	for rows.Next() {
		var p ies.Precursor
		if err := rows.Scan(&p.ContigID, &p.Name); err != nil {
			return nil, errors.Wrap(err, "scan precursor")
		}
		precursors = append(precursors, p)
	}
	return precursors, rows.Err()
}

// Matches implements ies.Source.  Only preliminary matches are returned, with
// their absolute index.
func (s *Store) Matches(ctx context.Context, p ies.Precursor) ([]ies.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mic_start, mic_end, mac_contig_id, mac_name, ABS("index"), orientation
		FROM "match"
		WHERE mic_contig_id = ? AND is_preliminary = 1`, p.ContigID)
	if err != nil {
		return nil, errors.Wrapf(err, "query matches of %v", p)
	}
	defer rows.Close()

	var recs []ies.MatchRecord
	for rows.Next() {
		var (
			r           ies.MatchRecord
			start, end  int64
			orientation sql.NullString
		)
		if err := rows.Scan(&start, &end, &r.MacContigID, &r.MacName, &r.Index, &orientation); err != nil {
			return nil, errors.Wrapf(err, "scan match of %v", p)
		}
		if !interval.PosInRange(start) || !interval.PosInRange(end) {
			return nil, errors.Errorf("match of %v: position out of range [%d,%d]", p, start, end)
		}
		r.MicStart, r.MicEnd = interval.PosType(start), interval.PosType(end)
		r.Orientation = orientation.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// GapTableName returns the IES table that holds gaps of the given mode.
func GapTableName(mode interval.Mode) string {
	return fmt.Sprintf("ies_%v", mode)
}

// GapTable is an ies.Sink that inserts gap records into an IES table.
// Records are buffered by Add and inserted in a single transaction by Flush.
type GapTable struct {
	db      *sql.DB
	table   string
	pending []ies.GapRecord
}

// NewGapTable returns a sink writing to the IES table of mode.
func (s *Store) NewGapTable(mode interval.Mode) *GapTable {
	return &GapTable{db: s.db, table: GapTableName(mode)}
}

// Add implements ies.Sink.
func (g *GapTable) Add(ctx context.Context, recs []ies.GapRecord) error {
	g.pending = append(g.pending, recs...)
	return nil
}

// Flush implements ies.Sink.  On failure nothing is inserted and the
// buffered records are kept.
func (g *GapTable) Flush(ctx context.Context) (err error) {
	if len(g.pending) == 0 {
		return nil
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				log.Error.Printf("rollback %s: %v", g.table, rerr)
			}
		}
	}()
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, g.table))
	if err != nil {
		return errors.Wrapf(err, "prepare insert into %s", g.table)
	}
	defer stmt.Close()
	for _, r := range g.pending {
		if _, err = stmt.ExecContext(ctx,
			r.GapID, r.PrecursorContigID, r.PrecursorName,
			int64(r.Start), int64(r.End), r.Length,
			r.ProductContigID, r.ProductName,
			interval.JoinInts(r.LeftIndices), interval.JoinInts(r.RightIndices),
			interval.JoinOrientations(r.LeftOrientations), interval.JoinOrientations(r.RightOrientations),
		); err != nil {
			return errors.Wrapf(err, "insert gap %d into %s", r.GapID, g.table)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", g.table)
	}
	log.Debug.Printf("%s: inserted %d records", g.table, len(g.pending))
	g.pending = g.pending[:0]
	return nil
}
