// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package iestsv reads match tables and writes IES tables as tab-separated
// files, optionally gzip-compressed (detected from a ".gz" suffix).
//
// Match table columns, one match per line, lines starting with '#' ignored:
//
//   mic_contig_id mic_name mic_start mic_end mac_contig_id mac_name index orientation is_preliminary
//
// IES table columns:
//
//   ies_id mic_contig_id mic_name mic_start mic_end length mac_contig_id mac_name left_index right_index left_orientation right_orientation
//
// The index and orientation list columns are comma-separated.
package iestsv
