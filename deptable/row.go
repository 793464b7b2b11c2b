/*
 audb, a versioned, content-addressed database manager for annotated
 media corpora.
 Copyright (C) 2026 audb contributors

 This program is free software: you can redistribute it and/or modify
 it under the terms of the GNU Affero General Public License as published by
 the Free Software Foundation, either version 3 of the License, or
 (at your option) any later version.

 This program is distributed in the hope that it will be useful,
 but WITHOUT ANY WARRANTY; without even the implied warranty of
 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 GNU Affero General Public License for more details.

 You should have received a copy of the GNU Affero General Public License
 along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package deptable implements the dependency table (spec.md §3, §4.1):
// the columnar manifest that is the sole source of truth about what a
// database version contains, where its bytes live, and whether a byte is
// reused from an earlier version.
//
// The table is stored column-oriented (parallel slices indexed by row
// number) with a hash index from path to row number, generalizing the
// teacher's per-flavor-version file-hash list
// (controlplane/chunk/flavor.go: FlavorVersion.FileHashes,
// merkletree-diffed in CreateFlavorVersion) to the richer per-row schema
// spec.md §3 requires, across the whole lifetime of a database rather
// than one version's file set.
package deptable

import (
	"fmt"

	"github.com/audeon/audb/internal/xerrors"
)

// Kind classifies an artifact's role (spec.md §3).
type Kind string

const (
	KindMeta       Kind = "meta"
	KindMedia      Kind = "media"
	KindAttachment Kind = "attachment"
)

// Row is one artifact entry. Field order matches spec.md §3's column
// table and is preserved verbatim in Parquet serialization (parquet.go).
type Row struct {
	Path         string
	Archive      string
	Kind         Kind
	Format       string
	Version      string
	Checksum     string
	Removed      bool
	BitDepth     int32
	Channels     int32
	SamplingRate int32
	Duration     float64
}

// errNotFound builds the xerrors.KindNotFound error returned by
// Row/scalar getters for an absent path.
func errNotFound(path string) error {
	return xerrors.New(xerrors.KindNotFound, fmt.Sprintf("path not found in dependency table: %s", path))
}
