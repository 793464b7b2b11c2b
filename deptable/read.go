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

package deptable

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/audeon/audb/internal/xerrors"
)

// Read loads a dependency table file, recognizing its encoding by
// extension and normalizing to the canonical schema (spec.md §4.1: "read
// Parquet, CSV (legacy), or pickle"; §9: "centralize this in a single
// reader that dispatches on extension"). Every load/info/publish call
// site reads a dependency table through here instead of calling
// ReadParquet directly. Those call sites always fetch the repository's
// db.parquet; none of them falls back to a db.csv or db.pickle object,
// so legacy formats are read only when Read is handed such a file.
func Read(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", "":
		return ReadParquet(path)
	case ".csv":
		return ReadCSV(path)
	case ".pickle", ".pkl":
		return ReadPickle(path)
	default:
		return nil, xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("dependency table %q has an unrecognized extension", path))
	}
}
