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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyPickleSingleRow is protocol-2 pickle of a one-element list
// containing a dict with the legacy row fields, produced by a real
// Python pickler: [{"file": "db.parquet", "archive": "arc-1", "kind":
// "meta", "format": "parquet", "version": "1.0.0", "checksum": "abc",
// "removed": False, "bit_depth": 0, "channels": 0, "sampling_rate": 0,
// "duration": 0.0}].
var legacyPickleSingleRow = []byte{
	0x80, 0x02, 0x5d, 0x71, 0x00, 0x7d, 0x71, 0x01, 0x28, 0x58, 0x04, 0x00,
	0x00, 0x00, 0x66, 0x69, 0x6c, 0x65, 0x71, 0x02, 0x58, 0x0a, 0x00, 0x00,
	0x00, 0x64, 0x62, 0x2e, 0x70, 0x61, 0x72, 0x71, 0x75, 0x65, 0x74, 0x71,
	0x03, 0x58, 0x07, 0x00, 0x00, 0x00, 0x61, 0x72, 0x63, 0x68, 0x69, 0x76,
	0x65, 0x71, 0x04, 0x58, 0x05, 0x00, 0x00, 0x00, 0x61, 0x72, 0x63, 0x2d,
	0x31, 0x71, 0x05, 0x58, 0x04, 0x00, 0x00, 0x00, 0x6b, 0x69, 0x6e, 0x64,
	0x71, 0x06, 0x58, 0x04, 0x00, 0x00, 0x00, 0x6d, 0x65, 0x74, 0x61, 0x71,
	0x07, 0x58, 0x06, 0x00, 0x00, 0x00, 0x66, 0x6f, 0x72, 0x6d, 0x61, 0x74,
	0x71, 0x08, 0x58, 0x07, 0x00, 0x00, 0x00, 0x70, 0x61, 0x72, 0x71, 0x75,
	0x65, 0x74, 0x71, 0x09, 0x58, 0x07, 0x00, 0x00, 0x00, 0x76, 0x65, 0x72,
	0x73, 0x69, 0x6f, 0x6e, 0x71, 0x0a, 0x58, 0x05, 0x00, 0x00, 0x00, 0x31,
	0x2e, 0x30, 0x2e, 0x30, 0x71, 0x0b, 0x58, 0x08, 0x00, 0x00, 0x00, 0x63,
	0x68, 0x65, 0x63, 0x6b, 0x73, 0x75, 0x6d, 0x71, 0x0c, 0x58, 0x03, 0x00,
	0x00, 0x00, 0x61, 0x62, 0x63, 0x71, 0x0d, 0x58, 0x07, 0x00, 0x00, 0x00,
	0x72, 0x65, 0x6d, 0x6f, 0x76, 0x65, 0x64, 0x71, 0x0e, 0x89, 0x58, 0x09,
	0x00, 0x00, 0x00, 0x62, 0x69, 0x74, 0x5f, 0x64, 0x65, 0x70, 0x74, 0x68,
	0x71, 0x0f, 0x4b, 0x00, 0x58, 0x08, 0x00, 0x00, 0x00, 0x63, 0x68, 0x61,
	0x6e, 0x6e, 0x65, 0x6c, 0x73, 0x71, 0x10, 0x4b, 0x00, 0x58, 0x0d, 0x00,
	0x00, 0x00, 0x73, 0x61, 0x6d, 0x70, 0x6c, 0x69, 0x6e, 0x67, 0x5f, 0x72,
	0x61, 0x74, 0x65, 0x71, 0x11, 0x4b, 0x00, 0x58, 0x08, 0x00, 0x00, 0x00,
	0x64, 0x75, 0x72, 0x61, 0x74, 0x69, 0x6f, 0x6e, 0x71, 0x12, 0x47, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x75, 0x61, 0x2e,
}

func TestReadPickleSingleRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.pickle")
	require.NoError(t, os.WriteFile(path, legacyPickleSingleRow, 0o644))

	tbl, err := ReadPickle(path)
	require.NoError(t, err)

	assert.Equal(t, 1, tbl.Len())
	arc, err := tbl.Archive("db.parquet")
	require.NoError(t, err)
	assert.Equal(t, "arc-1", arc)
	removed, err := tbl.IsRemoved("db.parquet")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestReadPickleRejectsUnknownKind(t *testing.T) {
	_, err := rowFromPickleDict(map[string]any{"file": "x", "kind": "bogus"})
	require.Error(t, err)
}

func TestReadPickleTruncatedStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.pickle")
	require.NoError(t, os.WriteFile(path, legacyPickleSingleRow[:10], 0o644))

	_, err := ReadPickle(path)
	require.Error(t, err)
}
