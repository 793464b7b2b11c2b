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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/internal/xerrors"
)

func TestAddAndQuery(t *testing.T) {
	tbl := New()

	require.NoError(t, tbl.AddMeta("db.parquet", "arc-1", "parquet", "1.0.0", "abc"))
	require.NoError(t, tbl.AddMedia("audio/001.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{
		BitDepth: 16, Channels: 1, SamplingRate: 16000, Duration: 1.5,
	}))
	require.NoError(t, tbl.AddAttachment("README.md", "arc-3", "1.0.0", "ghi"))

	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.Contains("audio/001.wav"))
	assert.False(t, tbl.Contains("missing"))

	assert.Equal(t, []string{"db.parquet"}, tbl.Tables())
	assert.Equal(t, []string{"audio/001.wav"}, tbl.Media())
	assert.Equal(t, []string{"README.md"}, tbl.Attachments())

	dur, err := tbl.Duration("audio/001.wav")
	require.NoError(t, err)
	assert.Equal(t, 1.5, dur)

	assert.Equal(t, []string{"arc-1", "arc-2", "arc-3"}, tbl.Archives())
}

func TestAddDuplicateRejected(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddMeta("db.parquet", "arc-1", "parquet", "1.0.0", "abc"))

	err := tbl.AddMeta("db.parquet", "arc-2", "parquet", "1.0.1", "xyz")
	require.Error(t, err)
	kind, ok := xerrors.Of(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.KindInvalidArgument, kind)
}

func TestRowNotFound(t *testing.T) {
	tbl := New()
	_, err := tbl.Row("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.NotFound))
}

func TestRemoveIsTombstoneNotDelete(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))

	require.NoError(t, tbl.Remove("a.wav"))

	assert.Equal(t, 1, tbl.Len())
	removed, err := tbl.IsRemoved("a.wav")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"a.wav"}, tbl.RemovedMedia())
}

func TestDropDeletesRow(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))
	require.NoError(t, tbl.AddMedia("b.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{}))

	require.NoError(t, tbl.Drop("a.wav"))

	assert.Equal(t, 1, tbl.Len())
	assert.False(t, tbl.Contains("a.wav"))
	assert.True(t, tbl.Contains("b.wav"))
}

func TestUpdateMediaVersionReuse(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))

	require.NoError(t, tbl.UpdateMediaVersion("a.wav", "1.1.0"))

	v, err := tbl.Version("a.wav")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v)

	arc, err := tbl.Archive("a.wav")
	require.NoError(t, err)
	assert.Equal(t, "arc-1", arc)
}

func TestEqualIsOrderInsensitive(t *testing.T) {
	a := New()
	require.NoError(t, a.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))
	require.NoError(t, a.AddMedia("b.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{}))

	b := New()
	require.NoError(t, b.AddMedia("b.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{}))
	require.NoError(t, b.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))

	assert.True(t, a.Equal(b))

	require.NoError(t, b.Remove("a.wav"))
	assert.False(t, a.Equal(b))
}

func TestBatchGetters(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddMedia("a.wav", "arc-1", "wav", "1.0.0", "abc", MediaAttrs{}))
	require.NoError(t, tbl.AddMedia("b.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{}))

	got := tbl.ChecksumBatch([]string{"a.wav", "b.wav", "missing"})
	assert.Equal(t, map[string]string{"a.wav": "abc", "b.wav": "def"}, got)
}

func TestWriteReadParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tbl := New()
	require.NoError(t, tbl.AddMeta("db.parquet", "arc-1", "parquet", "1.0.0", "abc"))
	require.NoError(t, tbl.AddMedia("audio/001.wav", "arc-2", "wav", "1.0.0", "def", MediaAttrs{
		BitDepth: 16, Channels: 2, SamplingRate: 44100, Duration: 3.2,
	}))
	require.NoError(t, tbl.Remove("audio/001.wav"))

	path := dir + "/db.parquet"
	require.NoError(t, tbl.WriteParquet(path))

	got, err := ReadParquet(path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(got))
}
