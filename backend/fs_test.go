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

package backend

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemBackend(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)

	exists, err := b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, b.Put(ctx, "db/1.0.0/db.parquet", bytes.NewReader([]byte("hello")), 5))

	exists, err = b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.True(t, exists)

	var buf bytes.Buffer
	require.NoError(t, b.Get(ctx, "db/1.0.0/db.parquet", &buf))
	assert.Equal(t, "hello", buf.String())

	keys, err := b.List(ctx, "db/")
	require.NoError(t, err)
	assert.Contains(t, keys, "db/1.0.0/db.parquet")

	require.NoError(t, b.Delete(ctx, "db/1.0.0/db.parquet"))
	exists, err = b.Exists(ctx, "db/1.0.0/db.parquet")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileSystemBackendGetMissing(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileSystem(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	err = b.Get(ctx, "missing", &buf)
	require.Error(t, err)
}
