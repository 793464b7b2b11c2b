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

package load

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/archive"
	"github.com/audeon/audb/audformat"
	"github.com/audeon/audb/cache"
	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/internal/config"
	"github.com/audeon/audb/repository"
)

const testDB = "emodb"
const testVersion = "1.0.0"

// seedRepo writes a fully published, single-archive database version
// (one media file, one table row) under a filesystem-backed repository
// rooted at t.TempDir(), and returns that root.
func seedRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	build := t.TempDir()
	mediaPath := filepath.Join(build, "wav", "1.wav")
	require.NoError(t, os.MkdirAll(filepath.Dir(mediaPath), 0o755))
	require.NoError(t, os.WriteFile(mediaPath, []byte("fake-audio-bytes"), 0o644))

	fingerprint := archive.Fingerprint(testVersion, []archive.Member{{Name: "wav/1.wav", Path: mediaPath}})
	archivePath := filepath.Join(build, "media.zip")
	checksum, err := archive.Pack(archivePath, []archive.Member{{Name: "wav/1.wav", Path: mediaPath}})
	require.NoError(t, err)

	versionDir := filepath.Join(root, testDB, testVersion)
	require.NoError(t, os.MkdirAll(versionDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, testDB, "media", testVersion), 0o755))

	archiveBytes, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, testDB, "media", testVersion, fingerprint+".zip"), archiveBytes, 0o644))

	table := deptable.New()
	require.NoError(t, table.AddMedia("wav/1.wav", fingerprint, "wav", testVersion, checksum, deptable.MediaAttrs{
		BitDepth: 16, Channels: 1, SamplingRate: 16000, Duration: 1.5,
	}))
	require.NoError(t, table.WriteParquet(filepath.Join(versionDir, "db.parquet")))

	require.NoError(t, audformat.WriteHeader(audformat.Header{Name: testDB}, filepath.Join(versionDir, "db.yaml")))

	return root
}

func newPipeline(t *testing.T, repoRoot string) *Pipeline {
	t.Helper()
	resolver, err := repository.New(context.Background(), []config.RepositoryConfig{
		{Name: "primary", BackendKind: "file-system", Host: repoRoot},
	})
	require.NoError(t, err)

	cacheMgr := cache.New(
		config.CacheConfig{Root: t.TempDir()},
		config.LockConfig{WarnAfter: time.Second, Timeout: 10 * time.Second},
	)

	return New(resolver, cacheMgr, nil, config.ConcurrencyConfig{Workers: 2}, nil)
}

func TestLoadOriginalFlavorFetchesAndUnpacks(t *testing.T) {
	root := seedRepo(t)
	p := newPipeline(t, root)

	result, err := p.Load(context.Background(), testDB, testVersion, flavor.Spec{}, Options{})
	require.NoError(t, err)
	require.Nil(t, result.Err)

	got, err := os.ReadFile(filepath.Join(result.Dir, "wav", "1.wav"))
	require.NoError(t, err)
	assert.Equal(t, "fake-audio-bytes", string(got))
	assert.Equal(t, testVersion, result.Version)
	assert.Equal(t, 1, result.Table.Len())
}

func TestLoadIsIdempotent(t *testing.T) {
	root := seedRepo(t)
	p := newPipeline(t, root)

	_, err := p.Load(context.Background(), testDB, testVersion, flavor.Spec{}, Options{})
	require.NoError(t, err)

	result, err := p.Load(context.Background(), testDB, testVersion, flavor.Spec{}, Options{})
	require.NoError(t, err)
	require.Nil(t, result.Err)
}

func TestLoadNonOriginalFlavorPassesThroughAndFails(t *testing.T) {
	root := seedRepo(t)
	p := newPipeline(t, root)

	spec := flavor.Spec{BitDepth: 24, Format: "wav"}
	result, err := p.Load(context.Background(), testDB, testVersion, spec, Options{})
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	assert.Contains(t, result.Err.Error(), "wav/1.wav")
}

func TestLoadLatestResolvesNewestVersion(t *testing.T) {
	root := seedRepo(t)
	p := newPipeline(t, root)

	result, err := p.Load(context.Background(), testDB, "latest", flavor.Spec{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, testVersion, result.Version)
}
