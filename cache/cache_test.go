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

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audeon/audb/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(
		config.CacheConfig{Root: t.TempDir()},
		config.LockConfig{WarnAfter: 20 * time.Millisecond, Timeout: 200 * time.Millisecond},
	)
}

func TestAcquireLockAndUnlock(t *testing.T) {
	m := newTestManager(t)
	dir := filepath.Join(m.userRoot, "flavor-a", "1.0.0")

	lock, err := m.AcquireLock(dir, nil)
	require.NoError(t, err)
	require.NoError(t, lock.Unlock())
}

func TestAcquireLockTimesOutWhenHeld(t *testing.T) {
	m := newTestManager(t)
	dir := filepath.Join(m.userRoot, "flavor-a", "1.0.0")

	first, err := m.AcquireLock(dir, nil)
	require.NoError(t, err)
	defer first.Unlock()

	var warned bool
	_, err = m.AcquireLock(dir, func(time.Duration) { warned = true })
	require.Error(t, err)
	assert.True(t, warned)
}

func TestMarkCompleteAndIsComplete(t *testing.T) {
	m := newTestManager(t)
	dir := filepath.Join(m.userRoot, "flavor-a", "1.0.0")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	assert.False(t, m.IsComplete(dir))
	require.NoError(t, m.MarkComplete(dir))
	assert.True(t, m.IsComplete(dir))
}

func TestSharedTierPreferredWhenComplete(t *testing.T) {
	userRoot := t.TempDir()
	sharedRoot := t.TempDir()

	m := New(
		config.CacheConfig{Root: userRoot, SharedRoot: sharedRoot},
		config.LockConfig{WarnAfter: time.Second, Timeout: time.Minute},
	)

	sharedDir := filepath.Join(sharedRoot, "flavor-a", "1.0.0")
	require.NoError(t, os.MkdirAll(sharedDir, 0o755))
	require.NoError(t, m.MarkComplete(sharedDir))

	assert.Equal(t, sharedDir, m.Dir("flavor-a", "1.0.0"))
}

func TestAvailableRequiresAllScopedFiles(t *testing.T) {
	m := newTestManager(t)
	dir := filepath.Join(m.userRoot, "flavor-a", "1.0.0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("x"), 0o644))
	require.NoError(t, m.MarkComplete(dir))

	assert.True(t, m.Available(dir, []string{"a.wav"}))
	assert.False(t, m.Available(dir, []string{"a.wav", "missing.wav"}))
}

func TestAvailableFalseWithoutCompleteMarker(t *testing.T) {
	m := newTestManager(t)
	dir := filepath.Join(m.userRoot, "flavor-a", "1.0.0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("x"), 0o644))

	assert.False(t, m.Available(dir, []string{"a.wav"}))
}

func TestLinkFileReusesBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	require.NoError(t, os.WriteFile(src, []byte("audio"), 0o644))

	dest := filepath.Join(dir, "nested", "dest.wav")
	require.NoError(t, LinkFile(src, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(got))
}
