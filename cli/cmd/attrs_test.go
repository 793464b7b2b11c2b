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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAttrsEmptyPath(t *testing.T) {
	attrs, err := loadAttrs("")
	require.NoError(t, err)
	assert.Nil(t, attrs)
}

func TestLoadAttrsParsesSidecarFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attrs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
media/wav/1.wav:
  bit_depth: 16
  channels: 1
  sampling_rate: 16000
  duration: 1.5
`), 0o644))

	attrs, err := loadAttrs(path)
	require.NoError(t, err)
	require.Contains(t, attrs, "media/wav/1.wav")
	assert.EqualValues(t, 16, attrs["media/wav/1.wav"].BitDepth)
	assert.EqualValues(t, 1, attrs["media/wav/1.wav"].Channels)
	assert.EqualValues(t, 16000, attrs["media/wav/1.wav"].SamplingRate)
	assert.InDelta(t, 1.5, attrs["media/wav/1.wav"].Duration, 0.001)
}

func TestLoadAttrsMissingFile(t *testing.T) {
	_, err := loadAttrs(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
