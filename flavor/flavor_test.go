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

package flavor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginalSpecID(t *testing.T) {
	assert.Equal(t, DefaultFlavorID, Spec{}.ID())
	assert.True(t, Spec{}.IsOriginal())
}

func TestIDStableAndDistinct(t *testing.T) {
	a := Spec{BitDepth: 16, Channels: []int{0}, Format: "wav", SamplingRate: 16000}
	b := Spec{BitDepth: 16, Channels: []int{0}, Format: "wav", SamplingRate: 16000}
	c := Spec{BitDepth: 24, Channels: []int{0}, Format: "wav", SamplingRate: 16000}

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.False(t, a.IsOriginal())
}

func TestIDCaseInsensitiveOnStrings(t *testing.T) {
	a := Spec{Format: "WAV"}
	b := Spec{Format: "wav"}
	assert.Equal(t, a.ID(), b.ID())
}

func TestDeprecatedSamplingRateAliasNormalizesToCanonical(t *testing.T) {
	aliased := Spec{SamplingRate: 22500}
	canonical := Spec{SamplingRate: 22050}
	assert.Equal(t, canonical.ID(), aliased.ID())
}

func TestMonoForcesMixdownFalse(t *testing.T) {
	s := Spec{Channels: []int{0}, Mixdown: true}
	assert.False(t, s.Normalize().Mixdown)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	require.Error(t, Spec{BitDepth: 12}.Validate())
	require.Error(t, Spec{Format: "mp3"}.Validate())
	require.Error(t, Spec{SamplingRate: 11025}.Validate())
	require.Error(t, Spec{BitDepth: 32, Format: "flac"}.Validate())
	require.NoError(t, Spec{BitDepth: 32, Format: "wav"}.Validate())
}

func TestValidateAcceptsDeprecatedAlias(t *testing.T) {
	require.NoError(t, Spec{SamplingRate: 22500}.Validate())
}
