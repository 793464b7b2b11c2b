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

	"github.com/goccy/go-yaml"

	"github.com/audeon/audb/deptable"
	"github.com/audeon/audb/internal/xerrors"
)

// mediaAttrsFile is the sidecar format --attrs points to: a flat map
// from build-relative path to the audio attributes publish.Options.Attrs
// needs (the publish pipeline itself is attrs-source agnostic; the CLI
// is one caller among others, using goccy/go-yaml like the teacher's
// cli/cmd/publish.go does for its own .chunk.yaml config).
type mediaAttrsFile struct {
	BitDepth     int32   `yaml:"bit_depth"`
	Channels     int32   `yaml:"channels"`
	SamplingRate int32   `yaml:"sampling_rate"`
	Duration     float64 `yaml:"duration"`
}

// loadAttrs parses an --attrs sidecar file into the map Publish expects.
// An empty path is valid: the resulting table simply carries zero
// attributes for every media row.
func loadAttrs(path string) (map[string]deptable.MediaAttrs, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "reading attrs file", err)
	}

	var parsed map[string]mediaAttrsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, xerrors.Wrap(xerrors.KindInvalidArgument, "parsing attrs file", err)
	}

	attrs := make(map[string]deptable.MediaAttrs, len(parsed))
	for path, a := range parsed {
		attrs[path] = deptable.MediaAttrs{
			BitDepth:     a.BitDepth,
			Channels:     a.Channels,
			SamplingRate: a.SamplingRate,
			Duration:     a.Duration,
		}
	}
	return attrs, nil
}
