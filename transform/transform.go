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

// Package transform defines the audio-conversion collaborator audb's
// load pipeline calls into when a flavor other than the default is
// requested (spec.md §4.5, §4.7). The actual codec work (resampling,
// bit-depth conversion, channel mixdown) is explicitly out of scope
// (spec.md Non-goals): this package only defines the seam and a
// pass-through default so the rest of the pipeline has something real
// to call.
package transform

import (
	"context"

	"github.com/audeon/audb/flavor"
	"github.com/audeon/audb/internal/xerrors"
)

// Transformer converts a single media file on disk at srcPath to
// destPath according to spec. Implementations that cannot perform a
// requested conversion must return an xerrors.KindUnsupportedConversion
// error (spec.md §7) rather than silently passing the file through.
type Transformer interface {
	Transform(ctx context.Context, spec flavor.Spec, srcPath, destPath string) error
}

// PassThrough is the default Transformer: it only supports the
// original flavor (a no-op copy is handled by the caller before
// Transform is ever invoked for it) and rejects every other spec. Real
// deployments wire in a codec-backed Transformer; audb's core load
// pipeline only depends on the interface.
type PassThrough struct{}

func (PassThrough) Transform(_ context.Context, spec flavor.Spec, _, _ string) error {
	if spec.IsOriginal() {
		return nil
	}
	return xerrors.New(xerrors.KindUnsupportedConversion, "no transformer configured for non-original flavor")
}
