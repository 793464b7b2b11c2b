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

	"github.com/audeon/audb/internal/xerrors"
)

func errExists(path string) error {
	return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("path already present in dependency table: %s", path))
}

func (t *Table) append(r Row) {
	t.index[r.Path] = len(t.paths)
	t.paths = append(t.paths, r.Path)
	t.archive = append(t.archive, r.Archive)
	t.kind = append(t.kind, r.Kind)
	t.format = append(t.format, r.Format)
	t.version = append(t.version, r.Version)
	t.checksum = append(t.checksum, r.Checksum)
	t.removed = append(t.removed, r.Removed)
	t.bitDepth = append(t.bitDepth, r.BitDepth)
	t.channels = append(t.channels, r.Channels)
	t.samplingRate = append(t.samplingRate, r.SamplingRate)
	t.duration = append(t.duration, r.Duration)
}

// AddMeta inserts a kind=meta row (a table/header file).
func (t *Table) AddMeta(path, archive, format, version, checksum string) error {
	if t.Contains(path) {
		return errExists(path)
	}
	t.append(Row{
		Path:     path,
		Archive:  archive,
		Kind:     KindMeta,
		Format:   format,
		Version:  version,
		Checksum: checksum,
	})
	return nil
}

// AddAttachment inserts a kind=attachment row.
func (t *Table) AddAttachment(path, archive, version, checksum string) error {
	if t.Contains(path) {
		return errExists(path)
	}
	t.append(Row{
		Path:     path,
		Archive:  archive,
		Kind:     KindAttachment,
		Version:  version,
		Checksum: checksum,
	})
	return nil
}

// MediaAttrs carries the optional audio attributes for a media row
// (spec.md §3: "zero for non-audio media").
type MediaAttrs struct {
	BitDepth     int32
	Channels     int32
	SamplingRate int32
	Duration     float64
}

// AddMedia inserts a kind=media row.
func (t *Table) AddMedia(path, archive, format, version, checksum string, attrs MediaAttrs) error {
	if t.Contains(path) {
		return errExists(path)
	}
	t.append(Row{
		Path:         path,
		Archive:      archive,
		Kind:         KindMedia,
		Format:       format,
		Version:      version,
		Checksum:     checksum,
		BitDepth:     attrs.BitDepth,
		Channels:     attrs.Channels,
		SamplingRate: attrs.SamplingRate,
		Duration:     attrs.Duration,
	})
	return nil
}

// UpdateMedia overwrites the archive, format, checksum and attributes of
// an existing media row in place without changing its position, used
// when a file's bytes change but its version reference does not (spec.md
// §4.8: unchanged-version content update during republish).
func (t *Table) UpdateMedia(path, archive, format, checksum string, attrs MediaAttrs) error {
	i, ok := t.index[path]
	if !ok {
		return errNotFound(path)
	}
	if t.kind[i] != KindMedia {
		return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("path is not media: %s", path))
	}
	t.archive[i] = archive
	t.format[i] = format
	t.checksum[i] = checksum
	t.bitDepth[i] = attrs.BitDepth
	t.channels[i] = attrs.Channels
	t.samplingRate[i] = attrs.SamplingRate
	t.duration[i] = attrs.Duration
	t.removed[i] = false
	return nil
}

// UpdateMediaVersion rewrites only the version column of an existing
// row, used when a media file's bytes are byte-identical to an earlier
// version and the row is simply re-pointed at the same archive rather
// than repacked (spec.md §4.8: unchanged-file reuse).
func (t *Table) UpdateMediaVersion(path, version string) error {
	i, ok := t.index[path]
	if !ok {
		return errNotFound(path)
	}
	t.version[i] = version
	return nil
}

// Remove tombstones a media row: sets removed=true without deleting the
// row (spec.md §3: "removed rows are retained, never deleted, so that
// earlier versions referencing them remain resolvable").
func (t *Table) Remove(path string) error {
	i, ok := t.index[path]
	if !ok {
		return errNotFound(path)
	}
	t.removed[i] = true
	return nil
}

// Drop deletes a row outright, compacting the columns by moving the last
// row into the dropped row's position, so the order of the remaining
// rows changes unless the last row was dropped. Unlike Remove,
// Drop loses history and is only valid for rows that were never part of
// a published version (spec.md §4.1: "Drop is for correcting a
// not-yet-published mistake, not for retiring old media").
func (t *Table) Drop(path string) error {
	i, ok := t.index[path]
	if !ok {
		return errNotFound(path)
	}

	last := len(t.paths) - 1
	t.paths[i] = t.paths[last]
	t.archive[i] = t.archive[last]
	t.kind[i] = t.kind[last]
	t.format[i] = t.format[last]
	t.version[i] = t.version[last]
	t.checksum[i] = t.checksum[last]
	t.removed[i] = t.removed[last]
	t.bitDepth[i] = t.bitDepth[last]
	t.channels[i] = t.channels[last]
	t.samplingRate[i] = t.samplingRate[last]
	t.duration[i] = t.duration[last]

	t.paths = t.paths[:last]
	t.archive = t.archive[:last]
	t.kind = t.kind[:last]
	t.format = t.format[:last]
	t.version = t.version[:last]
	t.checksum = t.checksum[:last]
	t.removed = t.removed[:last]
	t.bitDepth = t.bitDepth[:last]
	t.channels = t.channels[:last]
	t.samplingRate = t.samplingRate[:last]
	t.duration = t.duration[:last]

	delete(t.index, path)
	if i != last {
		t.index[t.paths[i]] = i
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New()
	for _, p := range t.paths {
		c.append(t.rowAt(t.index[p]))
	}
	return c
}
