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
	"sort"
)

// Table is the columnar dependency table. All mutation methods assume the
// caller serializes access (spec.md §5: "mutations to the dependency
// table must be serialized by the caller"); Table itself holds no lock.
type Table struct {
	paths []string
	index map[string]int

	archive      []string
	kind         []Kind
	format       []string
	version      []string
	checksum     []string
	removed      []bool
	bitDepth     []int32
	channels     []int32
	samplingRate []int32
	duration     []float64
}

// New returns an empty dependency table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.paths) }

// Contains reports whether path has a row.
func (t *Table) Contains(path string) bool {
	_, ok := t.index[path]
	return ok
}

// Row returns the row for path.
func (t *Table) Row(path string) (Row, error) {
	i, ok := t.index[path]
	if !ok {
		return Row{}, errNotFound(path)
	}
	return t.rowAt(i), nil
}

func (t *Table) rowAt(i int) Row {
	return Row{
		Path:         t.paths[i],
		Archive:      t.archive[i],
		Kind:         t.kind[i],
		Format:       t.format[i],
		Version:      t.version[i],
		Checksum:     t.checksum[i],
		Removed:      t.removed[i],
		BitDepth:     t.bitDepth[i],
		Channels:     t.channels[i],
		SamplingRate: t.samplingRate[i],
		Duration:     t.duration[i],
	}
}

// Files returns all paths, in insertion order. After a Drop the order
// is no longer pure insertion order: Drop moves the last row into the
// dropped row's position.
func (t *Table) Files() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

func (t *Table) filterKind(k Kind) []string {
	var out []string
	for i, kk := range t.kind {
		if kk == k {
			out = append(out, t.paths[i])
		}
	}
	return out
}

// Media returns paths with kind=media, in insertion order.
func (t *Table) Media() []string { return t.filterKind(KindMedia) }

// Tables returns paths with kind=meta, in insertion order.
func (t *Table) Tables() []string { return t.filterKind(KindMeta) }

// Attachments returns paths with kind=attachment, in insertion order.
func (t *Table) Attachments() []string { return t.filterKind(KindAttachment) }

// RemovedMedia returns tombstoned media paths, in insertion order.
func (t *Table) RemovedMedia() []string {
	var out []string
	for i, k := range t.kind {
		if k == KindMedia && t.removed[i] {
			out = append(out, t.paths[i])
		}
	}
	return out
}

// Archives returns the unique, sorted set of archive fingerprints
// referenced by any row.
func (t *Table) Archives() []string {
	seen := make(map[string]struct{}, len(t.archive))
	for _, a := range t.archive {
		if a == "" {
			continue
		}
		seen[a] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ArchiveKind returns the kind shared by every row packed into archive
// (an archive only ever holds rows of one kind; publish enforces this
// when assigning archives). It errors if no row references archive.
func (t *Table) ArchiveKind(archive string) (Kind, error) {
	for i, a := range t.archive {
		if a == archive {
			return t.kind[i], nil
		}
	}
	return "", errNotFound(archive)
}

// PathsInArchive returns every row path packed into archive, in
// insertion order.
func (t *Table) PathsInArchive(archive string) []string {
	var out []string
	for i, a := range t.archive {
		if a == archive {
			out = append(out, t.paths[i])
		}
	}
	return out
}

// scalar getters

func (t *Table) Archive(path string) (string, error) {
	i, ok := t.index[path]
	if !ok {
		return "", errNotFound(path)
	}
	return t.archive[i], nil
}

func (t *Table) Checksum(path string) (string, error) {
	i, ok := t.index[path]
	if !ok {
		return "", errNotFound(path)
	}
	return t.checksum[i], nil
}

func (t *Table) Version(path string) (string, error) {
	i, ok := t.index[path]
	if !ok {
		return "", errNotFound(path)
	}
	return t.version[i], nil
}

func (t *Table) Duration(path string) (float64, error) {
	i, ok := t.index[path]
	if !ok {
		return 0, errNotFound(path)
	}
	return t.duration[i], nil
}

func (t *Table) BitDepth(path string) (int32, error) {
	i, ok := t.index[path]
	if !ok {
		return 0, errNotFound(path)
	}
	return t.bitDepth[i], nil
}

func (t *Table) Channels(path string) (int32, error) {
	i, ok := t.index[path]
	if !ok {
		return 0, errNotFound(path)
	}
	return t.channels[i], nil
}

func (t *Table) SamplingRate(path string) (int32, error) {
	i, ok := t.index[path]
	if !ok {
		return 0, errNotFound(path)
	}
	return t.samplingRate[i], nil
}

func (t *Table) Format(path string) (string, error) {
	i, ok := t.index[path]
	if !ok {
		return "", errNotFound(path)
	}
	return t.format[i], nil
}

func (t *Table) KindOf(path string) (Kind, error) {
	i, ok := t.index[path]
	if !ok {
		return "", errNotFound(path)
	}
	return t.kind[i], nil
}

func (t *Table) IsRemoved(path string) (bool, error) {
	i, ok := t.index[path]
	if !ok {
		return false, errNotFound(path)
	}
	return t.removed[i], nil
}

// batch variants: scatter/gather in columnar form, never per-row
// dispatch, per spec.md §4.1 "batch operations must be significantly
// cheaper than the sum of per-row calls".

func (t *Table) ChecksumBatch(paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if i, ok := t.index[p]; ok {
			out[p] = t.checksum[i]
		}
	}
	return out
}

func (t *Table) ArchiveBatch(paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if i, ok := t.index[p]; ok {
			out[p] = t.archive[i]
		}
	}
	return out
}

func (t *Table) VersionBatch(paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		if i, ok := t.index[p]; ok {
			out[p] = t.version[i]
		}
	}
	return out
}

// Equal reports semantic, order-insensitive equality: same set of rows
// with identical field values.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, p := range t.paths {
		oi, ok := other.index[p]
		if !ok {
			return false
		}
		if t.rowAt(i) != other.rowAt(oi) {
			return false
		}
	}
	return true
}
