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
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/audeon/audb/internal/xerrors"
)

// parquetRow mirrors Row with parquet struct tags. Field order is fixed
// and must not change across releases: it is the on-disk schema (spec.md
// §3).
type parquetRow struct {
	Path         string  `parquet:"path"`
	Archive      string  `parquet:"archive"`
	Kind         string  `parquet:"kind"`
	Format       string  `parquet:"format"`
	Version      string  `parquet:"version"`
	Checksum     string  `parquet:"checksum"`
	Removed      bool    `parquet:"removed"`
	BitDepth     int32   `parquet:"bit_depth"`
	Channels     int32   `parquet:"channels"`
	SamplingRate int32   `parquet:"sampling_rate"`
	Duration     float64 `parquet:"duration"`
}

// WriteParquet serializes the table to path, writing to a temporary file
// in the same directory first and renaming into place so that readers
// never observe a partially-written table (spec.md §4.8: "the table file
// itself becomes visible only via its final rename").
func (t *Table) WriteParquet(path string) (err error) {
	rows := make([]parquetRow, t.Len())
	for i, p := range t.paths {
		rows[i] = parquetRow{
			Path:         p,
			Archive:      t.archive[i],
			Kind:         string(t.kind[i]),
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

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".deptable-*.parquet.tmp")
	if err != nil {
		return xerrors.Wrap(xerrors.KindIO, "creating temporary dependency table file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err = parquet.Write(tmp, rows); err != nil {
		tmp.Close()
		return xerrors.Wrap(xerrors.KindCorrupt, "encoding dependency table as parquet", err)
	}
	if err = tmp.Close(); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "closing temporary dependency table file", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return xerrors.Wrap(xerrors.KindIO, "publishing dependency table file", err)
	}
	return nil
}

// ReadParquet loads a dependency table previously written by WriteParquet.
func ReadParquet(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "opening dependency table file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "statting dependency table file", err)
	}

	rows, err := parquet.Read[parquetRow](f, info.Size())
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindCorrupt, "decoding dependency table parquet file", err)
	}

	tbl := New()
	for _, r := range rows {
		k := Kind(r.Kind)
		switch k {
		case KindMeta, KindMedia, KindAttachment:
		default:
			return nil, xerrors.New(xerrors.KindCorrupt, fmt.Sprintf("dependency table: unknown row kind %q for path %s", r.Kind, r.Path))
		}
		tbl.append(Row{
			Path:         r.Path,
			Archive:      r.Archive,
			Kind:         k,
			Format:       r.Format,
			Version:      r.Version,
			Checksum:     r.Checksum,
			Removed:      r.Removed,
			BitDepth:     r.BitDepth,
			Channels:     r.Channels,
			SamplingRate: r.SamplingRate,
			Duration:     r.Duration,
		})
	}
	return tbl, nil
}
