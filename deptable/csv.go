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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/audeon/audb/internal/xerrors"
)

// legacy CSV column headers (spec.md §8: "a reader for the pre-Parquet
// CSV dependency table format must be retained for databases published
// by older clients").
var csvColumns = []string{
	"file", "archive", "kind", "format", "version", "checksum",
	"removed", "bit_depth", "channels", "sampling_rate", "duration",
}

// ReadCSV loads a legacy CSV-encoded dependency table.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "opening legacy csv dependency table", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvColumns)

	header, err := r.Read()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindCorrupt, "reading legacy csv header", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, want := range csvColumns {
		if _, ok := col[want]; !ok {
			return nil, xerrors.New(xerrors.KindCorrupt, fmt.Sprintf("legacy csv dependency table missing column %q", want))
		}
	}

	tbl := New()
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindCorrupt, "reading legacy csv row", err)
		}

		bitDepth, err := parseInt32(rec[col["bit_depth"]])
		if err != nil {
			return nil, err
		}
		channels, err := parseInt32(rec[col["channels"]])
		if err != nil {
			return nil, err
		}
		samplingRate, err := parseInt32(rec[col["sampling_rate"]])
		if err != nil {
			return nil, err
		}
		duration, err := strconv.ParseFloat(rec[col["duration"]], 64)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindCorrupt, "parsing legacy csv duration", err)
		}
		removed, err := strconv.ParseBool(rec[col["removed"]])
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindCorrupt, "parsing legacy csv removed flag", err)
		}

		k := Kind(rec[col["kind"]])
		switch k {
		case KindMeta, KindMedia, KindAttachment:
		default:
			return nil, xerrors.New(xerrors.KindCorrupt, fmt.Sprintf("legacy csv dependency table: unknown kind %q", rec[col["kind"]]))
		}

		tbl.append(Row{
			Path:         rec[col["file"]],
			Archive:      rec[col["archive"]],
			Kind:         k,
			Format:       rec[col["format"]],
			Version:      rec[col["version"]],
			Checksum:     rec[col["checksum"]],
			Removed:      removed,
			BitDepth:     bitDepth,
			Channels:     channels,
			SamplingRate: samplingRate,
			Duration:     duration,
		})
	}
	return tbl, nil
}

func parseInt32(s string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, xerrors.Wrap(xerrors.KindCorrupt, fmt.Sprintf("parsing legacy csv integer column %q", s), err)
	}
	return int32(v), nil
}
