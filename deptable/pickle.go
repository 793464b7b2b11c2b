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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/audeon/audb/internal/xerrors"
)

// ReadPickle loads the oldest legacy dependency table format: a pickled
// list of row dicts, written by a much earlier audb release before the
// CSV format existed. There is no Go pickle library anywhere in the
// examined ecosystem, so this implements only the narrow opcode subset
// that release actually emitted (protocol 2, a single top-level LIST of
// DICT objects with string/bool/int/float/None values) and rejects
// anything else as corrupt rather than attempting general unpickling.
func ReadPickle(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindIO, "opening legacy pickle dependency table", err)
	}
	defer f.Close()

	dec := &pickleDecoder{r: bufio.NewReader(f)}
	rows, err := dec.decode()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindCorrupt, "decoding legacy pickle dependency table", err)
	}

	tbl := New()
	for _, raw := range rows {
		row, err := rowFromPickleDict(raw)
		if err != nil {
			return nil, err
		}
		tbl.append(row)
	}
	return tbl, nil
}

func rowFromPickleDict(m map[string]any) (Row, error) {
	str := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	i32 := func(key string) int32 {
		switch v := m[key].(type) {
		case int64:
			return int32(v)
		case float64:
			return int32(v)
		default:
			return 0
		}
	}
	f64 := func(key string) float64 {
		switch v := m[key].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		default:
			return 0
		}
	}
	b := func(key string) bool {
		v, _ := m[key].(bool)
		return v
	}

	k := Kind(str("kind"))
	switch k {
	case KindMeta, KindMedia, KindAttachment:
	default:
		return Row{}, xerrors.New(xerrors.KindCorrupt, fmt.Sprintf("legacy pickle dependency table: unknown kind %q", str("kind")))
	}

	return Row{
		Path:         str("file"),
		Archive:      str("archive"),
		Kind:         k,
		Format:       str("format"),
		Version:      str("version"),
		Checksum:     str("checksum"),
		Removed:      b("removed"),
		BitDepth:     i32("bit_depth"),
		Channels:     i32("channels"),
		SamplingRate: i32("sampling_rate"),
		Duration:     f64("duration"),
	}, nil
}

// pickle protocol 2 opcodes this reader understands.
const (
	opProto     = 0x80
	opFrame     = 0x95
	opEmptyDict = '}'
	opEmptyList = ']'
	opMark      = '('
	opBinPut    = 'q'
	opLongBinPut = 'r'
	opBinGet    = 'h'
	opLongBinGet = 'j'
	opAppend    = 'a'
	opAppends   = 'e'
	opSetItems  = 'u'
	opSetItem   = 's'
	opBinUnicode = 'X'
	opShortBinUnicode = 0x8c
	opBinInt1   = 'K'
	opBinInt2   = 'M'
	opBinInt    = 'J'
	opBinFloat  = 'G'
	opNewTrue   = 0x88
	opNewFalse  = 0x89
	opNone      = 'N'
	opStop      = '.'
	opTuple     = 't'
	opTuple2    = 0x86
	opTuple3    = 0x87
)

type pickleDecoder struct {
	r     *bufio.Reader
	stack []any
	memo  map[int]any
}

func (d *pickleDecoder) decode() ([]map[string]any, error) {
	d.memo = make(map[int]any)

	for {
		op, err := d.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, xerrors.New(xerrors.KindCorrupt, "truncated pickle stream")
			}
			return nil, err
		}

		switch op {
		case opProto:
			if _, err := d.r.ReadByte(); err != nil {
				return nil, err
			}
		case opFrame:
			var n uint64
			if err := binary.Read(d.r, binary.LittleEndian, &n); err != nil {
				return nil, err
			}
		case opMark:
			d.push(markObj{})
		case opEmptyDict:
			d.push(map[string]any{})
		case opEmptyList:
			d.push([]any{})
		case opBinUnicode:
			var n uint32
			if err := binary.Read(d.r, binary.LittleEndian, &n); err != nil {
				return nil, err
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(d.r, buf); err != nil {
				return nil, err
			}
			d.push(string(buf))
		case opShortBinUnicode:
			n, err := d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(d.r, buf); err != nil {
				return nil, err
			}
			d.push(string(buf))
		case opBinInt1:
			b, err := d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			d.push(int64(b))
		case opBinInt2:
			var v uint16
			if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			d.push(int64(v))
		case opBinInt:
			var v int32
			if err := binary.Read(d.r, binary.LittleEndian, &v); err != nil {
				return nil, err
			}
			d.push(int64(v))
		case opBinFloat:
			var v uint64
			if err := binary.Read(d.r, binary.BigEndian, &v); err != nil {
				return nil, err
			}
			d.push(math.Float64frombits(v))
		case opNewTrue:
			d.push(true)
		case opNewFalse:
			d.push(false)
		case opNone:
			d.push(nil)
		case opBinPut:
			if _, err := d.r.ReadByte(); err != nil {
				return nil, err
			}
		case opLongBinPut:
			if _, err := io.CopyN(io.Discard, d.r, 4); err != nil {
				return nil, err
			}
		case opBinGet, opLongBinGet:
			return nil, xerrors.New(xerrors.KindCorrupt, "legacy pickle dependency table uses memo references, which this narrow reader does not support")
		case opSetItem:
			v := d.pop()
			k := d.pop()
			dict := d.top().(map[string]any)
			ks, _ := k.(string)
			dict[ks] = v
		case opSetItems:
			d.applyMarked(func(items []any) {
				dict := d.top().(map[string]any)
				for i := 0; i+1 < len(items); i += 2 {
					ks, _ := items[i].(string)
					dict[ks] = items[i+1]
				}
			})
		case opAppend:
			v := d.pop()
			list := d.top().([]any)
			list = append(list, v)
			d.stack[len(d.stack)-1] = list
		case opAppends:
			d.applyMarked(func(items []any) {
				list := d.top().([]any)
				list = append(list, items...)
				d.stack[len(d.stack)-1] = list
			})
		case opTuple, opTuple2, opTuple3:
			return nil, xerrors.New(xerrors.KindCorrupt, "legacy pickle dependency table contains tuples, which this narrow reader does not support")
		case opStop:
			top := d.pop()
			list, ok := top.([]any)
			if !ok {
				return nil, xerrors.New(xerrors.KindCorrupt, "legacy pickle dependency table root is not a list")
			}
			rows := make([]map[string]any, 0, len(list))
			for _, item := range list {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, xerrors.New(xerrors.KindCorrupt, "legacy pickle dependency table row is not a dict")
				}
				rows = append(rows, m)
			}
			return rows, nil
		default:
			return nil, xerrors.New(xerrors.KindCorrupt, fmt.Sprintf("legacy pickle dependency table uses unsupported opcode 0x%02x", op))
		}
	}
}

type markObj struct{}

func (d *pickleDecoder) push(v any) { d.stack = append(d.stack, v) }

func (d *pickleDecoder) pop() any {
	v := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return v
}

func (d *pickleDecoder) top() any {
	return d.stack[len(d.stack)-1]
}

// applyMarked pops everything back to the last MARK, hands the
// collected items to fn, and leaves the stack with the MARK also
// popped.
func (d *pickleDecoder) applyMarked(fn func(items []any)) {
	i := len(d.stack) - 1
	for i >= 0 {
		if _, ok := d.stack[i].(markObj); ok {
			break
		}
		i--
	}
	items := append([]any(nil), d.stack[i+1:]...)
	d.stack = d.stack[:i]
	fn(items)
}

