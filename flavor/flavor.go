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

// Package flavor implements audb's media flavor transform spec and its
// stable identifier (spec.md §4.5): a normalized description of the
// audio transform a load should apply (bit depth, channels, format,
// mixdown, sampling rate). The actual conversion is performed by a
// transform.Transformer from package transform.
//
// Grounded on the teacher's Flavor/FlavorVersion value objects
// (controlplane/chunk/flavor.go), which pair a named build variant with
// a stable ID; audb's Flavor plays the same role for a media transform
// instead of a resource-pack build variant.
package flavor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/audeon/audb/internal/xerrors"
	"github.com/audeon/audb/internal/xhash"
)

// allowedBitDepths are the bit depths audb can request a conversion to.
// 32 is only valid in combination with format "wav" (spec.md §4.5).
var allowedBitDepths = map[int]bool{8: true, 16: true, 24: true, 32: true}

var allowedFormats = map[string]bool{"wav": true, "flac": true}

// allowedSamplingRates maps every accepted sampling rate to its
// canonical value. 22500 is a deprecated alias for 22050 that older
// callers still send (spec.md §4.5).
var allowedSamplingRates = map[int]int{
	8000:  8000,
	16000: 16000,
	22050: 22050,
	22500: 22050,
	24000: 24000,
	44100: 44100,
	48000: 48000,
}

// Spec is a normalized media transform specification. The zero value
// means "no conversion, serve the original" (spec.md §4.5: "a nil
// flavor is a valid, maximally-permissive request").
type Spec struct {
	BitDepth     int
	// Channels is an ordered sequence of channel indices to keep, in the
	// order they should appear in the output. A negative index counts
	// from the last channel (spec.md §4.5). Empty means "keep all
	// channels, in original order".
	Channels     []int
	Format       string
	Mixdown      bool
	SamplingRate int
}

// Normalize resolves deprecated aliases (22500 -> 22050) and the
// mono-forces-no-mixdown rule, returning the canonical spec to hash and
// to hand to a Transformer. It does not mutate s.
func (s Spec) Normalize() Spec {
	out := s
	if canon, ok := allowedSamplingRates[s.SamplingRate]; ok {
		out.SamplingRate = canon
	}
	if len(s.Channels) == 1 {
		out.Mixdown = false
	}
	return out
}

// Validate checks the enumerated allowed-value constraints spec.md
// §4.5 places on a flavor spec: bit depth, format, sampling rate must
// be one of the accepted values (when set), and a 32-bit request is
// only valid paired with wav.
func (s Spec) Validate() error {
	if s.BitDepth != 0 && !allowedBitDepths[s.BitDepth] {
		return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("bit_depth %d is not one of 8, 16, 24, 32", s.BitDepth))
	}
	if s.Format != "" && !allowedFormats[strings.ToLower(s.Format)] {
		return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("format %q is not one of wav, flac", s.Format))
	}
	if s.BitDepth == 32 && strings.ToLower(s.Format) != "wav" {
		return xerrors.New(xerrors.KindInvalidArgument, "bit_depth 32 is only valid with format wav")
	}
	if s.SamplingRate != 0 {
		if _, ok := allowedSamplingRates[s.SamplingRate]; !ok {
			return xerrors.New(xerrors.KindInvalidArgument, fmt.Sprintf("sampling_rate %d is not a supported rate", s.SamplingRate))
		}
	}
	return nil
}

// IsOriginal reports whether s requests no conversion at all.
func (s Spec) IsOriginal() bool {
	return s.BitDepth == 0 && len(s.Channels) == 0 && s.Format == "" && !s.Mixdown && s.SamplingRate == 0
}

// normalized renders the spec as an ordered, canonical string so that
// two Specs with the same field values always hash to the same ID
// regardless of how the caller constructed them.
func (s Spec) normalized() string {
	channels := make([]string, len(s.Channels))
	for i, c := range s.Channels {
		channels[i] = strconv.Itoa(c)
	}

	fields := []string{
		"bit_depth=" + strconv.Itoa(s.BitDepth),
		"channels=" + strings.Join(channels, ","),
		"format=" + strings.ToLower(strings.TrimSpace(s.Format)),
		"mixdown=" + strconv.FormatBool(s.Mixdown),
		"sampling_rate=" + strconv.Itoa(s.SamplingRate),
	}
	sort.Strings(fields)
	return strings.Join(fields, "&")
}

// DefaultFlavorID is the designated id of the flavor with every field
// unset (spec.md §4.4, §3 Cache Layout): the untransformed original,
// used as its cache-directory component.
const DefaultFlavorID = "default"

// ID returns the flavor's stable, deterministic identifier: a short
// hash of the normalized spec (internal/xhash, matching the teacher's
// convention of deriving ids from content rather than assigning them).
// Two equal Specs always produce the same ID; the default flavor's ID
// is the designated string DefaultFlavorID rather than a hash, since it
// names a fixed point in the cache layout (spec.md §4.4).
func (s Spec) ID() string {
	if s.IsOriginal() {
		return DefaultFlavorID
	}
	return xhash.ShortString(s.Normalize().normalized())
}
