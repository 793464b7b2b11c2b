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

package xerrors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LoadError reports a partially-failed load (spec.md §4.7, §7): some
// files materialized successfully while others did not. Failed lists
// the paths that could not be fetched, unpacked, or transformed; Err
// aggregates the underlying per-file causes via hashicorp/go-multierror
// so callers can inspect each one.
type LoadError struct {
	Failed []string
	Err    *multierror.Error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: failed to load %d file(s): %s", KindLoadError, len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *LoadError) Unwrap() error {
	return e.Err.ErrorOrNil()
}

func (e *LoadError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindLoadError
}

// NewLoadError builds a LoadError from the accumulated per-path
// failures, or returns nil if failures is empty.
func NewLoadError(failures map[string]error) *LoadError {
	if len(failures) == 0 {
		return nil
	}
	le := &LoadError{Failed: make([]string, 0, len(failures))}
	for path, err := range failures {
		le.Failed = append(le.Failed, path)
		le.Err = multierror.Append(le.Err, fmt.Errorf("%s: %w", path, err))
	}
	return le
}

// FlavorError reports a failed media transform (spec.md §4.5, §7).
type FlavorError struct {
	Path  string
	Cause error
}

func (e *FlavorError) Error() string {
	return fmt.Sprintf("%s: transforming %s: %v", KindFlavorError, e.Path, e.Cause)
}

func (e *FlavorError) Unwrap() error {
	return e.Cause
}

func (e *FlavorError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == KindFlavorError
}
