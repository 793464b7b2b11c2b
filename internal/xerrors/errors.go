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

// Package xerrors defines the error kinds surfaced across audb's public
// API (spec.md §7). It mirrors the teacher's typed-error shape
// (controlplane/errors.Error: a struct with a message and a classifying
// code) without the gRPC status mapping, since audb has no RPC transport
// in its core contract.
package xerrors

import "fmt"

// Kind classifies an error for callers that need to branch on failure
// mode (e.g. the CLI deciding on an exit code, or a caller retrying on
// Network but not on InvalidArgument).
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidArgument      Kind = "invalid_argument"
	KindNetwork              Kind = "network"
	KindAuth                 Kind = "auth"
	KindCorrupt              Kind = "corrupt"
	KindLockTimeout          Kind = "lock_timeout"
	KindUnsupportedBackend   Kind = "unsupported_backend"
	KindUnsupportedConversion Kind = "unsupported_conversion"
	KindFlavorError          Kind = "flavor_error"
	KindLoadError            Kind = "load_error"
	KindIO                   Kind = "io_error"
)

// Error is the concrete error type returned by audb's packages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, xerrors.New(KindNotFound, "")) style kind
// checks without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of reports the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if asError(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Sentinel kind markers usable with errors.Is, e.g.:
//
//	if errors.Is(err, xerrors.NotFound) { ... }
var (
	NotFound             = New(KindNotFound, "")
	InvalidArgument      = New(KindInvalidArgument, "")
	Network              = New(KindNetwork, "")
	Auth                 = New(KindAuth, "")
	Corrupt              = New(KindCorrupt, "")
	LockTimeout          = New(KindLockTimeout, "")
	UnsupportedBackend   = New(KindUnsupportedBackend, "")
	UnsupportedConversion = New(KindUnsupportedConversion, "")
	FlavorErr            = New(KindFlavorError, "")
	LoadErr              = New(KindLoadError, "")
	IOError              = New(KindIO, "")
)
