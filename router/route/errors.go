// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package route

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"moor.dev/moor/router/callback"
	"moor.dev/moor/router/compiler"
)

// Static errors for the route table.
var (
	ErrFrozen        = errors.New("route table is frozen")
	ErrParamMismatch = errors.New("callback and pattern parameters differ")
	ErrNoTarget      = errors.New("route has no target")
	ErrNoLink        = errors.New("no route can build the link")
	ErrBadSnapshot   = errors.New("compiled snapshot does not match the table")
)

// ErrorKind classifies configuration errors.
type ErrorKind uint8

const (
	KindInvalidPattern ErrorKind = iota
	KindDuplicateParam
	KindUnbalancedParens
	KindInvalidCallback
	KindUnknownFormat
	KindAmbiguousCaptures
	KindParamMismatch
	KindFrozen
	KindNoLink
)

var kindNames = [...]string{
	KindInvalidPattern:    "invalid_pattern",
	KindDuplicateParam:    "duplicate_param",
	KindUnbalancedParens:  "unbalanced_parens",
	KindInvalidCallback:   "invalid_callback",
	KindUnknownFormat:     "unknown_format",
	KindAmbiguousCaptures: "ambiguous_captures",
	KindParamMismatch:     "param_mismatch",
	KindFrozen:            "frozen",
	KindNoLink:            "no_link",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ConfigError is a fatal configuration error. It names the offending route
// and, where it applies, the offending parameters.
type ConfigError struct {
	Kind   ErrorKind
	Route  string   // pattern source or link target
	Params []string // offending parameter names
	Err    error
}

// Error implements error.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("moor: ")
	sb.WriteString(e.Kind.String())
	if e.Route != "" {
		fmt.Fprintf(&sb, " in %q", e.Route)
	}
	if len(e.Params) > 0 {
		fmt.Fprintf(&sb, " (params: %s)", strings.Join(e.Params, ", "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements the errors package ErrorType interface.
func (e *ConfigError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Code implements the errors package ErrorCode interface.
func (e *ConfigError) Code() string {
	return "moor." + e.Kind.String()
}

// newConfigError classifies err by the sentinel it wraps.
func newConfigError(source string, err error) *ConfigError {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce
	}

	kind := KindInvalidPattern
	switch {
	case errors.Is(err, compiler.ErrDuplicateParam):
		kind = KindDuplicateParam
	case errors.Is(err, compiler.ErrUnbalancedParens), errors.Is(err, callback.ErrUnbalancedParens):
		kind = KindUnbalancedParens
	case errors.Is(err, callback.ErrUnknownFormat):
		kind = KindUnknownFormat
	case errors.Is(err, callback.ErrAmbiguousCaptures):
		kind = KindAmbiguousCaptures
	case errors.Is(err, callback.ErrInvalidDescriptor), errors.Is(err, ErrNoTarget):
		kind = KindInvalidCallback
	case errors.Is(err, ErrParamMismatch):
		kind = KindParamMismatch
	case errors.Is(err, ErrFrozen):
		kind = KindFrozen
	case errors.Is(err, ErrNoLink):
		kind = KindNoLink
	}

	return &ConfigError{Kind: kind, Route: source, Err: err}
}

// NoLinkError reports that no route can build a link to target.
func NoLinkError(target string, params []string, cause error) *ConfigError {
	err := ErrNoLink
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrNoLink, cause)
	}

	return &ConfigError{Kind: KindNoLink, Route: target, Params: params, Err: err}
}
