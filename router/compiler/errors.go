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

package compiler

import "errors"

// Static errors for pattern compilation and URL building.
var (
	ErrInvalidPattern   = errors.New("invalid route pattern")
	ErrUnbalancedParens = errors.New("unbalanced parentheses in sub-pattern")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrReservedName     = errors.New("parameter name uses reserved prefix " + ReservedPrefix)
	ErrNotLinkable      = errors.New("pattern cannot be reversed into a URL")
	ErrMissingParam     = errors.New("missing parameter value")
	ErrInvalidParam     = errors.New("parameter value does not match its pattern")
)
