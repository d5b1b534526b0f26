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

package callback

import "errors"

// Static errors for descriptor parsing and resolution.
var (
	ErrInvalidDescriptor = errors.New("invalid callback descriptor")
	ErrUnknownFormat     = errors.New("unknown capture format")
	ErrAmbiguousCaptures = errors.New("ambiguous juxtaposed captures")
	ErrUnbalancedParens  = errors.New("unbalanced parentheses in capture format")
	ErrUnresolved        = errors.New("callback cannot be resolved from parameters")
	ErrNoMatch           = errors.New("callback does not match descriptor")
	ErrRelative          = errors.New("relative callback cannot be resolved")
)
