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

// Package linker builds URLs from callback targets (reverse routing).
//
// A route is a candidate for a target when one of its callback descriptors
// matches the target and every parameter of its pattern can be filled with a
// valid value. Values come from the caller and from the captures and
// wildcards of the target itself. Candidates are ranked by, in order:
//
//  1. edit distance between the descriptor finder and the target, lower first
//  2. position of the last wildcard in the finder, later first
//  3. parameter names shared with the caller, more first
//  4. difference between declared and supplied parameter counts, lower first
//  5. registration order
//
// An exact callback key, or a route name, is tried before ranking.
//
// Values the path does not use are appended as a query string sorted by key,
// which is where wildcard values for patterns like "/secure/*" end up.
package linker
