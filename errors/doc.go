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

// Package errors formats errors as HTTP responses.
//
// Two formats are provided:
//   - RFC9457: RFC 9457 Problem Details (application/problem+json)
//   - Simple: a flat JSON object (application/json)
//
// The router uses RFC9457 by default for not-found responses, for
// configuration errors surfacing through ServeHTTP, and for unhandled
// handler errors. Errors control the output through optional interfaces:
//
//   - ErrorType: declare the HTTP status code
//   - ErrorCode: provide a machine readable code, also used as problem type
//   - ErrorDetails: provide structured details
//   - ErrorExtensions: add top level members
//
// Write encodes a Response onto an http.ResponseWriter:
//
//	formatter := errors.NewRFC9457("https://moor.dev/problems")
//	if err := errors.Write(w, formatter.Format(r, err)); err != nil {
//		logger.Warn("write failed", "error", err)
//	}
package errors
