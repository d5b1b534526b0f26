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

// Package semconv names the attributes shared by Moor's logs, metrics and
// traces, so a dashboard can join them on the same keys.
//
// HTTP keys follow the OpenTelemetry semantic conventions. Dispatch keys
// live under the "moor." namespace:
//
//	span.SetAttributes(
//	    attribute.String(semconv.HTTPRoute, res.Pattern()),
//	    attribute.String(semconv.Callback, res.Callback),
//	)
//
// Log records carry the same information under short keys, plus
// [TraceID] and [SpanID] for correlation with the dispatch span.
package semconv
