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

// Package callback parses callback descriptors.
//
// A descriptor names the target of a route:
//
//	Billing\Invoice::send        namespace, class and method
//	format_date                  plain function
//	*::*                         class and method taken from parameters
//	Billing\@kind(uc)::show      class captured from the "kind" parameter
//
// A segment is a literal identifier, the wildcard "*", or text containing
// inline captures "@name" or "@name(format)". Format is one of "u"
// (underscore, the default), "lc" (lower camel case) or "uc" (upper camel
// case). Parameter values are always in URL form ("report_list") and are
// formatted when the callback is resolved ("ReportList" for "uc").
//
// Wildcard segments read the parameter named after their role: "namespace",
// "class", "method" or "function".
//
// Resolve turns parameters into a concrete callback string for dispatch.
// Extract goes the other way and is used to build links.
package callback
