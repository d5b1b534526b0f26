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

import (
	"fmt"
	"net/url"
	"strings"
)

// ParamWriter receives captured parameters.
// This avoids import cycles by not importing router.Context directly.
type ParamWriter interface {
	SetParam(index int, key, value string)
	SetParamCount(count int32)
}

// MatchTo matches path and writes captured parameters to w.
// Groups that did not participate in the match are not written.
func (p *Pattern) MatchTo(path string, w ParamWriter) bool {
	loc := p.regex.FindStringSubmatchIndex(path)
	if loc == nil {
		return false
	}

	var count int32
	for i, param := range p.params {
		g := p.groups[i]
		if g < 0 || loc[2*g] < 0 {
			continue
		}
		w.SetParam(i, param.Name, path[loc[2*g]:loc[2*g+1]])
		count++
	}
	w.SetParamCount(count)

	return true
}

// Match matches path and returns the captured parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := make(mapWriter, len(p.params))
	if !p.MatchTo(path, m) {
		return nil, false
	}

	return m, true
}

type mapWriter map[string]string

func (m mapWriter) SetParam(_ int, key, value string) { m[key] = value }
func (m mapWriter) SetParamCount(int32)               {}

// Build fills the reverse template with values and returns the path and the
// names it consumed. Every parameter in the template must be supplied and
// satisfy its sub-pattern. Values are percent-encoded per path segment.
func (p *Pattern) Build(values map[string]string) (string, []string, error) {
	if !p.linkable {
		return "", nil, fmt.Errorf("%w: %q", ErrNotLinkable, p.source)
	}

	var (
		sb   strings.Builder
		used = make([]string, 0, len(p.params))
	)
	for _, seg := range p.segments {
		if seg.Static {
			sb.WriteString(seg.Value)
			continue
		}
		v, ok := values[seg.Value]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrMissingParam, seg.Value)
		}
		if !p.Valid(seg.Value, v) {
			return "", nil, fmt.Errorf("%w: %s=%q", ErrInvalidParam, seg.Value, v)
		}
		sb.WriteString(escapePath(v))
		used = append(used, seg.Value)
	}

	if sb.Len() == 0 {
		return "/", used, nil
	}

	return sb.String(), used, nil
}

// CanBuild reports whether values can fill every template parameter.
func (p *Pattern) CanBuild(values map[string]string) bool {
	if !p.linkable {
		return false
	}
	for _, seg := range p.segments {
		if seg.Static {
			continue
		}
		v, ok := values[seg.Value]
		if !ok || !p.Valid(seg.Value, v) {
			return false
		}
	}

	return true
}

func escapePath(v string) string {
	if !strings.Contains(v, "/") {
		return url.PathEscape(v)
	}

	parts := strings.Split(v, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}

	return strings.Join(parts, "/")
}
