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

// Snapshot is the serialisable form of a compiled Pattern.
type Snapshot struct {
	Source   string    `json:"source"`
	Raw      bool      `json:"raw,omitempty"`
	Expr     string    `json:"expr"`
	Params   []Param   `json:"params,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
	Linkable bool      `json:"linkable"`
}

// Snapshot returns the serialisable form of p.
func (p *Pattern) Snapshot() Snapshot {
	return Snapshot{
		Source:   p.source,
		Raw:      p.raw,
		Expr:     p.expr,
		Params:   append([]Param(nil), p.params...),
		Segments: append([]Segment(nil), p.segments...),
		Linkable: p.linkable,
	}
}

// FromSnapshot rebuilds a Pattern without re-parsing its source.
// The expression is still compiled and checked.
func FromSnapshot(s Snapshot) (*Pattern, error) {
	p := &Pattern{
		source:   s.Source,
		raw:      s.Raw,
		expr:     s.Expr,
		params:   append([]Param(nil), s.Params...),
		segments: append([]Segment(nil), s.Segments...),
		linkable: s.Linkable,
	}
	if err := p.init(); err != nil {
		return nil, err
	}

	return p, nil
}
