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

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// NamespaceSeparator separates namespace parts and the class or function.
	NamespaceSeparator = `\`
	// MethodSeparator separates the class from the method.
	MethodSeparator = "::"
	// Wildcard is both the wildcard segment and the finder glyph.
	Wildcard = "*"

	// CaptureGroupPrefix prefixes generated capture group names.
	CaptureGroupPrefix = "moor_cb"
)

// Role is the logical position of a descriptor segment.
type Role uint8

const (
	RoleNamespace Role = iota
	RoleClass
	RoleMethod
	RoleFunction
)

// String returns the role name. It is also the parameter a wildcard segment
// of that role is filled from.
func (r Role) String() string {
	switch r {
	case RoleNamespace:
		return "namespace"
	case RoleClass:
		return "class"
	case RoleMethod:
		return "method"
	default:
		return "function"
	}
}

// Format returns the format wildcard values of the role are written in.
func (r Role) Format() Format {
	switch r {
	case RoleNamespace, RoleClass:
		return FormatUpperCamel
	case RoleMethod:
		return FormatLowerCamel
	default:
		return FormatUnderscore
	}
}

func (r Role) group() string {
	return "moor_w_" + r.String()
}

// Capture is an inline capture "@name" or "@name(format)".
type Capture struct {
	Name   string // route parameter supplying the value
	Group  string // generated group name, e.g. moor_cb0
	Format Format
	Role   Role
}

// Piece is literal text or a reference into Descriptor.Captures.
type Piece struct {
	Literal string
	Capture int // index into captures, -1 for literal text
}

// Segment is one namespace part, the class, the method or the function.
type Segment struct {
	Role     Role
	Wildcard bool
	Pieces   []Piece
}

// Descriptor is a parsed callback string. It is immutable.
type Descriptor struct {
	source    string
	segments  []Segment
	captures  []Capture
	regex     *regexp.Regexp
	finder    string
	shorthand string
	wildcards []Role
	lastWild  int
}

// Parse parses a callback string such as "Billing\Invoice::send",
// "*::*" or "Billing\@action(lc)".
func Parse(source string) (*Descriptor, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDescriptor)
	}

	head, method, hasMethod := cutLast(source, MethodSeparator)
	parts := strings.Split(head, NamespaceSeparator)

	d := &Descriptor{source: source}
	for i, part := range parts {
		role := RoleNamespace
		if i == len(parts)-1 {
			role = RoleFunction
			if hasMethod {
				role = RoleClass
			}
		}
		if err := d.addSegment(part, role); err != nil {
			return nil, err
		}
	}
	if hasMethod {
		if err := d.addSegment(method, RoleMethod); err != nil {
			return nil, err
		}
	}

	if err := d.build(); err != nil {
		return nil, err
	}

	return d, nil
}

// MustParse is like Parse but panics on error.
func MustParse(source string) *Descriptor {
	d, err := Parse(source)
	if err != nil {
		panic(fmt.Sprintf("callback: %v", err))
	}

	return d
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}

	return s, "", false
}

func (d *Descriptor) addSegment(text string, role Role) error {
	if text == "" {
		return fmt.Errorf("%w: empty %s in %q", ErrInvalidDescriptor, role, d.source)
	}

	if text == Wildcard {
		for _, r := range d.wildcards {
			if r == role {
				return fmt.Errorf("%w: more than one %s wildcard in %q", ErrAmbiguousCaptures, role, d.source)
			}
		}
		d.segments = append(d.segments, Segment{Role: role, Wildcard: true})
		d.wildcards = append(d.wildcards, role)

		return nil
	}

	seg := Segment{Role: role}
	var literal strings.Builder
	prevCapture := false
	for i := 0; i < len(text); {
		c := text[i]
		if c == '@' && i+1 < len(text) && isIdentStart(text[i+1]) {
			if prevCapture {
				return fmt.Errorf("%w: in %q", ErrAmbiguousCaptures, d.source)
			}
			j := i + 1
			for j < len(text) && isIdent(text[j]) {
				j++
			}
			name := text[i+1 : j]

			format := FormatUnderscore
			if j < len(text) && text[j] == '(' {
				end := strings.IndexByte(text[j:], ')')
				if end < 0 {
					return fmt.Errorf("%w: %q", ErrUnbalancedParens, d.source)
				}
				f, err := ParseFormat(text[j+1 : j+end])
				if err != nil {
					return fmt.Errorf("%w in %q", err, d.source)
				}
				format = f
				j += end + 1
			}

			if literal.Len() > 0 {
				seg.Pieces = append(seg.Pieces, Piece{Literal: literal.String(), Capture: -1})
				literal.Reset()
			}
			idx := len(d.captures)
			d.captures = append(d.captures, Capture{
				Name:   name,
				Group:  CaptureGroupPrefix + strconv.Itoa(idx),
				Format: format,
				Role:   role,
			})
			seg.Pieces = append(seg.Pieces, Piece{Capture: idx})
			prevCapture = true
			i = j

			continue
		}

		if !isIdent(c) {
			return fmt.Errorf("%w: unexpected %q in %q", ErrInvalidDescriptor, c, d.source)
		}
		literal.WriteByte(c)
		prevCapture = false
		i++
	}
	if literal.Len() > 0 {
		seg.Pieces = append(seg.Pieces, Piece{Literal: literal.String(), Capture: -1})
	}

	d.segments = append(d.segments, seg)

	return nil
}

// build derives the match expression, the finder and the shorthand.
func (d *Descriptor) build() error {
	var expr, finder, short strings.Builder
	expr.WriteByte('^')

	for i, seg := range d.segments {
		if i > 0 {
			sep := NamespaceSeparator
			if seg.Role == RoleMethod {
				sep = MethodSeparator
			}
			expr.WriteString(regexp.QuoteMeta(sep))
			finder.WriteString(sep)
			short.WriteString(sep)
		}

		if seg.Wildcard {
			expr.WriteString("(?P<")
			expr.WriteString(seg.Role.group())
			expr.WriteString(">")
			expr.WriteString(wildcardPattern(seg.Role))
			expr.WriteString(")")
			finder.WriteString(Wildcard)
			short.WriteString(Wildcard)
			d.lastWild = finder.Len()

			continue
		}

		for _, piece := range seg.Pieces {
			if piece.Capture < 0 {
				expr.WriteString(regexp.QuoteMeta(piece.Literal))
				finder.WriteString(piece.Literal)
				short.WriteString(piece.Literal)
				continue
			}
			c := d.captures[piece.Capture]
			expr.WriteString("(?P<")
			expr.WriteString(c.Group)
			expr.WriteString(">")
			expr.WriteString(c.Format.Pattern())
			expr.WriteString(")")
			finder.WriteString(Wildcard)
			short.WriteString("{" + c.Group + "}")
			d.lastWild = finder.Len()
		}
	}
	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	d.regex = re
	d.finder = finder.String()
	d.shorthand = short.String()
	if d.lastWild == 0 {
		// No wildcard: more specific than any wildcard position.
		d.lastWild = len(d.finder) + 1
	}

	return nil
}

func wildcardPattern(role Role) string {
	if role == RoleNamespace {
		p := role.Format().Pattern()
		return p + `(?:\\` + p + `)*`
	}

	return role.Format().Pattern()
}

// Key returns the descriptor source text.
func (d *Descriptor) Key() string {
	return d.source
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	return d.source
}

// MatchRegexp returns the anchored expression recognising concrete callbacks.
func (d *Descriptor) MatchRegexp() *regexp.Regexp {
	return d.regex
}

// Finder returns the source with captures and wildcards collapsed to "*".
func (d *Descriptor) Finder() string {
	return d.finder
}

// Shorthand returns the source with each capture replaced by "{group}".
func (d *Descriptor) Shorthand() string {
	return d.shorthand
}

// Segments returns the parsed segments.
func (d *Descriptor) Segments() []Segment {
	return d.segments
}

// Captures returns the inline captures in source order.
func (d *Descriptor) Captures() []Capture {
	return d.captures
}

// CaptureNames returns the parameter names of the inline captures.
func (d *Descriptor) CaptureNames() []string {
	names := make([]string, 0, len(d.captures))
	for _, c := range d.captures {
		names = append(names, c.Name)
	}

	return names
}

// Wildcards returns the roles of the wildcard segments.
func (d *Descriptor) Wildcards() []Role {
	return d.wildcards
}

// Dynamic reports whether the descriptor has captures or wildcards.
func (d *Descriptor) Dynamic() bool {
	return len(d.captures) > 0 || len(d.wildcards) > 0
}

// LastWildcard returns the byte offset just past the last wildcard glyph in
// the finder, or len(finder)+1 when there is none.
func (d *Descriptor) LastWildcard() int {
	return d.lastWild
}

// Params returns the parameter names the descriptor reads when resolved.
func (d *Descriptor) Params() []string {
	names := d.CaptureNames()
	for _, r := range d.wildcards {
		names = append(names, r.String())
	}

	return names
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
