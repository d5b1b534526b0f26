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
	"regexp"
	"strings"
)

const (
	// DefaultParamPattern is the sub-pattern used for ":name" tokens without
	// an inline sub-pattern.
	DefaultParamPattern = `[0-9A-Za-z_]+`

	// DefaultDigitParamPattern is the sub-pattern used for "#name" tokens.
	DefaultDigitParamPattern = `[0-9]+`

	// DefaultCallbackParamPattern is the sub-pattern used for "@name" tokens.
	// Values captured this way are turned into callback segments, so they are
	// restricted to the underscore form.
	DefaultCallbackParamPattern = `[a-z_][0-9a-z_]*`

	// RegexpSentinel marks a pattern source as a raw regular expression.
	RegexpSentinel = "regexp:"

	// ReservedPrefix is reserved for generated capture names.
	ReservedPrefix = "moor_"
)

// ParamKind tells where a pattern parameter is consumed.
type ParamKind uint8

const (
	// ParamPath is an ordinary ":name" parameter.
	ParamPath ParamKind = iota
	// ParamCallback is an "@name" parameter feeding a callback inline capture.
	ParamCallback
)

// Param describes one declared parameter of a pattern.
type Param struct {
	Name    string    `json:"name"`
	Kind    ParamKind `json:"kind"`
	Pattern string    `json:"pattern"` // sub-pattern without anchors
}

// Segment is one piece of the reverse template.
type Segment struct {
	Static bool   `json:"static"`
	Value  string `json:"value"` // static text or parameter name
}

// Options configures compilation.
type Options struct {
	// DefaultParamPattern replaces DefaultParamPattern when non-empty.
	DefaultParamPattern string
	// CallbackParamPattern replaces DefaultCallbackParamPattern when non-empty.
	CallbackParamPattern string
}

// Character classes of the tokens, repeated by a length quantifier such as
// ":code{2,4}".
const (
	pathClass     = `[0-9A-Za-z_]`
	digitClass    = `[0-9]`
	callbackClass = `[0-9a-z_]`
)

// quantifier matches a length quantifier directly after a token name.
var quantifier = regexp.MustCompile(`^\{[0-9]+(?:,[0-9]*)?\}`)

func tokenClass(sigil byte) string {
	switch sigil {
	case '#':
		return digitClass
	case '@':
		return callbackClass
	}
	return pathClass
}

func (o Options) paramPattern(kind ParamKind) string {
	if kind == ParamCallback {
		if o.CallbackParamPattern != "" {
			return o.CallbackParamPattern
		}
		return DefaultCallbackParamPattern
	}
	if o.DefaultParamPattern != "" {
		return o.DefaultParamPattern
	}
	return DefaultParamPattern
}

// Pattern is a compiled route pattern.
// It is immutable and safe for concurrent use.
type Pattern struct {
	source   string
	raw      bool
	expr     string
	regex    *regexp.Regexp
	params   []Param
	groups   []int // capture group index per param
	segments []Segment
	linkable bool

	// Validators per param, anchored.
	validators map[string]*regexp.Regexp
}

// Compile compiles a pattern source.
//
// Shorthand sources use ":name", "#name" (digits) and "@name" tokens, each
// optionally followed by a parenthesised sub-pattern or a length quantifier:
//
//	/users/:id
//	/users/:id(\d+)/posts/:slug
//	/archive/#year{4}/#month{1,2}
//	/@class/@method
//	/files/*
//
// A leading or trailing "*" drops the start or end anchor. A source that
// starts with RegexpSentinel, or with anything other than "/" or "*", is a
// raw regular expression whose named groups become the parameters.
func Compile(source string, opts Options) (*Pattern, error) {
	if IsRaw(source) {
		return compileRaw(source)
	}

	return compileShorthand(source, opts)
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts Options) *Pattern {
	p, err := Compile(source, opts)
	if err != nil {
		panic(fmt.Sprintf("compiler: %v", err))
	}

	return p
}

// IsRaw reports whether source is compiled as a raw regular expression.
func IsRaw(source string) bool {
	if strings.HasPrefix(source, RegexpSentinel) {
		return true
	}

	return source != "" && source[0] != '/' && source[0] != '*'
}

func compileShorthand(source string, opts Options) (*Pattern, error) {
	src := source
	anchorStart, anchorEnd := true, true
	if strings.HasPrefix(src, "*") {
		anchorStart = false
		src = src[1:]
	}
	if strings.HasSuffix(src, "*") {
		anchorEnd = false
		src = src[:len(src)-1]
	}

	if src == "" && anchorStart && anchorEnd {
		return compileRoot(source)
	}

	var (
		expr     strings.Builder
		literal  strings.Builder
		params   []Param
		segments []Segment
		seen     = make(map[string]bool)
	)

	flush := func() {
		if literal.Len() == 0 {
			return
		}
		text := literal.String()
		expr.WriteString(regexp.QuoteMeta(text))
		segments = appendStatic(segments, text)
		literal.Reset()
	}

	if anchorStart {
		expr.WriteByte('^')
	}

	lastSlash := false
	for i := 0; i < len(src); {
		c := src[i]
		if (c == ':' || c == '@' || c == '#') && i+1 < len(src) && isIdentStart(src[i+1]) {
			j := i + 1
			for j < len(src) && isIdent(src[j]) {
				j++
			}
			name := src[i+1 : j]
			kind := ParamPath
			if c == '@' {
				kind = ParamCallback
			}

			sub := ""
			switch {
			case j < len(src) && src[j] == '{':
				q := quantifier.FindString(src[j:])
				if q == "" {
					return nil, fmt.Errorf("%w: malformed length quantifier for %q in %q", ErrInvalidPattern, name, source)
				}
				sub = tokenClass(c) + q
				j += len(q)
				if j < len(src) && src[j] == '(' {
					return nil, fmt.Errorf("%w: %q has both a quantifier and a sub-pattern in %q", ErrInvalidPattern, name, source)
				}
			case c == '#' && (j >= len(src) || src[j] != '('):
				sub = DefaultDigitParamPattern
			}
			if sub == "" && j < len(src) && src[j] == '(' {
				end, err := closingParen(src, j)
				if err != nil {
					return nil, fmt.Errorf("%w: %q", err, source)
				}
				sub = src[j+1 : end]
				if sub == "" {
					return nil, fmt.Errorf("%w: empty sub-pattern for %q in %q", ErrInvalidPattern, name, source)
				}
				j = end + 1
			}

			if strings.HasPrefix(name, ReservedPrefix) {
				return nil, fmt.Errorf("%w: %q in %q", ErrReservedName, name, source)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, source)
			}
			seen[name] = true

			if sub == "" {
				sub = opts.paramPattern(kind)
			}

			flush()
			expr.WriteString("(?P<")
			expr.WriteString(name)
			expr.WriteString(">")
			expr.WriteString(sub)
			expr.WriteString(")")
			params = append(params, Param{Name: name, Kind: kind, Pattern: sub})
			segments = append(segments, Segment{Value: name})
			lastSlash = false
			i = j

			continue
		}

		// Squeeze repeated slashes.
		if c == '/' {
			if lastSlash {
				i++
				continue
			}
			lastSlash = true
		} else {
			lastSlash = false
		}
		literal.WriteByte(c)
		i++
	}
	flush()

	if anchorEnd {
		expr.WriteByte('$')
	}

	p := &Pattern{
		source:   source,
		expr:     expr.String(),
		params:   params,
		segments: segments,
		linkable: true,
	}
	if err := p.init(); err != nil {
		return nil, err
	}

	return p, nil
}

// compileRoot matches the empty path and "/".
func compileRoot(source string) (*Pattern, error) {
	p := &Pattern{
		source:   source,
		expr:     "^/?$",
		segments: []Segment{{Static: true, Value: "/"}},
		linkable: true,
	}
	if err := p.init(); err != nil {
		return nil, err
	}

	return p, nil
}

func compileRaw(source string) (*Pattern, error) {
	expr := strings.TrimPrefix(source, RegexpSentinel)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	seen := make(map[string]bool)
	var params []Param
	for _, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, ReservedPrefix) {
			return nil, fmt.Errorf("%w: %q in %q", ErrReservedName, name, source)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, source)
		}
		seen[name] = true
		params = append(params, Param{Name: name, Kind: ParamPath})
	}

	segments, subs, linkable, err := translateRaw(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, source)
	}
	for i := range params {
		params[i].Pattern = subs[params[i].Name]
	}

	p := &Pattern{
		source:   source,
		raw:      true,
		expr:     expr,
		params:   params,
		segments: segments,
		linkable: linkable,
	}
	if err := p.init(); err != nil {
		return nil, err
	}

	return p, nil
}

// init compiles the expression and resolves capture group indexes.
func (p *Pattern) init() error {
	re, err := regexp.Compile(p.expr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	p.regex = re

	// Sub-patterns may carry their own groups; names must stay unique.
	declared := make(map[string]bool, len(p.params))
	for _, param := range p.params {
		declared[param.Name] = true
	}
	counts := make(map[string]int)
	for _, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		if !declared[name] {
			return fmt.Errorf("%w: stray named group %q in %q", ErrInvalidPattern, name, p.source)
		}
		counts[name]++
		if counts[name] > 1 {
			return fmt.Errorf("%w: %q in %q", ErrDuplicateParam, name, p.source)
		}
	}

	p.groups = make([]int, len(p.params))
	p.validators = make(map[string]*regexp.Regexp, len(p.params))
	for i, param := range p.params {
		p.groups[i] = re.SubexpIndex(param.Name)
		if param.Pattern == "" {
			continue
		}
		v, err := regexp.Compile("^(?:" + param.Pattern + ")$")
		if err != nil {
			return fmt.Errorf("%w: parameter %q: %v", ErrInvalidPattern, param.Name, err)
		}
		p.validators[param.Name] = v
	}

	return nil
}

// Source returns the pattern source as registered.
func (p *Pattern) Source() string {
	return p.source
}

// Raw reports whether the pattern was given as a raw regular expression.
func (p *Pattern) Raw() bool {
	return p.raw
}

// Regexp returns the compiled match expression.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.regex
}

// Expr returns the match expression source.
func (p *Pattern) Expr() string {
	return p.expr
}

// Params returns the declared parameters in capture order.
func (p *Pattern) Params() []Param {
	return p.params
}

// ParamNames returns the parameter names in capture order.
func (p *Pattern) ParamNames() []string {
	names := make([]string, len(p.params))
	for i, param := range p.params {
		names[i] = param.Name
	}

	return names
}

// CallbackParams returns the names declared with "@".
func (p *Pattern) CallbackParams() []string {
	var names []string
	for _, param := range p.params {
		if param.Kind == ParamCallback {
			names = append(names, param.Name)
		}
	}

	return names
}

// HasParam reports whether name is declared by the pattern.
func (p *Pattern) HasParam(name string) bool {
	for _, param := range p.params {
		if param.Name == name {
			return true
		}
	}

	return false
}

// Segments returns the reverse template segments.
func (p *Pattern) Segments() []Segment {
	return p.segments
}

// Template returns the reverse template in colon shorthand, e.g. "/users/:id".
// Anchor wildcards are not part of the template.
func (p *Pattern) Template() string {
	var sb strings.Builder
	for _, seg := range p.segments {
		if seg.Static {
			sb.WriteString(seg.Value)
			continue
		}
		sb.WriteByte(':')
		sb.WriteString(seg.Value)
	}

	return sb.String()
}

// Linkable reports whether URLs can be built from the pattern.
func (p *Pattern) Linkable() bool {
	return p.linkable
}

// Valid reports whether value satisfies the sub-pattern of param name.
// Unknown names are never valid.
func (p *Pattern) Valid(name, value string) bool {
	v, ok := p.validators[name]
	if !ok {
		return p.HasParam(name)
	}

	return v.MatchString(value)
}

func appendStatic(segments []Segment, text string) []Segment {
	if n := len(segments); n > 0 && segments[n-1].Static {
		segments[n-1].Value += text
		return segments
	}

	return append(segments, Segment{Static: true, Value: text})
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
