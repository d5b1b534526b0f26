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
	"strings"
)

// ClosingParen returns the index of the parenthesis closing the one at open.
// Escaped characters and character classes are skipped, so "(a\)b)" and
// "([)])" are balanced.
func ClosingParen(s string, open int) (int, error) {
	return closingParen(s, open)
}

func closingParen(s string, open int) (int, error) {
	if open >= len(s) || s[open] != '(' {
		return -1, ErrUnbalancedParens
	}

	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // skip escaped byte
		case '[':
			end := classEnd(s, i)
			if end < 0 {
				return -1, ErrUnbalancedParens
			}
			i = end
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return -1, ErrUnbalancedParens
}

// classEnd returns the index of the "]" that closes the class opened at i.
func classEnd(s string, i int) int {
	j := i + 1
	if j < len(s) && s[j] == '^' {
		j++
	}
	// A leading "]" is a literal.
	if j < len(s) && s[j] == ']' {
		j++
	}
	for ; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}

	return -1
}

const metaChars = `.[]{}*+?|^$()`

// translateRaw turns a raw expression into reverse template segments.
// Named groups become parameter segments; the expression is linkable only if
// everything else is literal text.
func translateRaw(expr string) ([]Segment, map[string]string, bool, error) {
	body := expr
	if strings.HasPrefix(body, "^") {
		body = body[1:]
	}
	if strings.HasSuffix(body, "$") && !strings.HasSuffix(body, `\$`) {
		body = body[:len(body)-1]
	}

	var (
		segments []Segment
		subs     = make(map[string]string)
		linkable = true
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = appendStatic(segments, literal.String())
			literal.Reset()
		}
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '(':
			end, err := closingParen(body, i)
			if err != nil {
				return nil, nil, false, err
			}
			name, sub, ok := namedGroup(body[i+1 : end])
			if !ok {
				linkable = false
				literal.WriteString(body[i : end+1])
				i = end
				continue
			}
			flush()
			segments = append(segments, Segment{Value: name})
			subs[name] = sub
			i = end
		case c == '\\' && i+1 < len(body):
			next := body[i+1]
			if isIdent(next) {
				// Class escapes like \d or \w.
				linkable = false
				literal.WriteByte(c)
			}
			literal.WriteByte(next)
			i++
		case strings.IndexByte(metaChars, c) >= 0:
			linkable = false
			literal.WriteByte(c)
		default:
			literal.WriteByte(c)
		}
	}
	flush()

	return segments, subs, linkable, nil
}

// namedGroup splits "?P<name>sub" or "?<name>sub".
func namedGroup(inner string) (name, sub string, ok bool) {
	switch {
	case strings.HasPrefix(inner, "?P<"):
		inner = inner[3:]
	case strings.HasPrefix(inner, "?<"):
		inner = inner[2:]
	default:
		return "", "", false
	}

	end := strings.IndexByte(inner, '>')
	if end <= 0 {
		return "", "", false
	}

	return inner[:end], inner[end+1:], true
}
