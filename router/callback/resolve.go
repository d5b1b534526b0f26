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
	"strings"
)

var (
	upperCamelRe = regexp.MustCompile("^" + patternUpperCamel + "$")
	lowerCamelRe = regexp.MustCompile("^" + patternLowerCamel + "$")
	underscoreRe = regexp.MustCompile("^" + patternUnderscore + "$")
)

func validFor(f Format, text string) bool {
	switch f {
	case FormatUpperCamel:
		return upperCamelRe.MatchString(text)
	case FormatLowerCamel:
		return lowerCamelRe.MatchString(text)
	default:
		return underscoreRe.MatchString(text)
	}
}

// Resolve builds the concrete callback string from parameter values.
// Capture values and wildcard values are given in URL form and formatted
// for their position; a value that cannot be formatted into a valid
// identifier fails resolution.
func (d *Descriptor) Resolve(params map[string]string) (string, error) {
	if !d.Dynamic() {
		return d.source, nil
	}

	var sb strings.Builder
	for i, seg := range d.segments {
		if i > 0 {
			if seg.Role == RoleMethod {
				sb.WriteString(MethodSeparator)
			} else {
				sb.WriteString(NamespaceSeparator)
			}
		}

		if seg.Wildcard {
			text, err := resolveWildcard(seg.Role, params)
			if err != nil {
				return "", fmt.Errorf("%w in %q", err, d.source)
			}
			sb.WriteString(text)

			continue
		}

		for _, piece := range seg.Pieces {
			if piece.Capture < 0 {
				sb.WriteString(piece.Literal)
				continue
			}
			c := d.captures[piece.Capture]
			v, ok := params[c.Name]
			if !ok || v == "" {
				return "", fmt.Errorf("%w: missing %q for %q", ErrUnresolved, c.Name, d.source)
			}
			text := c.Format.Apply(v)
			if !validFor(c.Format, text) {
				return "", fmt.Errorf("%w: %s=%q is not a valid %s identifier", ErrUnresolved, c.Name, v, c.Format)
			}
			sb.WriteString(text)
		}
	}

	resolved := sb.String()
	if !d.regex.MatchString(resolved) {
		return "", fmt.Errorf("%w: %q does not match %q", ErrUnresolved, resolved, d.source)
	}

	return resolved, nil
}

func resolveWildcard(role Role, params map[string]string) (string, error) {
	v, ok := params[role.String()]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %q", ErrUnresolved, role.String())
	}

	format := role.Format()
	if role != RoleNamespace {
		text := format.Apply(v)
		if !validFor(format, text) {
			return "", fmt.Errorf("%w: %s=%q", ErrUnresolved, role, v)
		}
		return text, nil
	}

	// Namespace values may span several levels: "billing/admin".
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %s=%q", ErrUnresolved, role, v)
	}
	for i, part := range parts {
		parts[i] = format.Apply(part)
		if !validFor(format, parts[i]) {
			return "", fmt.Errorf("%w: %s=%q", ErrUnresolved, role, v)
		}
	}

	return strings.Join(parts, NamespaceSeparator), nil
}

// Matches reports whether target is a concrete callback of d.
func (d *Descriptor) Matches(target string) bool {
	return d.regex.MatchString(target)
}

// Extract is the inverse of Resolve. It matches a concrete callback string
// and returns the URL-form values of every capture and wildcard.
func (d *Descriptor) Extract(target string) (map[string]string, error) {
	m := d.regex.FindStringSubmatch(target)
	if m == nil {
		return nil, fmt.Errorf("%w: %q against %q", ErrNoMatch, target, d.source)
	}

	values := make(map[string]string, len(d.captures)+len(d.wildcards))
	for _, c := range d.captures {
		v := c.Format.URL(m[d.regex.SubexpIndex(c.Group)])
		if prev, ok := values[c.Name]; ok && prev != v {
			return nil, fmt.Errorf("%w: conflicting values for %q", ErrNoMatch, c.Name)
		}
		values[c.Name] = v
	}
	for _, role := range d.wildcards {
		text := m[d.regex.SubexpIndex(role.group())]
		if role == RoleNamespace {
			parts := strings.Split(text, NamespaceSeparator)
			for i, part := range parts {
				parts[i] = Underscorize(part)
			}
			values[role.String()] = strings.Join(parts, "/")
			continue
		}
		values[role.String()] = Underscorize(text)
	}

	return values, nil
}

// Relative resolves a leading "*" marker in target against active, the
// callback currently being dispatched. "*::edit" keeps the namespace and
// class of active, "*\Other::show" keeps its namespace. Targets without the
// marker are returned unchanged.
func Relative(target, active string) (string, error) {
	if !IsRelative(target) {
		return target, nil
	}
	if active == "" {
		return "", fmt.Errorf("%w: %q outside of a dispatch", ErrRelative, target)
	}

	rest := target[len(Wildcard):]
	switch {
	case strings.HasPrefix(rest, MethodSeparator):
		head, _, ok := cutLast(active, MethodSeparator)
		if !ok {
			return "", fmt.Errorf("%w: %q has no class", ErrRelative, active)
		}
		return head + rest, nil
	case strings.HasPrefix(rest, NamespaceSeparator):
		head, _, _ := cutLast(active, MethodSeparator)
		ns, _, ok := cutLast(head, NamespaceSeparator)
		if !ok {
			return "", fmt.Errorf("%w: %q has no namespace", ErrRelative, active)
		}
		return ns + rest, nil
	}

	return "", fmt.Errorf("%w: %q", ErrRelative, target)
}

// IsRelative reports whether target starts with the relative marker.
func IsRelative(target string) bool {
	return strings.HasPrefix(target, Wildcard+MethodSeparator) ||
		strings.HasPrefix(target, Wildcard+NamespaceSeparator)
}
