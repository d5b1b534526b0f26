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
	"strings"
	"unicode"
)

// Format is the formatting rule of an inline capture.
// It selects both the pattern recognising the callback text and the transform
// applied to the URL value when the callback is resolved.
type Format uint8

const (
	FormatUnderscore Format = iota // report_list
	FormatLowerCamel               // reportList
	FormatUpperCamel               // ReportList
)

const (
	patternUnderscore = `[a-z_][0-9a-z_]*`
	patternLowerCamel = `[a-z][0-9A-Za-z]*`
	patternUpperCamel = `[A-Z][0-9A-Za-z]*`
)

// ParseFormat parses a format name. The empty name is FormatUnderscore.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "u":
		return FormatUnderscore, nil
	case "lc":
		return FormatLowerCamel, nil
	case "uc":
		return FormatUpperCamel, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// String returns the short format name.
func (f Format) String() string {
	switch f {
	case FormatLowerCamel:
		return "lc"
	case FormatUpperCamel:
		return "uc"
	default:
		return "u"
	}
}

// Pattern returns the regular expression fragment for callback text in f.
func (f Format) Pattern() string {
	switch f {
	case FormatLowerCamel:
		return patternLowerCamel
	case FormatUpperCamel:
		return patternUpperCamel
	default:
		return patternUnderscore
	}
}

// Apply converts a URL value into callback text.
func (f Format) Apply(value string) string {
	switch f {
	case FormatLowerCamel:
		return Camelize(value, false)
	case FormatUpperCamel:
		return Camelize(value, true)
	default:
		return Underscorize(value)
	}
}

// URL converts callback text back into its URL value.
func (f Format) URL(text string) string {
	return Underscorize(text)
}

// Camelize turns "report_list" into "reportList" or "ReportList".
func Camelize(s string, upperFirst bool) string {
	var sb strings.Builder
	sb.Grow(len(s))

	upper := upperFirst
	for _, r := range s {
		if r == '_' || r == '-' {
			if sb.Len() > 0 {
				upper = true
			}
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		if sb.Len() == 0 && !upperFirst {
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

// Underscorize turns "ReportList" or "reportList" into "report_list".
// Runs of capitals are kept together, so "HTMLPage" becomes "html_page".
func Underscorize(s string) string {
	runes := []rune(s)

	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range runes {
		if r == '-' {
			r = '_'
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}
