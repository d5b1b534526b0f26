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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		source        string
		wantExpr      string
		wantFinder    string
		wantShorthand string
		wantCaptures  []string
		wantWildcards []Role
	}{
		{
			name:          "class method",
			source:        `Billing\Invoice::send`,
			wantExpr:      `^Billing\\Invoice::send$`,
			wantFinder:    `Billing\Invoice::send`,
			wantShorthand: `Billing\Invoice::send`,
		},
		{
			name:          "function",
			source:        "format_date",
			wantExpr:      `^format_date$`,
			wantFinder:    "format_date",
			wantShorthand: "format_date",
		},
		{
			name:          "wildcards",
			source:        "*::*",
			wantExpr:      `^(?P<moor_w_class>[A-Z][0-9A-Za-z]*)::(?P<moor_w_method>[a-z][0-9A-Za-z]*)$`,
			wantFinder:    "*::*",
			wantShorthand: "*::*",
			wantWildcards: []Role{RoleClass, RoleMethod},
		},
		{
			name:          "capture with format",
			source:        `Billing\@action(lc)`,
			wantExpr:      `^Billing\\(?P<moor_cb0>[a-z][0-9A-Za-z]*)$`,
			wantFinder:    `Billing\*`,
			wantShorthand: `Billing\{moor_cb0}`,
			wantCaptures:  []string{"action"},
		},
		{
			name:          "default format",
			source:        `Reports\Report::@view`,
			wantExpr:      `^Reports\\Report::(?P<moor_cb0>[a-z_][0-9a-z_]*)$`,
			wantFinder:    `Reports\Report::*`,
			wantShorthand: `Reports\Report::{moor_cb0}`,
			wantCaptures:  []string{"view"},
		},
		{
			name:          "capture with literal affixes",
			source:        `App\@kind(uc)Controller::show@what(uc)`,
			wantExpr:      `^App\\(?P<moor_cb0>[A-Z][0-9A-Za-z]*)Controller::show(?P<moor_cb1>[A-Z][0-9A-Za-z]*)$`,
			wantFinder:    `App\*Controller::show*`,
			wantShorthand: `App\{moor_cb0}Controller::show{moor_cb1}`,
			wantCaptures:  []string{"kind", "what"},
		},
		{
			name:          "namespace wildcard",
			source:        `*\Invoice::send`,
			wantExpr:      `^(?P<moor_w_namespace>[A-Z][0-9A-Za-z]*(?:\\[A-Z][0-9A-Za-z]*)*)\\Invoice::send$`,
			wantFinder:    `*\Invoice::send`,
			wantShorthand: `*\Invoice::send`,
			wantWildcards: []Role{RoleNamespace},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := Parse(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.source, d.Key())
			assert.Equal(t, tt.wantExpr, d.MatchRegexp().String())
			assert.Equal(t, tt.wantFinder, d.Finder())
			assert.Equal(t, tt.wantShorthand, d.Shorthand())
			assert.Equal(t, len(tt.wantCaptures), len(d.Captures()))
			if len(tt.wantCaptures) > 0 {
				assert.Equal(t, tt.wantCaptures, d.CaptureNames())
			}
			assert.Equal(t, tt.wantWildcards, d.Wildcards())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  string
		wantErr error
	}{
		{"empty", "", ErrInvalidDescriptor},
		{"empty method", "Invoice::", ErrInvalidDescriptor},
		{"empty namespace part", `Billing\\Invoice::send`, ErrInvalidDescriptor},
		{"bad character", "Invoice::se-nd", ErrInvalidDescriptor},
		{"unknown format", `Billing\@action(xx)`, ErrUnknownFormat},
		{"unclosed format", `Billing\@action(uc`, ErrUnbalancedParens},
		{"juxtaposed captures", `Billing\@a(u)@b(uc)`, ErrAmbiguousCaptures},
		{"juxtaposed default captures", `Billing\@a@b`, ErrAmbiguousCaptures},
		{"two namespace wildcards", `*\*\Invoice::send`, ErrAmbiguousCaptures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCaptureGroupsAreReserved(t *testing.T) {
	t.Parallel()

	d := MustParse(`@a(uc)\@b(uc)::@c(lc)`)
	for _, c := range d.Captures() {
		assert.Contains(t, c.Group, CaptureGroupPrefix)
		assert.NotEqual(t, c.Name, c.Group)
	}
	assert.Equal(t, []Role{RoleNamespace, RoleClass, RoleMethod},
		[]Role{d.Captures()[0].Role, d.Captures()[1].Role, d.Captures()[2].Role})
}

func TestDescriptor_LastWildcard(t *testing.T) {
	t.Parallel()

	literal := MustParse(`Billing\Invoice::send`)
	assert.Equal(t, len(literal.Finder())+1, literal.LastWildcard())

	early := MustParse(`*\Invoice::send`)
	late := MustParse(`Billing\Invoice::*`)
	assert.Greater(t, late.LastWildcard(), early.LastWildcard())
	assert.Greater(t, literal.LastWildcard(), late.LastWildcard())
}

func TestDescriptor_Params(t *testing.T) {
	t.Parallel()

	d := MustParse(`*\@kind(uc)::*`)
	assert.Equal(t, []string{"kind", "namespace", "method"}, d.Params())
	assert.True(t, d.Dynamic())
	assert.False(t, MustParse("Home::index").Dynamic())
}
