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

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Format{
		"":   FormatUnderscore,
		"u":  FormatUnderscore,
		"lc": FormatLowerCamel,
		"uc": FormatUpperCamel,
	} {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("UC")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormat_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		in     string
		want   string
	}{
		{FormatUpperCamel, "report", "Report"},
		{FormatUpperCamel, "report_list", "ReportList"},
		{FormatLowerCamel, "report_list", "reportList"},
		{FormatLowerCamel, "Report", "report"},
		{FormatUnderscore, "ReportList", "report_list"},
		{FormatUnderscore, "report_list", "report_list"},
		{FormatUnderscore, "HTMLPage", "html_page"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.format.Apply(tt.in), "%s(%q)", tt.format, tt.in)
	}
}

func TestFormat_URLRoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"report", "report_list", "a1_b2"} {
		for _, f := range []Format{FormatUnderscore, FormatLowerCamel, FormatUpperCamel} {
			assert.Equal(t, v, f.URL(f.Apply(v)), "%s %q", f, v)
		}
	}
}
