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

package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledger = strings.Repeat(`{"invoice":42,"lines":["consulting","hosting"]}`, 64)

func bodyHandler(contentType, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = io.WriteString(w, body)
	})
}

func do(t *testing.T, h http.Handler, method, accept string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, "/invoices/42", nil)
	if accept != "" {
		req.Header.Set("Accept-Encoding", accept)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, coding string, body io.Reader) string {
	t.Helper()

	var r io.Reader
	switch coding {
	case Brotli:
		r = brotli.NewReader(body)
	case Gzip:
		gr, err := gzip.NewReader(body)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	default:
		r = body
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestNew_Encodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		accept string
		want   string
	}{
		{name: "brotli preferred", accept: "gzip, deflate, br", want: Brotli},
		{name: "gzip only", accept: "gzip", want: Gzip},
		{name: "brotli refused", accept: "br;q=0, gzip", want: Gzip},
		{name: "gzip weighted higher", accept: "br;q=0.5, gzip;q=0.8", want: Gzip},
		{name: "wildcard", accept: "*", want: Brotli},
		{name: "nothing acceptable", accept: "identity", want: ""},
		{name: "no header", accept: "", want: ""},
	}

	h := New()(bodyHandler("application/json", ledger))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := do(t, h, http.MethodGet, tt.accept)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Content-Encoding"))
			assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, ledger, decode(t, tt.want, w.Body))
		})
	}
}

func TestNew_LeavesResponsesAlone(t *testing.T) {
	t.Parallel()

	preEncoded := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = io.WriteString(w, ledger)
	})
	noContent := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		handler  http.Handler
		method   string
		wantCode int
		wantBody string
		wantEnc  string
	}{
		{name: "below minimum size", handler: bodyHandler("application/json", `{"id":42}`), wantCode: 200, wantBody: `{"id":42}`},
		{name: "image", handler: bodyHandler("image/png", ledger), wantCode: 200, wantBody: ledger},
		{name: "already encoded", handler: preEncoded, wantCode: 200, wantBody: ledger, wantEnc: "gzip"},
		{name: "no content", handler: noContent, wantCode: 204},
		{name: "head", handler: bodyHandler("application/json", ledger), method: http.MethodHead, wantCode: 200, wantBody: ledger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			w := do(t, New()(tt.handler), method, "br, gzip")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantEnc, w.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestNew_MinSizeAcrossWrites(t *testing.T) {
	t.Parallel()

	h := New(WithMinSize(100))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		for range 10 {
			_, _ = io.WriteString(w, "0123456789abcdef")
		}
	}))

	w := do(t, h, http.MethodPost, "gzip")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, Gzip, w.Header().Get("Content-Encoding"))
	assert.Empty(t, w.Header().Get("Content-Length"))
	assert.Equal(t, strings.Repeat("0123456789abcdef", 10), decode(t, Gzip, w.Body))
}

func TestNew_SniffsContentType(t *testing.T) {
	t.Parallel()

	w := do(t, New(WithMinSize(0))(bodyHandler("", "<html><body>invoice</body></html>")), http.MethodGet, "br")
	assert.Equal(t, Brotli, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<html><body>invoice</body></html>", decode(t, Brotli, w.Body))
}

func TestNew_Flush(t *testing.T) {
	t.Parallel()

	h := New()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "first chunk")
		require.NoError(t, http.NewResponseController(w).Flush())
		_, _ = io.WriteString(w, ", second chunk")
	}))

	w := do(t, h, http.MethodGet, "gzip")
	assert.True(t, w.Flushed)
	assert.Equal(t, Gzip, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "first chunk, second chunk", decode(t, Gzip, w.Body))
}

func TestNegotiate_Disabled(t *testing.T) {
	t.Parallel()

	cfg := &config{brotli: false, gzip: true}
	assert.Equal(t, Gzip, cfg.negotiate("br, gzip"))

	cfg = &config{brotli: true, gzip: false}
	assert.Equal(t, Brotli, cfg.negotiate("br;q=0.1, gzip"))
	assert.Empty(t, cfg.negotiate("gzip"))
	assert.Empty(t, cfg.negotiate("br;q=bogus"))
}
