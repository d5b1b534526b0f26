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

// Package compress encodes HTTP responses with Brotli or gzip, as chosen
// by the client's Accept-Encoding header.
//
// Small bodies are sent as they are: the first bytes of a response are
// held back until [WithMinSize] is reached, and only then is the encoding
// decided.
//
//	handler := compress.New(compress.WithMinSize(512))(r)
package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Content codings.
const (
	Brotli = "br"
	Gzip   = "gzip"
)

// DefaultMinSize is the smallest body that is compressed.
const DefaultMinSize = 1024

// Option configures the middleware.
type Option func(*config)

type config struct {
	brotliLevel  int
	gzipLevel    int
	minSize      int
	brotli       bool
	gzip         bool
	skipTypes    []string
	brotliWriter *sync.Pool
	gzipWriter   *sync.Pool
}

// WithBrotliLevel sets the Brotli quality, clamped to 0-11. Default: 4.
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		cfg.brotliLevel = max(brotli.BestSpeed, min(level, brotli.BestCompression))
	}
}

// WithGzipLevel sets the gzip level, clamped to 1-9. Default: 6.
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		cfg.gzipLevel = max(gzip.BestSpeed, min(level, gzip.BestCompression))
	}
}

// WithMinSize sets the smallest body that is compressed. Zero compresses
// every body. Default: [DefaultMinSize].
func WithMinSize(size int) Option {
	return func(cfg *config) {
		cfg.minSize = max(size, 0)
	}
}

// WithoutBrotli only offers gzip.
func WithoutBrotli() Option {
	return func(cfg *config) {
		cfg.brotli = false
	}
}

// WithoutGzip only offers Brotli.
func WithoutGzip() Option {
	return func(cfg *config) {
		cfg.gzip = false
	}
}

// WithSkipContentTypes leaves responses whose Content-Type starts with one
// of prefixes uncompressed, in addition to already compressed media and
// event streams.
func WithSkipContentTypes(prefixes ...string) Option {
	return func(cfg *config) {
		for _, p := range prefixes {
			cfg.skipTypes = append(cfg.skipTypes, strings.ToLower(p))
		}
	}
}

// New returns the compression middleware.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		brotliLevel: 4,
		gzipLevel:   gzip.DefaultCompression,
		minSize:     DefaultMinSize,
		brotli:      true,
		gzip:        true,
		skipTypes:   []string{"image/", "video/", "audio/", "font/woff", "application/zip", "application/gzip", "text/event-stream"},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.brotliWriter = &sync.Pool{New: func() any {
		return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
	}}
	cfg.gzipWriter = &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		return w
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")

			coding := cfg.negotiate(r.Header.Get("Accept-Encoding"))
			if coding == "" || r.Method == http.MethodHead || r.Header.Get("Range") != "" {
				next.ServeHTTP(w, r)
				return
			}

			cw := &writer{ResponseWriter: w, cfg: cfg, coding: coding, status: http.StatusOK}
			defer cw.close()
			next.ServeHTTP(cw, r)
		})
	}
}

// negotiate picks the coding with the highest q-value. Brotli wins ties.
func (cfg *config) negotiate(accept string) string {
	if accept == "" {
		return ""
	}

	var brQ, gzQ, anyQ float64 = -1, -1, -1
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case Brotli:
			brQ = q
		case Gzip, "x-gzip":
			gzQ = q
		case "*":
			anyQ = q
		}
	}
	if brQ < 0 {
		brQ = anyQ
	}
	if gzQ < 0 {
		gzQ = anyQ
	}
	if !cfg.brotli {
		brQ = 0
	}
	if !cfg.gzip {
		gzQ = 0
	}

	switch {
	case brQ > 0 && brQ >= gzQ:
		return Brotli
	case gzQ > 0:
		return Gzip
	}
	return ""
}

func (cfg *config) skips(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, p := range cfg.skipTypes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// writer holds the body back until the encoding is decided.
type writer struct {
	http.ResponseWriter
	cfg    *config
	coding string

	status      int
	wroteHeader bool // WriteHeader called by the handler
	decided     bool
	enc         io.WriteCloser
	buf         []byte
}

func (w *writer) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	// Informational responses pass straight through.
	if code >= 100 && code < 200 {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.status, w.wroteHeader = code, true
	if !w.compressible() {
		w.passThrough()
	}
}

func (w *writer) Write(p []byte) (int, error) {
	if !w.decided {
		if !w.compressible() {
			w.passThrough()
		} else {
			w.buf = append(w.buf, p...)
			if len(w.buf) < w.cfg.minSize {
				return len(p), nil
			}
			if err := w.startEncoding(); err != nil {
				return 0, err
			}
			return len(p), nil
		}
	}

	if w.enc != nil {
		return w.enc.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

// compressible reports whether the response may still be encoded.
func (w *writer) compressible() bool {
	h := w.Header()
	switch {
	case w.status < 200, w.status == http.StatusNoContent, w.status == http.StatusNotModified,
		w.status == http.StatusPartialContent:
		return false
	case h.Get("Content-Encoding") != "":
		return false
	}
	return !w.cfg.skips(h.Get("Content-Type"))
}

// passThrough sends the headers and buffered bytes without encoding.
func (w *writer) passThrough() {
	w.decided = true
	w.ResponseWriter.WriteHeader(w.status)
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
		w.buf = nil
	}
}

func (w *writer) startEncoding() error {
	w.decided = true

	h := w.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(w.buf))
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", w.coding)
	w.ResponseWriter.WriteHeader(w.status)

	switch w.coding {
	case Brotli:
		bw := w.cfg.brotliWriter.Get().(*brotli.Writer)
		bw.Reset(w.ResponseWriter)
		w.enc = bw
	default:
		gw := w.cfg.gzipWriter.Get().(*gzip.Writer)
		gw.Reset(w.ResponseWriter)
		w.enc = gw
	}

	buf := w.buf
	w.buf = nil
	_, err := w.enc.Write(buf)
	return err
}

// Flush encodes whatever is buffered and flushes it to the client.
func (w *writer) Flush() {
	if !w.decided {
		if w.compressible() && len(w.buf) > 0 {
			_ = w.startEncoding()
		} else {
			w.passThrough()
		}
	}
	if f, ok := w.enc.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *writer) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// close finishes the response: short bodies go out unencoded, encoders
// are flushed and returned to their pool.
func (w *writer) close() {
	if !w.decided {
		if len(w.buf) > 0 || w.wroteHeader {
			w.passThrough()
		}
		return
	}
	if w.enc == nil {
		return
	}

	_ = w.enc.Close()
	switch enc := w.enc.(type) {
	case *brotli.Writer:
		enc.Reset(io.Discard)
		w.cfg.brotliWriter.Put(enc)
	case *gzip.Writer:
		enc.Reset(io.Discard)
		w.cfg.gzipWriter.Put(enc)
	}
	w.enc = nil
}
