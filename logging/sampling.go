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

package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type sampler struct {
	cfg     SamplingConfig
	counter atomic.Int64
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

func newSampler(cfg SamplingConfig) *sampler {
	s := &sampler{cfg: cfg}
	if cfg.Tick > 0 {
		s.ticker = time.NewTicker(cfg.Tick)
		s.done = make(chan struct{})
		go s.reset()
	}
	return s
}

func (s *sampler) reset() {
	for {
		select {
		case <-s.ticker.C:
			s.counter.Store(0)
		case <-s.done:
			return
		}
	}
}

func (s *sampler) stop() {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
			close(s.done)
		}
	})
}

// allow reports whether a record at level is logged.
func (s *sampler) allow(level slog.Level) bool {
	if level >= slog.LevelError {
		return true
	}

	n := s.counter.Add(1)
	if n <= int64(s.cfg.Initial) || s.cfg.Thereafter == 0 {
		return true
	}
	return (n-int64(s.cfg.Initial))%int64(s.cfg.Thereafter) == 0
}

// sampledHandler drops records the sampler rejects.
type sampledHandler struct {
	next    slog.Handler
	sampler *sampler
}

func (h *sampledHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sampledHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.sampler.allow(r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h *sampledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sampledHandler{next: h.next.WithAttrs(attrs), sampler: h.sampler}
}

func (h *sampledHandler) WithGroup(name string) slog.Handler {
	return &sampledHandler{next: h.next.WithGroup(name), sampler: h.sampler}
}
