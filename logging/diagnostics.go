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
	"maps"
	"slices"

	"moor.dev/moor/router"
)

// diagnosticLevels maps diagnostic kinds to log levels.
// Kinds not listed are logged at debug.
var diagnosticLevels = map[router.DiagnosticKind]slog.Level{
	router.DiagRoutesCompiled: LevelInfo,
	router.DiagCompileFailed:  LevelError,
	router.DiagCacheError:     LevelWarn,
	router.DiagHighParamCount: LevelWarn,
}

// DiagnosticHandler returns a [router.DiagnosticHandler] writing every event
// to logger. The event kind is logged as "kind" and its fields follow in key
// order.
//
//	log := logging.MustNew(logging.WithConsoleHandler())
//	r := router.MustNew(router.WithDiagnostics(logging.DiagnosticHandler(log.Logger())))
func DiagnosticHandler(logger *slog.Logger) router.DiagnosticHandler {
	if logger == nil {
		logger = router.NoopLogger()
	}

	return router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
		level, ok := diagnosticLevels[e.Kind]
		if !ok {
			level = LevelDebug
		}

		ctx := context.Background()
		if !logger.Enabled(ctx, level) {
			return
		}

		attrs := make([]slog.Attr, 0, len(e.Fields)+1)
		attrs = append(attrs, slog.String("kind", string(e.Kind)))
		for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
			attrs = append(attrs, slog.Any(k, e.Fields[k]))
		}
		logger.LogAttrs(ctx, level, e.Message, attrs...)
	})
}
