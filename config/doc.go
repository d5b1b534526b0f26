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

// Package config loads route files and other configuration from YAML, JSON
// and TOML files, in-memory content, prefixed environment variables and
// Consul KV keys.
//
// Sources are merged in order with later sources overriding earlier ones.
// Keys are case-insensitive. The merged values can be validated against a
// JSON Schema, checked by custom validators and bound to a struct:
//
//	var settings struct {
//	    Prefix string `config:"prefix"`
//	    Trace  bool   `config:"trace"`
//	}
//	cfg := config.MustNew(
//	    config.WithFile("routes.yaml"),
//	    config.WithEnv("MOOR_"),
//	    config.WithBinding(&settings),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Route files
//
// [LoadRouterFile] reads a [RouterFile] validated against
// [RouterFileSchema]. [Options] turns its settings into router options and
// [Apply] registers its routes:
//
//	f, err := config.LoadRouterFile(ctx, config.WithFile("routes.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts, err := config.Options(f, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := router.MustNew(opts...)
//	if err := config.Apply(f, r); err != nil {
//	    log.Fatal(err)
//	}
package config
