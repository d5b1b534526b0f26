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

// Package codec registers the encoders and decoders used to read and write
// route files: YAML, JSON and TOML, plus a decode-only codec for
// environment variables.
//
// Codecs register themselves in init and are looked up by [Type]:
//
//	dec, err := codec.GetDecoder(codec.TypeYAML)
//	var values map[string]any
//	err = dec.Decode(data, &values)
package codec
