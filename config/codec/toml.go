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

package codec

import "github.com/BurntSushi/toml"

// TypeTOML is the TOML codec.
const TypeTOML Type = "toml"

func init() {
	RegisterEncoder(TypeTOML, TOMLCodec{})
	RegisterDecoder(TypeTOML, TOMLCodec{})
}

// TOMLCodec encodes TOML.
type TOMLCodec struct{}

// Encode implements [Encoder].
func (TOMLCodec) Encode(v any) ([]byte, error) {
	return toml.Marshal(v)
}

// Decode implements [Decoder]. Arrays of tables decoded into a
// *map[string]any become []any, as they do with the other codecs.
func (TOMLCodec) Decode(data []byte, v any) error {
	if _, err := toml.Decode(string(data), v); err != nil {
		return err
	}
	if m, ok := v.(*map[string]any); ok {
		normalizeTables(*m)
	}
	return nil
}

func normalizeTables(m map[string]any) {
	for k, v := range m {
		switch tv := v.(type) {
		case map[string]any:
			normalizeTables(tv)
		case []map[string]any:
			items := make([]any, len(tv))
			for i, item := range tv {
				normalizeTables(item)
				items[i] = item
			}
			m[k] = items
		}
	}
}
