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

package source

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"moor.dev/moor/config/codec"
)

// ConsulKV is the part of the Consul KV API a [Consul] source uses.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a route file stored under one key of the Consul KV store.
type Consul struct {
	kv      ConsulKV
	key     string
	decoder codec.Decoder
}

// NewConsul returns a source for key. A nil kv uses a client configured
// from the CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN environment variables.
func NewConsul(key string, decoder codec.Decoder, kv ConsulKV) (*Consul, error) {
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("consul client: %w", err)
		}
		kv = client.KV()
	}
	return &Consul{kv: kv, key: key, decoder: decoder}, nil
}

// Load implements config.Source. A missing key loads nothing.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", c.key, err)
	}
	if pair == nil {
		return map[string]any{}, nil
	}

	var values map[string]any
	if err := c.decoder.Decode(pair.Value, &values); err != nil {
		return nil, fmt.Errorf("decode consul key %s: %w", c.key, err)
	}
	return values, nil
}

// String names the source in errors.
func (c *Consul) String() string {
	return "consul:" + c.key
}
