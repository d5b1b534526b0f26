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

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moor.dev/moor/config"
)

const testRoutes = `
prefix: /api
routes:
  - pattern: /invoices/:id
    callback: Invoices::show
    name: invoice
  - pattern: /invoices
    methods:
      GET: Invoices::index
      POST: Invoices::create
  - pattern: /:class/:method
    callback: "*::*"
logging:
  level: error
`

func writeRoutes(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// run executes the command line args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append(args, "--env-prefix="))
	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestRoutesCommand(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "routes", "-f", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"ID", "PATTERN", "TARGET", "NAME"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "/api/invoices/:id", "Invoices::show", "invoice"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1", "/api/invoices", "GET=Invoices::index", "POST=Invoices::create"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2", "/api/:class/:method", "*::*"}, strings.Fields(lines[3]))
}

func TestRoutesCommand_Table(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "routes", "-f", path, "--table")
	require.NoError(t, err)

	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "Pattern")
	assert.Contains(t, out, "/api/invoices/:id")
	assert.Contains(t, out, "GET=Invoices::index POST=Invoices::create")
	assert.NotContains(t, out, "\x1b[")

	_, _, err = run(t, "routes", "-f", path, "--table", "--json")
	assert.Error(t, err)
}

func TestRoutesCommand_JSON(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "routes", "-f", path, "--json")
	require.NoError(t, err)

	var infos []struct {
		Pattern  string   `json:"pattern"`
		Params   []string `json:"params"`
		Callback string   `json:"callback"`
		Name     string   `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 3)
	assert.Equal(t, "invoice", infos[0].Name)
	assert.Equal(t, []string{"id"}, infos[0].Params)
	assert.Equal(t, []string{"class", "method"}, infos[2].Params)
}

func TestMatchCommand(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr error
	}{
		{
			name: "named route",
			args: []string{"/api/invoices/7"},
			want: []string{"state:    dispatched", "route:    0 /api/invoices/:id", "callback: Invoices::show", "param:    id=7"},
		},
		{
			name: "method target",
			args: []string{"-X", "post", "/api/invoices"},
			want: []string{"callback: Invoices::create"},
		},
		{
			name: "wildcard callback",
			args: []string{"/api/invoice_line/edit_all"},
			want: []string{"callback: InvoiceLine::editAll", "param:    class=invoice_line"},
		},
		{
			name: "query and known params",
			args: []string{"-p", "lang=fr", "/api/invoices/7?format=pdf"},
			want: []string{"param:    format=pdf", "param:    id=7", "param:    lang=fr"},
		},
		{
			name:    "not found",
			args:    []string{"-X", "DELETE", "/api/invoices"},
			want:    []string{"state:    not_found", "attempts: 1"},
			wantErr: errNoRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, _, err := run(t, append([]string{"match", "-f", path}, tt.args...)...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestMatchCommand_TraceJSON(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "match", "-f", path, "--trace", "--json", "/api/invoice_line/edit_all")
	require.NoError(t, err)

	var got matchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "dispatched", got.State)
	require.NotNil(t, got.RouteID)
	assert.Equal(t, 2, *got.RouteID)
	assert.Equal(t, "/api/:class/:method", got.Pattern)
	assert.Equal(t, "InvoiceLine::editAll", got.Callback)
	assert.NotEmpty(t, got.Trace)
}

func TestLinkCommand(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "link", "-f", path, "invoice", "id=42", "format=pdf")
	require.NoError(t, err)
	assert.Equal(t, "/api/invoices/42?format=pdf\n", out)

	_, _, err = run(t, "link", "-f", path, "invoice", "id")
	require.ErrorIs(t, err, errBadParam)

	_, _, err = run(t, "link", "-f", path)
	require.Error(t, err)
}

func TestCommand_InvalidRouteFile(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", "routes:\n  - pattern: /a\n")

	_, _, err := run(t, "routes", "-f", path)
	require.Error(t, err)

	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "json-schema", cfgErr.Source)

	_, _, err = run(t, "routes", "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDumpCommand(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", testRoutes)

	out, _, err := run(t, "dump", "-f", path, "--format", "json")
	require.NoError(t, err)

	var values map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, "/api", values["prefix"])
	assert.Len(t, values["routes"], 3)

	target := filepath.Join(t.TempDir(), "merged.toml")
	_, _, err = run(t, "dump", "-f", path, "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `prefix = "/api"`)

	_, _, err = run(t, "dump", "-f", path, "--format", "ini")
	require.Error(t, err)
}

func TestDumpCommand_EnvOverride(t *testing.T) {
	t.Setenv("MOORCLI_PREFIX", "/v2")
	t.Setenv("MOORCLI_LOGGING__LEVEL", "warn")

	path := writeRoutes(t, "routes.yaml", testRoutes)

	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout, io.Discard)
	cmd.SetArgs([]string{"dump", "-f", path, "--env-prefix", "MOORCLI_"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "prefix: /v2")
	assert.Contains(t, stdout.String(), "level: warn")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)

	out, _, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestServe(t *testing.T) {
	t.Parallel()

	path := writeRoutes(t, "routes.yaml", strings.Replace(testRoutes, "level: error", "level: info\n  access: true", 1)+`metrics:
  enabled: true
tracing:
  enabled: true
  provider: stdout
`)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, &rootOptions{file: path}, serveFlags{}, cmd)
	}()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/invoices/7", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-7")
	resp, err := client.Do(req)
	require.NoError(t, err)
	var body echoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, echoResponse{
		Route:     "/api/invoices/:id",
		Name:      "invoice",
		Callback:  "Invoices::show",
		Params:    map[string]string{"id": "7"},
		RequestID: "req-7",
	}, body)
	assert.Equal(t, "req-7", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "Accept-Encoding", resp.Header.Get("Vary"))

	resp, err = client.Get(base + "/nowhere")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	scrape, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(scrape), "moor_dispatch")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Contains(t, stderr.String(), `"msg":"access"`)
	assert.Contains(t, stderr.String(), `"request_id":"req-7"`)
	assert.Contains(t, stdout.String(), "GET /api/invoices/:id")
	assert.Contains(t, stdout.String(), base)
	assert.Contains(t, stdout.String(), "[prometheus]")
	assert.Contains(t, stdout.String(), "[stdout]")
	assert.NotContains(t, stdout.String(), "\x1b[")
}

func TestStack_RedisCache(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	path := writeRoutes(t, "routes.yaml", testRoutes+`cache_key: billing
redis:
  addr: `+srv.Addr()+`
  ttl: 1h
`)

	for range 2 {
		out, _, err := run(t, "link", "-f", path, "invoice", "id=1")
		require.NoError(t, err)
		assert.Equal(t, "/api/invoices/1\n", out)
	}

	keys := srv.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "moor:billing:"), keys[0])
	assert.Equal(t, time.Hour, srv.TTL(keys[0]))
}

func TestStack_RedisUnreachable(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	f := &config.RouterFile{
		TrailingSlash: "strict",
		CacheKey:      "billing",
		Logging:       config.LoggingSection{Level: "warn", Format: "json"},
		Redis:         config.RedisSection{Addr: addr, Prefix: "moor:"},
	}

	var stderr bytes.Buffer
	s, err := newStack(context.Background(), f, false, io.Discard, &stderr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.shutdown(context.Background()) })

	assert.Nil(t, s.store)
	assert.Contains(t, stderr.String(), "redis unreachable")
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := parseParams([]string{"id=7", "q=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "7", "q": "a=b", "empty": ""}, params)

	_, err = parseParams([]string{"=x"})
	assert.ErrorIs(t, err, errBadParam)
}
