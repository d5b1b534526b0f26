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

package dumper

import (
	"context"
	"fmt"
	"io"
	"os"

	"moor.dev/moor/config/codec"
)

// DefaultFilePermissions is the mode of files written by [File].
const DefaultFilePermissions os.FileMode = 0o644

// File writes configuration values to a file.
type File struct {
	path        string
	encoder     codec.Encoder
	permissions os.FileMode
}

// NewFile returns a dumper writing to path with [DefaultFilePermissions].
func NewFile(path string, encoder codec.Encoder) *File {
	return &File{path: path, encoder: encoder, permissions: DefaultFilePermissions}
}

// NewFileWithPermissions returns a dumper writing to path with perm.
func NewFileWithPermissions(path string, encoder codec.Encoder, perm os.FileMode) *File {
	return &File{path: path, encoder: encoder, permissions: perm}
}

// Dump implements config.Dumper.
func (f *File) Dump(_ context.Context, values map[string]any) error {
	data, err := f.encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	if err := os.WriteFile(f.path, data, f.permissions); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// Writer writes configuration values to an io.Writer, such as standard
// output.
type Writer struct {
	w       io.Writer
	encoder codec.Encoder
}

// NewWriter returns a dumper writing to w.
func NewWriter(w io.Writer, encoder codec.Encoder) *Writer {
	return &Writer{w: w, encoder: encoder}
}

// Dump implements config.Dumper.
func (d *Writer) Dump(_ context.Context, values map[string]any) error {
	data, err := d.encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	if _, err := d.w.Write(data); err != nil {
		return fmt.Errorf("write values: %w", err)
	}
	return nil
}
