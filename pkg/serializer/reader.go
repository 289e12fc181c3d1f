// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package serializer

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// FormatFromPath picks a format from the file extension: .json is JSON,
// .yaml and .yml are YAML. Anything else is treated as YAML, which also
// accepts JSON documents.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		slog.Debug("unknown file extension, reading as YAML", "path", path)
		return FormatYAML
	}
}

// Reader decodes JSON or YAML documents from a stream.
// Close must be called when the Reader was created for a file.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader for input. Table is write-only.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format != FormatJSON && format != FormatYAML {
		return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "format %q cannot be read", format)
	}
	r := &Reader{format: format, input: input}
	if c, ok := input.(io.Closer); ok {
		r.closer = c
	}
	return r, nil
}

// NewFileReader opens path for reading in format.
func NewFileReader(format Format, path string) (*Reader, error) {
	if format != FormatJSON && format != FormatYAML {
		return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "format %q cannot be read", format)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, cpuerrors.WrapWithContext(cpuerrors.ErrCodeNotFound, "failed to open file", err,
			map[string]any{"path": path})
	}
	return &Reader{format: format, input: file, closer: file}, nil
}

// Deserialize decodes one document into v.
func (r *Reader) Deserialize(v any) error {
	if r == nil || r.input == nil {
		return cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "reader has no input")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return cpuerrors.Wrap(cpuerrors.ErrCodeInvalidRequest, "failed to decode JSON", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			return cpuerrors.Wrap(cpuerrors.ErrCodeInvalidRequest, "failed to decode YAML", err)
		}
	default:
		return cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "format %q cannot be read", r.format)
	}
	return nil
}

// Close releases the file behind the Reader. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile reads a T from a file path or a cm://namespace/name URI.
func FromFile[T any](path string) (*T, error) {
	return FromFileWithKubeconfig[T](path, "")
}

// FromFileWithKubeconfig is FromFile with an explicit kubeconfig for
// ConfigMap URIs.
func FromFileWithKubeconfig[T any](path, kubeconfig string) (*T, error) {
	if strings.HasPrefix(path, ConfigMapURIScheme) {
		namespace, name, err := ParseConfigMapURI(path)
		if err != nil {
			return nil, err
		}
		return fromConfigMap[T](namespace, name, kubeconfig)
	}

	r, err := NewFileReader(FormatFromPath(path), path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			slog.Warn("failed to close reader", "error", closeErr, "path", path)
		}
	}()

	var v T
	if err := r.Deserialize(&v); err != nil {
		return nil, cpuerrors.WrapWithContext(cpuerrors.CodeOf(err), "failed to read document", err,
			map[string]any{"path": path})
	}

	slog.Debug("loaded document", "path", path)
	return &v, nil
}
