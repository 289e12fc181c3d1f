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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// Format represents the output format type.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTable:
		return false
	default:
		return true
	}
}

// SupportedFormats lists the output formats.
func SupportedFormats() []string {
	return []string{string(FormatJSON), string(FormatYAML), string(FormatTable)}
}

func orDefault(format Format) Format {
	if format.IsUnknown() {
		slog.Warn("unknown format, defaulting to JSON", "format", format)
		return FormatJSON
	}
	return format
}

// Writer serializes documents to a stream.
// Close must be called when the Writer was created for a file.
type Writer struct {
	format Format
	output io.Writer
	closer io.Closer
}

// NewWriter creates a Writer for output, or stdout when output is nil.
// Unknown formats fall back to JSON.
func NewWriter(format Format, output io.Writer) *Writer {
	if output == nil {
		output = os.Stdout
	}
	return &Writer{format: orDefault(format), output: output}
}

// NewStdoutWriter creates a Writer for stdout.
func NewStdoutWriter(format Format) *Writer {
	return NewWriter(format, nil)
}

// NewFileWriterOrStdout returns a Serializer for path: stdout when path is
// empty, a ConfigMap for cm://namespace/name, a file otherwise. A path
// that cannot be opened falls back to stdout.
func NewFileWriterOrStdout(format Format, path string) Serializer {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewStdoutWriter(format)
	}

	if strings.HasPrefix(trimmed, ConfigMapURIScheme) {
		namespace, name, err := ParseConfigMapURI(trimmed)
		if err != nil {
			slog.Error("invalid ConfigMap URI, falling back to stdout", "error", err, "uri", trimmed)
			return NewStdoutWriter(format)
		}
		return NewConfigMapWriter(namespace, name, format)
	}

	file, err := os.Create(trimmed)
	if err != nil {
		slog.Error("failed to create output file", "error", err, "path", trimmed)
		return NewStdoutWriter(format)
	}

	return &Writer{format: orDefault(format), output: file, closer: file}
}

// Close releases the file behind the Writer, if any.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// Serialize writes v in the Writer's format.
func (w *Writer) Serialize(_ context.Context, v any) error {
	content, err := encode(w.format, v)
	if err != nil {
		return err
	}
	if _, err := w.output.Write(content); err != nil {
		return cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to write output", err)
	}
	return nil
}

// encode renders v in format.
func encode(format Format, v any) ([]byte, error) {
	switch format {
	case FormatJSON:
		content, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to serialize to JSON", err)
		}
		return append(content, '\n'), nil
	case FormatYAML:
		var b strings.Builder
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to serialize to YAML", err)
		}
		if err := enc.Close(); err != nil {
			return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to serialize to YAML", err)
		}
		return []byte(b.String()), nil
	case FormatTable:
		return encodeTable(v)
	default:
		return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest, "unsupported format: %s", format)
	}
}

// encodeTable renders v as FIELD/VALUE rows. Field names follow the JSON
// form of v, so custom marshalers and tags apply.
func encodeTable(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to serialize table", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to serialize table", err)
	}

	rows := make(map[string]string)
	flatten(rows, "", generic)
	if len(rows) == 0 {
		return []byte("<empty>\n"), nil
	}

	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tVALUE")
	fmt.Fprintln(tw, "-----\t-----")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, rows[k])
	}
	if err := tw.Flush(); err != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to flush table", err)
	}
	return []byte(b.String()), nil
}

func flatten(rows map[string]string, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			flatten(rows, joinKey(prefix, k), item)
		}
	case []any:
		for i, item := range val {
			flatten(rows, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case nil:
		if prefix != "" {
			rows[prefix] = "<nil>"
		}
	default:
		if prefix == "" {
			prefix = "value"
		}
		rows[prefix] = fmt.Sprint(val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
