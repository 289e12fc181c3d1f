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

package cpumap

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

//go:embed data/cpu_map.yaml
var embeddedFS embed.FS

const embeddedPath = "data/cpu_map.yaml"

// EmbeddedSource is the URI of the built-in map.
const EmbeddedSource = "embedded"

// Parse decodes a CPU map document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "empty CPU map document")
		}
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeInvalidRequest, "failed to parse CPU map", err)
	}

	if doc.APIVersion != "" && doc.APIVersion != APIVersion {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeInvalidRequest,
			"unsupported CPU map apiVersion",
			map[string]any{"apiVersion": doc.APIVersion, "supported": APIVersion})
	}
	if doc.Kind != "" && doc.Kind != Kind {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeInvalidRequest,
			"unexpected CPU map kind",
			map[string]any{"kind": doc.Kind, "expected": Kind})
	}

	return &doc, nil
}

// Walk invokes cb for every record of arch in doc, in order.
func (doc *Document) Walk(ctx context.Context, arch string, cb Callback) error {
	for i := range doc.Arches {
		am := &doc.Arches[i]
		if am.Name != arch {
			continue
		}

		for j := range am.Records {
			if err := ctx.Err(); err != nil {
				return cpuerrors.Wrap(cpuerrors.ErrCodeTimeout, "CPU map load cancelled", err)
			}

			rec := &am.Records[j]
			kind, ok := rec.Kind()
			if !ok {
				return cpuerrors.NewWithContext(cpuerrors.ErrCodeInvalidRequest,
					"CPU map record must hold exactly one of vendor, model or feature",
					map[string]any{"arch": arch, "index": j})
			}
			if err := cb(kind, rec); err != nil {
				return err
			}
		}
		return nil
	}

	return cpuerrors.NewWithContext(cpuerrors.ErrCodeNotFound,
		fmt.Sprintf("no CPU map for architecture %s", arch),
		map[string]any{"arch": arch})
}

type bytesSource struct {
	name string
	data []byte
}

// Bytes returns a Source backed by an in-memory document.
func Bytes(name string, data []byte) Source {
	return &bytesSource{name: name, data: data}
}

// Embedded returns the built-in CPU map.
func Embedded() Source {
	data, err := embeddedFS.ReadFile(embeddedPath)
	if err != nil {
		// the file is compiled in; reaching this is a build defect
		panic(fmt.Sprintf("embedded CPU map missing: %v", err))
	}
	return &bytesSource{name: "embedded", data: data}
}

func (s *bytesSource) Load(ctx context.Context, arch string, cb Callback) error {
	doc, err := Parse(s.data)
	if err != nil {
		return err
	}
	return doc.Walk(ctx, arch, cb)
}

func (s *bytesSource) String() string {
	return s.name
}

type fileSource struct {
	path string
}

// File returns a Source reading a CPU map file on every load.
func File(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(ctx context.Context, arch string, cb Callback) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return cpuerrors.WrapWithContext(cpuerrors.ErrCodeInternal,
			"failed to read CPU map", err, map[string]any{"path": s.path})
	}

	slog.Debug("read CPU map file", "path", s.path, "bytes", len(data))

	doc, err := Parse(data)
	if err != nil {
		return err
	}
	return doc.Walk(ctx, arch, cb)
}

func (s *fileSource) String() string {
	return s.path
}

// ParseURI selects a Source for uri:
//   - "" or "embedded": the built-in map
//   - cm://namespace/name[/key]: a Kubernetes ConfigMap
//   - anything else: a file path
func ParseURI(uri, kubeconfig string) (Source, error) {
	trimmed := strings.TrimSpace(uri)
	switch {
	case trimmed == "" || trimmed == EmbeddedSource:
		return Embedded(), nil
	case strings.HasPrefix(trimmed, ConfigMapURIScheme):
		namespace, name, key, err := parseConfigMapURI(trimmed)
		if err != nil {
			return nil, err
		}
		return ConfigMap(namespace, name, key, kubeconfig), nil
	default:
		return File(trimmed), nil
	}
}
