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
	"fmt"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"

	"github.com/NVIDIA/cpumap/pkg/defaults"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/header"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme prefixes output and input locations stored in a
	// Kubernetes ConfigMap: cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	// configMapDocumentKey is the data key prefix of the document; the
	// format extension is appended.
	configMapDocumentKey = "document"

	fieldManager = "cpuctl"
)

// ConfigMapWriter writes documents to a ConfigMap using server-side apply,
// creating it when missing.
type ConfigMapWriter struct {
	namespace string
	name      string
	format    Format
	client    client.Interface
}

// NewConfigMapWriter creates a ConfigMapWriter using the default client.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{namespace: namespace, name: name, format: orDefault(format)}
}

// NewConfigMapWriterWithClient creates a ConfigMapWriter using c.
func NewConfigMapWriterWithClient(c client.Interface, namespace, name string, format Format) *ConfigMapWriter {
	w := NewConfigMapWriter(namespace, name, format)
	w.client = c
	return w
}

// Serialize stores v under document.<ext> together with its format, kind
// and timestamp. Documents embedding a header.Header contribute their kind
// and version to the ConfigMap labels.
func (w *ConfigMapWriter) Serialize(ctx context.Context, v any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	c := w.client
	if c == nil {
		var err error
		c, _, err = client.GetKubeClient()
		if err != nil {
			return cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
		}
	}

	content, err := encode(w.format, v)
	if err != nil {
		return err
	}

	kind, version, timestamp := "unknown", "unknown", time.Now().UTC().Format(time.RFC3339)
	if doc, ok := v.(interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	}); ok {
		if k := doc.GetKind(); k != "" {
			kind = k.String()
		}
		md := doc.GetMetadata()
		if s := md[header.MetadataVersion]; s != "" {
			version = s
		}
		if s := md[header.MetadataTimestamp]; s != "" {
			timestamp = s
		}
	}

	cm := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      "cpumap",
			"app.kubernetes.io/component": kind,
			"app.kubernetes.io/version":   version,
		}).
		WithData(map[string]string{
			documentKey(w.format): string(content),
			"format":              string(w.format),
			"kind":                kind,
			"timestamp":           timestamp,
		})

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"kind", kind,
		"format", w.format)

	_, err = c.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, cm,
		metav1.ApplyOptions{FieldManager: fieldManager, Force: true})
	if err != nil {
		return cpuerrors.WrapWithContext(cpuerrors.ErrCodeUnavailable, "failed to apply ConfigMap", err,
			map[string]any{"namespace": w.namespace, "name": w.name})
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

func documentKey(format Format) string {
	ext := string(format)
	if format == FormatTable {
		ext = "txt"
	}
	return fmt.Sprintf("%s.%s", configMapDocumentKey, ext)
}

// fromConfigMap reads a document written by ConfigMapWriter.
func fromConfigMap[T any](namespace, name, kubeconfig string) (*T, error) {
	c, _, err := client.GetKubeClientWithConfig(kubeconfig)
	if err != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
	}
	return FromConfigMap[T](context.Background(), c, namespace, name)
}

// FromConfigMap reads a document written by ConfigMapWriter using c.
func FromConfigMap[T any](ctx context.Context, c client.Interface, namespace, name string) (*T, error) {
	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := c.CoreV1().ConfigMaps(namespace).Get(readCtx, name, metav1.GetOptions{})
	if err != nil {
		return nil, cpuerrors.WrapWithContext(cpuerrors.ErrCodeNotFound, "failed to get ConfigMap", err,
			map[string]any{"namespace": namespace, "name": name})
	}

	format := FormatYAML
	if f := Format(cm.Data["format"]); f == FormatJSON || f == FormatYAML {
		format = f
	}

	content, ok := cm.Data[documentKey(format)]
	if !ok {
		return nil, cpuerrors.NewWithContext(cpuerrors.ErrCodeNotFound, "ConfigMap holds no readable document",
			map[string]any{"namespace": namespace, "name": name})
	}

	r, err := NewReader(format, strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	var v T
	if err := r.Deserialize(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseConfigMapURI parses cm://namespace/name.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	namespace, name, ok := strings.Cut(strings.TrimPrefix(uri, ConfigMapURIScheme), "/")
	namespace, name = strings.TrimSpace(namespace), strings.TrimSpace(name)
	if !ok || namespace == "" || name == "" || strings.Contains(name, "/") {
		return "", "", cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"invalid ConfigMap URI: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}
	return namespace, name, nil
}
