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
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/cpumap/pkg/defaults"
	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
)

const (
	// ConfigMapURIScheme prefixes CPU map locations stored in a ConfigMap.
	ConfigMapURIScheme = "cm://"

	// DefaultConfigMapKey is the data key holding the CPU map document.
	DefaultConfigMapKey = "cpu_map.yaml"
)

// ConfigMapSource reads a CPU map document from a Kubernetes ConfigMap.
// The ConfigMap is fetched on every load.
type ConfigMapSource struct {
	namespace  string
	name       string
	key        string
	kubeconfig string

	once      sync.Once
	client    client.Interface
	clientErr error
}

// ConfigMap returns a Source reading key of namespace/name. The Kubernetes
// client is built from kubeconfig on first use.
func ConfigMap(namespace, name, key, kubeconfig string) *ConfigMapSource {
	if key == "" {
		key = DefaultConfigMapKey
	}
	return &ConfigMapSource{
		namespace:  namespace,
		name:       name,
		key:        key,
		kubeconfig: kubeconfig,
	}
}

// NewConfigMapSource returns a Source using an existing client.
func NewConfigMapSource(c client.Interface, namespace, name, key string) *ConfigMapSource {
	s := ConfigMap(namespace, name, key, "")
	s.once.Do(func() { s.client = c })
	return s
}

func (s *ConfigMapSource) kubeClient() (client.Interface, error) {
	s.once.Do(func() {
		s.client, _, s.clientErr = client.GetKubeClientWithConfig(s.kubeconfig)
	})
	return s.client, s.clientErr
}

// Load implements Source.
func (s *ConfigMapSource) Load(ctx context.Context, arch string, cb Callback) error {
	c, err := s.kubeClient()
	if err != nil {
		return cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "failed to get kubernetes client", err)
	}

	readCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapReadTimeout)
	defer cancel()

	cm, err := c.CoreV1().ConfigMaps(s.namespace).Get(readCtx, s.name, metav1.GetOptions{})
	if err != nil {
		return cpuerrors.WrapWithContext(cpuerrors.ErrCodeUnavailable,
			"failed to get CPU map ConfigMap", err,
			map[string]any{"namespace": s.namespace, "name": s.name})
	}

	content, ok := cm.Data[s.key]
	if !ok {
		return cpuerrors.NewWithContext(cpuerrors.ErrCodeNotFound,
			"CPU map key not found in ConfigMap",
			map[string]any{"namespace": s.namespace, "name": s.name, "key": s.key})
	}

	slog.Debug("read CPU map ConfigMap",
		"namespace", s.namespace,
		"name", s.name,
		"key", s.key,
		"resourceVersion", cm.ResourceVersion)

	doc, err := Parse([]byte(content))
	if err != nil {
		return err
	}
	return doc.Walk(ctx, arch, cb)
}

// String implements Source.
func (s *ConfigMapSource) String() string {
	return fmt.Sprintf("%s%s/%s/%s", ConfigMapURIScheme, s.namespace, s.name, s.key)
}

// parseConfigMapURI parses cm://namespace/name or cm://namespace/name/key.
func parseConfigMapURI(uri string) (namespace, name, key string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", "", cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 3)
	if len(parts) < 2 {
		return "", "", "", cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
			"invalid ConfigMap URI format: expected %snamespace/name[/key], got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if len(parts) == 3 {
		key = strings.TrimSpace(parts[2])
	}

	if namespace == "" {
		return "", "", "", cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", "", cpuerrors.New(cpuerrors.ErrCodeInvalidRequest, "invalid ConfigMap URI: name cannot be empty")
	}

	return namespace, name, key, nil
}
