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

package agent

import (
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
	"github.com/NVIDIA/cpumap/pkg/k8s/client"
)

const (
	// clusterRoleName names the ClusterRole and ClusterRoleBinding that let
	// the agent label nodes.
	clusterRoleName = "cpumap-node-labeler"

	// appName labels every resource the deployer creates.
	appName = "cpumap-agent"

	// DefaultImage runs cpuctl.
	DefaultImage = "ghcr.io/nvidia/cpumap:latest"
)

// Config holds the configuration for deploying the agent.
type Config struct {
	Namespace          string
	ServiceAccountName string
	JobName            string
	Image              string
	ImagePullSecrets   []string

	// NodeName pins the Job to one node. NodeSelector applies otherwise.
	NodeName     string
	NodeSelector map[string]string
	Tolerations  []corev1.Toleration

	// Output is the cm://namespace/name URI the agent writes its report to.
	Output string

	// CPUMap, AllowedModels and LabelNode are passed to "cpuctl host".
	CPUMap        string
	AllowedModels []string
	LabelNode     bool

	LogLevel string
}

// Deployer manages the deployment and lifecycle of the agent Job.
type Deployer struct {
	clientset client.Interface
	config    Config

	// pollInterval paces waiting for Job deletion.
	pollInterval time.Duration
}

// NewDeployer creates a Deployer for config.
func NewDeployer(clientset client.Interface, config Config) *Deployer {
	if config.Image == "" {
		config.Image = DefaultImage
	}
	return &Deployer{
		clientset:    clientset,
		config:       config,
		pollInterval: 500 * time.Millisecond,
	}
}

// CleanupOptions controls what resources to remove during cleanup.
type CleanupOptions struct {
	// Enabled removes the Job.
	Enabled bool
	// RBAC also removes the ServiceAccount, roles and bindings.
	RBAC bool
}

// ParseNodeSelectors parses selectors in key=value form.
func ParseNodeSelectors(selectors []string) (map[string]string, error) {
	result := make(map[string]string, len(selectors))
	for _, s := range selectors {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
				"invalid node selector %q, expected key=value", s)
		}
		result[key] = value
	}
	return result, nil
}

// DefaultTolerations tolerates every taint, so the agent can read any node.
func DefaultTolerations() []corev1.Toleration {
	return []corev1.Toleration{{Operator: corev1.TolerationOpExists}}
}

// ParseTolerations parses tolerations in key=value:effect or key:effect
// form. No tolerations yields DefaultTolerations.
func ParseTolerations(tolerations []string) ([]corev1.Toleration, error) {
	if len(tolerations) == 0 {
		return DefaultTolerations(), nil
	}

	result := make([]corev1.Toleration, 0, len(tolerations))
	for _, t := range tolerations {
		kv, effect, ok := strings.Cut(t, ":")
		if !ok || kv == "" || effect == "" || strings.Contains(effect, ":") {
			return nil, cpuerrors.Newf(cpuerrors.ErrCodeInvalidRequest,
				"invalid toleration %q, expected key=value:effect or key:effect", t)
		}

		tol := corev1.Toleration{Effect: corev1.TaintEffect(effect), Operator: corev1.TolerationOpExists}
		key, value, hasValue := strings.Cut(kv, "=")
		tol.Key = key
		if hasValue && value != "" {
			tol.Operator = corev1.TolerationOpEqual
			tol.Value = value
		}
		result = append(result, tol)
	}
	return result, nil
}
