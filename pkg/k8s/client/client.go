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

package client

import (
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	cpuerrors "github.com/NVIDIA/cpumap/pkg/errors"
)

// Interface is an alias for kubernetes.Interface so tests can pass
// fake.NewSimpleClientset().
type Interface = kubernetes.Interface

var (
	clientOnce   sync.Once
	cachedClient Interface
	cachedConfig *rest.Config
	clientErr    error
)

// GetKubeClient returns a process-wide client built with automatic
// discovery on first call.
func GetKubeClient() (Interface, *rest.Config, error) {
	clientOnce.Do(func() {
		cachedClient, cachedConfig, clientErr = BuildKubeClient("")
	})
	return cachedClient, cachedConfig, clientErr
}

// GetKubeClientWithConfig returns the shared client when kubeconfig is empty
// and a new client for an explicit kubeconfig path.
func GetKubeClientWithConfig(kubeconfig string) (Interface, *rest.Config, error) {
	if kubeconfig == "" {
		return GetKubeClient()
	}
	return BuildKubeClient(kubeconfig)
}

// BuildKubeClient creates a client from kubeconfig. With an empty path the
// standard loading rules apply: KUBECONFIG, then ~/.kube/config, then the
// in-cluster service account.
func BuildKubeClient(kubeconfig string) (Interface, *rest.Config, error) {
	config, err := restConfig(kubeconfig)
	if err != nil {
		return nil, nil, err
	}

	cs, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, cpuerrors.Wrap(cpuerrors.ErrCodeInternal, "failed to create kubernetes client", err)
	}
	return cs, config, nil
}

func restConfig(kubeconfig string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}

	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err == nil {
		return config, nil
	}
	if kubeconfig != "" {
		return nil, cpuerrors.WrapWithContext(cpuerrors.ErrCodeInvalidRequest,
			"failed to build kube config", err, map[string]any{"kubeconfig": kubeconfig})
	}

	inCluster, inErr := rest.InClusterConfig()
	if inErr != nil {
		return nil, cpuerrors.Wrap(cpuerrors.ErrCodeUnavailable, "no kubeconfig found and not running in cluster", inErr)
	}
	return inCluster, nil
}
