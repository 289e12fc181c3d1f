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

// Package client builds Kubernetes clients for the CPU map ConfigMap source
// and the node commands.
//
// GetKubeClient caches one client per process. GetKubeClientWithConfig
// builds a dedicated client for an explicit kubeconfig path:
//
//	c, _, err := client.GetKubeClientWithConfig(kubeconfig)
//	if err != nil {
//	    return err
//	}
//	nodes, err := c.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
//
// Tests should pass k8s.io/client-go/kubernetes/fake clientsets wherever
// an Interface is accepted.
package client
