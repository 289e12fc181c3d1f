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

// Package k8s groups the Kubernetes integration of cpumap.
//
// # Sub-packages
//
// client: shared Kubernetes client with kubeconfig or in-cluster auth
//
//	clientset, config, err := client.GetKubeClient()
//
// node: CPU model labels on nodes, read back by cluster-wide baselines
//
//	err := node.Label(ctx, clientset, "node-1", def)
//	cpus, err := node.CPUs(nodes, false)
//
// agent: a Job that runs "cpuctl host" on a chosen node
//
//	d := agent.NewDeployer(clientset, cfg)
//	err := d.Deploy(ctx)
//
// CPU maps stored in ConfigMaps are read by the cpumap package, and reports
// are written to ConfigMaps by the serializer package.
package k8s
