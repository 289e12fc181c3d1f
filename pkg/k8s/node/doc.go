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

// Package node reads and records node CPU models in a Kubernetes cluster.
//
// Nodes carry their decoded CPU under the keys cpumap.nvidia.com/model and
// cpumap.nvidia.com/vendor. The annotations hold the exact names and the
// labels hold LabelValue of them for selectors:
//
//	annotations:  cpumap.nvidia.com/model: POWER7+
//	labels:       cpumap.nvidia.com/model: POWER7-plus
//
// `cpuctl host --label-node` writes them with Label; `cpuctl baseline
// --nodes` reads them back with List and CPUs to compute a guest CPU every
// selected node can run. A selected node without a model fails the baseline
// unless the caller asks to skip it.
package node
